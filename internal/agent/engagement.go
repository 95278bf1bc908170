package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"github.com/talentflow/sourcing-engine/internal/events"
	"github.com/talentflow/sourcing-engine/pkg/metrics"
	"go.uber.org/zap"
)

// Drafter writes the personalized outreach message.
type Drafter interface {
	Draft(ctx context.Context, candidate events.CandidateProfile, role string) (string, error)
}

// Outreach is one message handed to the transport for delivery.
type Outreach struct {
	CandidateID uuid.UUID
	Contact     string
	Message     string
}

// Response is a candidate reply arriving on the transport's feed.
type Response struct {
	CandidateID uuid.UUID
	Response    string
	ReceivedAt  time.Time
}

// Transport delivers outreach and surfaces candidate replies. Receiving
// replies is the transport's boundary; the adapter only forwards them.
type Transport interface {
	Deliver(ctx context.Context, o Outreach) (channel string, err error)
	Responses() <-chan Response
}

// Engagement drafts and delivers first contact, then pumps transport
// responses back onto the bus. It remembers which pipeline each contacted
// candidate belongs to so replies can carry the right correlation id.
type Engagement struct {
	drafter   Drafter
	transport Transport
	emitter   Emitter

	mu        sync.Mutex
	pipelines map[uuid.UUID]uuid.UUID
}

func NewEngagement(drafter Drafter, transport Transport, emitter Emitter) *Engagement {
	return &Engagement{
		drafter:   drafter,
		transport: transport,
		emitter:   emitter,
		pipelines: map[uuid.UUID]uuid.UUID{},
	}
}

func (g *Engagement) Name() string { return WorkerEngagement }

func (g *Engagement) Topics() []string { return []string{events.TopicAgentEngagement} }

func (g *Engagement) Ping(ctx context.Context) error {
	return pingCollaborators(ctx, g.drafter, g.transport)
}

func (g *Engagement) Handle(ctx context.Context, e cloudevents.Event) error {
	if events.ParseMessageType(e.Type()) != events.MessageTypeEngagementTrigger {
		return nil
	}

	var trigger events.EngagementTrigger
	if err := e.DataAs(&trigger); err != nil {
		return fmt.Errorf("failed to decode engagement trigger: %w", err)
	}

	pipelineID, err := events.CorrelationID(e)
	if err != nil {
		return err
	}

	message, err := g.drafter.Draft(ctx, trigger.Candidate, trigger.Role)
	if err != nil {
		metrics.IncreaseCollaboratorCallsTotalMetric(g.Name(), "error")
		return NewCollaboratorError("draft outreach", err)
	}
	metrics.IncreaseCollaboratorCallsTotalMetric(g.Name(), "success")

	channel, err := g.transport.Deliver(ctx, Outreach{
		CandidateID: trigger.CandidateID,
		Contact:     trigger.Candidate.Contact,
		Message:     message,
	})
	if err != nil {
		metrics.IncreaseCollaboratorCallsTotalMetric(g.Name(), "error")
		return NewCollaboratorError("deliver outreach", err)
	}
	metrics.IncreaseCollaboratorCallsTotalMetric(g.Name(), "success")

	g.mu.Lock()
	g.pipelines[trigger.CandidateID] = pipelineID
	g.mu.Unlock()

	sent, err := events.NewEnvelope(g.Name(), events.MessageTypeOutreachSent, events.PriorityMedium, pipelineID, events.OutreachSent{
		CandidateID: trigger.CandidateID,
		Channel:     channel,
		Message:     message,
		SentAt:      time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	g.emitter.Emit(events.TopicEngagementEvents, sent)

	zap.S().Named(g.Name()).Infow("outreach sent",
		"pipeline_id", pipelineID, "candidate_id", trigger.CandidateID, "channel", channel)
	return nil
}

// Run pumps the transport response feed onto the bus until the context ends.
func (g *Engagement) Run(ctx context.Context) error {
	logger := zap.S().Named(g.Name())
	for {
		select {
		case <-ctx.Done():
			return nil
		case r := <-g.transport.Responses():
			pipelineID, ok := g.takePipeline(r.CandidateID)
			if !ok {
				logger.Warnw("response for unknown candidate, dropping", "candidate_id", r.CandidateID)
				continue
			}

			response, err := events.NewEnvelope(g.Name(), events.MessageTypeOutreachResponse, events.PriorityMedium, pipelineID, events.OutreachResponse{
				CandidateID: r.CandidateID,
				Response:    r.Response,
				RespondedAt: r.ReceivedAt,
			})
			if err != nil {
				logger.Errorw("failed to build outreach response event", "candidate_id", r.CandidateID, "error", err)
				continue
			}
			g.emitter.Emit(events.TopicEngagementEvents, response)

			logger.Infow("response forwarded",
				"pipeline_id", pipelineID, "candidate_id", r.CandidateID, "response", r.Response)
		}
	}
}

func (g *Engagement) takePipeline(candidateID uuid.UUID) (uuid.UUID, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	pipelineID, ok := g.pipelines[candidateID]
	if ok {
		delete(g.pipelines, candidateID)
	}
	return pipelineID, ok
}
