package agent

import (
	"context"
	"fmt"
	"sync"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"github.com/talentflow/sourcing-engine/internal/events"
	"github.com/talentflow/sourcing-engine/pkg/metrics"
	"go.uber.org/zap"
)

// Assessor is the scoring collaborator boundary. One call per candidate;
// batching, if ever wanted, belongs behind this interface.
type Assessor interface {
	Assess(ctx context.Context, candidate events.CandidateProfile, jobDescription string) (events.ScoreCard, error)
}

// Scorer turns every discovered candidate into exactly one score record:
// the collaborator assessment merged with the local bias rule check. It
// learns each pipeline's job description from the scan trigger it observes
// on the scanning topic.
type Scorer struct {
	assessor Assessor
	emitter  Emitter

	mu    sync.Mutex
	roles map[uuid.UUID]string
}

func NewScorer(assessor Assessor, emitter Emitter) *Scorer {
	return &Scorer{
		assessor: assessor,
		emitter:  emitter,
		roles:    map[uuid.UUID]string{},
	}
}

func (s *Scorer) Name() string { return WorkerScorer }

func (s *Scorer) Topics() []string {
	return []string{events.TopicAgentScanning, events.TopicCandidateEvents, events.TopicAgentQuality}
}

func (s *Scorer) Ping(ctx context.Context) error {
	return pingCollaborators(ctx, s.assessor)
}

func (s *Scorer) Handle(ctx context.Context, e cloudevents.Event) error {
	switch events.ParseMessageType(e.Type()) {
	case events.MessageTypeScanTrigger:
		return s.onScanTrigger(e)
	case events.MessageTypeCandidateFound:
		return s.onCandidateFound(ctx, e)
	default:
		return nil
	}
}

func (s *Scorer) onScanTrigger(e cloudevents.Event) error {
	var trigger events.ScanTrigger
	if err := e.DataAs(&trigger); err != nil {
		return fmt.Errorf("failed to decode scan trigger: %w", err)
	}

	s.mu.Lock()
	s.roles[trigger.PipelineID] = trigger.JobDescription
	s.mu.Unlock()
	return nil
}

func (s *Scorer) onCandidateFound(ctx context.Context, e cloudevents.Event) error {
	var found events.CandidateFound
	if err := e.DataAs(&found); err != nil {
		return fmt.Errorf("failed to decode candidate found: %w", err)
	}

	pipelineID, err := events.CorrelationID(e)
	if err != nil {
		return err
	}

	card, err := s.assessor.Assess(ctx, found.Candidate, s.roleFor(pipelineID))
	if err != nil {
		metrics.IncreaseCollaboratorCallsTotalMetric(s.Name(), "error")
		return NewCollaboratorError("assess candidate", err)
	}
	metrics.IncreaseCollaboratorCallsTotalMetric(s.Name(), "success")

	card.BiasFlags = CheckBias(found.Candidate)

	scored, err := events.NewEnvelope(s.Name(), events.MessageTypeCandidateScored, events.PriorityMedium, pipelineID, events.CandidateScored{
		CandidateID: found.Candidate.ID,
		Candidate:   found.Candidate,
		Score:       card,
	})
	if err != nil {
		return err
	}
	s.emitter.Emit(events.TopicCandidateEvents, scored)

	zap.S().Named(s.Name()).Infow("candidate scored",
		"pipeline_id", pipelineID, "candidate_id", found.Candidate.ID,
		"overall", card.Overall, "recommendation", card.Recommendation, "bias_flags", card.BiasFlags)
	return nil
}

// roleFor returns the job description observed for the pipeline. An empty
// string is possible when discovery outran the scan trigger on this group;
// the assessor then scores the profile on its own merits.
func (s *Scorer) roleFor(pipelineID uuid.UUID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roles[pipelineID]
}
