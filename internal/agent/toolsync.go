package agent

import (
	"context"
	"fmt"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/talentflow/sourcing-engine/internal/events"
	"github.com/talentflow/sourcing-engine/pkg/metrics"
	"go.uber.org/zap"
)

// SyncClient pushes one interview result into the external tracking system
// and returns the record reference it created there.
type SyncClient interface {
	System() string
	Push(ctx context.Context, t events.ToolSyncTrigger) (externalRef string, err error)
}

// ToolSync mirrors finished interviews into the ATS.
type ToolSync struct {
	client  SyncClient
	emitter Emitter
}

func NewToolSync(client SyncClient, emitter Emitter) *ToolSync {
	return &ToolSync{client: client, emitter: emitter}
}

func (t *ToolSync) Name() string { return WorkerToolSync }

func (t *ToolSync) Topics() []string { return []string{events.TopicToolEvents} }

func (t *ToolSync) Ping(ctx context.Context) error {
	return pingCollaborators(ctx, t.client)
}

func (t *ToolSync) Handle(ctx context.Context, e cloudevents.Event) error {
	if events.ParseMessageType(e.Type()) != events.MessageTypeToolSyncTrigger {
		return nil
	}

	var trigger events.ToolSyncTrigger
	if err := e.DataAs(&trigger); err != nil {
		return fmt.Errorf("failed to decode tool sync trigger: %w", err)
	}

	pipelineID, err := events.CorrelationID(e)
	if err != nil {
		return err
	}

	ref, err := t.client.Push(ctx, trigger)
	if err != nil {
		metrics.IncreaseCollaboratorCallsTotalMetric(t.Name(), "error")
		return NewCollaboratorError("push to tracking system", err)
	}
	metrics.IncreaseCollaboratorCallsTotalMetric(t.Name(), "success")

	synced, err := events.NewEnvelope(t.Name(), events.MessageTypeToolSynced, events.PriorityMedium, pipelineID, events.ToolSynced{
		CandidateID: trigger.CandidateID,
		System:      t.client.System(),
		ExternalRef: ref,
	})
	if err != nil {
		return err
	}
	t.emitter.Emit(events.TopicToolEvents, synced)

	zap.S().Named(t.Name()).Infow("interview result synced",
		"pipeline_id", pipelineID, "candidate_id", trigger.CandidateID,
		"system", t.client.System(), "external_ref", ref)
	return nil
}
