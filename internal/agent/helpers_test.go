package agent

import (
	"sync"
	"testing"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"github.com/talentflow/sourcing-engine/internal/events"
)

type recordedEvent struct {
	Topic string
	Event cloudevents.Event
}

type recordingEmitter struct {
	mu       sync.Mutex
	recorded []recordedEvent
}

func (r *recordingEmitter) Emit(topic string, e cloudevents.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorded = append(r.recorded, recordedEvent{Topic: topic, Event: e})
}

func (r *recordingEmitter) ofType(t events.MessageType) []recordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recordedEvent
	for _, rec := range r.recorded {
		if events.ParseMessageType(rec.Event.Type()) == t {
			out = append(out, rec)
		}
	}
	return out
}

func (r *recordingEmitter) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.recorded)
}

func newTestEvent(t *testing.T, msgType events.MessageType, pipelineID uuid.UUID, payload any) cloudevents.Event {
	t.Helper()
	e, err := events.NewEnvelope("test", msgType, events.PriorityMedium, pipelineID, payload)
	if err != nil {
		t.Fatalf("failed to build test event: %v", err)
	}
	return e
}
