package events

import (
	"context"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// Handler processes one delivered event. Delivery is at least once, so
// handlers must be idempotent.
type Handler func(ctx context.Context, e cloudevents.Event)

// Bus is the publish/subscribe transport between the coordinator and the
// worker agents. Publish returns once the event is accepted by the transport;
// it never waits for subscriber processing. Subscribe registers a consumer
// group on a set of topics and delivers each accepted event to one member of
// the group.
type Bus interface {
	Publish(ctx context.Context, topic string, e cloudevents.Event) error
	Subscribe(group string, topics []string, h Handler) error
	Close() error
}
