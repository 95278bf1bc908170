package events

import (
	"context"
	"fmt"
	"sync"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"go.uber.org/zap"
)

const (
	defaultGroupCapacity    = 256
	defaultGroupDispatchers = 4
)

var _ Bus = (*InProcBus)(nil)

// InProcBus is the single-process Bus used by standalone mode and tests.
// Every subscriber group owns a buffered channel drained by a small pool of
// dispatch goroutines. Publish enqueues to each subscribed group and falls
// back to a blocking send when a group lags, so nothing is dropped in
// process.
type InProcBus struct {
	mu     sync.RWMutex
	groups map[string]*inprocGroup   // group name -> group
	topics map[string][]*inprocGroup // topic -> subscribed groups
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	capacity    int
	dispatchers int
}

type inprocGroup struct {
	name string
	ch   chan cloudevents.Event
	h    Handler
}

type InProcOption func(*InProcBus)

// WithGroupCapacity overrides the buffered channel size per subscriber group.
func WithGroupCapacity(n int) InProcOption {
	return func(b *InProcBus) {
		if n > 0 {
			b.capacity = n
		}
	}
}

// WithGroupDispatchers overrides the number of dispatch goroutines per group.
func WithGroupDispatchers(n int) InProcOption {
	return func(b *InProcBus) {
		if n > 0 {
			b.dispatchers = n
		}
	}
}

func NewInProcBus(opts ...InProcOption) *InProcBus {
	ctx, cancel := context.WithCancel(context.Background())
	b := &InProcBus{
		groups:      map[string]*inprocGroup{},
		topics:      map[string][]*inprocGroup{},
		ctx:         ctx,
		cancel:      cancel,
		capacity:    defaultGroupCapacity,
		dispatchers: defaultGroupDispatchers,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

func (b *InProcBus) Subscribe(group string, topics []string, h Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("bus is closed")
	}
	if _, ok := b.groups[group]; ok {
		return fmt.Errorf("group %q is already subscribed", group)
	}

	g := &inprocGroup{
		name: group,
		ch:   make(chan cloudevents.Event, b.capacity),
		h:    h,
	}
	b.groups[group] = g
	for _, topic := range topics {
		b.topics[topic] = append(b.topics[topic], g)
	}

	for i := 0; i < b.dispatchers; i++ {
		b.wg.Add(1)
		go b.dispatch(g)
	}

	return nil
}

func (b *InProcBus) dispatch(g *inprocGroup) {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case e := <-g.ch:
			g.h(b.ctx, e)
		}
	}
}

func (b *InProcBus) Publish(ctx context.Context, topic string, e cloudevents.Event) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("bus is closed")
	}
	subs := make([]*inprocGroup, len(b.topics[topic]))
	copy(subs, b.topics[topic])
	b.mu.RUnlock()

	if len(subs) == 0 {
		zap.S().Named("bus").Debugw("no subscriber for topic", "topic", topic, "type", e.Type())
		return nil
	}

	for _, g := range subs {
		select {
		case g.ch <- e:
		default:
			// group is lagging, block rather than drop
			select {
			case g.ch <- e:
			case <-ctx.Done():
				return ctx.Err()
			case <-b.ctx.Done():
				return fmt.Errorf("bus is closed")
			}
		}
	}
	return nil
}

func (b *InProcBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	b.wg.Wait()

	zap.S().Named("bus").Info("in-process bus closed")
	return nil
}
