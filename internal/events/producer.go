package events

import (
	"context"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/talentflow/sourcing-engine/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	defaultMaxAttempts  = 3
	defaultRetryBackoff = 500 * time.Millisecond
)

// Producer is a buffered, non-blocking emitter in front of a Bus. Emit
// enqueues and returns immediately; a single drain goroutine publishes in
// order. A failed publish is re-enqueued with exponential backoff up to the
// attempt cap, then dropped with a log line. Callers that need a delivery
// guarantee stronger than that must not use the producer.
type Producer struct {
	buffer    *buffer
	wakeCh    chan any
	doneCh    chan any
	stoppedCh chan any
	closeOnce sync.Once
	bus       Bus

	maxAttempts  int
	retryBackoff time.Duration
}

type ProducerOption func(p *Producer)

// WithMaxAttempts caps how often a failed publish is retried.
func WithMaxAttempts(n int) ProducerOption {
	return func(p *Producer) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithRetryBackoff sets the base delay before a failed publish is retried.
// The delay doubles with every attempt.
func WithRetryBackoff(d time.Duration) ProducerOption {
	return func(p *Producer) {
		if d > 0 {
			p.retryBackoff = d
		}
	}
}

func NewProducer(bus Bus, opts ...ProducerOption) *Producer {
	p := &Producer{
		buffer:       newBuffer(),
		wakeCh:       make(chan any, 1),
		doneCh:       make(chan any),
		stoppedCh:    make(chan any),
		bus:          bus,
		maxAttempts:  defaultMaxAttempts,
		retryBackoff: defaultRetryBackoff,
	}

	for _, o := range opts {
		o(p)
	}

	go p.run()
	return p
}

// Emit queues the event for publication on topic and returns immediately.
func (p *Producer) Emit(topic string, e cloudevents.Event) {
	p.buffer.PushBack(&message{
		Topic: topic,
		Event: e,
	})

	select {
	case p.wakeCh <- struct{}{}:
	default:
	}
}

func (p *Producer) Close() error {
	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	g, ctx := errgroup.WithContext(closeCtx)
	g.Go(func() error {
		p.closeOnce.Do(func() { close(p.doneCh) })
		<-p.stoppedCh

		// flush whatever is still buffered
		for msg := p.buffer.Pop(); msg != nil; msg = p.buffer.Pop() {
			if err := p.bus.Publish(ctx, msg.Topic, msg.Event); err != nil {
				return err
			}
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		zap.S().Named("producer").Errorf("event producer closed with error: %s", err)
		return err
	}

	zap.S().Named("producer").Info("event producer closed")
	return nil
}

func (p *Producer) run() {
	defer close(p.stoppedCh)

	for {
		select {
		case <-p.doneCh:
			return
		default:
		}

		msg := p.buffer.Pop()
		if msg == nil {
			select {
			case <-p.wakeCh:
			case <-p.doneCh:
				return
			}
			continue
		}

		if err := p.bus.Publish(context.TODO(), msg.Topic, msg.Event); err != nil {
			msg.Attempts++
			if msg.Attempts >= p.maxAttempts {
				zap.S().Named("producer").Errorw("dropping event after retries",
					"topic", msg.Topic, "type", msg.Event.Type(), "attempts", msg.Attempts, "error", err)
				continue
			}

			backoff := p.retryBackoff << (msg.Attempts - 1)
			zap.S().Named("producer").Warnw("publish failed, requeueing",
				"topic", msg.Topic, "type", msg.Event.Type(), "attempt", msg.Attempts, "backoff", backoff, "error", err)

			select {
			case <-time.After(backoff):
			case <-p.doneCh:
				p.buffer.PushBack(msg)
				return
			}
			p.buffer.PushBack(msg)
			continue
		}

		metrics.IncreaseEventsPublishedTotalMetric(msg.Topic)
	}
}
