package events

import (
	"context"
	"errors"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("producer", Ordered, func() {
	Context("emit", func() {
		It("publishes queued events in order", func() {
			bus := newTestBus()
			p := NewProducer(bus)

			e1, err := NewEnvelope("coordinator", MessageTypeScanTrigger, PriorityHigh, uuid.New(), ScanTrigger{JobDescription: "golang backend"})
			Expect(err).To(BeNil())
			p.Emit(TopicAgentScanning, e1)

			e2, err := NewEnvelope("coordinator", MessageTypeQueryBuildTrigger, PriorityMedium, uuid.New(), QueryBuildTrigger{})
			Expect(err).To(BeNil())
			p.Emit(TopicAgentBoolean, e2)

			Eventually(bus.Published).Should(HaveLen(2))
			published := bus.Published()
			Expect(published[0].Topic).To(Equal(TopicAgentScanning))
			Expect(published[0].Event.Type()).To(Equal(string(MessageTypeScanTrigger)))
			Expect(published[1].Topic).To(Equal(TopicAgentBoolean))

			Expect(p.Close()).To(BeNil())
		})

		It("retries a failed publish and delivers eventually", func() {
			bus := newTestBus()
			bus.FailTimes(2)
			p := NewProducer(bus, WithRetryBackoff(time.Millisecond))

			e, err := NewEnvelope("scanner", MessageTypeCandidateFound, PriorityMedium, uuid.New(), CandidateFound{})
			Expect(err).To(BeNil())
			p.Emit(TopicCandidateEvents, e)

			Eventually(bus.Published).Should(HaveLen(1))
			Expect(bus.Attempts()).To(Equal(3))

			Expect(p.Close()).To(BeNil())
		})

		It("drops the event once the attempt cap is reached", func() {
			bus := newTestBus()
			bus.FailTimes(10)
			p := NewProducer(bus, WithRetryBackoff(time.Millisecond), WithMaxAttempts(2))

			e, err := NewEnvelope("scanner", MessageTypeCandidateFound, PriorityMedium, uuid.New(), CandidateFound{})
			Expect(err).To(BeNil())
			p.Emit(TopicCandidateEvents, e)

			Eventually(bus.Attempts).Should(Equal(2))
			Consistently(bus.Published).Should(BeEmpty())

			Expect(p.Close()).To(BeNil())
		})

		It("flushes buffered events on close", func() {
			bus := newTestBus()
			p := NewProducer(bus)

			for i := 0; i < 5; i++ {
				e, err := NewEnvelope("coordinator", MessageTypeEngagementTrigger, PriorityMedium, uuid.New(), EngagementTrigger{})
				Expect(err).To(BeNil())
				p.Emit(TopicAgentEngagement, e)
			}

			Expect(p.Close()).To(BeNil())
			Expect(bus.Published()).To(HaveLen(5))
		})
	})
})

type publishedMessage struct {
	Topic string
	Event cloudevents.Event
}

type testBus struct {
	mu        sync.Mutex
	published []publishedMessage
	attempts  int
	failures  int
}

func newTestBus() *testBus {
	return &testBus{}
}

func (t *testBus) FailTimes(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures = n
}

func (t *testBus) Publish(_ context.Context, topic string, e cloudevents.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempts++
	if t.failures > 0 {
		t.failures--
		return errors.New("broker unavailable")
	}
	t.published = append(t.published, publishedMessage{Topic: topic, Event: e})
	return nil
}

func (t *testBus) Subscribe(string, []string, Handler) error { return nil }

func (t *testBus) Close() error { return nil }

func (t *testBus) Published() []publishedMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]publishedMessage, len(t.published))
	copy(out, t.published)
	return out
}

func (t *testBus) Attempts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts
}
