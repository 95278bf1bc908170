package events

import (
	"context"
	"sync"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("in-process bus", Ordered, func() {
	Context("subscribe", func() {
		It("delivers to every group subscribed to the topic", func() {
			bus := NewInProcBus()
			defer bus.Close()

			coordinator := newCollector()
			scorer := newCollector()

			Expect(bus.Subscribe("coordinator", []string{TopicCandidateEvents}, coordinator.handler())).To(BeNil())
			Expect(bus.Subscribe("quality-scorer", []string{TopicCandidateEvents}, scorer.handler())).To(BeNil())

			e, err := NewEnvelope("scanner", MessageTypeCandidateFound, PriorityMedium, uuid.New(), CandidateFound{})
			Expect(err).To(BeNil())
			Expect(bus.Publish(context.TODO(), TopicCandidateEvents, e)).To(BeNil())

			Eventually(coordinator.Events).Should(HaveLen(1))
			Eventually(scorer.Events).Should(HaveLen(1))
			Expect(coordinator.Events()[0].ID()).To(Equal(e.ID()))
		})

		It("does not deliver to groups on other topics", func() {
			bus := NewInProcBus()
			defer bus.Close()

			scanning := newCollector()
			Expect(bus.Subscribe("scanner", []string{TopicAgentScanning}, scanning.handler())).To(BeNil())

			e, err := NewEnvelope("coordinator", MessageTypeEngagementTrigger, PriorityMedium, uuid.New(), EngagementTrigger{})
			Expect(err).To(BeNil())
			Expect(bus.Publish(context.TODO(), TopicAgentEngagement, e)).To(BeNil())

			Consistently(scanning.Events).Should(BeEmpty())
		})

		It("delivers to one group across several topics", func() {
			bus := NewInProcBus()
			defer bus.Close()

			coordinator := newCollector()
			Expect(bus.Subscribe("coordinator", CoordinatorTopics(), coordinator.handler())).To(BeNil())

			for _, topic := range []string{TopicCandidateEvents, TopicEngagementEvents, TopicInterviewEvents} {
				e, err := NewEnvelope("agent", MessageTypeOutreachSent, PriorityMedium, uuid.New(), OutreachSent{})
				Expect(err).To(BeNil())
				Expect(bus.Publish(context.TODO(), topic, e)).To(BeNil())
			}

			Eventually(coordinator.Events).Should(HaveLen(3))
		})

		It("rejects a duplicate group name", func() {
			bus := NewInProcBus()
			defer bus.Close()

			c := newCollector()
			Expect(bus.Subscribe("scanner", []string{TopicAgentScanning}, c.handler())).To(BeNil())
			Expect(bus.Subscribe("scanner", []string{TopicAgentScanning}, c.handler())).To(HaveOccurred())
		})

		It("refuses publishes after close", func() {
			bus := NewInProcBus()
			Expect(bus.Close()).To(BeNil())

			e, err := NewEnvelope("coordinator", MessageTypeScanTrigger, PriorityMedium, uuid.New(), ScanTrigger{})
			Expect(err).To(BeNil())
			Expect(bus.Publish(context.TODO(), TopicAgentScanning, e)).To(HaveOccurred())
		})
	})
})

type collector struct {
	mu     sync.Mutex
	events []cloudevents.Event
}

func newCollector() *collector {
	return &collector{}
}

func (c *collector) handler() Handler {
	return func(_ context.Context, e cloudevents.Event) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.events = append(c.events, e)
	}
}

func (c *collector) Events() []cloudevents.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]cloudevents.Event, len(c.events))
	copy(out, c.events)
	return out
}
