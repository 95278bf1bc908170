package supervisor_test

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/talentflow/sourcing-engine/internal/config"
	"github.com/talentflow/sourcing-engine/internal/supervisor"
)

type stubAgent struct {
	name    string
	failing atomic.Bool
	pings   atomic.Int64
}

func (a *stubAgent) Name() string { return a.name }

func (a *stubAgent) Ping(context.Context) error {
	a.pings.Add(1)
	if a.failing.Load() {
		return errors.New("collaborator gone")
	}
	return nil
}

func statusOf(s *supervisor.Supervisor, agent string) (supervisor.AgentStatus, bool) {
	for _, status := range s.Status() {
		if status.Agent == agent {
			return status, true
		}
	}
	return supervisor.AgentStatus{}, false
}

var _ = Describe("Supervisor", func() {
	var (
		cfg    *config.Config
		ctx    context.Context
		cancel context.CancelFunc
		done   chan error
	)

	BeforeEach(func() {
		cfg = config.NewDefault()
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan error, 1)
	})

	AfterEach(func() {
		cancel()
	})

	start := func(s *supervisor.Supervisor) {
		go func() { done <- s.Run(ctx) }()
	}

	Context("before the first sweep", func() {
		It("reports every registered agent healthy", func() {
			s := supervisor.New(cfg, &stubAgent{name: "scanner"}, &stubAgent{name: "quality"})

			statuses := s.Status()
			Expect(statuses).To(HaveLen(2))
			// sorted by agent name
			Expect(statuses[0].Agent).To(Equal("quality"))
			Expect(statuses[1].Agent).To(Equal("scanner"))
			for _, status := range statuses {
				Expect(status.Health).To(Equal(supervisor.HealthHealthy))
			}

			_, bad := s.AnyUnreachable()
			Expect(bad).To(BeFalse())
		})
	})

	Context("sweeping", func() {
		It("pings every registered agent", func() {
			scanner := &stubAgent{name: "scanner"}
			quality := &stubAgent{name: "quality"}
			s := supervisor.New(cfg, scanner, quality)
			start(s)

			Eventually(func() int64 { return scanner.pings.Load() }).Should(BeNumerically(">", 1))
			Eventually(func() int64 { return quality.pings.Load() }).Should(BeNumerically(">", 1))

			status, ok := statusOf(s, "scanner")
			Expect(ok).To(BeTrue())
			Expect(status.LastChecked).NotTo(BeZero())
		})

		It("degrades a failing agent without declaring it unreachable", func() {
			cfg.Agents.UnreachableAfter = 1000

			agent := &stubAgent{name: "engagement"}
			agent.failing.Store(true)
			s := supervisor.New(cfg, agent)
			start(s)

			Eventually(func() supervisor.Health {
				status, _ := statusOf(s, "engagement")
				return status.Health
			}).Should(Equal(supervisor.HealthDegraded))

			status, _ := statusOf(s, "engagement")
			Expect(status.ConsecutiveFailures).To(BeNumerically(">=", 1))
			Expect(status.LastError).To(ContainSubstring("collaborator gone"))

			// degraded is a warning, not an outage
			_, bad := s.AnyUnreachable()
			Expect(bad).To(BeFalse())
		})

		It("declares an agent unreachable after enough consecutive failures, then recovers it", func() {
			cfg.Agents.UnreachableAfter = 2

			agent := &stubAgent{name: "interview"}
			agent.failing.Store(true)
			s := supervisor.New(cfg, agent)
			start(s)

			Eventually(func() supervisor.Health {
				status, _ := statusOf(s, "interview")
				return status.Health
			}).Should(Equal(supervisor.HealthUnreachable))

			name, bad := s.AnyUnreachable()
			Expect(bad).To(BeTrue())
			Expect(name).To(Equal("interview"))

			agent.failing.Store(false)

			Eventually(func() supervisor.Health {
				status, _ := statusOf(s, "interview")
				return status.Health
			}).Should(Equal(supervisor.HealthHealthy))

			status, _ := statusOf(s, "interview")
			Expect(status.ConsecutiveFailures).To(BeZero())
			Expect(status.LastError).To(BeEmpty())

			_, bad = s.AnyUnreachable()
			Expect(bad).To(BeFalse())
		})

		It("stops when the context ends", func() {
			s := supervisor.New(cfg, &stubAgent{name: "toolsync"})
			start(s)

			cancel()
			Eventually(done).Should(Receive(BeNil()))
		})
	})

	Context("one bad agent among many", func() {
		It("does not taint the healthy ones", func() {
			cfg.Agents.UnreachableAfter = 2

			sick := &stubAgent{name: "boolean"}
			sick.failing.Store(true)
			well := &stubAgent{name: "scanner"}
			s := supervisor.New(cfg, sick, well)
			start(s)

			Eventually(func() supervisor.Health {
				status, _ := statusOf(s, "boolean")
				return status.Health
			}).Should(Equal(supervisor.HealthUnreachable))

			status, _ := statusOf(s, "scanner")
			Expect(status.Health).To(Equal(supervisor.HealthHealthy))

			name, bad := s.AnyUnreachable()
			Expect(bad).To(BeTrue())
			Expect(name).To(Equal("boolean"))
		})
	})
})

var _ = Describe("Status snapshot", func() {
	It("is a copy, not a view", func() {
		cfg := config.NewDefault()
		s := supervisor.New(cfg, &stubAgent{name: "scanner"})

		first := s.Status()
		first[0].Health = supervisor.HealthUnreachable

		second := s.Status()
		Expect(second[0].Health).To(Equal(supervisor.HealthHealthy))
	})
})

var _ = Describe("Ping interval", func() {
	It("keeps sweeping on the configured cadence", func() {
		cfg := config.NewDefault()
		cfg.Agents.PingInterval = 10 * time.Millisecond

		agent := &stubAgent{name: "quality"}
		s := supervisor.New(cfg, agent)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go func() { _ = s.Run(ctx) }()

		Eventually(func() int64 { return agent.pings.Load() }).Should(BeNumerically(">=", 3))
	})
})
