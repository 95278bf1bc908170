package supervisor

import (
	"context"
	"sort"
	"sync"
	"time"

	jitterbug "github.com/lthibault/jitterbug/v2"
	"github.com/talentflow/sourcing-engine/internal/config"
	"github.com/talentflow/sourcing-engine/pkg/metrics"
	"go.uber.org/zap"
)

const pingTimeout = 5 * time.Second

// Pinger is one supervised agent. Worker adapters satisfy it.
type Pinger interface {
	Name() string
	Ping(ctx context.Context) error
}

type Health string

const (
	HealthHealthy     Health = "healthy"
	HealthDegraded    Health = "degraded"
	HealthUnreachable Health = "unreachable"
)

// AgentStatus is one agent's place in the sweep ledger.
type AgentStatus struct {
	Agent               string    `json:"agent"`
	Health              Health    `json:"health"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	LastChecked         time.Time `json:"last_checked"`
	LastError           string    `json:"last_error,omitempty"`
}

// Supervisor pings every registered agent on a jittered interval and
// classifies each one by consecutive failures. It only observes: a sick
// agent is reported, never restarted, and event processing is not gated
// on it.
type Supervisor struct {
	pingers          []Pinger
	interval         time.Duration
	unreachableAfter int

	mu       sync.Mutex
	statuses map[string]*AgentStatus
}

func New(cfg *config.Config, pingers ...Pinger) *Supervisor {
	unreachableAfter := cfg.Agents.UnreachableAfter
	if unreachableAfter <= 0 {
		unreachableAfter = 1
	}

	statuses := make(map[string]*AgentStatus, len(pingers))
	for _, p := range pingers {
		statuses[p.Name()] = &AgentStatus{Agent: p.Name(), Health: HealthHealthy}
	}
	return &Supervisor{
		pingers:          pingers,
		interval:         cfg.Agents.PingInterval,
		unreachableAfter: unreachableAfter,
		statuses:         statuses,
	}
}

// Run sweeps once immediately, then on every tick until the context ends.
func (s *Supervisor) Run(ctx context.Context) error {
	s.sweep(ctx)

	ticker := jitterbug.New(s.interval, &jitterbug.Norm{Stdev: s.interval / 10, Mean: 0})
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Supervisor) sweep(ctx context.Context) {
	logger := zap.S().Named("supervisor")
	for _, p := range s.pingers {
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		err := p.Ping(pingCtx)
		cancel()

		s.record(p.Name(), err, logger)
	}
}

func (s *Supervisor) record(agent string, err error, logger *zap.SugaredLogger) {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := s.statuses[agent]
	previous := status.Health
	status.LastChecked = time.Now().UTC()

	if err != nil {
		status.ConsecutiveFailures++
		status.LastError = err.Error()
	} else {
		status.ConsecutiveFailures = 0
		status.LastError = ""
	}
	status.Health = s.classify(status.ConsecutiveFailures)

	metrics.UpdateAgentHealthStatusMetric(agent, healthMetricValue(status.Health))

	if err != nil {
		logger.Warnw("agent ping failed",
			"agent", agent, "health", status.Health,
			"consecutive_failures", status.ConsecutiveFailures, "error", err)
		return
	}
	// log recoveries once, not every quiet sweep
	if previous != HealthHealthy {
		logger.Infow("agent recovered", "agent", agent, "previous", previous)
	}
}

func (s *Supervisor) classify(failures int) Health {
	switch {
	case failures == 0:
		return HealthHealthy
	case failures >= s.unreachableAfter:
		return HealthUnreachable
	default:
		return HealthDegraded
	}
}

func healthMetricValue(h Health) int {
	switch h {
	case HealthHealthy:
		return 0
	case HealthDegraded:
		return 1
	default:
		return 2
	}
}

// Status returns a point-in-time copy of every agent's health, sorted by
// agent name.
func (s *Supervisor) Status() []AgentStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]AgentStatus, 0, len(s.statuses))
	for _, status := range s.statuses {
		out = append(out, *status)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Agent < out[j].Agent })
	return out
}

// AnyUnreachable names the first unreachable agent, if there is one.
func (s *Supervisor) AnyUnreachable() (string, bool) {
	for _, status := range s.Status() {
		if status.Health == HealthUnreachable {
			return status.Agent, true
		}
	}
	return "", false
}
