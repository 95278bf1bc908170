package agent

import (
	"context"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"github.com/talentflow/sourcing-engine/internal/config"
	"github.com/talentflow/sourcing-engine/internal/events"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Worker agent names double as consumer group ids, so each agent fleet
// shares one subscription per topic.
const (
	WorkerScanner      = "scanner"
	WorkerQueryBuilder = "boolean"
	WorkerScorer       = "quality"
	WorkerEngagement   = "engagement"
	WorkerInterview    = "interview"
	WorkerToolSync     = "toolsync"
)

// failureTypes maps a worker to the *Failed message it publishes after retry
// exhaustion. The query builder reports under the scan stage because the
// scanner owns the discovery fallback.
var failureTypes = map[string]events.MessageType{
	WorkerScanner:      events.MessageTypeScanFailed,
	WorkerQueryBuilder: events.MessageTypeScanFailed,
	WorkerScorer:       events.MessageTypeScoreFailed,
	WorkerEngagement:   events.MessageTypeEngagementFailed,
	WorkerInterview:    events.MessageTypeInterviewFailed,
	WorkerToolSync:     events.MessageTypeToolSyncFailed,
}

// Worker is one pipeline stage adapter. Handle must be idempotent: the bus
// delivers at least once and the runtime replays failed units.
type Worker interface {
	Name() string
	Topics() []string
	Handle(ctx context.Context, e cloudevents.Event) error
	Ping(ctx context.Context) error
}

// Emitter queues an event for publication without blocking the caller.
type Emitter interface {
	Emit(topic string, e cloudevents.Event)
}

// runner is implemented by workers that need a background loop next to their
// subscription, like the engagement response pump.
type runner interface {
	Run(ctx context.Context) error
}

// Runtime binds one Worker to the bus: it subscribes the worker's group,
// bounds concurrent Handle executions, retries failed units with exponential
// backoff and publishes the stage failure event when retries are exhausted.
// A unit of work is never dropped silently.
type Runtime struct {
	worker  Worker
	bus     events.Bus
	emitter Emitter
	slots   chan struct{}

	maxAttempts  int
	retryBackoff time.Duration
}

func NewRuntime(worker Worker, bus events.Bus, emitter Emitter, cfg *config.Config) *Runtime {
	poolSize := cfg.Agents.PoolSize
	if poolSize <= 0 {
		poolSize = 1
	}
	maxAttempts := cfg.Agents.RetryAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	return &Runtime{
		worker:       worker,
		bus:          bus,
		emitter:      emitter,
		slots:        make(chan struct{}, poolSize),
		maxAttempts:  maxAttempts,
		retryBackoff: cfg.Agents.RetryBackoff,
	}
}

func (r *Runtime) Start() error {
	return r.bus.Subscribe(r.worker.Name(), r.worker.Topics(), r.handle)
}

func (r *Runtime) handle(ctx context.Context, e cloudevents.Event) {
	select {
	case r.slots <- struct{}{}:
	case <-ctx.Done():
		return
	}
	defer func() { <-r.slots }()

	defer func() {
		if rec := recover(); rec != nil {
			zap.S().Named(r.worker.Name()).Errorw("panic in worker handler",
				"type", e.Type(), "event_id", e.ID(), "panic", rec)
		}
	}()

	r.process(ctx, e)
}

func (r *Runtime) process(ctx context.Context, e cloudevents.Event) {
	logger := zap.S().Named(r.worker.Name())

	var lastErr error
	attempts := 0
	for attempts < r.maxAttempts {
		attempts++
		if lastErr = r.worker.Handle(ctx, e); lastErr == nil {
			return
		}
		if attempts == r.maxAttempts || ctx.Err() != nil {
			break
		}

		backoff := r.retryBackoff << (attempts - 1)
		logger.Warnw("unit of work failed, retrying",
			"type", e.Type(), "event_id", e.ID(), "attempt", attempts, "backoff", backoff, "error", lastErr)
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
		}
	}

	logger.Errorw("unit of work failed, giving up",
		"type", e.Type(), "event_id", e.ID(), "attempts", attempts, "error", lastErr)
	r.reportFailure(e, lastErr, attempts)
}

func (r *Runtime) reportFailure(e cloudevents.Event, cause error, attempts int) {
	correlationID, err := events.CorrelationID(e)
	if err != nil {
		zap.S().Named(r.worker.Name()).Errorw("failed unit has no correlation id, not reporting",
			"type", e.Type(), "event_id", e.ID(), "error", err)
		return
	}

	failed, err := events.NewEnvelope(r.worker.Name(), failureTypes[r.worker.Name()], events.PriorityHigh, correlationID, events.AgentFailure{
		Stage:       r.worker.Name(),
		CandidateID: candidateRef(e),
		Kind:        errorKind(cause),
		Reason:      cause.Error(),
		Attempts:    attempts,
	})
	if err != nil {
		zap.S().Named(r.worker.Name()).Errorw("failed to build failure event", "error", err)
		return
	}
	r.emitter.Emit(events.TopicPipelineEvents, failed)
}

// candidateRef pulls the candidate id out of any trigger payload that carries
// one, so the coordinator can reject the affected candidate.
func candidateRef(e cloudevents.Event) uuid.UUID {
	var probe struct {
		CandidateID uuid.UUID `json:"candidate_id"`
		Candidate   struct {
			ID uuid.UUID `json:"id"`
		} `json:"candidate"`
	}
	if err := e.DataAs(&probe); err != nil {
		return uuid.Nil
	}
	if probe.CandidateID != uuid.Nil {
		return probe.CandidateID
	}
	return probe.Candidate.ID
}

// pinger is implemented by collaborators that can report reachability.
type pinger interface {
	Ping(ctx context.Context) error
}

// pingCollaborators probes every collaborator that exposes a health check;
// the rest are assumed reachable.
func pingCollaborators(ctx context.Context, collaborators ...any) error {
	for _, c := range collaborators {
		if c == nil {
			continue
		}
		if p, ok := c.(pinger); ok {
			if err := p.Ping(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Host runs a set of agent runtimes as one unit until the context ends.
type Host struct {
	runtimes []*Runtime
}

func NewHost(runtimes ...*Runtime) *Host {
	return &Host{runtimes: runtimes}
}

func (h *Host) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	for _, rt := range h.runtimes {
		if err := rt.Start(); err != nil {
			return err
		}
		zap.S().Named("agent").Infow("worker subscribed", "worker", rt.worker.Name(), "topics", rt.worker.Topics())

		if bg, ok := rt.worker.(runner); ok {
			g.Go(func() error { return bg.Run(gctx) })
		}
	}

	<-gctx.Done()
	return g.Wait()
}

// Workers returns the hosted workers, in registration order. The supervisor
// uses this to build its ping registry.
func (h *Host) Workers() []Worker {
	workers := make([]Worker, 0, len(h.runtimes))
	for _, rt := range h.runtimes {
		workers = append(workers, rt.worker)
	}
	return workers
}
