package coordinator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	jitterbug "github.com/lthibault/jitterbug/v2"
	api "github.com/talentflow/sourcing-engine/api/v1alpha1"
	"github.com/talentflow/sourcing-engine/internal/config"
	"github.com/talentflow/sourcing-engine/internal/events"
	"github.com/talentflow/sourcing-engine/internal/store"
	"github.com/talentflow/sourcing-engine/internal/store/model"
	"github.com/talentflow/sourcing-engine/pkg/metrics"
	"go.uber.org/zap"
)

const (
	sourceName = "coordinator"

	// ConsumerGroup is the bus group the coordinator subscribes as.
	ConsumerGroup = "coordinator"

	defaultTargetCandidateCount = 50
)

// Emitter publishes lifecycle events. Satisfied by *events.Producer.
type Emitter interface {
	Emit(topic string, e cloudevents.Event)
}

// StatusSource reports worker agent health. Satisfied by the supervisor.
type StatusSource interface {
	AnyUnreachable() (string, bool)
}

// Coordinator owns the pipeline lifecycle. It is the only writer of pipeline
// rows and funnel counters; worker agents never touch storage and only talk
// to it through the bus.
type Coordinator struct {
	store          store.Store
	producer       Emitter
	status         StatusSource
	locks          *keyLock
	quiesce        *quiescenceTimers
	threshold      int
	settleInterval time.Duration
}

func New(st store.Store, producer Emitter, status StatusSource, cfg *config.Config) *Coordinator {
	c := &Coordinator{
		store:          st,
		producer:       producer,
		status:         status,
		locks:          newKeyLock(),
		threshold:      cfg.Coordinator.PromotionThreshold,
		settleInterval: cfg.Coordinator.SettleCheckInterval,
	}
	c.quiesce = newQuiescenceTimers(cfg.Coordinator.QuiescenceWindow, c.onQuiescence)
	return c
}

// DedupeKey identifies one person across scan results: the lowercased,
// trimmed contact when present, else the source-qualified external id.
func DedupeKey(p events.CandidateProfile) string {
	if contact := strings.ToLower(strings.TrimSpace(p.Contact)); contact != "" {
		return contact
	}
	return p.Source + ":" + p.ExternalID
}

// StartForm carries a validated request to open a new pipeline.
type StartForm struct {
	ProjectID            string
	JobDescription       string
	TargetPlatforms      []string
	TargetCandidateCount int
}

// ListFilter narrows ListPipelines. Zero values match everything.
type ListFilter struct {
	ProjectID string
	State     api.PipelineState
}

// StartPipeline persists a new pipeline in the initiated state and kicks off
// discovery by triggering the scanner and the query builder.
func (c *Coordinator) StartPipeline(ctx context.Context, form StartForm) (*model.Pipeline, error) {
	if strings.TrimSpace(form.JobDescription) == "" {
		return nil, NewErrInvalidRequest("job description is empty")
	}
	if len(form.TargetPlatforms) == 0 {
		return nil, NewErrInvalidRequest("no target platforms")
	}
	if form.TargetCandidateCount <= 0 {
		form.TargetCandidateCount = defaultTargetCandidateCount
	}

	pipeline := model.Pipeline{
		ID:                   uuid.New(),
		ProjectID:            form.ProjectID,
		JobDescription:       form.JobDescription,
		TargetPlatforms:      model.MakeJSONField(form.TargetPlatforms),
		TargetCandidateCount: form.TargetCandidateCount,
		State:                string(api.PipelineStateInitiated),
	}

	created, err := c.store.Pipeline().Create(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	c.emit(events.TopicAgentScanning, events.MessageTypeScanTrigger, events.PriorityHigh, created.ID, events.ScanTrigger{
		PipelineID:     created.ID,
		ProjectID:      created.ProjectID,
		JobDescription: created.JobDescription,
		Platforms:      form.TargetPlatforms,
		TargetCount:    created.TargetCandidateCount,
	})
	c.emit(events.TopicAgentBoolean, events.MessageTypeQueryBuildTrigger, events.PriorityMedium, created.ID, events.QueryBuildTrigger{
		PipelineID:     created.ID,
		JobDescription: created.JobDescription,
		Platforms:      form.TargetPlatforms,
	})

	c.quiesce.Touch(created.ID)

	zap.S().Named("coordinator").Infow("pipeline started",
		"pipeline", created.ID,
		"project", created.ProjectID,
		"platforms", form.TargetPlatforms,
		"target", created.TargetCandidateCount)
	return created, nil
}

func (c *Coordinator) GetPipeline(ctx context.Context, id uuid.UUID) (*model.Pipeline, error) {
	pipeline, err := c.store.Pipeline().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, NewErrPipelineNotFound(id)
		}
		return nil, err
	}
	return pipeline, nil
}

func (c *Coordinator) ListPipelines(ctx context.Context, filter ListFilter) (model.PipelineList, error) {
	qf := store.NewPipelineQueryFilter()
	if filter.ProjectID != "" {
		qf = qf.ByProjectID(filter.ProjectID)
	}
	if filter.State != "" {
		qf = qf.ByState(string(filter.State))
	}
	return c.store.Pipeline().List(ctx, qf, store.NewPipelineQueryOptions().WithSortOrder(store.SortByCreatedTime))
}

// CancelPipeline moves a pipeline to cancelled. Cancelling an already
// cancelled pipeline is a no-op; any other terminal state is a conflict.
func (c *Coordinator) CancelPipeline(ctx context.Context, id uuid.UUID, reason string) (*model.Pipeline, error) {
	c.locks.Lock(id)
	defer c.locks.Unlock(id)

	pipeline, err := c.GetPipeline(ctx, id)
	if err != nil {
		return nil, err
	}

	state := api.StringToPipelineState(pipeline.State)
	if state == api.PipelineStateCancelled {
		return pipeline, nil
	}
	if IsTerminal(state) {
		return nil, NewErrStateConflict(id, pipeline.State)
	}

	if reason == "" {
		reason = "cancelled by operator"
	}
	pipeline.State = string(api.PipelineStateCancelled)
	pipeline.FailureReason = &reason
	updated, err := c.store.Pipeline().Update(ctx, *pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel pipeline: %w", err)
	}

	c.quiesce.Drop(id)
	c.emit(events.TopicPipelineEvents, events.MessageTypePipelineCancelled, events.PriorityHigh, id, events.PipelineCancelled{
		PipelineID: id,
		Reason:     reason,
	})

	zap.S().Named("coordinator").Infow("pipeline cancelled", "pipeline", id, "reason", reason)
	return updated, nil
}

// applyTypes are the lifecycle facts the coordinator mutates state for.
// Trigger types passing through the shared topics only reset the quiescence
// timer.
var applyTypes = map[events.MessageType]struct{}{
	events.MessageTypeCandidateFound:   {},
	events.MessageTypeCandidateScored:  {},
	events.MessageTypeOutreachSent:     {},
	events.MessageTypeOutreachResponse: {},
	events.MessageTypeInterviewDone:    {},
	events.MessageTypeToolSynced:       {},
	events.MessageTypeScanFailed:       {},
	events.MessageTypeScoreFailed:      {},
	events.MessageTypeEngagementFailed: {},
	events.MessageTypeInterviewFailed:  {},
	events.MessageTypeToolSyncFailed:   {},
}

// HandleEvent is the bus entrypoint for the lifecycle topics. Handling is
// serialized per pipeline, applied inside one storage transaction, and
// follow-up triggers are published only after the transaction commits.
func (c *Coordinator) HandleEvent(ctx context.Context, e cloudevents.Event) {
	log := zap.S().Named("coordinator")

	t := events.ParseMessageType(e.Type())
	if t == events.MessageTypeUnknown {
		log.Warnw("ignoring unknown event type", "type", e.Type(), "event", e.ID())
		return
	}

	pipelineID, err := events.CorrelationID(e)
	if err != nil {
		log.Warnw("ignoring event without pipeline correlation", "type", t, "event", e.ID(), "error", err)
		return
	}

	metrics.IncreaseEventsProcessedTotalMetric(string(t))

	c.locks.Lock(pipelineID)
	defer c.locks.Unlock(pipelineID)

	defer func() {
		if r := recover(); r != nil {
			log.Errorw("recovered from panic while handling event", "type", t, "pipeline", pipelineID, "panic", r)
		}
	}()

	pipeline, err := c.store.Pipeline().Get(ctx, pipelineID)
	if err != nil {
		log.Warnw("discarding event for unknown pipeline", "type", t, "pipeline", pipelineID)
		return
	}

	if IsTerminal(api.StringToPipelineState(pipeline.State)) {
		log.Infow("discarding event for settled pipeline", "type", t, "pipeline", pipelineID, "state", pipeline.State)
		return
	}

	c.quiesce.Touch(pipelineID)

	if _, ok := applyTypes[t]; !ok {
		return
	}

	txCtx, err := c.store.NewTransactionContext(ctx)
	if err != nil {
		log.Errorw("failed to open transaction", "type", t, "pipeline", pipelineID, "error", err)
		return
	}
	committed := false
	defer func() {
		if !committed {
			_, _ = store.Rollback(txCtx)
		}
	}()

	emits, err := c.apply(txCtx, t, pipeline, e)
	if err != nil {
		log.Errorw("failed to apply event", "type", t, "pipeline", pipelineID, "error", err)
		return
	}

	if _, err := store.Commit(txCtx); err != nil {
		log.Errorw("failed to commit event", "type", t, "pipeline", pipelineID, "error", err)
		return
	}
	committed = true

	for _, em := range emits {
		c.producer.Emit(em.topic, em.event)
	}
}

type pendingEmit struct {
	topic string
	event cloudevents.Event
}

func (c *Coordinator) apply(ctx context.Context, t events.MessageType, pipeline *model.Pipeline, e cloudevents.Event) ([]pendingEmit, error) {
	switch t {
	case events.MessageTypeCandidateFound:
		return c.onCandidateFound(ctx, pipeline, e)
	case events.MessageTypeCandidateScored:
		return c.onCandidateScored(ctx, pipeline, e)
	case events.MessageTypeOutreachSent:
		return c.onOutreachSent(ctx, pipeline, e)
	case events.MessageTypeOutreachResponse:
		return c.onOutreachResponse(ctx, pipeline, e)
	case events.MessageTypeInterviewDone:
		return c.onInterviewCompleted(ctx, pipeline, e)
	case events.MessageTypeToolSynced:
		return c.onToolSynced(ctx, pipeline, e)
	case events.MessageTypeScanFailed,
		events.MessageTypeScoreFailed,
		events.MessageTypeEngagementFailed,
		events.MessageTypeInterviewFailed,
		events.MessageTypeToolSyncFailed:
		return c.onAgentFailure(ctx, pipeline, t, e)
	default:
		return nil, nil
	}
}

// ensureCandidate records the candidate if its dedupe key is new to the
// pipeline. Returns the stored row and whether this call created it.
func (c *Coordinator) ensureCandidate(ctx context.Context, pipeline *model.Pipeline, profile events.CandidateProfile) (*model.Candidate, bool, error) {
	key := DedupeKey(profile)

	existing, err := c.store.Candidate().GetByDedupeKey(ctx, pipeline.ID, key)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, store.ErrRecordNotFound) {
		return nil, false, err
	}

	id := profile.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	candidate, err := c.store.Candidate().Create(ctx, model.Candidate{
		ID:         id,
		PipelineID: pipeline.ID,
		DedupeKey:  key,
		ExternalID: profile.ExternalID,
		Source:     profile.Source,
		Profile:    model.MakeJSONField(profile),
		Status:     string(api.CandidateStatusNew),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			existing, gerr := c.store.Candidate().GetByDedupeKey(ctx, pipeline.ID, key)
			if gerr != nil {
				return nil, false, gerr
			}
			return existing, false, nil
		}
		return nil, false, err
	}
	return candidate, true, nil
}

func (c *Coordinator) onCandidateFound(ctx context.Context, pipeline *model.Pipeline, e cloudevents.Event) ([]pendingEmit, error) {
	var payload events.CandidateFound
	if err := e.DataAs(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode candidate_found: %w", err)
	}

	_, created, err := c.ensureCandidate(ctx, pipeline, payload.Candidate)
	if err != nil {
		return nil, err
	}
	if !created {
		zap.S().Named("coordinator").Debugw("dropping duplicate candidate",
			"pipeline", pipeline.ID, "dedupe_key", DedupeKey(payload.Candidate))
		return nil, nil
	}

	pipeline.CandidatesFound++
	pipeline.State = string(Advance(api.StringToPipelineState(pipeline.State), api.PipelineStateScanning))
	if _, err := c.store.Pipeline().Update(ctx, *pipeline); err != nil {
		return nil, err
	}

	metrics.IncreaseCandidatesFoundTotalMetric()
	return nil, nil
}

func (c *Coordinator) onCandidateScored(ctx context.Context, pipeline *model.Pipeline, e cloudevents.Event) ([]pendingEmit, error) {
	var payload events.CandidateScored
	if err := e.DataAs(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode candidate_scored: %w", err)
	}

	candidate, err := c.store.Candidate().Get(ctx, payload.CandidateID)
	if err != nil {
		if !errors.Is(err, store.ErrRecordNotFound) {
			return nil, err
		}
		// Scored before found. Create the candidate from the carried profile
		// and count the discovery now; the late candidate_found dedupes away.
		var created bool
		candidate, created, err = c.ensureCandidate(ctx, pipeline, payload.Candidate)
		if err != nil {
			return nil, err
		}
		if created {
			pipeline.CandidatesFound++
			metrics.IncreaseCandidatesFoundTotalMetric()
		}
	}

	// Score history is append only.
	if _, err := c.store.Score().Create(ctx, model.Score{
		CandidateID:     candidate.ID,
		PipelineID:      pipeline.ID,
		OverallScore:    payload.Score.Overall,
		SkillMatch:      payload.Score.SkillMatch,
		ExperienceMatch: payload.Score.ExperienceMatch,
		BiasFlags:       model.MakeJSONField(payload.Score.BiasFlags),
		Recommendation:  payload.Score.Recommendation,
	}); err != nil {
		return nil, err
	}

	firstScore, err := c.store.Candidate().UpdateStatus(ctx, candidate.ID,
		string(api.CandidateStatusNew), string(api.CandidateStatusScored))
	if err != nil {
		return nil, err
	}
	if firstScore {
		pipeline.CandidatesScored++
	}

	pipeline.State = string(Advance(api.StringToPipelineState(pipeline.State), api.PipelineStateScoring))
	if _, err := c.store.Pipeline().Update(ctx, *pipeline); err != nil {
		return nil, err
	}

	if !firstScore {
		return nil, nil
	}
	if payload.Score.Overall < c.threshold {
		metrics.IncreasePromotionsTotalMetric("held")
		return nil, nil
	}

	metrics.IncreasePromotionsTotalMetric("promoted")
	var profile events.CandidateProfile
	_ = json.Unmarshal(candidate.Profile, &profile)
	trigger, err := events.NewEnvelope(sourceName, events.MessageTypeEngagementTrigger, events.PriorityHigh, pipeline.ID, events.EngagementTrigger{
		CandidateID: candidate.ID,
		Candidate:   profile,
		Role:        pipeline.JobDescription,
	})
	if err != nil {
		return nil, err
	}
	return []pendingEmit{{topic: events.TopicAgentEngagement, event: trigger}}, nil
}

func (c *Coordinator) onOutreachSent(ctx context.Context, pipeline *model.Pipeline, e cloudevents.Event) ([]pendingEmit, error) {
	var payload events.OutreachSent
	if err := e.DataAs(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode outreach_sent: %w", err)
	}

	if _, err := c.store.Candidate().Get(ctx, payload.CandidateID); err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			zap.S().Named("coordinator").Warnw("dropping outreach for unknown candidate",
				"pipeline", pipeline.ID, "candidate", payload.CandidateID)
			return nil, nil
		}
		return nil, err
	}

	if _, err := c.store.Engagement().Create(ctx, model.Engagement{
		CandidateID: payload.CandidateID,
		PipelineID:  pipeline.ID,
		Channel:     payload.Channel,
		MessageBody: payload.Message,
		SentAt:      payload.SentAt,
		Response:    string(api.ResponsePending),
	}); err != nil {
		return nil, err
	}

	contacted, err := c.store.Candidate().UpdateStatus(ctx, payload.CandidateID,
		string(api.CandidateStatusScored), string(api.CandidateStatusContacted))
	if err != nil {
		return nil, err
	}
	if contacted {
		pipeline.CandidatesContacted++
	}

	pipeline.State = string(Advance(api.StringToPipelineState(pipeline.State), api.PipelineStateEngaging))
	_, err = c.store.Pipeline().Update(ctx, *pipeline)
	return nil, err
}

func (c *Coordinator) onOutreachResponse(ctx context.Context, pipeline *model.Pipeline, e cloudevents.Event) ([]pendingEmit, error) {
	var payload events.OutreachResponse
	if err := e.DataAs(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode outreach_response: %w", err)
	}

	engagement, err := c.store.Engagement().GetLatestByCandidate(ctx, payload.CandidateID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			zap.S().Named("coordinator").Warnw("dropping response with no outreach on record",
				"pipeline", pipeline.ID, "candidate", payload.CandidateID)
			return nil, nil
		}
		return nil, err
	}

	if err := c.store.Engagement().SetResponse(ctx, engagement.ID, payload.Response, payload.RespondedAt); err != nil {
		return nil, err
	}

	responded, err := c.store.Candidate().UpdateStatus(ctx, payload.CandidateID,
		string(api.CandidateStatusContacted), string(api.CandidateStatusResponded))
	if err != nil {
		return nil, err
	}
	if responded {
		pipeline.CandidatesResponded++
	}

	var emits []pendingEmit
	target := api.PipelineStateEngaging

	if api.ResponseKind(payload.Response) == api.ResponsePositive {
		scheduled, err := c.store.Candidate().UpdateStatus(ctx, payload.CandidateID,
			string(api.CandidateStatusResponded), string(api.CandidateStatusInterviewing))
		if err != nil {
			return nil, err
		}
		if scheduled {
			pipeline.InterviewsScheduled++
			target = api.PipelineStateInterviewing

			candidate, err := c.store.Candidate().Get(ctx, payload.CandidateID)
			if err != nil {
				return nil, err
			}
			var profile events.CandidateProfile
			_ = json.Unmarshal(candidate.Profile, &profile)
			trigger, err := events.NewEnvelope(sourceName, events.MessageTypeInterviewTrigger, events.PriorityHigh, pipeline.ID, events.InterviewTrigger{
				CandidateID: candidate.ID,
				Candidate:   profile,
			})
			if err != nil {
				return nil, err
			}
			emits = append(emits, pendingEmit{topic: events.TopicInterviewEvents, event: trigger})
		}
	}

	pipeline.State = string(Advance(api.StringToPipelineState(pipeline.State), target))
	if _, err := c.store.Pipeline().Update(ctx, *pipeline); err != nil {
		return nil, err
	}
	return emits, nil
}

func (c *Coordinator) onInterviewCompleted(ctx context.Context, pipeline *model.Pipeline, e cloudevents.Event) ([]pendingEmit, error) {
	var payload events.InterviewCompleted
	if err := e.DataAs(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode interview_completed: %w", err)
	}

	if _, err := c.store.Interview().Create(ctx, model.Interview{
		ID:             payload.InterviewID,
		CandidateID:    payload.CandidateID,
		PipelineID:     pipeline.ID,
		OverallScore:   payload.OverallScore,
		Evaluations:    model.MakeJSONField(payload.Evaluations),
		Recommendation: payload.Recommendation,
		CompletedAt:    payload.CompletedAt,
	}); err != nil && !errors.Is(err, store.ErrDuplicateKey) {
		return nil, err
	}

	finished, err := c.store.Candidate().UpdateStatus(ctx, payload.CandidateID,
		string(api.CandidateStatusInterviewing), string(api.CandidateStatusCompleted))
	if err != nil {
		return nil, err
	}
	if !finished {
		// Replay, or an interview this coordinator never scheduled.
		return nil, nil
	}

	pipeline.InterviewsCompleted++
	if api.Recommendation(payload.Recommendation) == api.RecommendationStrongHire {
		pipeline.StrongHires++
	}
	pipeline.State = string(Advance(api.StringToPipelineState(pipeline.State), api.PipelineStateInterviewing))
	if _, err := c.store.Pipeline().Update(ctx, *pipeline); err != nil {
		return nil, err
	}

	trigger, err := events.NewEnvelope(sourceName, events.MessageTypeToolSyncTrigger, events.PriorityMedium, pipeline.ID, events.ToolSyncTrigger{
		CandidateID:    payload.CandidateID,
		InterviewID:    payload.InterviewID,
		Recommendation: payload.Recommendation,
		OverallScore:   payload.OverallScore,
	})
	if err != nil {
		return nil, err
	}
	return []pendingEmit{{topic: events.TopicToolEvents, event: trigger}}, nil
}

func (c *Coordinator) onToolSynced(ctx context.Context, pipeline *model.Pipeline, e cloudevents.Event) ([]pendingEmit, error) {
	var payload events.ToolSynced
	if err := e.DataAs(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode tool_synced: %w", err)
	}

	zap.S().Named("coordinator").Infow("candidate synced to tracking system",
		"pipeline", pipeline.ID, "candidate", payload.CandidateID, "system", payload.System, "ref", payload.ExternalRef)

	active, err := c.store.Candidate().CountInStatuses(ctx, pipeline.ID,
		string(api.CandidateStatusNew),
		string(api.CandidateStatusContacted),
		string(api.CandidateStatusResponded),
		string(api.CandidateStatusInterviewing),
	)
	if err != nil {
		return nil, err
	}
	if active > 0 {
		return nil, nil
	}

	// Funnel drained: nothing in flight for this pipeline anymore.
	pipeline.State = string(api.PipelineStateCompleted)
	if _, err := c.store.Pipeline().Update(ctx, *pipeline); err != nil {
		return nil, err
	}
	c.quiesce.Drop(pipeline.ID)

	zap.S().Named("coordinator").Infow("pipeline completed",
		"pipeline", pipeline.ID,
		"found", pipeline.CandidatesFound,
		"interviews", pipeline.InterviewsCompleted,
		"strong_hires", pipeline.StrongHires)
	return nil, nil
}

func (c *Coordinator) onAgentFailure(ctx context.Context, pipeline *model.Pipeline, t events.MessageType, e cloudevents.Event) ([]pendingEmit, error) {
	var payload events.AgentFailure
	if err := e.DataAs(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", t, err)
	}

	zap.S().Named("coordinator").Warnw("agent gave up on work item",
		"pipeline", pipeline.ID,
		"stage", payload.Stage,
		"candidate", payload.CandidateID,
		"kind", payload.Kind,
		"reason", payload.Reason,
		"attempts", payload.Attempts)

	if payload.CandidateID == uuid.Nil {
		// Stage level failure with nobody attached; quiescence decides how
		// the pipeline settles.
		return nil, nil
	}

	candidate, err := c.store.Candidate().Get(ctx, payload.CandidateID)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	switch api.CandidateStatus(candidate.Status) {
	case api.CandidateStatusCompleted, api.CandidateStatusRejected:
		return nil, nil
	}
	if _, err := c.store.Candidate().UpdateStatus(ctx, candidate.ID, candidate.Status, string(api.CandidateStatusRejected)); err != nil {
		return nil, err
	}
	return nil, nil
}

// onQuiescence fires once a pipeline has gone a full window without events.
// An unreachable agent turns the quiet into a failure; otherwise the
// pipeline is considered settled.
func (c *Coordinator) onQuiescence(id uuid.UUID) {
	log := zap.S().Named("coordinator")

	c.locks.Lock(id)
	defer c.locks.Unlock(id)

	ctx := context.Background()
	pipeline, err := c.store.Pipeline().Get(ctx, id)
	if err != nil {
		log.Warnw("quiescence fired for unknown pipeline", "pipeline", id)
		return
	}
	if IsTerminal(api.StringToPipelineState(pipeline.State)) {
		return
	}

	if c.status != nil {
		if agent, bad := c.status.AnyUnreachable(); bad {
			reason := fmt.Sprintf("agent %s unreachable while pipeline went quiet", agent)
			pipeline.State = string(api.PipelineStateFailed)
			pipeline.FailureReason = &reason
			if _, err := c.store.Pipeline().Update(ctx, *pipeline); err != nil {
				log.Errorw("failed to mark quiet pipeline failed", "pipeline", id, "error", err)
				return
			}
			log.Warnw("pipeline failed", "pipeline", id, "reason", reason)
			return
		}
	}

	pipeline.State = string(api.PipelineStateCompleted)
	if _, err := c.store.Pipeline().Update(ctx, *pipeline); err != nil {
		log.Errorw("failed to complete quiet pipeline", "pipeline", id, "error", err)
		return
	}
	log.Infow("pipeline settled",
		"pipeline", id,
		"found", pipeline.CandidatesFound,
		"scored", pipeline.CandidatesScored,
		"contacted", pipeline.CandidatesContacted,
		"responded", pipeline.CandidatesResponded,
		"interviews", pipeline.InterviewsCompleted,
		"strong_hires", pipeline.StrongHires)
}

// Run keeps the settle sweep alive until ctx is cancelled. The sweep re-arms
// quiescence timers for pipelines loaded from storage, so completion
// detection survives process restarts, and refreshes the state gauges.
func (c *Coordinator) Run(ctx context.Context) {
	ticker := jitterbug.New(c.settleInterval, &jitterbug.Norm{Stdev: c.settleInterval / 10, Mean: 0})
	defer ticker.Stop()

	c.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			c.quiesce.Stop()
			return
		case <-ticker.C:
			c.sweep(ctx)
		}
	}
}

func (c *Coordinator) sweep(ctx context.Context) {
	pipelines, err := c.store.Pipeline().List(ctx,
		store.NewPipelineQueryFilter().ByNotInStates(TerminalStates()),
		store.NewPipelineQueryOptions())
	if err != nil {
		zap.S().Named("coordinator").Errorw("settle sweep failed to list pipelines", "error", err)
		return
	}
	for i := range pipelines {
		if !c.quiesce.Armed(pipelines[i].ID) {
			c.quiesce.Touch(pipelines[i].ID)
		}
	}

	stats, err := c.store.Statistics(ctx)
	if err != nil {
		return
	}
	for state := range allowedTransitions {
		metrics.UpdatePipelineStateCountMetric(string(state), stats.ByState[string(state)])
	}
}

func (c *Coordinator) emit(topic string, t events.MessageType, prio events.Priority, pipelineID uuid.UUID, payload any) {
	e, err := events.NewEnvelope(sourceName, t, prio, pipelineID, payload)
	if err != nil {
		zap.S().Named("coordinator").Errorw("failed to build event", "type", t, "pipeline", pipelineID, "error", err)
		return
	}
	c.producer.Emit(topic, e)
}
