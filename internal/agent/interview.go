package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	api "github.com/talentflow/sourcing-engine/api/v1alpha1"
	"github.com/talentflow/sourcing-engine/internal/config"
	"github.com/talentflow/sourcing-engine/internal/events"
	"github.com/talentflow/sourcing-engine/internal/llm"
	"github.com/talentflow/sourcing-engine/pkg/metrics"
	"go.uber.org/zap"
)

const startingDifficulty = 3

// QuestionGen produces the next interview question from the conversation so
// far.
type QuestionGen interface {
	NextQuestion(ctx context.Context, ic llm.InterviewContext) (string, error)
}

// Evaluator grades one answer on a 0-100 scale.
type Evaluator interface {
	Evaluate(ctx context.Context, question, answer string) (int, error)
}

// Session delivers a question to the candidate and waits for the answer.
// Ask must honor context cancellation; the runner bounds it with the answer
// timeout.
type Session interface {
	Ask(ctx context.Context, candidateID uuid.UUID, question string) (string, error)
}

type interviewState string

const (
	interviewStarted         interviewState = "started"
	interviewQuestionPending interviewState = "question_pending"
	interviewAnswerReceived  interviewState = "answer_received"
	interviewEvaluated       interviewState = "evaluated"
	interviewReportGenerated interviewState = "report_generated"
	interviewCompleted       interviewState = "completed"
)

var interviewTransitions = map[interviewState][]interviewState{
	interviewStarted:         {interviewQuestionPending},
	interviewQuestionPending: {interviewAnswerReceived},
	interviewAnswerReceived:  {interviewEvaluated},
	interviewEvaluated:       {interviewQuestionPending, interviewReportGenerated},
	interviewReportGenerated: {interviewCompleted},
	interviewCompleted:       {},
}

// interviewRun is the per-interview state: a timed-out answer flows through
// the same states as a real one, recorded as zero-scored instead of
// aborting the interview.
type interviewRun struct {
	id          uuid.UUID
	candidate   events.CandidateProfile
	state       interviewState
	evaluations []events.QuestionEvaluation
	difficulty  int
}

func newInterviewRun(candidate events.CandidateProfile) *interviewRun {
	return &interviewRun{
		id:         uuid.New(),
		candidate:  candidate,
		state:      interviewStarted,
		difficulty: startingDifficulty,
	}
}

func (r *interviewRun) advance(to interviewState) error {
	for _, next := range interviewTransitions[r.state] {
		if next == to {
			r.state = to
			return nil
		}
	}
	return fmt.Errorf("invalid interview transition: %s -> %s", r.state, to)
}

func (r *interviewRun) average() int {
	if len(r.evaluations) == 0 {
		return 0
	}
	sum := 0
	for _, e := range r.evaluations {
		sum += e.Score
	}
	return sum / len(r.evaluations)
}

// adjustDifficulty steps the level on the running average, one step at a
// time within 1..5.
func (r *interviewRun) adjustDifficulty() {
	avg := r.average()
	switch {
	case avg >= 75 && r.difficulty < 5:
		r.difficulty++
	case avg < 40 && r.difficulty > 1:
		r.difficulty--
	}
}

// InterviewRunner conducts the multi-turn screening interview and publishes
// exactly one InterviewCompleted per trigger.
type InterviewRunner struct {
	questions QuestionGen
	evaluator Evaluator
	session   Session
	emitter   Emitter

	defaultQuestions int
	answerTimeout    time.Duration
}

func NewInterviewRunner(questions QuestionGen, evaluator Evaluator, session Session, emitter Emitter, cfg *config.Config) *InterviewRunner {
	return &InterviewRunner{
		questions:        questions,
		evaluator:        evaluator,
		session:          session,
		emitter:          emitter,
		defaultQuestions: cfg.Agents.QuestionCount,
		answerTimeout:    cfg.Agents.AnswerTimeout,
	}
}

func (r *InterviewRunner) Name() string { return WorkerInterview }

func (r *InterviewRunner) Topics() []string { return []string{events.TopicInterviewEvents} }

func (r *InterviewRunner) Ping(ctx context.Context) error {
	return pingCollaborators(ctx, r.questions, r.evaluator, r.session)
}

func (r *InterviewRunner) Handle(ctx context.Context, e cloudevents.Event) error {
	if events.ParseMessageType(e.Type()) != events.MessageTypeInterviewTrigger {
		return nil
	}

	var trigger events.InterviewTrigger
	if err := e.DataAs(&trigger); err != nil {
		return fmt.Errorf("failed to decode interview trigger: %w", err)
	}

	pipelineID, err := events.CorrelationID(e)
	if err != nil {
		return err
	}

	count := trigger.QuestionCount
	if count <= 0 {
		count = r.defaultQuestions
	}
	if count <= 0 {
		count = 1
	}

	logger := zap.S().Named(r.Name())
	run := newInterviewRun(trigger.Candidate)
	logger.Infow("interview started",
		"pipeline_id", pipelineID, "candidate_id", trigger.CandidateID,
		"interview_id", run.id, "questions", count)

	for len(run.evaluations) < count {
		if err := r.round(ctx, run, trigger.CandidateID); err != nil {
			return err
		}
	}

	if err := run.advance(interviewReportGenerated); err != nil {
		return err
	}

	overall := run.average()
	completed, err := events.NewEnvelope(r.Name(), events.MessageTypeInterviewDone, events.PriorityMedium, pipelineID, events.InterviewCompleted{
		InterviewID:    run.id,
		CandidateID:    trigger.CandidateID,
		OverallScore:   overall,
		Evaluations:    run.evaluations,
		Recommendation: string(api.RecommendationFromScore(overall)),
		CompletedAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	r.emitter.Emit(events.TopicInterviewEvents, completed)

	if err := run.advance(interviewCompleted); err != nil {
		return err
	}
	logger.Infow("interview completed",
		"pipeline_id", pipelineID, "candidate_id", trigger.CandidateID,
		"interview_id", run.id, "overall", overall)
	return nil
}

// round runs one question/answer/evaluation iteration.
func (r *InterviewRunner) round(ctx context.Context, run *interviewRun, candidateID uuid.UUID) error {
	if err := run.advance(interviewQuestionPending); err != nil {
		return err
	}

	question, err := r.questions.NextQuestion(ctx, llm.InterviewContext{
		Candidate:  run.candidate,
		Asked:      run.evaluations,
		Difficulty: run.difficulty,
	})
	if err != nil {
		metrics.IncreaseCollaboratorCallsTotalMetric(r.Name(), "error")
		return NewCollaboratorError("generate question", err)
	}
	metrics.IncreaseCollaboratorCallsTotalMetric(r.Name(), "success")

	askCtx, cancel := context.WithTimeout(ctx, r.answerTimeout)
	answer, err := r.session.Ask(askCtx, candidateID, question)
	cancel()

	timedOut := false
	if err != nil {
		if !errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return NewCollaboratorError("deliver question", err)
		}
		timedOut = true
		answer = ""
	}
	if err := run.advance(interviewAnswerReceived); err != nil {
		return err
	}

	score := 0
	if !timedOut {
		score, err = r.evaluator.Evaluate(ctx, question, answer)
		if err != nil {
			metrics.IncreaseCollaboratorCallsTotalMetric(r.Name(), "error")
			return NewCollaboratorError("evaluate answer", err)
		}
		metrics.IncreaseCollaboratorCallsTotalMetric(r.Name(), "success")
	}

	run.evaluations = append(run.evaluations, events.QuestionEvaluation{
		Question:   question,
		Answer:     answer,
		Score:      score,
		TimedOut:   timedOut,
		Difficulty: run.difficulty,
	})
	if err := run.advance(interviewEvaluated); err != nil {
		return err
	}
	run.adjustDifficulty()
	return nil
}
