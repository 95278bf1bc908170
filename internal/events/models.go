package events

import (
	"time"

	"github.com/google/uuid"
)

// CandidateProfile is the portable identity block carried by discovery and
// trigger events. Contact is the primary channel (usually an email address)
// and may be empty for profiles scraped without one.
type CandidateProfile struct {
	ID              uuid.UUID `json:"id"`
	Source          string    `json:"source"`
	ExternalID      string    `json:"external_id"`
	Name            string    `json:"name"`
	Contact         string    `json:"contact"`
	Headline        string    `json:"headline"`
	Skills          []string  `json:"skills"`
	ExperienceYears int       `json:"experience_years"`
	Location        string    `json:"location"`
	Pronouns        string    `json:"pronouns"`
}

// ScoreCard is the merged output of the quality scorer: the collaborator
// assessment plus the local bias rule check.
type ScoreCard struct {
	Overall         int      `json:"overall"`
	SkillMatch      int      `json:"skill_match"`
	ExperienceMatch int      `json:"experience_match"`
	BiasFlags       []string `json:"bias_flags"`
	Recommendation  string   `json:"recommendation"`
}

// QuestionEvaluation is one interview round in completion order.
type QuestionEvaluation struct {
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Score      int    `json:"score"`
	TimedOut   bool   `json:"timed_out"`
	Difficulty int    `json:"difficulty"`
}

type ScanTrigger struct {
	PipelineID     uuid.UUID `json:"pipeline_id"`
	ProjectID      string    `json:"project_id"`
	JobDescription string    `json:"job_description"`
	Platforms      []string  `json:"platforms"`
	TargetCount    int       `json:"target_count"`
}

type QueryBuildTrigger struct {
	PipelineID     uuid.UUID `json:"pipeline_id"`
	JobDescription string    `json:"job_description"`
	Platforms      []string  `json:"platforms"`
}

type QueryGenerated struct {
	PipelineID uuid.UUID `json:"pipeline_id"`
	Platform   string    `json:"platform"`
	Query      string    `json:"query"`
	Keywords   []string  `json:"keywords"`
}

type CandidateFound struct {
	Candidate CandidateProfile `json:"candidate"`
}

type CandidateScored struct {
	CandidateID uuid.UUID        `json:"candidate_id"`
	Candidate   CandidateProfile `json:"candidate"`
	Score       ScoreCard        `json:"score"`
}

type EngagementTrigger struct {
	CandidateID uuid.UUID        `json:"candidate_id"`
	Candidate   CandidateProfile `json:"candidate"`
	Role        string           `json:"role"`
}

type OutreachSent struct {
	CandidateID uuid.UUID `json:"candidate_id"`
	Channel     string    `json:"channel"`
	Message     string    `json:"message"`
	SentAt      time.Time `json:"sent_at"`
}

type OutreachResponse struct {
	CandidateID uuid.UUID `json:"candidate_id"`
	Response    string    `json:"response"`
	RespondedAt time.Time `json:"responded_at"`
}

type InterviewTrigger struct {
	CandidateID   uuid.UUID        `json:"candidate_id"`
	Candidate     CandidateProfile `json:"candidate"`
	QuestionCount int              `json:"question_count"`
}

type InterviewCompleted struct {
	InterviewID    uuid.UUID            `json:"interview_id"`
	CandidateID    uuid.UUID            `json:"candidate_id"`
	OverallScore   int                  `json:"overall_score"`
	Evaluations    []QuestionEvaluation `json:"evaluations"`
	Recommendation string               `json:"recommendation"`
	CompletedAt    time.Time            `json:"completed_at"`
}

type ToolSyncTrigger struct {
	CandidateID    uuid.UUID `json:"candidate_id"`
	InterviewID    uuid.UUID `json:"interview_id"`
	Recommendation string    `json:"recommendation"`
	OverallScore   int       `json:"overall_score"`
}

type ToolSynced struct {
	CandidateID uuid.UUID `json:"candidate_id"`
	System      string    `json:"system"`
	ExternalRef string    `json:"external_ref"`
}

// AgentFailure is the payload of every *Failed message type. Stage names the
// agent that gave up, Attempts how many tries it made.
type AgentFailure struct {
	Stage       string    `json:"stage"`
	CandidateID uuid.UUID `json:"candidate_id"`
	Kind        string    `json:"kind"`
	Reason      string    `json:"reason"`
	Attempts    int       `json:"attempts"`
}

type PipelineCancelled struct {
	PipelineID uuid.UUID `json:"pipeline_id"`
	Reason     string    `json:"reason"`
}
