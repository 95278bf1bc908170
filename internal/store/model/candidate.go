package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Candidate struct {
	gorm.Model
	ID         uuid.UUID `gorm:"primaryKey"`
	PipelineID uuid.UUID `gorm:"index;uniqueIndex:candidates_pipeline_dedupe"`
	DedupeKey  string    `gorm:"uniqueIndex:candidates_pipeline_dedupe;not null"`
	ExternalID string
	Source     string
	Profile    []byte `gorm:"type:jsonb"`
	Status     string `gorm:"index"`
}

type CandidateList []Candidate

func (c Candidate) String() string {
	val, _ := json.Marshal(c)
	return string(val)
}

func NewCandidateFromID(id uuid.UUID) *Candidate {
	return &Candidate{ID: id}
}

// Score rows are create only. Re-scoring a candidate inserts a new row so
// the scoring history stays audit-complete.
type Score struct {
	gorm.Model
	CandidateID     uuid.UUID `gorm:"index"`
	PipelineID      uuid.UUID `gorm:"index"`
	OverallScore    int
	SkillMatch      int
	ExperienceMatch int
	BiasFlags       []byte `gorm:"type:jsonb"`
	Recommendation  string
}

type ScoreList []Score

type Engagement struct {
	gorm.Model
	CandidateID uuid.UUID `gorm:"index"`
	PipelineID  uuid.UUID `gorm:"index"`
	Channel     string
	MessageBody string
	SentAt      time.Time
	Response    string
	RespondedAt *time.Time
}

type EngagementList []Engagement

// Interview rows are create only, keyed by the interview id the runner
// generated.
type Interview struct {
	gorm.Model
	ID             uuid.UUID `gorm:"primaryKey"`
	CandidateID    uuid.UUID `gorm:"index"`
	PipelineID     uuid.UUID `gorm:"index"`
	OverallScore   int
	Evaluations    []byte `gorm:"type:jsonb"`
	Recommendation string
	CompletedAt    time.Time
}

type InterviewList []Interview
