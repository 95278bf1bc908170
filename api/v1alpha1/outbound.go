package v1alpha1

import (
	"time"

	"github.com/google/uuid"
)

// Pipeline is the read-side snapshot of a sourcing pipeline.
type Pipeline struct {
	ID                   uuid.UUID        `json:"id"`
	ProjectID            string           `json:"projectId"`
	JobDescription       string           `json:"jobDescription"`
	TargetPlatforms      []string         `json:"targetPlatforms"`
	TargetCandidateCount int              `json:"targetCandidateCount"`
	State                PipelineState    `json:"state"`
	Counters             PipelineCounters `json:"counters"`
	FailureReason        *string          `json:"failureReason,omitempty"`
	CreatedAt            time.Time        `json:"createdAt"`
	UpdatedAt            time.Time        `json:"updatedAt"`
}

// PipelineCounters aggregates funnel progress. The chain
// contacted <= scored <= found holds at every point in time.
type PipelineCounters struct {
	CandidatesFound     int `json:"candidatesFound"`
	CandidatesScored    int `json:"candidatesScored"`
	CandidatesContacted int `json:"candidatesContacted"`
	CandidatesResponded int `json:"candidatesResponded"`
	InterviewsScheduled int `json:"interviewsScheduled"`
	InterviewsCompleted int `json:"interviewsCompleted"`
	StrongHires         int `json:"strongHires"`
}

type PipelineList []Pipeline

// PipelineCreated is returned with 202 Accepted when a pipeline starts.
type PipelineCreated struct {
	ID    uuid.UUID     `json:"id"`
	State PipelineState `json:"state"`
}

// CancelResponse reports the pipeline state after a cancel request.
type CancelResponse struct {
	ID    uuid.UUID     `json:"id"`
	State PipelineState `json:"state"`
}

type Health struct {
	Status string                 `json:"status"`
	Agents map[string]AgentHealth `json:"agents,omitempty"`
}

type Error struct {
	Message string `json:"message"`
}
