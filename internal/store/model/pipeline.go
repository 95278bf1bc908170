package model

import (
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Pipeline struct {
	gorm.Model
	ID                   uuid.UUID `gorm:"primaryKey"`
	ProjectID            string    `gorm:"index"`
	JobDescription       string
	TargetPlatforms      []byte `gorm:"type:jsonb"`
	TargetCandidateCount int
	State                string `gorm:"index"`
	FailureReason        *string

	// Funnel counters. Mutated only by the coordinator under the pipeline
	// lock; contacted <= scored <= found holds at all times.
	CandidatesFound     int
	CandidatesScored    int
	CandidatesContacted int
	CandidatesResponded int
	InterviewsScheduled int
	InterviewsCompleted int
	StrongHires         int
}

type PipelineList []Pipeline

func (p Pipeline) String() string {
	val, _ := json.Marshal(p)
	return string(val)
}

// Platforms decodes the stored platform list.
func (p *Pipeline) Platforms() []string {
	var out []string
	_ = json.Unmarshal(p.TargetPlatforms, &out)
	return out
}

func NewPipelineFromID(id uuid.UUID) *Pipeline {
	return &Pipeline{ID: id}
}

// MakeJSONField marshals v for storage in a jsonb column.
func MakeJSONField[T any](v T) []byte {
	data, _ := json.Marshal(v)
	return data
}

// PipelineStats aggregates pipelines by state for the metrics gauges.
type PipelineStats struct {
	Total   int
	ByState map[string]int
}

func NewPipelineStats(pipelines PipelineList) PipelineStats {
	stats := PipelineStats{ByState: make(map[string]int)}
	for _, p := range pipelines {
		stats.Total++
		stats.ByState[p.State]++
	}
	return stats
}
