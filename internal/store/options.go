package store

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BaseQuerier struct {
	QueryFn []func(tx *gorm.DB) *gorm.DB
}

type PipelineQueryFilter BaseQuerier

func NewPipelineQueryFilter() *PipelineQueryFilter {
	return &PipelineQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *PipelineQueryFilter) ByProjectID(projectID string) *PipelineQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("project_id = ?", projectID)
	})
	return qf
}

func (qf *PipelineQueryFilter) ByState(state string) *PipelineQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("state = ?", state)
	})
	return qf
}

func (qf *PipelineQueryFilter) ByNotInStates(states []string) *PipelineQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("state NOT IN ?", states)
	})
	return qf
}

type PipelineQueryOptions BaseQuerier

func NewPipelineQueryOptions() *PipelineQueryOptions {
	return &PipelineQueryOptions{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (o *PipelineQueryOptions) WithSortOrder(sort SortOrder) *PipelineQueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		switch sort {
		case SortByID:
			return tx.Order("id")
		case SortByUpdatedTime:
			return tx.Order("updated_at")
		case SortByCreatedTime:
			return tx.Order("created_at")
		default:
			return tx
		}
	})
	return o
}

type CandidateQueryFilter BaseQuerier

func NewCandidateQueryFilter() *CandidateQueryFilter {
	return &CandidateQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *CandidateQueryFilter) ByPipeline(pipelineID uuid.UUID) *CandidateQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("pipeline_id = ?", pipelineID)
	})
	return qf
}

func (qf *CandidateQueryFilter) ByStatus(statuses ...string) *CandidateQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("status IN ?", statuses)
	})
	return qf
}

type CandidateQueryOptions BaseQuerier

func NewCandidateQueryOptions() *CandidateQueryOptions {
	return &CandidateQueryOptions{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (o *CandidateQueryOptions) WithSortOrder(sort SortOrder) *CandidateQueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		switch sort {
		case SortByID:
			return tx.Order("id")
		case SortByUpdatedTime:
			return tx.Order("updated_at")
		case SortByCreatedTime:
			return tx.Order("created_at")
		default:
			return tx
		}
	})
	return o
}

type ScoreQueryFilter BaseQuerier

func NewScoreQueryFilter() *ScoreQueryFilter {
	return &ScoreQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *ScoreQueryFilter) ByCandidate(candidateID uuid.UUID) *ScoreQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("candidate_id = ?", candidateID)
	})
	return qf
}

func (qf *ScoreQueryFilter) ByPipeline(pipelineID uuid.UUID) *ScoreQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("pipeline_id = ?", pipelineID)
	})
	return qf
}

type EngagementQueryFilter BaseQuerier

func NewEngagementQueryFilter() *EngagementQueryFilter {
	return &EngagementQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *EngagementQueryFilter) ByCandidate(candidateID uuid.UUID) *EngagementQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("candidate_id = ?", candidateID)
	})
	return qf
}

func (qf *EngagementQueryFilter) ByPipeline(pipelineID uuid.UUID) *EngagementQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("pipeline_id = ?", pipelineID)
	})
	return qf
}

type EngagementQueryOptions BaseQuerier

func NewEngagementQueryOptions() *EngagementQueryOptions {
	return &EngagementQueryOptions{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (o *EngagementQueryOptions) WithSortOrder(sort SortOrder) *EngagementQueryOptions {
	o.QueryFn = append(o.QueryFn, func(tx *gorm.DB) *gorm.DB {
		switch sort {
		case SortByID:
			return tx.Order("id")
		case SortByUpdatedTime:
			return tx.Order("updated_at")
		case SortByCreatedTime:
			return tx.Order("created_at")
		default:
			return tx
		}
	})
	return o
}

type InterviewQueryFilter BaseQuerier

func NewInterviewQueryFilter() *InterviewQueryFilter {
	return &InterviewQueryFilter{QueryFn: make([]func(tx *gorm.DB) *gorm.DB, 0)}
}

func (qf *InterviewQueryFilter) ByCandidate(candidateID uuid.UUID) *InterviewQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("candidate_id = ?", candidateID)
	})
	return qf
}

func (qf *InterviewQueryFilter) ByPipeline(pipelineID uuid.UUID) *InterviewQueryFilter {
	qf.QueryFn = append(qf.QueryFn, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("pipeline_id = ?", pipelineID)
	})
	return qf
}
