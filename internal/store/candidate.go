package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/talentflow/sourcing-engine/internal/store/model"
	"gorm.io/gorm"
)

type Candidate interface {
	List(ctx context.Context, filter *CandidateQueryFilter, opts *CandidateQueryOptions) (model.CandidateList, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Candidate, error)
	GetByDedupeKey(ctx context.Context, pipelineID uuid.UUID, key string) (*model.Candidate, error)
	Create(ctx context.Context, candidate model.Candidate) (*model.Candidate, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error)
	CountInStatuses(ctx context.Context, pipelineID uuid.UUID, statuses ...string) (int64, error)
	InitialMigration(ctx context.Context) error
}

type CandidateStore struct {
	db *gorm.DB
}

var _ Candidate = (*CandidateStore)(nil)

func NewCandidateStore(db *gorm.DB) Candidate {
	return &CandidateStore{db: db}
}

func (c *CandidateStore) InitialMigration(ctx context.Context) error {
	return c.getDB(ctx).AutoMigrate(&model.Candidate{})
}

// List lists candidates.
func (c *CandidateStore) List(ctx context.Context, filter *CandidateQueryFilter, opts *CandidateQueryOptions) (model.CandidateList, error) {
	var candidates model.CandidateList
	tx := c.getDB(ctx)

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if opts != nil {
		for _, fn := range opts.QueryFn {
			tx = fn(tx)
		}
	}

	if err := tx.Model(&candidates).Find(&candidates).Error; err != nil {
		return nil, err
	}

	return candidates, nil
}

// Create creates a candidate. ErrDuplicateKey signals that the pipeline
// already holds a candidate with the same dedupe key.
func (c *CandidateStore) Create(ctx context.Context, candidate model.Candidate) (*model.Candidate, error) {
	if err := c.getDB(ctx).WithContext(ctx).Create(&candidate).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}

	return &candidate, nil
}

// Get returns a candidate based on its id.
func (c *CandidateStore) Get(ctx context.Context, id uuid.UUID) (*model.Candidate, error) {
	candidate := &model.Candidate{ID: id}

	if err := c.getDB(ctx).WithContext(ctx).First(&candidate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return candidate, nil
}

// GetByDedupeKey returns the pipeline's candidate carrying the given dedupe
// key.
func (c *CandidateStore) GetByDedupeKey(ctx context.Context, pipelineID uuid.UUID, key string) (*model.Candidate, error) {
	var candidate model.Candidate

	if err := c.getDB(ctx).WithContext(ctx).Where("pipeline_id = ? AND dedupe_key = ?", pipelineID, key).First(&candidate).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return &candidate, nil
}

// UpdateStatus moves a candidate from one status to another. It reports
// false when the candidate is not in the expected status. Callers treat a
// false result as an already-applied transition and skip their side effects.
func (c *CandidateStore) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (bool, error) {
	tx := c.getDB(ctx).WithContext(ctx).
		Model(&model.Candidate{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if tx.Error != nil {
		return false, tx.Error
	}

	return tx.RowsAffected == 1, nil
}

// CountInStatuses counts the pipeline's candidates currently in any of the
// given statuses.
func (c *CandidateStore) CountInStatuses(ctx context.Context, pipelineID uuid.UUID, statuses ...string) (int64, error) {
	var count int64

	if err := c.getDB(ctx).WithContext(ctx).
		Model(&model.Candidate{}).
		Where("pipeline_id = ? AND status IN ?", pipelineID, statuses).
		Count(&count).Error; err != nil {
		return 0, err
	}

	return count, nil
}

func (c *CandidateStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return c.db
}
