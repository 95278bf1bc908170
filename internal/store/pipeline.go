package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/talentflow/sourcing-engine/internal/store/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SortOrder int

const (
	Unsorted SortOrder = iota
	SortByID
	SortByUpdatedTime
	SortByCreatedTime
)

type Pipeline interface {
	List(ctx context.Context, filter *PipelineQueryFilter, opts *PipelineQueryOptions) (model.PipelineList, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Pipeline, error)
	Create(ctx context.Context, pipeline model.Pipeline) (*model.Pipeline, error)
	Update(ctx context.Context, pipeline model.Pipeline) (*model.Pipeline, error)
	InitialMigration(ctx context.Context) error
}

type PipelineStore struct {
	db *gorm.DB
}

var _ Pipeline = (*PipelineStore)(nil)

func NewPipelineStore(db *gorm.DB) Pipeline {
	return &PipelineStore{db: db}
}

func (p *PipelineStore) InitialMigration(ctx context.Context) error {
	return p.getDB(ctx).AutoMigrate(&model.Pipeline{})
}

// List lists pipelines, newest first unless told otherwise.
func (p *PipelineStore) List(ctx context.Context, filter *PipelineQueryFilter, opts *PipelineQueryOptions) (model.PipelineList, error) {
	var pipelines model.PipelineList
	tx := p.getDB(ctx)

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

	if err := tx.Model(&pipelines).Find(&pipelines).Error; err != nil {
		return nil, err
	}

	return pipelines, nil
}

// Create creates a pipeline.
func (p *PipelineStore) Create(ctx context.Context, pipeline model.Pipeline) (*model.Pipeline, error) {
	if err := p.getDB(ctx).WithContext(ctx).Create(&pipeline).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}

	return &pipeline, nil
}

// Update updates a pipeline, counters and state included.
func (p *PipelineStore) Update(ctx context.Context, pipeline model.Pipeline) (*model.Pipeline, error) {
	if err := p.getDB(ctx).WithContext(ctx).First(&model.Pipeline{ID: pipeline.ID}).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	// Select("*") so zeroed counters are written too
	if tx := p.getDB(ctx).WithContext(ctx).Model(&model.Pipeline{ID: pipeline.ID}).Select("*").Omit("created_at").Clauses(clause.Returning{}).Updates(&pipeline); tx.Error != nil {
		return nil, tx.Error
	}

	return &pipeline, nil
}

// Get returns a pipeline based on its id.
func (p *PipelineStore) Get(ctx context.Context, id uuid.UUID) (*model.Pipeline, error) {
	pipeline := &model.Pipeline{ID: id}

	if err := p.getDB(ctx).WithContext(ctx).First(&pipeline).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return pipeline, nil
}

func (p *PipelineStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return p.db
}
