package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/talentflow/sourcing-engine/internal/store/model"
	"gorm.io/gorm"
)

type Engagement interface {
	List(ctx context.Context, filter *EngagementQueryFilter, opts *EngagementQueryOptions) (model.EngagementList, error)
	Create(ctx context.Context, engagement model.Engagement) (*model.Engagement, error)
	GetLatestByCandidate(ctx context.Context, candidateID uuid.UUID) (*model.Engagement, error)
	SetResponse(ctx context.Context, id uint, response string, respondedAt time.Time) error
	InitialMigration(ctx context.Context) error
}

type EngagementStore struct {
	db *gorm.DB
}

var _ Engagement = (*EngagementStore)(nil)

func NewEngagementStore(db *gorm.DB) Engagement {
	return &EngagementStore{db: db}
}

func (e *EngagementStore) InitialMigration(ctx context.Context) error {
	return e.getDB(ctx).AutoMigrate(&model.Engagement{})
}

func (e *EngagementStore) List(ctx context.Context, filter *EngagementQueryFilter, opts *EngagementQueryOptions) (model.EngagementList, error) {
	var engagements model.EngagementList
	tx := e.getDB(ctx)

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

	if err := tx.Model(&engagements).Find(&engagements).Error; err != nil {
		return nil, err
	}

	return engagements, nil
}

func (e *EngagementStore) Create(ctx context.Context, engagement model.Engagement) (*model.Engagement, error) {
	if err := e.getDB(ctx).WithContext(ctx).Create(&engagement).Error; err != nil {
		return nil, err
	}

	return &engagement, nil
}

// GetLatestByCandidate returns the candidate's most recent outreach.
func (e *EngagementStore) GetLatestByCandidate(ctx context.Context, candidateID uuid.UUID) (*model.Engagement, error) {
	var engagement model.Engagement

	if err := e.getDB(ctx).WithContext(ctx).
		Where("candidate_id = ?", candidateID).
		Order("sent_at DESC").
		First(&engagement).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return &engagement, nil
}

func (e *EngagementStore) SetResponse(ctx context.Context, id uint, response string, respondedAt time.Time) error {
	tx := e.getDB(ctx).WithContext(ctx).
		Model(&model.Engagement{}).
		Where("id = ?", id).
		Updates(map[string]any{"response": response, "responded_at": respondedAt})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrRecordNotFound
	}

	return nil
}

func (e *EngagementStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return e.db
}
