package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/talentflow/sourcing-engine/internal/store/model"
	"gorm.io/gorm"
)

type Interview interface {
	List(ctx context.Context, filter *InterviewQueryFilter) (model.InterviewList, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Interview, error)
	Create(ctx context.Context, interview model.Interview) (*model.Interview, error)
	InitialMigration(ctx context.Context) error
}

type InterviewStore struct {
	db *gorm.DB
}

var _ Interview = (*InterviewStore)(nil)

func NewInterviewStore(db *gorm.DB) Interview {
	return &InterviewStore{db: db}
}

func (i *InterviewStore) InitialMigration(ctx context.Context) error {
	return i.getDB(ctx).AutoMigrate(&model.Interview{})
}

func (i *InterviewStore) List(ctx context.Context, filter *InterviewQueryFilter) (model.InterviewList, error) {
	var interviews model.InterviewList
	tx := i.getDB(ctx)

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if err := tx.Model(&interviews).Find(&interviews).Error; err != nil {
		return nil, err
	}

	return interviews, nil
}

func (i *InterviewStore) Get(ctx context.Context, id uuid.UUID) (*model.Interview, error) {
	interview := &model.Interview{ID: id}

	if err := i.getDB(ctx).WithContext(ctx).First(&interview).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	return interview, nil
}

// Create records a finished interview. Replayed completion events hit the
// primary key and come back as ErrDuplicateKey.
func (i *InterviewStore) Create(ctx context.Context, interview model.Interview) (*model.Interview, error) {
	if err := i.getDB(ctx).WithContext(ctx).Create(&interview).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}

	return &interview, nil
}

func (i *InterviewStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return i.db
}
