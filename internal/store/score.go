package store

import (
	"context"

	"github.com/talentflow/sourcing-engine/internal/store/model"
	"gorm.io/gorm"
)

type Score interface {
	List(ctx context.Context, filter *ScoreQueryFilter) (model.ScoreList, error)
	Create(ctx context.Context, score model.Score) (*model.Score, error)
	InitialMigration(ctx context.Context) error
}

type ScoreStore struct {
	db *gorm.DB
}

var _ Score = (*ScoreStore)(nil)

func NewScoreStore(db *gorm.DB) Score {
	return &ScoreStore{db: db}
}

func (s *ScoreStore) InitialMigration(ctx context.Context) error {
	return s.getDB(ctx).AutoMigrate(&model.Score{})
}

func (s *ScoreStore) List(ctx context.Context, filter *ScoreQueryFilter) (model.ScoreList, error) {
	var scores model.ScoreList
	tx := s.getDB(ctx)

	if filter != nil {
		for _, fn := range filter.QueryFn {
			tx = fn(tx)
		}
	}

	if err := tx.Model(&scores).Find(&scores).Error; err != nil {
		return nil, err
	}

	return scores, nil
}

func (s *ScoreStore) Create(ctx context.Context, score model.Score) (*model.Score, error) {
	if err := s.getDB(ctx).WithContext(ctx).Create(&score).Error; err != nil {
		return nil, err
	}

	return &score, nil
}

func (s *ScoreStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return s.db
}
