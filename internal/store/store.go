package store

import (
	"context"

	"github.com/talentflow/sourcing-engine/internal/store/model"
	"gorm.io/gorm"
)

type Store interface {
	NewTransactionContext(ctx context.Context) (context.Context, error)
	Pipeline() Pipeline
	Candidate() Candidate
	Score() Score
	Engagement() Engagement
	Interview() Interview
	InitialMigration() error
	Statistics(ctx context.Context) (model.PipelineStats, error)
	Close() error
}

type DataStore struct {
	db         *gorm.DB
	pipeline   Pipeline
	candidate  Candidate
	score      Score
	engagement Engagement
	interview  Interview
}

func NewStore(db *gorm.DB) Store {
	return &DataStore{
		db:         db,
		pipeline:   NewPipelineStore(db),
		candidate:  NewCandidateStore(db),
		score:      NewScoreStore(db),
		engagement: NewEngagementStore(db),
		interview:  NewInterviewStore(db),
	}
}

func (s *DataStore) NewTransactionContext(ctx context.Context) (context.Context, error) {
	return newTransactionContext(ctx, s.db)
}

func (s *DataStore) Pipeline() Pipeline {
	return s.pipeline
}

func (s *DataStore) Candidate() Candidate {
	return s.candidate
}

func (s *DataStore) Score() Score {
	return s.score
}

func (s *DataStore) Engagement() Engagement {
	return s.engagement
}

func (s *DataStore) Interview() Interview {
	return s.interview
}

func (s *DataStore) InitialMigration() error {
	ctx, err := s.NewTransactionContext(context.Background())
	if err != nil {
		return err
	}

	if err := s.Pipeline().InitialMigration(ctx); err != nil {
		_, _ = Rollback(ctx)
		return err
	}
	if err := s.Candidate().InitialMigration(ctx); err != nil {
		_, _ = Rollback(ctx)
		return err
	}
	if err := s.Score().InitialMigration(ctx); err != nil {
		_, _ = Rollback(ctx)
		return err
	}
	if err := s.Engagement().InitialMigration(ctx); err != nil {
		_, _ = Rollback(ctx)
		return err
	}
	if err := s.Interview().InitialMigration(ctx); err != nil {
		_, _ = Rollback(ctx)
		return err
	}

	_, err = Commit(ctx)
	return err
}

func (s *DataStore) Statistics(ctx context.Context) (model.PipelineStats, error) {
	pipelines, err := s.Pipeline().List(ctx, NewPipelineQueryFilter(), NewPipelineQueryOptions())
	if err != nil {
		return model.PipelineStats{}, err
	}
	return model.NewPipelineStats(pipelines), nil
}

func (s *DataStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
