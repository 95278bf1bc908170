package store_test

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	api "github.com/talentflow/sourcing-engine/api/v1alpha1"
	"github.com/talentflow/sourcing-engine/internal/config"
	"github.com/talentflow/sourcing-engine/internal/store"
	"github.com/talentflow/sourcing-engine/internal/store/model"
)

var _ = Describe("pipeline store", Ordered, func() {
	var (
		s      store.Store
		gormdb *gorm.DB
	)

	BeforeAll(func() {
		db, err := store.InitDB(config.NewDefault())
		Expect(err).To(BeNil())

		s = store.NewStore(db)
		gormdb = db
		Expect(s.InitialMigration()).To(BeNil())
	})

	AfterAll(func() {
		s.Close()
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM pipelines;")
	})

	Context("create", func() {
		It("stores a pipeline with its platform list", func() {
			pipeline := model.Pipeline{
				ID:              uuid.New(),
				ProjectID:       "proj-1",
				JobDescription:  "senior golang engineer",
				TargetPlatforms: model.MakeJSONField([]string{"github", "linkedin"}),
				State:           string(api.PipelineStateInitiated),
			}

			created, err := s.Pipeline().Create(context.TODO(), pipeline)
			Expect(err).To(BeNil())
			Expect(created.State).To(Equal("initiated"))

			got, err := s.Pipeline().Get(context.TODO(), pipeline.ID)
			Expect(err).To(BeNil())
			Expect(got.Platforms()).To(Equal([]string{"github", "linkedin"}))
			Expect(got.CandidatesFound).To(Equal(0))
		})
	})

	Context("get", func() {
		It("returns ErrRecordNotFound for an unknown id", func() {
			_, err := s.Pipeline().Get(context.TODO(), uuid.New())
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})
	})

	Context("update", func() {
		It("persists counter and state changes", func() {
			pipeline := model.Pipeline{
				ID:    uuid.New(),
				State: string(api.PipelineStateInitiated),
			}
			created, err := s.Pipeline().Create(context.TODO(), pipeline)
			Expect(err).To(BeNil())

			created.State = string(api.PipelineStateScanning)
			created.CandidatesFound = 3
			_, err = s.Pipeline().Update(context.TODO(), *created)
			Expect(err).To(BeNil())

			got, err := s.Pipeline().Get(context.TODO(), pipeline.ID)
			Expect(err).To(BeNil())
			Expect(got.State).To(Equal("scanning"))
			Expect(got.CandidatesFound).To(Equal(3))
		})
	})

	Context("list", func() {
		It("filters by state", func() {
			for i, state := range []string{"initiated", "scanning", "scanning"} {
				_, err := s.Pipeline().Create(context.TODO(), model.Pipeline{
					ID:        uuid.New(),
					ProjectID: fmt.Sprintf("proj-%d", i),
					State:     state,
				})
				Expect(err).To(BeNil())
			}

			pipelines, err := s.Pipeline().List(
				context.TODO(),
				store.NewPipelineQueryFilter().ByState("scanning"),
				store.NewPipelineQueryOptions().WithSortOrder(store.SortByCreatedTime),
			)
			Expect(err).To(BeNil())
			Expect(pipelines).To(HaveLen(2))
		})

		It("filters out terminal states", func() {
			for _, state := range []string{"scoring", "completed", "cancelled"} {
				_, err := s.Pipeline().Create(context.TODO(), model.Pipeline{ID: uuid.New(), State: state})
				Expect(err).To(BeNil())
			}

			pipelines, err := s.Pipeline().List(
				context.TODO(),
				store.NewPipelineQueryFilter().ByNotInStates([]string{"completed", "failed", "cancelled"}),
				store.NewPipelineQueryOptions(),
			)
			Expect(err).To(BeNil())
			Expect(pipelines).To(HaveLen(1))
			Expect(pipelines[0].State).To(Equal("scoring"))
		})
	})

	Context("statistics", func() {
		It("counts pipelines by state", func() {
			for _, state := range []string{"scanning", "scanning", "completed"} {
				_, err := s.Pipeline().Create(context.TODO(), model.Pipeline{ID: uuid.New(), State: state})
				Expect(err).To(BeNil())
			}

			stats, err := s.Statistics(context.TODO())
			Expect(err).To(BeNil())
			Expect(stats.Total).To(Equal(3))
			Expect(stats.ByState["scanning"]).To(Equal(2))
			Expect(stats.ByState["completed"]).To(Equal(1))
		})
	})

	Context("transaction", func() {
		It("rolls back everything created in the transaction", func() {
			ctx, err := s.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			_, err = s.Pipeline().Create(ctx, model.Pipeline{ID: uuid.New(), State: "initiated"})
			Expect(err).To(BeNil())

			_, err = store.Rollback(ctx)
			Expect(err).To(BeNil())

			pipelines, err := s.Pipeline().List(context.TODO(), store.NewPipelineQueryFilter(), store.NewPipelineQueryOptions())
			Expect(err).To(BeNil())
			Expect(pipelines).To(BeEmpty())
		})

		It("commits everything created in the transaction", func() {
			ctx, err := s.NewTransactionContext(context.TODO())
			Expect(err).To(BeNil())

			_, err = s.Pipeline().Create(ctx, model.Pipeline{ID: uuid.New(), State: "initiated"})
			Expect(err).To(BeNil())

			_, err = store.Commit(ctx)
			Expect(err).To(BeNil())

			pipelines, err := s.Pipeline().List(context.TODO(), store.NewPipelineQueryFilter(), store.NewPipelineQueryOptions())
			Expect(err).To(BeNil())
			Expect(pipelines).To(HaveLen(1))
		})
	})
})
