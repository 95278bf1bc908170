package store_test

import (
	"context"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	api "github.com/talentflow/sourcing-engine/api/v1alpha1"
	"github.com/talentflow/sourcing-engine/internal/config"
	"github.com/talentflow/sourcing-engine/internal/store"
	"github.com/talentflow/sourcing-engine/internal/store/model"
)

var _ = Describe("candidate store", Ordered, func() {
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
		gormdb.Exec("DELETE FROM candidates;")
	})

	Context("create", func() {
		It("rejects a duplicate dedupe key within one pipeline", func() {
			pipelineID := uuid.New()

			_, err := s.Candidate().Create(context.TODO(), model.Candidate{
				ID:         uuid.New(),
				PipelineID: pipelineID,
				DedupeKey:  "sam@example.com",
				Status:     string(api.CandidateStatusNew),
			})
			Expect(err).To(BeNil())

			_, err = s.Candidate().Create(context.TODO(), model.Candidate{
				ID:         uuid.New(),
				PipelineID: pipelineID,
				DedupeKey:  "sam@example.com",
				Status:     string(api.CandidateStatusNew),
			})
			Expect(err).To(MatchError(store.ErrDuplicateKey))
		})

		It("allows the same dedupe key in different pipelines", func() {
			_, err := s.Candidate().Create(context.TODO(), model.Candidate{
				ID:         uuid.New(),
				PipelineID: uuid.New(),
				DedupeKey:  "sam@example.com",
				Status:     string(api.CandidateStatusNew),
			})
			Expect(err).To(BeNil())

			_, err = s.Candidate().Create(context.TODO(), model.Candidate{
				ID:         uuid.New(),
				PipelineID: uuid.New(),
				DedupeKey:  "sam@example.com",
				Status:     string(api.CandidateStatusNew),
			})
			Expect(err).To(BeNil())
		})
	})

	Context("dedupe key", func() {
		It("finds a candidate by dedupe key", func() {
			pipelineID := uuid.New()
			id := uuid.New()

			_, err := s.Candidate().Create(context.TODO(), model.Candidate{
				ID:         id,
				PipelineID: pipelineID,
				DedupeKey:  "github:octocat",
				Status:     string(api.CandidateStatusNew),
			})
			Expect(err).To(BeNil())

			got, err := s.Candidate().GetByDedupeKey(context.TODO(), pipelineID, "github:octocat")
			Expect(err).To(BeNil())
			Expect(got.ID).To(Equal(id))

			_, err = s.Candidate().GetByDedupeKey(context.TODO(), uuid.New(), "github:octocat")
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})
	})

	Context("status", func() {
		It("moves the status only from the expected one", func() {
			id := uuid.New()
			_, err := s.Candidate().Create(context.TODO(), model.Candidate{
				ID:         id,
				PipelineID: uuid.New(),
				DedupeKey:  "sam@example.com",
				Status:     string(api.CandidateStatusNew),
			})
			Expect(err).To(BeNil())

			moved, err := s.Candidate().UpdateStatus(context.TODO(), id, string(api.CandidateStatusNew), string(api.CandidateStatusScored))
			Expect(err).To(BeNil())
			Expect(moved).To(BeTrue())

			// replay of the same transition is a no-op
			moved, err = s.Candidate().UpdateStatus(context.TODO(), id, string(api.CandidateStatusNew), string(api.CandidateStatusScored))
			Expect(err).To(BeNil())
			Expect(moved).To(BeFalse())

			got, err := s.Candidate().Get(context.TODO(), id)
			Expect(err).To(BeNil())
			Expect(got.Status).To(Equal("scored"))
		})
	})

	Context("count", func() {
		It("counts candidates in the given statuses", func() {
			pipelineID := uuid.New()
			for i, status := range []api.CandidateStatus{
				api.CandidateStatusNew,
				api.CandidateStatusNew,
				api.CandidateStatusScored,
				api.CandidateStatusRejected,
			} {
				_, err := s.Candidate().Create(context.TODO(), model.Candidate{
					ID:         uuid.New(),
					PipelineID: pipelineID,
					DedupeKey:  string(rune('a'+i)) + "@example.com",
					Status:     string(status),
				})
				Expect(err).To(BeNil())
			}

			count, err := s.Candidate().CountInStatuses(context.TODO(), pipelineID,
				string(api.CandidateStatusNew), string(api.CandidateStatusScored))
			Expect(err).To(BeNil())
			Expect(count).To(Equal(int64(3)))

			count, err = s.Candidate().CountInStatuses(context.TODO(), uuid.New(), string(api.CandidateStatusNew))
			Expect(err).To(BeNil())
			Expect(count).To(Equal(int64(0)))
		})
	})
})
