package store_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/talentflow/sourcing-engine/internal/config"
	"github.com/talentflow/sourcing-engine/internal/events"
	"github.com/talentflow/sourcing-engine/internal/store"
	"github.com/talentflow/sourcing-engine/internal/store/model"
)

var _ = Describe("record stores", Ordered, func() {
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
		gormdb.Exec("DELETE FROM scores;")
		gormdb.Exec("DELETE FROM engagements;")
		gormdb.Exec("DELETE FROM interviews;")
	})

	Context("scores", func() {
		It("keeps every score row for a candidate", func() {
			candidateID := uuid.New()
			pipelineID := uuid.New()

			for _, overall := range []int{55, 80} {
				_, err := s.Score().Create(context.TODO(), model.Score{
					CandidateID:  candidateID,
					PipelineID:   pipelineID,
					OverallScore: overall,
					BiasFlags:    model.MakeJSONField([]string{}),
				})
				Expect(err).To(BeNil())
			}

			scores, err := s.Score().List(context.TODO(), store.NewScoreQueryFilter().ByCandidate(candidateID))
			Expect(err).To(BeNil())
			Expect(scores).To(HaveLen(2))
		})
	})

	Context("engagements", func() {
		It("returns the most recent outreach for a candidate", func() {
			candidateID := uuid.New()
			now := time.Now()

			_, err := s.Engagement().Create(context.TODO(), model.Engagement{
				CandidateID: candidateID,
				Channel:     "email",
				MessageBody: "first",
				SentAt:      now.Add(-time.Hour),
				Response:    "pending",
			})
			Expect(err).To(BeNil())

			latest, err := s.Engagement().Create(context.TODO(), model.Engagement{
				CandidateID: candidateID,
				Channel:     "email",
				MessageBody: "second",
				SentAt:      now,
				Response:    "pending",
			})
			Expect(err).To(BeNil())

			got, err := s.Engagement().GetLatestByCandidate(context.TODO(), candidateID)
			Expect(err).To(BeNil())
			Expect(got.ID).To(Equal(latest.ID))
			Expect(got.MessageBody).To(Equal("second"))
		})

		It("records the response", func() {
			candidateID := uuid.New()
			created, err := s.Engagement().Create(context.TODO(), model.Engagement{
				CandidateID: candidateID,
				Channel:     "email",
				SentAt:      time.Now(),
				Response:    "pending",
			})
			Expect(err).To(BeNil())

			respondedAt := time.Now()
			Expect(s.Engagement().SetResponse(context.TODO(), created.ID, "positive", respondedAt)).To(BeNil())

			got, err := s.Engagement().GetLatestByCandidate(context.TODO(), candidateID)
			Expect(err).To(BeNil())
			Expect(got.Response).To(Equal("positive"))
			Expect(got.RespondedAt).NotTo(BeNil())
		})

		It("refuses a response for an unknown engagement", func() {
			err := s.Engagement().SetResponse(context.TODO(), 4242, "positive", time.Now())
			Expect(err).To(MatchError(store.ErrRecordNotFound))
		})
	})

	Context("interviews", func() {
		It("rejects a replayed interview id", func() {
			interview := model.Interview{
				ID:           uuid.New(),
				CandidateID:  uuid.New(),
				PipelineID:   uuid.New(),
				OverallScore: 75,
				Evaluations: model.MakeJSONField([]events.QuestionEvaluation{
					{Question: "q1", Answer: "a1", Score: 75, Difficulty: 3},
				}),
				Recommendation: "hire",
				CompletedAt:    time.Now(),
			}

			_, err := s.Interview().Create(context.TODO(), interview)
			Expect(err).To(BeNil())

			_, err = s.Interview().Create(context.TODO(), interview)
			Expect(err).To(MatchError(store.ErrDuplicateKey))

			got, err := s.Interview().Get(context.TODO(), interview.ID)
			Expect(err).To(BeNil())
			Expect(got.OverallScore).To(Equal(75))
		})
	})
})
