package v1alpha1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	api "github.com/talentflow/sourcing-engine/api/v1alpha1"
	"github.com/talentflow/sourcing-engine/internal/config"
	"github.com/talentflow/sourcing-engine/internal/coordinator"
	"github.com/talentflow/sourcing-engine/internal/events"
	handlers "github.com/talentflow/sourcing-engine/internal/handlers/v1alpha1"
	"github.com/talentflow/sourcing-engine/internal/store"
	"github.com/talentflow/sourcing-engine/internal/supervisor"
)

type recordingEmitter struct {
	mu      sync.Mutex
	emitted []cloudevents.Event
}

func (r *recordingEmitter) Emit(_ string, e cloudevents.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.emitted = append(r.emitted, e)
}

func (r *recordingEmitter) countOf(t events.MessageType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.emitted {
		if events.ParseMessageType(e.Type()) == t {
			n++
		}
	}
	return n
}

type stubAgents struct {
	statuses []supervisor.AgentStatus
}

func (s *stubAgents) Status() []supervisor.AgentStatus { return s.statuses }

var _ = Describe("pipeline handlers", Ordered, func() {
	var (
		s       store.Store
		gormdb  *gorm.DB
		emitter *recordingEmitter
		agents  *stubAgents
		router  *chi.Mux
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

	BeforeEach(func() {
		cfg := config.NewDefault()
		cfg.Coordinator.QuiescenceWindow = time.Hour

		emitter = &recordingEmitter{}
		agents = &stubAgents{statuses: []supervisor.AgentStatus{
			{Agent: "scanner", Health: supervisor.HealthHealthy},
			{Agent: "quality", Health: supervisor.HealthHealthy},
		}}

		router = chi.NewRouter()
		handlers.RegisterApi(router, handlers.NewServiceHandler(
			coordinator.New(s, emitter, nil, cfg), agents))
	})

	AfterEach(func() {
		gormdb.Exec("DELETE FROM interviews;")
		gormdb.Exec("DELETE FROM engagements;")
		gormdb.Exec("DELETE FROM scores;")
		gormdb.Exec("DELETE FROM candidates;")
		gormdb.Exec("DELETE FROM pipelines;")
	})

	do := func(method, target string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, target, &buf)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	createPipeline := func() uuid.UUID {
		rec := do(http.MethodPost, "/api/v1/pipelines", api.PipelineCreate{
			ProjectID:            "backend-hiring",
			JobDescription:       "Senior Go engineer building Kubernetes operators",
			TargetPlatforms:      []string{"linkedin", "github"},
			TargetCandidateCount: 10,
		})
		Expect(rec.Code).To(Equal(http.StatusAccepted))

		var created api.PipelineCreated
		Expect(json.Unmarshal(rec.Body.Bytes(), &created)).To(Succeed())
		return created.ID
	}

	Context("create", func() {
		It("accepts a valid request and kicks off discovery", func() {
			rec := do(http.MethodPost, "/api/v1/pipelines", api.PipelineCreate{
				ProjectID:            "backend-hiring",
				JobDescription:       "Senior Go engineer",
				TargetPlatforms:      []string{"linkedin", "github"},
				TargetCandidateCount: 10,
			})
			Expect(rec.Code).To(Equal(http.StatusAccepted))

			var created api.PipelineCreated
			Expect(json.Unmarshal(rec.Body.Bytes(), &created)).To(Succeed())
			Expect(created.ID).NotTo(Equal(uuid.Nil))
			Expect(created.State).To(Equal(api.PipelineStateInitiated))

			Expect(emitter.countOf(events.MessageTypeScanTrigger)).To(Equal(1))
			Expect(emitter.countOf(events.MessageTypeQueryBuildTrigger)).To(Equal(1))

			pipeline, err := s.Pipeline().Get(context.TODO(), created.ID)
			Expect(err).To(BeNil())
			Expect(pipeline.ProjectID).To(Equal("backend-hiring"))
		})

		It("rejects a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/pipelines", bytes.NewBufferString("{not json"))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("rejects an unknown platform", func() {
			rec := do(http.MethodPost, "/api/v1/pipelines", api.PipelineCreate{
				ProjectID:       "backend-hiring",
				JobDescription:  "Senior Go engineer",
				TargetPlatforms: []string{"myspace"},
			})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))

			var apiErr api.Error
			Expect(json.Unmarshal(rec.Body.Bytes(), &apiErr)).To(Succeed())
			Expect(apiErr.Message).NotTo(BeEmpty())
		})

		It("rejects a blank job description", func() {
			rec := do(http.MethodPost, "/api/v1/pipelines", api.PipelineCreate{
				ProjectID:       "backend-hiring",
				JobDescription:  "   ",
				TargetPlatforms: []string{"github"},
			})
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Context("get", func() {
		It("returns the pipeline snapshot", func() {
			id := createPipeline()

			rec := do(http.MethodGet, "/api/v1/pipelines/"+id.String(), nil)
			Expect(rec.Code).To(Equal(http.StatusOK))

			var pipeline api.Pipeline
			Expect(json.Unmarshal(rec.Body.Bytes(), &pipeline)).To(Succeed())
			Expect(pipeline.ID).To(Equal(id))
			Expect(pipeline.State).To(Equal(api.PipelineStateInitiated))
			Expect(pipeline.TargetPlatforms).To(ConsistOf("linkedin", "github"))
			Expect(pipeline.Counters.CandidatesFound).To(BeZero())
		})

		It("returns 404 for an unknown pipeline", func() {
			rec := do(http.MethodGet, "/api/v1/pipelines/"+uuid.NewString(), nil)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 400 for a malformed id", func() {
			rec := do(http.MethodGet, "/api/v1/pipelines/not-a-uuid", nil)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Context("list", func() {
		It("lists pipelines and filters by project", func() {
			createPipeline()
			createPipeline()

			rec := do(http.MethodGet, "/api/v1/pipelines", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))

			var all api.PipelineList
			Expect(json.Unmarshal(rec.Body.Bytes(), &all)).To(Succeed())
			Expect(all).To(HaveLen(2))

			rec = do(http.MethodGet, "/api/v1/pipelines?project=no-such-project", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))

			var none api.PipelineList
			Expect(json.Unmarshal(rec.Body.Bytes(), &none)).To(Succeed())
			Expect(none).To(BeEmpty())

			rec = do(http.MethodGet, "/api/v1/pipelines?state=initiated", nil)
			var initiated api.PipelineList
			Expect(json.Unmarshal(rec.Body.Bytes(), &initiated)).To(Succeed())
			Expect(initiated).To(HaveLen(2))
			Expect(initiated[0].ID).NotTo(Equal(uuid.Nil))
		})
	})

	Context("cancel", func() {
		It("cancels a running pipeline and is idempotent", func() {
			id := createPipeline()

			rec := do(http.MethodPost, "/api/v1/pipelines/"+id.String()+"/cancel", map[string]string{"reason": "role closed"})
			Expect(rec.Code).To(Equal(http.StatusOK))

			var cancelled api.CancelResponse
			Expect(json.Unmarshal(rec.Body.Bytes(), &cancelled)).To(Succeed())
			Expect(cancelled.State).To(Equal(api.PipelineStateCancelled))

			// cancelling again reports the same state instead of conflicting
			rec = do(http.MethodPost, "/api/v1/pipelines/"+id.String()+"/cancel", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))
		})

		It("conflicts on a completed pipeline", func() {
			id := createPipeline()
			tx := gormdb.Exec(fmt.Sprintf("UPDATE pipelines SET state = 'completed' WHERE id = '%s';", id))
			Expect(tx.Error).To(BeNil())

			rec := do(http.MethodPost, "/api/v1/pipelines/"+id.String()+"/cancel", nil)
			Expect(rec.Code).To(Equal(http.StatusConflict))
		})

		It("returns 404 for an unknown pipeline", func() {
			rec := do(http.MethodPost, "/api/v1/pipelines/"+uuid.NewString()+"/cancel", nil)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})
	})

	Context("health", func() {
		It("reports ok with per agent health", func() {
			rec := do(http.MethodGet, "/api/v1/health", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))

			var health api.Health
			Expect(json.Unmarshal(rec.Body.Bytes(), &health)).To(Succeed())
			Expect(health.Status).To(Equal("ok"))
			Expect(health.Agents).To(HaveKeyWithValue("scanner", api.AgentHealthy))
		})

		It("degrades when an agent is unreachable", func() {
			agents.statuses = []supervisor.AgentStatus{
				{Agent: "scanner", Health: supervisor.HealthUnreachable},
			}

			rec := do(http.MethodGet, "/api/v1/health", nil)
			Expect(rec.Code).To(Equal(http.StatusOK))

			var health api.Health
			Expect(json.Unmarshal(rec.Body.Bytes(), &health)).To(Succeed())
			Expect(health.Status).To(Equal("degraded"))
			Expect(health.Agents).To(HaveKeyWithValue("scanner", api.AgentUnreachable))
		})
	})
})
