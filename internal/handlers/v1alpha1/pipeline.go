package v1alpha1

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	api "github.com/talentflow/sourcing-engine/api/v1alpha1"
	"github.com/talentflow/sourcing-engine/internal/coordinator"
	"github.com/talentflow/sourcing-engine/internal/handlers/v1alpha1/mappers"
	"github.com/talentflow/sourcing-engine/internal/handlers/validator"
	"github.com/talentflow/sourcing-engine/internal/supervisor"
	"go.uber.org/zap"
)

// AgentStatusSource reports worker agent health for the health endpoint.
// Satisfied by the supervisor.
type AgentStatusSource interface {
	Status() []supervisor.AgentStatus
}

type ServiceHandler struct {
	pipelines *coordinator.Coordinator
	agents    AgentStatusSource
}

func NewServiceHandler(pipelines *coordinator.Coordinator, agents AgentStatusSource) *ServiceHandler {
	return &ServiceHandler{
		pipelines: pipelines,
		agents:    agents,
	}
}

func RegisterApi(router *chi.Mux, h *ServiceHandler) {
	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.GetHealth)
		r.Route("/pipelines", func(r chi.Router) {
			r.Post("/", h.CreatePipeline)
			r.Get("/", h.ListPipelines)
			r.Get("/{id}", h.GetPipeline)
			r.Post("/{id}/cancel", h.CancelPipeline)
		})
	})
}

// (POST /api/v1/pipelines)
func (h *ServiceHandler) CreatePipeline(w http.ResponseWriter, r *http.Request) {
	var form api.PipelineCreate
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	v := validator.NewValidator()
	v.Register(validator.NewPipelineValidationRules()...)
	if err := v.Struct(form); err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	pipeline, err := h.pipelines.StartPipeline(r.Context(), mappers.PipelineFormApi(form))
	if err != nil {
		switch err.(type) {
		case *coordinator.ErrInvalidRequest:
			respondError(w, r, http.StatusBadRequest, err.Error())
		default:
			zap.S().Named("rest").Errorw("failed to start pipeline", "project", form.ProjectID, "error", err)
			respondError(w, r, http.StatusInternalServerError, "failed to start pipeline")
		}
		return
	}

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, api.PipelineCreated{
		ID:    pipeline.ID,
		State: api.StringToPipelineState(pipeline.State),
	})
}

// (GET /api/v1/pipelines)
func (h *ServiceHandler) ListPipelines(w http.ResponseWriter, r *http.Request) {
	filter := coordinator.ListFilter{
		ProjectID: r.URL.Query().Get("project"),
	}
	if state := r.URL.Query().Get("state"); state != "" {
		filter.State = api.StringToPipelineState(state)
	}

	pipelines, err := h.pipelines.ListPipelines(r.Context(), filter)
	if err != nil {
		zap.S().Named("rest").Errorw("failed to list pipelines", "error", err)
		respondError(w, r, http.StatusInternalServerError, "failed to list pipelines")
		return
	}

	render.JSON(w, r, mappers.PipelineListToApi(pipelines))
}

// (GET /api/v1/pipelines/{id})
func (h *ServiceHandler) GetPipeline(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid pipeline id")
		return
	}

	pipeline, err := h.pipelines.GetPipeline(r.Context(), id)
	if err != nil {
		switch err.(type) {
		case *coordinator.ErrPipelineNotFound:
			respondError(w, r, http.StatusNotFound, err.Error())
		default:
			zap.S().Named("rest").Errorw("failed to get pipeline", "pipeline", id, "error", err)
			respondError(w, r, http.StatusInternalServerError, "failed to get pipeline")
		}
		return
	}

	render.JSON(w, r, mappers.PipelineToApi(*pipeline))
}

// (POST /api/v1/pipelines/{id}/cancel)
func (h *ServiceHandler) CancelPipeline(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid pipeline id")
		return
	}

	// the body is optional; an empty or absent reason gets a default
	var body struct {
		Reason string `json:"reason"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)

	pipeline, err := h.pipelines.CancelPipeline(r.Context(), id, body.Reason)
	if err != nil {
		switch err.(type) {
		case *coordinator.ErrPipelineNotFound:
			respondError(w, r, http.StatusNotFound, err.Error())
		case *coordinator.ErrStateConflict:
			respondError(w, r, http.StatusConflict, err.Error())
		default:
			zap.S().Named("rest").Errorw("failed to cancel pipeline", "pipeline", id, "error", err)
			respondError(w, r, http.StatusInternalServerError, "failed to cancel pipeline")
		}
		return
	}

	render.JSON(w, r, api.CancelResponse{
		ID:    pipeline.ID,
		State: api.StringToPipelineState(pipeline.State),
	})
}

// (GET /api/v1/health)
func (h *ServiceHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	reply := api.Health{Status: "ok"}

	if h.agents != nil {
		statuses := h.agents.Status()
		reply.Agents = make(map[string]api.AgentHealth, len(statuses))
		for _, status := range statuses {
			reply.Agents[status.Agent] = api.AgentHealth(status.Health)
			if status.Health == supervisor.HealthUnreachable {
				reply.Status = "degraded"
			}
		}
	}

	render.JSON(w, r, reply)
}

func respondError(w http.ResponseWriter, r *http.Request, code int, message string) {
	render.Status(r, code)
	render.JSON(w, r, api.Error{Message: message})
}
