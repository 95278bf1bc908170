package mappers

import (
	api "github.com/talentflow/sourcing-engine/api/v1alpha1"
	"github.com/talentflow/sourcing-engine/internal/coordinator"
	"github.com/talentflow/sourcing-engine/internal/store/model"
)

func PipelineFormApi(resource api.PipelineCreate) coordinator.StartForm {
	return coordinator.StartForm{
		ProjectID:            resource.ProjectID,
		JobDescription:       resource.JobDescription,
		TargetPlatforms:      resource.TargetPlatforms,
		TargetCandidateCount: resource.TargetCandidateCount,
	}
}

func PipelineToApi(p model.Pipeline) api.Pipeline {
	return api.Pipeline{
		ID:                   p.ID,
		ProjectID:            p.ProjectID,
		JobDescription:       p.JobDescription,
		TargetPlatforms:      p.Platforms(),
		TargetCandidateCount: p.TargetCandidateCount,
		State:                api.StringToPipelineState(p.State),
		Counters: api.PipelineCounters{
			CandidatesFound:     p.CandidatesFound,
			CandidatesScored:    p.CandidatesScored,
			CandidatesContacted: p.CandidatesContacted,
			CandidatesResponded: p.CandidatesResponded,
			InterviewsScheduled: p.InterviewsScheduled,
			InterviewsCompleted: p.InterviewsCompleted,
			StrongHires:         p.StrongHires,
		},
		FailureReason: p.FailureReason,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func PipelineListToApi(pipelines model.PipelineList) api.PipelineList {
	out := make(api.PipelineList, 0, len(pipelines))
	for _, p := range pipelines {
		out = append(out, PipelineToApi(p))
	}
	return out
}
