package v1alpha1

// PipelineCreate is the request body for starting a sourcing pipeline.
type PipelineCreate struct {
	ProjectID            string   `json:"projectId" validate:"required,project_name"`
	JobDescription       string   `json:"jobDescription" validate:"required,job_description"`
	TargetPlatforms      []string `json:"targetPlatforms" validate:"required,platforms"`
	TargetCandidateCount int      `json:"targetCandidateCount" validate:"gte=0,lte=500"`
}
