package v1alpha1

// PipelineState is the lifecycle state of a sourcing pipeline. Transitions
// move forward only; completed, failed and cancelled are terminal.
type PipelineState string

const (
	PipelineStateInitiated    PipelineState = "initiated"
	PipelineStateScanning     PipelineState = "scanning"
	PipelineStateScoring      PipelineState = "scoring"
	PipelineStateEngaging     PipelineState = "engaging"
	PipelineStateInterviewing PipelineState = "interviewing"
	PipelineStateCompleted    PipelineState = "completed"
	PipelineStateFailed       PipelineState = "failed"
	PipelineStateCancelled    PipelineState = "cancelled"
)

// CandidateStatus tracks how far a single candidate has progressed inside a
// pipeline. Counter updates are gated on status transitions so replayed
// events never double count.
type CandidateStatus string

const (
	CandidateStatusNew          CandidateStatus = "new"
	CandidateStatusScored       CandidateStatus = "scored"
	CandidateStatusContacted    CandidateStatus = "contacted"
	CandidateStatusResponded    CandidateStatus = "responded"
	CandidateStatusInterviewing CandidateStatus = "interviewing"
	CandidateStatusCompleted    CandidateStatus = "completed"
	CandidateStatusRejected     CandidateStatus = "rejected"
)

// Recommendation is the hiring signal attached to scores and interview
// reports.
type Recommendation string

const (
	RecommendationStrongHire Recommendation = "strong_hire"
	RecommendationHire       Recommendation = "hire"
	RecommendationNoHire     Recommendation = "no_hire"
)

// ResponseKind is the outcome of an outreach message.
type ResponseKind string

const (
	ResponsePending  ResponseKind = "pending"
	ResponsePositive ResponseKind = "positive"
	ResponseNegative ResponseKind = "negative"
)

// AgentHealth is the supervisor's classification of a worker agent.
type AgentHealth string

const (
	AgentHealthy     AgentHealth = "healthy"
	AgentDegraded    AgentHealth = "degraded"
	AgentUnreachable AgentHealth = "unreachable"
)
