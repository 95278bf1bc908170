package v1alpha1

func StringToPipelineState(s string) PipelineState {
	switch s {
	case string(PipelineStateInitiated):
		return PipelineStateInitiated
	case string(PipelineStateScanning):
		return PipelineStateScanning
	case string(PipelineStateScoring):
		return PipelineStateScoring
	case string(PipelineStateEngaging):
		return PipelineStateEngaging
	case string(PipelineStateInterviewing):
		return PipelineStateInterviewing
	case string(PipelineStateCompleted):
		return PipelineStateCompleted
	case string(PipelineStateFailed):
		return PipelineStateFailed
	case string(PipelineStateCancelled):
		return PipelineStateCancelled
	default:
		return PipelineStateInitiated
	}
}

func StringToCandidateStatus(s string) CandidateStatus {
	switch s {
	case string(CandidateStatusNew):
		return CandidateStatusNew
	case string(CandidateStatusScored):
		return CandidateStatusScored
	case string(CandidateStatusContacted):
		return CandidateStatusContacted
	case string(CandidateStatusResponded):
		return CandidateStatusResponded
	case string(CandidateStatusInterviewing):
		return CandidateStatusInterviewing
	case string(CandidateStatusCompleted):
		return CandidateStatusCompleted
	case string(CandidateStatusRejected):
		return CandidateStatusRejected
	default:
		return CandidateStatusNew
	}
}

func StringToRecommendation(s string) Recommendation {
	switch s {
	case string(RecommendationStrongHire):
		return RecommendationStrongHire
	case string(RecommendationHire):
		return RecommendationHire
	case string(RecommendationNoHire):
		return RecommendationNoHire
	default:
		return RecommendationNoHire
	}
}

// RecommendationFromScore maps an overall score to a hiring recommendation.
func RecommendationFromScore(overall int) Recommendation {
	switch {
	case overall >= 85:
		return RecommendationStrongHire
	case overall >= 70:
		return RecommendationHire
	default:
		return RecommendationNoHire
	}
}
