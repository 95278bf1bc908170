package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	api "github.com/talentflow/sourcing-engine/api/v1alpha1"
	"github.com/talentflow/sourcing-engine/internal/events"
)

const assessPrompt = `You are an expert technical recruiter. Assess how well the candidate below fits the role.

Role description:
%s

Candidate:
- Name: %s
- Headline: %s
- Skills: %s
- Years of experience: %d

Score skill match and experience match independently on a 0-100 scale, then an overall fit score. Recommendation must be one of: strong_hire, hire, no_hire.

Return ONLY valid JSON matching this exact structure:
{
  "overall": 0,
  "skill_match": 0,
  "experience_match": 0,
  "recommendation": "no_hire"
}`

// GeminiAssessor scores a candidate against a role description with one model
// call per candidate. Bias checks are not its concern; the scorer agent runs
// those locally and merges the flags in.
type GeminiAssessor struct {
	client Client
}

func NewGeminiAssessor(client Client) *GeminiAssessor {
	return &GeminiAssessor{client: client}
}

func (a *GeminiAssessor) Assess(ctx context.Context, candidate events.CandidateProfile, jobDescription string) (events.ScoreCard, error) {
	prompt := fmt.Sprintf(assessPrompt,
		jobDescription,
		candidate.Name,
		candidate.Headline,
		strings.Join(candidate.Skills, ", "),
		candidate.ExperienceYears,
	)

	raw, err := a.client.GenerateJSON(ctx, prompt)
	if err != nil {
		return events.ScoreCard{}, fmt.Errorf("failed to assess candidate: %w", err)
	}

	var out struct {
		Overall         int    `json:"overall"`
		SkillMatch      int    `json:"skill_match"`
		ExperienceMatch int    `json:"experience_match"`
		Recommendation  string `json:"recommendation"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return events.ScoreCard{}, fmt.Errorf("failed to parse assessment response: %w", err)
	}

	overall := ClampScore(out.Overall)
	return events.ScoreCard{
		Overall:         overall,
		SkillMatch:      ClampScore(out.SkillMatch),
		ExperienceMatch: ClampScore(out.ExperienceMatch),
		Recommendation:  normalizeRecommendation(out.Recommendation, overall),
	}, nil
}

// normalizeRecommendation accepts only the known enum values; anything else
// the model produced is rederived from the overall score.
func normalizeRecommendation(raw string, overall int) string {
	rec := strings.ToLower(strings.TrimSpace(raw))
	switch api.Recommendation(rec) {
	case api.RecommendationStrongHire, api.RecommendationHire, api.RecommendationNoHire:
		return rec
	default:
		return string(api.RecommendationFromScore(overall))
	}
}
