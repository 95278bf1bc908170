package llm

import (
	"context"
	"fmt"
	"strings"

	api "github.com/talentflow/sourcing-engine/api/v1alpha1"
	"github.com/talentflow/sourcing-engine/internal/events"
)

// Offline collaborators for standalone mode and tests. They are pure
// functions of their inputs so reruns produce identical pipelines.

// StaticAssessor scores candidates without a model call. The blend weights
// skills over tenure; experience value flattens out at eight years.
type StaticAssessor struct{}

func (StaticAssessor) Assess(_ context.Context, candidate events.CandidateProfile, jobDescription string) (events.ScoreCard, error) {
	skill := skillOverlapScore(candidate.Skills, jobDescription)
	experience := experienceScore(candidate.ExperienceYears)
	overall := (skill*60 + experience*40) / 100

	return events.ScoreCard{
		Overall:         overall,
		SkillMatch:      skill,
		ExperienceMatch: experience,
		Recommendation:  string(api.RecommendationFromScore(overall)),
	}, nil
}

func skillOverlapScore(skills []string, jobDescription string) int {
	if len(skills) == 0 {
		return 0
	}
	haystack := strings.ToLower(jobDescription)
	hits := 0
	for _, skill := range skills {
		s := strings.ToLower(strings.TrimSpace(skill))
		if s != "" && strings.Contains(haystack, s) {
			hits++
		}
	}
	return ClampScore(hits * 100 / len(skills))
}

func experienceScore(years int) int {
	switch {
	case years <= 0:
		return 10
	case years >= 8:
		return 90
	default:
		return 10 + years*10
	}
}

// StaticDrafter produces a fixed-shape outreach message from the profile.
type StaticDrafter struct{}

func (StaticDrafter) Draft(_ context.Context, candidate events.CandidateProfile, role string) (string, error) {
	name := candidate.Name
	if name == "" {
		name = "there"
	}

	skills := candidate.Skills
	if len(skills) > 3 {
		skills = skills[:3]
	}
	focus := strings.Join(skills, ", ")
	if focus == "" {
		focus = "your background"
	}

	return fmt.Sprintf(
		"Hi %s, your work with %s caught my attention. We are hiring for: %s. Would you be open to a short conversation this week?",
		name, focus, summarizeRole(role),
	), nil
}

func summarizeRole(role string) string {
	role = strings.TrimSpace(role)
	if idx := strings.IndexByte(role, '\n'); idx >= 0 {
		role = strings.TrimSpace(role[:idx])
	}
	const max = 140
	if len(role) <= max {
		return role
	}
	cut := strings.LastIndexByte(role[:max], ' ')
	if cut <= 0 {
		cut = max
	}
	return role[:cut] + "..."
}

// questionBank holds scripted questions per difficulty level. Every entry
// carries one %s slot for the candidate's lead skill.
var questionBank = map[int][]string{
	1: {
		"What attracted you to working with %s?",
		"Walk me through a small project where you used %s.",
		"How do you keep your %s knowledge current?",
	},
	2: {
		"Describe a bug you fixed in a %s codebase and how you found it.",
		"How do you structure tests for %s code?",
		"What tooling do you rely on day to day when working in %s?",
	},
	3: {
		"Tell me about a tradeoff you made in a %s system and why.",
		"How would you profile and fix a performance problem in a %s service?",
		"Describe a code review disagreement about %s and how it resolved.",
	},
	4: {
		"Design a rate limiter for a high-traffic %s service. Walk through your choices.",
		"How would you migrate a live %s system to a new data model without downtime?",
		"Explain a concurrency bug you have seen in %s and how you would prevent it.",
	},
	5: {
		"Sketch the architecture for a multi-region deployment of a %s platform, including failure modes.",
		"How would you design backpressure end to end in a %s event pipeline?",
		"What would you change about %s itself, and what would it break?",
	},
}

// ScriptedInterviewer asks canned questions and grades answers with a
// content heuristic. Scores reward length and reasoning markers, so a
// thoughtful scripted answer lands in the hire band and an empty one at zero.
type ScriptedInterviewer struct{}

func (ScriptedInterviewer) NextQuestion(_ context.Context, ic InterviewContext) (string, error) {
	bank := questionBank[clampDifficulty(ic.Difficulty)]
	question := bank[len(ic.Asked)%len(bank)]

	focus := "software engineering"
	if len(ic.Candidate.Skills) > 0 {
		focus = ic.Candidate.Skills[0]
	}
	return fmt.Sprintf(question, focus), nil
}

func (ScriptedInterviewer) Evaluate(_ context.Context, question, answer string) (int, error) {
	trimmed := strings.TrimSpace(answer)
	if trimmed == "" {
		return 0, nil
	}

	score := 30
	switch words := len(strings.Fields(trimmed)); {
	case words >= 60:
		score += 30
	case words >= 25:
		score += 20
	case words >= 10:
		score += 10
	}

	lower := strings.ToLower(trimmed)
	for _, marker := range []string{"because", "tradeoff", "example", "instead", "measured"} {
		if strings.Contains(lower, marker) {
			score += 8
		}
	}
	return ClampScore(score), nil
}

func clampDifficulty(d int) int {
	if d < 1 {
		return 1
	}
	if d > 5 {
		return 5
	}
	return d
}
