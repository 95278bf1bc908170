package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/talentflow/sourcing-engine/internal/events"
)

// InterviewContext is everything the question generator may condition on:
// who is being interviewed, what was already asked, and the current
// difficulty level (1 = easiest, 5 = hardest).
type InterviewContext struct {
	Candidate  events.CandidateProfile
	Asked      []events.QuestionEvaluation
	Difficulty int
}

const nextQuestionPrompt = `You are a technical interviewer screening a candidate. Ask exactly one question, no preamble, no numbering.

Candidate:
- Headline: %s
- Skills: %s
- Years of experience: %d

Difficulty level: %d of 5.
%s
Do not repeat a previous question. Write the question text only.`

const evaluatePrompt = `You are a technical interviewer grading one answer. Score it 0-100 for correctness, depth and clarity. An empty or evasive answer scores close to 0.

Question:
%s

Answer:
%s

Return ONLY valid JSON matching this exact structure:
{
  "score": 0
}`

// GeminiInterviewer generates interview questions and grades answers. Both
// halves sit on one type because they share the provider client; the runner
// consumes them through separate interfaces.
type GeminiInterviewer struct {
	client Client
}

func NewGeminiInterviewer(client Client) *GeminiInterviewer {
	return &GeminiInterviewer{client: client}
}

func (g *GeminiInterviewer) NextQuestion(ctx context.Context, ic InterviewContext) (string, error) {
	prompt := fmt.Sprintf(nextQuestionPrompt,
		ic.Candidate.Headline,
		strings.Join(ic.Candidate.Skills, ", "),
		ic.Candidate.ExperienceYears,
		ic.Difficulty,
		priorQuestions(ic.Asked),
	)

	question, err := g.client.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate interview question: %w", err)
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("model returned an empty question")
	}
	return question, nil
}

func (g *GeminiInterviewer) Evaluate(ctx context.Context, question, answer string) (int, error) {
	raw, err := g.client.GenerateJSON(ctx, fmt.Sprintf(evaluatePrompt, question, answer))
	if err != nil {
		return 0, fmt.Errorf("failed to evaluate answer: %w", err)
	}

	var out struct {
		Score int `json:"score"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return 0, fmt.Errorf("failed to parse evaluation response: %w", err)
	}
	return ClampScore(out.Score), nil
}

func priorQuestions(asked []events.QuestionEvaluation) string {
	if len(asked) == 0 {
		return "This is the first question."
	}
	var b strings.Builder
	b.WriteString("Already asked:\n")
	for _, qe := range asked {
		fmt.Fprintf(&b, "- %s\n", qe.Question)
	}
	return b.String()
}
