package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/talentflow/sourcing-engine/internal/events"
)

const draftPrompt = `You are a recruiter writing a first outreach message to a candidate. Keep it short (under 120 words), specific to their background, and end with a clear question about their interest. No subject line, no placeholders, no markdown.

Role:
%s

Candidate:
- Name: %s
- Headline: %s
- Skills: %s

Write the message text only.`

// GeminiDrafter writes a personalized outreach message for one candidate.
type GeminiDrafter struct {
	client Client
}

func NewGeminiDrafter(client Client) *GeminiDrafter {
	return &GeminiDrafter{client: client}
}

func (d *GeminiDrafter) Draft(ctx context.Context, candidate events.CandidateProfile, role string) (string, error) {
	prompt := fmt.Sprintf(draftPrompt,
		role,
		candidate.Name,
		candidate.Headline,
		strings.Join(candidate.Skills, ", "),
	)

	message, err := d.client.GenerateContent(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to draft outreach message: %w", err)
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return "", fmt.Errorf("model returned an empty outreach message")
	}
	return message, nil
}
