package agent

import (
	"strings"

	"github.com/talentflow/sourcing-engine/internal/events"
	"github.com/thoas/go-funk"
)

// Bias flags attached to score records. A flag means the demographic signal
// was visible to the assessment, not that the candidate was penalized.
const (
	FlagGenderedHonorific = "gendered_honorific"
	FlagLocationDisclosed = "location_disclosed"
	FlagPronounsDisclosed = "pronouns_disclosed"
)

var honorifics = []string{"mr", "mrs", "ms", "miss", "mx", "sir", "madam", "herr", "frau"}

// CheckBias runs the deterministic audit rules over the profile fields a
// fair assessment must not weigh. The rules are pure pattern checks, kept
// apart from the model call so they stay reproducible when the scoring
// collaborator changes.
func CheckBias(p events.CandidateProfile) []string {
	var flags []string

	if fields := strings.Fields(p.Name); len(fields) > 0 {
		first := strings.ToLower(strings.TrimSuffix(fields[0], "."))
		if funk.ContainsString(honorifics, first) {
			flags = append(flags, FlagGenderedHonorific)
		}
	}
	if strings.TrimSpace(p.Location) != "" {
		flags = append(flags, FlagLocationDisclosed)
	}
	if strings.TrimSpace(p.Pronouns) != "" {
		flags = append(flags, FlagPronounsDisclosed)
	}

	return flags
}
