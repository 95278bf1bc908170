package agent

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	api "github.com/talentflow/sourcing-engine/api/v1alpha1"
	"github.com/talentflow/sourcing-engine/internal/events"
	"go.uber.org/zap"
)

// Simulated collaborators back standalone mode and tests. Everything is
// derived from the configured seed so a rerun produces the same funnel.

var simFirstNames = []string{
	"Ada", "Grace", "Alan", "Edsger", "Barbara", "Donald", "Radia", "Ken",
	"Frances", "Dennis", "Margaret", "Leslie", "Niklaus", "Anita", "Tony",
}

var simLastNames = []string{
	"Hoffman", "Okafor", "Lindqvist", "Tanaka", "Moreau", "Silva", "Novak",
	"Haugen", "Demir", "Banerjee", "Kowalski", "Ferrara", "Andersson",
}

var simSkillCatalog = []string{
	"Go", "Python", "Kubernetes", "PostgreSQL", "Kafka", "Terraform",
	"React", "TypeScript", "AWS", "gRPC", "Docker", "Rust",
}

var simLocations = []string{
	"Berlin", "Toronto", "Austin", "Oslo", "Singapore", "Porto", "",
	"Melbourne", "", "Nairobi",
}

var simPronouns = []string{"", "", "", "she/her", "he/him", "", "they/them", ""}

// SimulatedSearch fabricates candidate profiles per platform. A slice of
// each profile's skills comes from the query so downstream scoring sees a
// realistic spread of strong and weak matches.
type SimulatedSearch struct {
	seed int64
}

func NewSimulatedSearch(seed int64) *SimulatedSearch {
	return &SimulatedSearch{seed: seed}
}

func (s *SimulatedSearch) Search(_ context.Context, platform, query string, limit int) ([]events.CandidateProfile, error) {
	if limit <= 0 {
		return nil, nil
	}

	h := fnv.New64a()
	h.Write([]byte(platform))
	rng := rand.New(rand.NewSource(s.seed ^ int64(h.Sum64())))

	terms := searchTerms(query)
	profiles := make([]events.CandidateProfile, 0, limit)
	for i := 0; i < limit; i++ {
		first := simFirstNames[rng.Intn(len(simFirstNames))]
		last := simLastNames[rng.Intn(len(simLastNames))]

		skills := simSkills(rng, terms)
		contact := ""
		if i%4 != 0 {
			contact = fmt.Sprintf("%s.%s.%d@example.com",
				strings.ToLower(first), strings.ToLower(last), rng.Intn(1000))
		}

		profiles = append(profiles, events.CandidateProfile{
			ID:              simUUID(rng),
			Source:          platform,
			ExternalID:      fmt.Sprintf("%s-%d", platform, rng.Intn(1_000_000)),
			Name:            first + " " + last,
			Contact:         contact,
			Headline:        simHeadline(rng, skills),
			Skills:          skills,
			ExperienceYears: rng.Intn(15),
			Location:        simLocations[rng.Intn(len(simLocations))],
			Pronouns:        simPronouns[rng.Intn(len(simPronouns))],
		})
	}
	return profiles, nil
}

func searchTerms(query string) []string {
	var terms []string
	for _, f := range strings.Fields(query) {
		f = strings.Trim(f, `"()`)
		if f == "" || f == "AND" || f == "OR" {
			continue
		}
		terms = append(terms, strings.TrimPrefix(f, "language:"))
	}
	return terms
}

func simSkills(rng *rand.Rand, terms []string) []string {
	var skills []string
	fromQuery := rng.Intn(4)
	for i := 0; i < fromQuery && i < len(terms); i++ {
		skills = append(skills, terms[rng.Intn(len(terms))])
	}
	want := 2 + rng.Intn(3)
	for len(skills) < want {
		skills = append(skills, simSkillCatalog[rng.Intn(len(simSkillCatalog))])
	}
	return dedupeStrings(skills)
}

func simHeadline(rng *rand.Rand, skills []string) string {
	levels := []string{"Senior", "Staff", "Lead", ""}
	level := levels[rng.Intn(len(levels))]
	focus := "Software"
	if len(skills) > 0 {
		focus = skills[0]
	}
	return strings.TrimSpace(fmt.Sprintf("%s %s Engineer", level, focus))
}

func simUUID(rng *rand.Rand) uuid.UUID {
	var id uuid.UUID
	rng.Read(id[:])
	id[6] = (id[6] & 0x0f) | 0x40
	id[8] = (id[8] & 0x3f) | 0x80
	return id
}

func dedupeStrings(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// SimulatedTransport acknowledges every delivery and posts a reply after a
// fixed delay. Whether a candidate answers positively is a pure function of
// their id, so reruns engage the same people.
type SimulatedTransport struct {
	delay     time.Duration
	responses chan Response
}

func NewSimulatedTransport(delay time.Duration) *SimulatedTransport {
	return &SimulatedTransport{
		delay:     delay,
		responses: make(chan Response, 64),
	}
}

func (t *SimulatedTransport) Deliver(_ context.Context, o Outreach) (string, error) {
	reply := string(api.ResponseNegative)
	if o.CandidateID[0]%5 < 3 {
		reply = string(api.ResponsePositive)
	}

	time.AfterFunc(t.delay, func() {
		select {
		case t.responses <- Response{CandidateID: o.CandidateID, Response: reply, ReceivedAt: time.Now().UTC()}:
		default:
			zap.S().Named("transport").Warnw("response feed full, dropping reply", "candidate_id", o.CandidateID)
		}
	})
	return "simulated", nil
}

func (t *SimulatedTransport) Responses() <-chan Response { return t.responses }

// SimulatedSession answers every question with a canned response chosen by
// candidate and question, covering the strong-to-weak grading range.
type SimulatedSession struct {
	delay time.Duration
}

func NewSimulatedSession(delay time.Duration) *SimulatedSession {
	return &SimulatedSession{delay: delay}
}

var simAnswers = []string{
	"I would start by measuring where the time goes, because optimizing without data usually targets the wrong layer. For example, in my last service the tradeoff was between cache freshness and latency, and we measured both before choosing.",
	"The key tradeoff is consistency against availability. I would keep writes on a single leader and fan reads out to replicas, because our read volume dominates. For example, we cut p99 latency in half that way.",
	"I would add an index and see if it helps.",
	"Not sure, I have not worked on that directly.",
	"I would isolate the failure with a bisect, write a regression test first, then fix the root cause instead of the symptom, because patching symptoms tends to resurface. For example, a flaky retry loop we had was really a context cancellation bug.",
}

func (s *SimulatedSession) Ask(ctx context.Context, candidateID uuid.UUID, question string) (string, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return simAnswers[(int(candidateID[2])+len(question))%len(simAnswers)], nil
}

// StaticSyncClient fakes the ATS: every push succeeds and yields a stable
// record reference.
type StaticSyncClient struct {
	system string
}

func NewStaticSyncClient(system string) *StaticSyncClient {
	if system == "" {
		system = "ats-sim"
	}
	return &StaticSyncClient{system: system}
}

func (c *StaticSyncClient) System() string { return c.system }

func (c *StaticSyncClient) Push(_ context.Context, t events.ToolSyncTrigger) (string, error) {
	return fmt.Sprintf("%s-%s", c.system, t.CandidateID.String()[:8]), nil
}
