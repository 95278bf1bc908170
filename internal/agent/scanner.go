package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
	"github.com/talentflow/sourcing-engine/internal/events"
	"github.com/talentflow/sourcing-engine/pkg/metrics"
	"go.uber.org/zap"
)

const fallbackQueryTerms = 5

// SearchClient is the platform search boundary: one call per platform,
// returning up to limit candidate profiles.
type SearchClient interface {
	Search(ctx context.Context, platform, query string, limit int) ([]events.CandidateProfile, error)
}

// Scanner discovers candidates. It listens for both its scan trigger and the
// query builder's output on the same topic: a generated query is used when it
// arrived in time, otherwise a keyword fallback derived from the job
// description keeps discovery moving.
type Scanner struct {
	search  SearchClient
	emitter Emitter

	mu      sync.Mutex
	queries map[queryKey]string
}

type queryKey struct {
	pipelineID uuid.UUID
	platform   string
}

func NewScanner(search SearchClient, emitter Emitter) *Scanner {
	return &Scanner{
		search:  search,
		emitter: emitter,
		queries: map[queryKey]string{},
	}
}

func (s *Scanner) Name() string { return WorkerScanner }

func (s *Scanner) Topics() []string { return []string{events.TopicAgentScanning} }

func (s *Scanner) Ping(ctx context.Context) error {
	return pingCollaborators(ctx, s.search)
}

func (s *Scanner) Handle(ctx context.Context, e cloudevents.Event) error {
	switch events.ParseMessageType(e.Type()) {
	case events.MessageTypeQueryGenerated:
		return s.onQueryGenerated(e)
	case events.MessageTypeScanTrigger:
		return s.onScanTrigger(ctx, e)
	default:
		return nil
	}
}

func (s *Scanner) onQueryGenerated(e cloudevents.Event) error {
	var generated events.QueryGenerated
	if err := e.DataAs(&generated); err != nil {
		return fmt.Errorf("failed to decode generated query: %w", err)
	}

	s.mu.Lock()
	s.queries[queryKey{pipelineID: generated.PipelineID, platform: generated.Platform}] = generated.Query
	s.mu.Unlock()
	return nil
}

func (s *Scanner) onScanTrigger(ctx context.Context, e cloudevents.Event) error {
	var trigger events.ScanTrigger
	if err := e.DataAs(&trigger); err != nil {
		return fmt.Errorf("failed to decode scan trigger: %w", err)
	}
	if len(trigger.Platforms) == 0 {
		return nil
	}

	logger := zap.S().Named(s.Name())
	perPlatform := (trigger.TargetCount + len(trigger.Platforms) - 1) / len(trigger.Platforms)
	if perPlatform < 1 {
		perPlatform = 1
	}

	found := 0
	for _, platform := range trigger.Platforms {
		query := s.queryFor(trigger.PipelineID, platform, trigger.JobDescription)

		profiles, err := s.search.Search(ctx, platform, query, perPlatform)
		if err != nil {
			metrics.IncreaseCollaboratorCallsTotalMetric(s.Name(), "error")
			return NewCollaboratorError(fmt.Sprintf("search %s", platform), err)
		}
		metrics.IncreaseCollaboratorCallsTotalMetric(s.Name(), "success")

		for _, profile := range profiles {
			discovered, err := events.NewEnvelope(s.Name(), events.MessageTypeCandidateFound, events.PriorityMedium, trigger.PipelineID, events.CandidateFound{
				Candidate: profile,
			})
			if err != nil {
				return err
			}
			s.emitter.Emit(events.TopicCandidateEvents, discovered)
		}
		found += len(profiles)

		logger.Infow("platform scanned",
			"pipeline_id", trigger.PipelineID, "platform", platform, "query", query, "profiles", len(profiles))
	}

	s.forgetQueries(trigger.PipelineID, trigger.Platforms)
	logger.Infow("scan finished", "pipeline_id", trigger.PipelineID, "found", found)
	return nil
}

// queryFor prefers the query builder's output for the platform and falls
// back to the leading job description keywords.
func (s *Scanner) queryFor(pipelineID uuid.UUID, platform, jobDescription string) string {
	s.mu.Lock()
	query, ok := s.queries[queryKey{pipelineID: pipelineID, platform: platform}]
	s.mu.Unlock()
	if ok && query != "" {
		return query
	}

	keywords := extractKeywords(jobDescription)
	if len(keywords) > fallbackQueryTerms {
		keywords = keywords[:fallbackQueryTerms]
	}
	return strings.Join(keywords, " ")
}

func (s *Scanner) forgetQueries(pipelineID uuid.UUID, platforms []string) {
	s.mu.Lock()
	for _, platform := range platforms {
		delete(s.queries, queryKey{pipelineID: pipelineID, platform: platform})
	}
	s.mu.Unlock()
}
