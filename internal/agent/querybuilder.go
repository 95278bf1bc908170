package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/talentflow/sourcing-engine/internal/events"
	"github.com/thoas/go-funk"
	"go.uber.org/zap"
)

const maxQueryKeywords = 12

// skillAliases maps common skill spelling variants to one canonical form so
// boolean queries group them instead of treating them as separate terms.
var skillAliases = map[string]string{
	"golang":     "Go",
	"go":         "Go",
	"javascript": "JavaScript",
	"js":         "JavaScript",
	"typescript": "TypeScript",
	"ts":         "TypeScript",
	"k8s":        "Kubernetes",
	"kubernetes": "Kubernetes",
	"kube":       "Kubernetes",
	"postgres":   "PostgreSQL",
	"postgresql": "PostgreSQL",
	"reactjs":    "React",
	"react":      "React",
	"nodejs":     "Node.js",
	"node.js":    "Node.js",
	"python":     "Python",
	"rust":       "Rust",
	"java":       "Java",
	"c++":        "C++",
	"c#":         "C#",
	"kafka":      "Kafka",
	"terraform":  "Terraform",
	"aws":        "AWS",
	"gcp":        "GCP",
	"docker":     "Docker",
	"grpc":       "gRPC",
	"graphql":    "GraphQL",
}

// aliasGroups is the reverse view: canonical skill -> sorted spelling
// variants, used to build OR-groups.
var aliasGroups = func() map[string][]string {
	groups := map[string][]string{}
	for variant, canonical := range skillAliases {
		groups[canonical] = append(groups[canonical], variant)
	}
	for _, variants := range groups {
		sort.Strings(variants)
	}
	return groups
}()

var stopwords = []string{
	"a", "an", "and", "are", "as", "at", "be", "by", "for", "from", "has",
	"have", "in", "is", "it", "of", "on", "or", "our", "that", "the", "this",
	"to", "we", "who", "will", "with", "you", "your", "years", "year",
	"experience", "team", "work", "working", "strong", "knowledge", "plus",
	"required", "preferred", "looking", "join", "role", "candidate",
}

// titleTokens are kept even though they are common words: on resume
// databases a title term narrows results more than any skill does.
var titleTokens = []string{
	"senior", "staff", "principal", "lead", "junior",
	"engineer", "developer", "architect", "sre", "devops",
}

// codeHostPlatforms get colon-qualified query syntax instead of quoted
// OR-groups.
var codeHostPlatforms = []string{"github", "gitlab", "bitbucket", "sourcehut"}

// languageTokens qualify as language: filters on code hosts.
var languageTokens = []string{
	"go", "python", "java", "rust", "javascript", "typescript", "ruby", "c++", "c#",
}

// QueryBuilder turns a job description into one boolean search query per
// target platform. The output is informational for the scanner; discovery
// never blocks on it.
type QueryBuilder struct {
	emitter Emitter
}

func NewQueryBuilder(emitter Emitter) *QueryBuilder {
	return &QueryBuilder{emitter: emitter}
}

func (q *QueryBuilder) Name() string { return WorkerQueryBuilder }

func (q *QueryBuilder) Topics() []string { return []string{events.TopicAgentBoolean} }

func (q *QueryBuilder) Ping(ctx context.Context) error { return nil }

func (q *QueryBuilder) Handle(ctx context.Context, e cloudevents.Event) error {
	if events.ParseMessageType(e.Type()) != events.MessageTypeQueryBuildTrigger {
		return nil
	}

	var trigger events.QueryBuildTrigger
	if err := e.DataAs(&trigger); err != nil {
		return fmt.Errorf("failed to decode query build trigger: %w", err)
	}

	keywords := extractKeywords(trigger.JobDescription)
	if len(keywords) == 0 {
		zap.S().Named(q.Name()).Warnw("no keywords extracted, skipping",
			"pipeline_id", trigger.PipelineID)
		return nil
	}

	for _, platform := range trigger.Platforms {
		generated, err := events.NewEnvelope(q.Name(), events.MessageTypeQueryGenerated, events.PriorityMedium, trigger.PipelineID, events.QueryGenerated{
			PipelineID: trigger.PipelineID,
			Platform:   platform,
			Query:      composeQuery(platform, keywords),
			Keywords:   keywords,
		})
		if err != nil {
			return err
		}
		q.emitter.Emit(events.TopicAgentScanning, generated)
	}

	zap.S().Named(q.Name()).Infow("queries generated",
		"pipeline_id", trigger.PipelineID, "platforms", len(trigger.Platforms), "keywords", keywords)
	return nil
}

// extractKeywords tokenizes a job description into canonical search terms:
// known skills first, then title words, then the remaining uncommon tokens,
// capped at maxQueryKeywords. Heuristic on purpose; language understanding
// belongs to the scoring collaborator.
func extractKeywords(jobDescription string) []string {
	var skills, titles, rest []string
	for _, token := range tokenize(jobDescription) {
		switch {
		case skillAliases[token] != "":
			skills = append(skills, skillAliases[token])
		case funk.ContainsString(titleTokens, token):
			titles = append(titles, capitalize(token))
		case funk.ContainsString(stopwords, token), len(token) < 3:
		default:
			rest = append(rest, token)
		}
	}

	keywords := funk.UniqString(append(append(skills, titles...), rest...))
	if len(keywords) > maxQueryKeywords {
		keywords = keywords[:maxQueryKeywords]
	}
	return keywords
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return false
		case r == '+' || r == '#' || r == '.':
			return false
		default:
			return true
		}
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		// sentence punctuation sticks to the last word
		f = strings.TrimRight(f, ".")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// composeQuery renders the platform-specific boolean syntax: colon-qualified
// tokens for code hosts, quoted OR-groups joined with AND for resume
// databases.
func composeQuery(platform string, keywords []string) string {
	if funk.ContainsString(codeHostPlatforms, strings.ToLower(platform)) {
		return composeCodeHostQuery(keywords)
	}
	return composeResumeQuery(keywords)
}

func composeCodeHostQuery(keywords []string) string {
	parts := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		lower := strings.ToLower(kw)
		if funk.ContainsString(languageTokens, lower) {
			parts = append(parts, "language:"+lower)
			continue
		}
		parts = append(parts, quoteIfSpaced(kw))
	}
	return strings.Join(parts, " ")
}

func composeResumeQuery(keywords []string) string {
	groups := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		variants := []string{kw}
		for _, alias := range aliasGroups[kw] {
			if !strings.EqualFold(alias, kw) {
				variants = append(variants, alias)
			}
		}

		quoted := make([]string, 0, len(variants))
		for _, v := range variants {
			quoted = append(quoted, `"`+v+`"`)
		}
		if len(quoted) == 1 {
			groups = append(groups, quoted[0])
			continue
		}
		groups = append(groups, "("+strings.Join(quoted, " OR ")+")")
	}
	return strings.Join(groups, " AND ")
}

func quoteIfSpaced(s string) string {
	if strings.ContainsRune(s, ' ') {
		return `"` + s + `"`
	}
	return s
}
