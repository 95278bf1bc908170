package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/talentflow/sourcing-engine/internal/agent"
	"github.com/talentflow/sourcing-engine/internal/config"
	"github.com/talentflow/sourcing-engine/internal/events"
	"github.com/talentflow/sourcing-engine/internal/llm"
	"github.com/talentflow/sourcing-engine/pkg/log"
	"go.uber.org/zap"
)

var allWorkers = strings.Join([]string{
	agent.WorkerScanner,
	agent.WorkerQueryBuilder,
	agent.WorkerScorer,
	agent.WorkerEngagement,
	agent.WorkerInterview,
	agent.WorkerToolSync,
}, ",")

func main() {
	enabled := flag.String("agents", allWorkers, "Comma-separated list of worker agents to run.")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", os.Args[0])
		fmt.Println("This program runs sourcing worker agents against a kafka bus. Below are the available flags:")
		flag.PrintDefaults()
	}

	flag.Parse()

	cfg, err := config.New()
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading configuration: %v\n", err)
		os.Exit(1)
	}

	cleanup := log.InitLogs(cfg.Service.LogLevel)
	defer cleanup()

	logger := zap.S().Named("agent")
	logger.Info("Starting sourcing agents")
	defer logger.Info("Sourcing agents stopped")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
	defer cancel()

	bus, err := events.NewKafkaBus(cfg)
	if err != nil {
		logger.Fatalw("connecting to kafka", "error", err)
	}
	defer bus.Close()

	producer := events.NewProducer(bus)
	defer producer.Close()

	host, closeCollaborators, err := buildHost(ctx, cfg, bus, producer, strings.Split(*enabled, ","))
	if err != nil {
		logger.Fatalw("building agent host", "error", err)
	}
	defer closeCollaborators()

	if err := host.Run(ctx); err != nil {
		logger.Fatalw("running agents", "error", err)
	}
}

// buildHost wires the requested workers. Engagement and interview
// collaborators talk to Gemini when an api key is configured and fall back to
// the offline simulations otherwise.
func buildHost(ctx context.Context, cfg *config.Config, bus events.Bus, emitter agent.Emitter, names []string) (*agent.Host, func(), error) {
	var (
		assessor  agent.Assessor    = llm.StaticAssessor{}
		drafter   agent.Drafter     = llm.StaticDrafter{}
		questions agent.QuestionGen = llm.ScriptedInterviewer{}
		evaluator agent.Evaluator   = llm.ScriptedInterviewer{}
	)

	closeCollaborators := func() {}
	if cfg.Agents.GeminiApiKey != "" {
		client, err := llm.NewGeminiClient(ctx, cfg.Agents.GeminiApiKey, cfg.Agents.GeminiModel)
		if err != nil {
			return nil, nil, fmt.Errorf("creating gemini client: %w", err)
		}
		closeCollaborators = func() { _ = client.Close() }

		interviewer := llm.NewGeminiInterviewer(client)
		assessor = llm.NewGeminiAssessor(client)
		drafter = llm.NewGeminiDrafter(client)
		questions = interviewer
		evaluator = interviewer
	}

	search := agent.NewSimulatedSearch(cfg.Agents.SimulationSeed)
	transport := agent.NewSimulatedTransport(2 * time.Second)
	session := agent.NewSimulatedSession(500 * time.Millisecond)

	runtimes := make([]*agent.Runtime, 0, len(names))
	for _, name := range names {
		var worker agent.Worker
		switch strings.TrimSpace(name) {
		case agent.WorkerScanner:
			worker = agent.NewScanner(search, emitter)
		case agent.WorkerQueryBuilder:
			worker = agent.NewQueryBuilder(emitter)
		case agent.WorkerScorer:
			worker = agent.NewScorer(assessor, emitter)
		case agent.WorkerEngagement:
			worker = agent.NewEngagement(drafter, transport, emitter)
		case agent.WorkerInterview:
			worker = agent.NewInterviewRunner(questions, evaluator, session, emitter, cfg)
		case agent.WorkerToolSync:
			worker = agent.NewToolSync(agent.NewStaticSyncClient(""), emitter)
		case "":
			continue
		default:
			closeCollaborators()
			return nil, nil, fmt.Errorf("unknown agent %q", name)
		}
		runtimes = append(runtimes, agent.NewRuntime(worker, bus, emitter, cfg))
	}
	if len(runtimes) == 0 {
		closeCollaborators()
		return nil, nil, fmt.Errorf("no agents selected")
	}

	return agent.NewHost(runtimes...), closeCollaborators, nil
}
