package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/talentflow/sourcing-engine/internal/agent"
	apiserver "github.com/talentflow/sourcing-engine/internal/api_server"
	"github.com/talentflow/sourcing-engine/internal/config"
	"github.com/talentflow/sourcing-engine/internal/coordinator"
	"github.com/talentflow/sourcing-engine/internal/events"
	"github.com/talentflow/sourcing-engine/internal/llm"
	"github.com/talentflow/sourcing-engine/internal/store"
	"github.com/talentflow/sourcing-engine/internal/supervisor"
	"github.com/talentflow/sourcing-engine/pkg/log"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the sourcing engine",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}

		cleanup := log.InitLogs(cfg.Service.LogLevel)
		defer cleanup()

		logger := zap.S().Named("api")
		logger.Info("Starting sourcing engine")
		defer logger.Info("Sourcing engine stopped")

		logger.Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			logger.Fatalw("initializing data store", "error", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		if err := s.InitialMigration(); err != nil {
			logger.Fatalw("running initial migration", "error", err)
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		// Without brokers the engine runs standalone: the worker agents are
		// hosted in this process on the in-process bus, with offline
		// collaborators.
		standalone := len(cfg.Service.Kafka.Brokers) == 0

		var bus events.Bus
		if standalone {
			logger.Info("no kafka brokers configured, running standalone on the in-process bus")
			bus = events.NewInProcBus()
		} else {
			kafkaBus, err := events.NewKafkaBus(cfg)
			if err != nil {
				logger.Fatalw("connecting to kafka", "error", err)
			}
			bus = kafkaBus
		}
		defer bus.Close()

		producer := events.NewProducer(bus)
		defer producer.Close()

		var host *agent.Host
		pingers := []supervisor.Pinger{}
		if standalone {
			host = offlineAgentHost(bus, producer, cfg)
			for _, w := range host.Workers() {
				pingers = append(pingers, w)
			}
		}
		sup := supervisor.New(cfg, pingers...)

		pipelines := coordinator.New(s, producer, sup, cfg)
		if err := bus.Subscribe(coordinator.ConsumerGroup, events.CoordinatorTopics(), pipelines.HandleEvent); err != nil {
			logger.Fatalw("subscribing coordinator", "error", err)
		}

		apiListener, err := newListener(cfg.Service.Address)
		if err != nil {
			logger.Fatalw("creating api listener", "error", err)
		}
		metricsListener, err := newListener(cfg.Service.MetricsAddress)
		if err != nil {
			logger.Fatalw("creating metrics listener", "error", err)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			pipelines.Run(gctx)
			return nil
		})
		g.Go(func() error {
			return sup.Run(gctx)
		})
		if host != nil {
			g.Go(func() error {
				return host.Run(gctx)
			})
		}
		g.Go(func() error {
			return apiserver.New(cfg, pipelines, sup, apiListener).Run(gctx)
		})
		g.Go(func() error {
			return apiserver.NewMetricServer(cfg.Service.MetricsAddress, metricsListener).Run(gctx)
		})

		return g.Wait()
	},
}

// offlineAgentHost wires all six worker agents with simulated collaborators.
func offlineAgentHost(bus events.Bus, emitter agent.Emitter, cfg *config.Config) *agent.Host {
	search := agent.NewSimulatedSearch(cfg.Agents.SimulationSeed)
	transport := agent.NewSimulatedTransport(2 * time.Second)
	session := agent.NewSimulatedSession(500 * time.Millisecond)

	return agent.NewHost(
		agent.NewRuntime(agent.NewScanner(search, emitter), bus, emitter, cfg),
		agent.NewRuntime(agent.NewQueryBuilder(emitter), bus, emitter, cfg),
		agent.NewRuntime(agent.NewScorer(llm.StaticAssessor{}, emitter), bus, emitter, cfg),
		agent.NewRuntime(agent.NewEngagement(llm.StaticDrafter{}, transport, emitter), bus, emitter, cfg),
		agent.NewRuntime(agent.NewInterviewRunner(llm.ScriptedInterviewer{}, llm.ScriptedInterviewer{}, session, emitter, cfg), bus, emitter, cfg),
		agent.NewRuntime(agent.NewToolSync(agent.NewStaticSyncClient(""), emitter), bus, emitter, cfg),
	)
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
