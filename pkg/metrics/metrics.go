package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	sourcingEngine = "sourcing_engine"

	// Pipeline metrics
	PipelineStateCount   = "pipeline_state_count"
	candidatesFoundTotal = "candidates_found_total"
	promotionsTotal      = "candidate_promotions_total"

	// Event metrics
	eventsProcessedTotal = "events_processed_total"
	eventsPublishedTotal = "events_published_total"

	// Agent metrics
	AgentHealthStatus      = "agent_health_status"
	collaboratorCallsTotal = "collaborator_calls_total"

	// Labels
	pipelineStateLabel = "state"
	eventTypeLabel     = "type"
	topicLabel         = "topic"
	decisionLabel      = "decision"
	agentLabel         = "agent"
	outcomeLabel       = "outcome"
)

var pipelineStateCountLabels = []string{
	pipelineStateLabel,
}

var eventsProcessedTotalLabels = []string{
	eventTypeLabel,
}

var eventsPublishedTotalLabels = []string{
	topicLabel,
}

var promotionsTotalLabels = []string{
	decisionLabel,
}

var agentHealthStatusLabels = []string{
	agentLabel,
}

var collaboratorCallsTotalLabels = []string{
	agentLabel,
	outcomeLabel,
}

/**
* Metrics definition
**/
var pipelineStateCountMetric = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Subsystem: sourcingEngine,
		Name:      PipelineStateCount,
		Help:      "number of pipelines in each state",
	},
	pipelineStateCountLabels,
)

var candidatesFoundTotalMetric = prometheus.NewCounter(
	prometheus.CounterOpts{
		Subsystem: sourcingEngine,
		Name:      candidatesFoundTotal,
		Help:      "number of unique candidates discovered across all pipelines",
	},
)

var promotionsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: sourcingEngine,
		Name:      promotionsTotal,
		Help:      "number of scored candidates by promotion decision",
	},
	promotionsTotalLabels,
)

var eventsProcessedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: sourcingEngine,
		Name:      eventsProcessedTotal,
		Help:      "number of events processed by the coordinator per message type",
	},
	eventsProcessedTotalLabels,
)

var eventsPublishedTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: sourcingEngine,
		Name:      eventsPublishedTotal,
		Help:      "number of events published to the bus per topic",
	},
	eventsPublishedTotalLabels,
)

var agentHealthStatusMetric = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Subsystem: sourcingEngine,
		Name:      AgentHealthStatus,
		Help:      "agent health as reported by the supervisor, 0 healthy 1 degraded 2 unreachable",
	},
	agentHealthStatusLabels,
)

var collaboratorCallsTotalMetric = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: sourcingEngine,
		Name:      collaboratorCallsTotal,
		Help:      "number of collaborator calls per agent and outcome",
	},
	collaboratorCallsTotalLabels,
)

func UpdatePipelineStateCountMetric(state string, count int) {
	labels := prometheus.Labels{
		pipelineStateLabel: state,
	}
	pipelineStateCountMetric.With(labels).Set(float64(count))
}

func IncreaseCandidatesFoundTotalMetric() {
	candidatesFoundTotalMetric.Inc()
}

func IncreasePromotionsTotalMetric(decision string) {
	labels := prometheus.Labels{
		decisionLabel: decision,
	}
	promotionsTotalMetric.With(labels).Inc()
}

func IncreaseEventsProcessedTotalMetric(messageType string) {
	labels := prometheus.Labels{
		eventTypeLabel: messageType,
	}
	eventsProcessedTotalMetric.With(labels).Inc()
}

func IncreaseEventsPublishedTotalMetric(topic string) {
	labels := prometheus.Labels{
		topicLabel: topic,
	}
	eventsPublishedTotalMetric.With(labels).Inc()
}

func UpdateAgentHealthStatusMetric(agent string, status int) {
	labels := prometheus.Labels{
		agentLabel: agent,
	}
	agentHealthStatusMetric.With(labels).Set(float64(status))
}

func IncreaseCollaboratorCallsTotalMetric(agent string, outcome string) {
	labels := prometheus.Labels{
		agentLabel:   agent,
		outcomeLabel: outcome,
	}
	collaboratorCallsTotalMetric.With(labels).Inc()
}

func init() {
	registerMetrics()
}

func registerMetrics() {
	prometheus.MustRegister(pipelineStateCountMetric)
	prometheus.MustRegister(candidatesFoundTotalMetric)
	prometheus.MustRegister(promotionsTotalMetric)
	prometheus.MustRegister(eventsProcessedTotalMetric)
	prometheus.MustRegister(eventsPublishedTotalMetric)
	prometheus.MustRegister(agentHealthStatusMetric)
	prometheus.MustRegister(collaboratorCallsTotalMetric)
}
