package events

import (
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	cetypes "github.com/cloudevents/sdk-go/v2/types"
	"github.com/google/uuid"
)

// Lifecycle topics consumed by the coordinator.
const (
	TopicPipelineEvents   = "pipeline-events"
	TopicCandidateEvents  = "candidate-events"
	TopicEngagementEvents = "engagement-events"
	TopicInterviewEvents  = "interview-events"
	TopicToolEvents       = "tool-events"
)

// Trigger topics addressed to a single agent group.
const (
	TopicAgentScanning   = "agents:scanning"
	TopicAgentBoolean    = "agents:boolean"
	TopicAgentQuality    = "agents:quality"
	TopicAgentEngagement = "agents:engagement"
)

// CoordinatorTopics are the topics the coordinator subscribes to.
func CoordinatorTopics() []string {
	return []string{
		TopicPipelineEvents,
		TopicCandidateEvents,
		TopicEngagementEvents,
		TopicInterviewEvents,
		TopicToolEvents,
	}
}

type MessageType string

const (
	MessageTypeUnknown MessageType = ""

	MessageTypeScanTrigger       MessageType = "talentflow.sourcing.scan_trigger"
	MessageTypeQueryBuildTrigger MessageType = "talentflow.sourcing.query_build_trigger"
	MessageTypeQueryGenerated    MessageType = "talentflow.sourcing.query_generated"
	MessageTypeCandidateFound    MessageType = "talentflow.sourcing.candidate_found"
	MessageTypeCandidateScored   MessageType = "talentflow.sourcing.candidate_scored"
	MessageTypeEngagementTrigger MessageType = "talentflow.sourcing.engagement_trigger"
	MessageTypeOutreachSent      MessageType = "talentflow.sourcing.outreach_sent"
	MessageTypeOutreachResponse  MessageType = "talentflow.sourcing.outreach_response"
	MessageTypeInterviewTrigger  MessageType = "talentflow.sourcing.interview_trigger"
	MessageTypeInterviewDone     MessageType = "talentflow.sourcing.interview_completed"
	MessageTypeToolSyncTrigger   MessageType = "talentflow.sourcing.tool_sync_trigger"
	MessageTypeToolSynced        MessageType = "talentflow.sourcing.tool_synced"
	MessageTypePipelineCancelled MessageType = "talentflow.sourcing.pipeline_cancelled"

	MessageTypeScanFailed       MessageType = "talentflow.sourcing.scan_failed"
	MessageTypeScoreFailed      MessageType = "talentflow.sourcing.score_failed"
	MessageTypeEngagementFailed MessageType = "talentflow.sourcing.engagement_failed"
	MessageTypeInterviewFailed  MessageType = "talentflow.sourcing.interview_failed"
	MessageTypeToolSyncFailed   MessageType = "talentflow.sourcing.tool_sync_failed"
)

var knownMessageTypes = map[MessageType]struct{}{
	MessageTypeScanTrigger:       {},
	MessageTypeQueryBuildTrigger: {},
	MessageTypeQueryGenerated:    {},
	MessageTypeCandidateFound:    {},
	MessageTypeCandidateScored:   {},
	MessageTypeEngagementTrigger: {},
	MessageTypeOutreachSent:      {},
	MessageTypeOutreachResponse:  {},
	MessageTypeInterviewTrigger:  {},
	MessageTypeInterviewDone:     {},
	MessageTypeToolSyncTrigger:   {},
	MessageTypeToolSynced:        {},
	MessageTypePipelineCancelled: {},
	MessageTypeScanFailed:        {},
	MessageTypeScoreFailed:       {},
	MessageTypeEngagementFailed:  {},
	MessageTypeInterviewFailed:   {},
	MessageTypeToolSyncFailed:    {},
}

// ParseMessageType maps a cloudevents type string to a MessageType. Unknown
// strings map to MessageTypeUnknown so consumers can log and skip them.
func ParseMessageType(s string) MessageType {
	t := MessageType(s)
	if _, ok := knownMessageTypes[t]; ok {
		return t
	}
	return MessageTypeUnknown
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Extension attribute names must be lowercase alphanumeric per the
// cloudevents spec.
const (
	extCorrelationID = "correlationid"
	extPriority      = "priority"
)

// NewEnvelope builds the wire event every component publishes: a cloudevents
// envelope with a fresh id, the producing agent as source, the pipeline id as
// correlation extension and a JSON payload.
func NewEnvelope(source string, t MessageType, prio Priority, correlationID uuid.UUID, payload any) (cloudevents.Event, error) {
	e := cloudevents.NewEvent()
	e.SetID(uuid.NewString())
	e.SetSource(source)
	e.SetType(string(t))
	e.SetTime(time.Now().UTC())
	e.SetExtension(extCorrelationID, correlationID.String())
	e.SetExtension(extPriority, string(prio))
	if err := e.SetData(cloudevents.ApplicationJSON, payload); err != nil {
		return cloudevents.Event{}, fmt.Errorf("failed to encode %s payload: %w", t, err)
	}
	return e, nil
}

// CorrelationID extracts the pipeline id the event belongs to.
func CorrelationID(e cloudevents.Event) (uuid.UUID, error) {
	raw, ok := e.Extensions()[extCorrelationID]
	if !ok {
		return uuid.UUID{}, fmt.Errorf("event %s has no %s extension", e.ID(), extCorrelationID)
	}
	s, err := cetypes.ToString(raw)
	if err != nil {
		return uuid.UUID{}, err
	}
	return uuid.Parse(s)
}

// PriorityOf returns the event priority, defaulting to medium when the
// extension is absent or malformed.
func PriorityOf(e cloudevents.Event) Priority {
	raw, ok := e.Extensions()[extPriority]
	if !ok {
		return PriorityMedium
	}
	s, err := cetypes.ToString(raw)
	if err != nil {
		return PriorityMedium
	}
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s)
	default:
		return PriorityMedium
	}
}
