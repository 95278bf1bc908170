package coordinator

import (
	"fmt"

	api "github.com/talentflow/sourcing-engine/api/v1alpha1"
)

// allowedTransitions encodes the forward-only pipeline lifecycle. Events may
// arrive out of order, so every state can jump ahead over intermediate states
// along the main chain. Terminal states map to the empty set.
var allowedTransitions = map[api.PipelineState]map[api.PipelineState]struct{}{
	api.PipelineStateInitiated: {
		api.PipelineStateScanning:     {},
		api.PipelineStateScoring:      {},
		api.PipelineStateEngaging:     {},
		api.PipelineStateInterviewing: {},
		api.PipelineStateCompleted:    {},
		api.PipelineStateFailed:       {},
		api.PipelineStateCancelled:    {},
	},
	api.PipelineStateScanning: {
		api.PipelineStateScoring:      {},
		api.PipelineStateEngaging:     {},
		api.PipelineStateInterviewing: {},
		api.PipelineStateCompleted:    {},
		api.PipelineStateFailed:       {},
		api.PipelineStateCancelled:    {},
	},
	api.PipelineStateScoring: {
		api.PipelineStateEngaging:     {},
		api.PipelineStateInterviewing: {},
		api.PipelineStateCompleted:    {},
		api.PipelineStateFailed:       {},
		api.PipelineStateCancelled:    {},
	},
	api.PipelineStateEngaging: {
		api.PipelineStateInterviewing: {},
		api.PipelineStateCompleted:    {},
		api.PipelineStateFailed:       {},
		api.PipelineStateCancelled:    {},
	},
	api.PipelineStateInterviewing: {
		api.PipelineStateCompleted: {},
		api.PipelineStateFailed:    {},
		api.PipelineStateCancelled: {},
	},
	api.PipelineStateCompleted: {},
	api.PipelineStateFailed:    {},
	api.PipelineStateCancelled: {},
}

// IsTerminal reports whether no further transitions are allowed from s.
func IsTerminal(s api.PipelineState) bool {
	next, ok := allowedTransitions[s]
	return ok && len(next) == 0
}

// TerminalStates lists the absorbing lifecycle states.
func TerminalStates() []string {
	return []string{
		string(api.PipelineStateCompleted),
		string(api.PipelineStateFailed),
		string(api.PipelineStateCancelled),
	}
}

// CanTransition reports whether from -> to is a legal lifecycle move.
func CanTransition(from, to api.PipelineState) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// ValidateTransition returns a descriptive error for illegal moves.
func ValidateTransition(from, to api.PipelineState) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid pipeline transition: %s -> %s", from, to)
	}
	return nil
}

// Advance returns the state the pipeline should hold after observing
// progress toward target. Backward and same-state moves keep the current
// state, so stale events never regress the lifecycle.
func Advance(current, target api.PipelineState) api.PipelineState {
	if CanTransition(current, target) {
		return target
	}
	return current
}
