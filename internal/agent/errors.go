package agent

import (
	"context"
	"errors"
	"fmt"
)

// Error kinds carried in AgentFailure events, matching the service error
// taxonomy.
const (
	errKindCollaborator = "collaborator_failure"
	errKindTimeout      = "timeout"
	errKindInternal     = "internal"
)

// CollaboratorError marks a failure of an external capability call, as
// opposed to a defect inside the adapter itself.
type CollaboratorError struct {
	error
}

func NewCollaboratorError(op string, err error) *CollaboratorError {
	return &CollaboratorError{error: fmt.Errorf("%s: %w", op, err)}
}

func errorKind(err error) string {
	collaboratorErr := &CollaboratorError{}
	switch {
	case errors.As(err, &collaboratorErr):
		return errKindCollaborator
	case errors.Is(err, context.DeadlineExceeded):
		return errKindTimeout
	default:
		return errKindInternal
	}
}
