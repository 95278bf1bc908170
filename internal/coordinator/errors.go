package coordinator

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrInvalidRequest struct {
	error
}

func NewErrInvalidRequest(reason string) *ErrInvalidRequest {
	return &ErrInvalidRequest{fmt.Errorf("invalid pipeline request: %s", reason)}
}

type ErrPipelineNotFound struct {
	error
}

func NewErrPipelineNotFound(id uuid.UUID) *ErrPipelineNotFound {
	return &ErrPipelineNotFound{fmt.Errorf("pipeline %s not found", id)}
}

type ErrStateConflict struct {
	error
}

func NewErrStateConflict(id uuid.UUID, state string) *ErrStateConflict {
	return &ErrStateConflict{fmt.Errorf("pipeline %s already settled in state %s", id, state)}
}
