package enrichment

import (
	"fmt"

	"github.com/anonto42/tipbox/backend/internal/apperrors"
)

// Sentinel errors for enrichment jobs. Both match their apperrors code with errors.Is.
var (
	ErrSubmitFailed = &apperrors.Error{Code: apperrors.CodeEnrichmentSubmitFailed, Message: "enrichment: no task id returned"}
	ErrTimeout      = &apperrors.Error{Code: apperrors.CodeEnrichmentTimeout, Message: "enrichment: task did not finish in time"}
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op     string // "submit" or "poll"
	TaskID string
	Err    error
}

func (e *Error) Error() string {
	if e.TaskID != "" {
		return fmt.Sprintf("enrichment %s [%s]: %v", e.Op, e.TaskID, e.Err)
	}
	return fmt.Sprintf("enrichment %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, taskID string, err error) error {
	return &Error{Op: op, TaskID: taskID, Err: err}
}
