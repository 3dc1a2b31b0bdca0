package workflow

import "errors"

// Failure classes surfaced by every workflow operation. Handlers translate
// them to HTTP statuses; the workflows themselves never retry.
var (
	ErrNotFound     = errors.New("workflow: record not found")
	ErrInvalidState = errors.New("workflow: transition not allowed from current status")
	ErrConflict     = errors.New("workflow: conflicting record or lost race")
	ErrForbidden    = errors.New("workflow: caller lacks ownership or role")
	ErrNotAvailable = errors.New("workflow: freelancer not available")
	ErrValidation   = errors.New("workflow: invalid input")
)
