package resolver

import "errors"

var (
	// ErrEngineSync means the engine rejected a create/destroy call. The paired
	// registry mutation has been rolled back.
	ErrEngineSync = errors.New("physics engine sync failure")
	// ErrInvariantViolation means registry and engine ids diverged. It indicates
	// a defect, not a recoverable runtime condition.
	ErrInvariantViolation = errors.New("registry and engine diverged")
)
