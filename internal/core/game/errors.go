package game

import (
	"errors"

	"github.com/zeusync/suika/internal/core/registry"
	"github.com/zeusync/suika/internal/core/resolver"
)

var (
	ErrLoopClosed      = errors.New("game loop is closed")
	ErrUnknownCommand  = errors.New("unknown command")
	ErrLoopRunning     = errors.New("game loop is already running")
	ErrDragUnsupported = errors.New("engine does not support dragging")
)

// Re-exported so that callers of the session do not need the lower packages.
var (
	ErrNotFound           = registry.ErrNotFound
	ErrEngineSync         = resolver.ErrEngineSync
	ErrInvariantViolation = resolver.ErrInvariantViolation
)
