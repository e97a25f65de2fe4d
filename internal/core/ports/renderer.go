package ports

import (
	"context"
	"time"
)

// Renderer presents the progress of a run.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Start initializes the renderer.
	Start(ctx context.Context) error

	// Stop flushes buffered output. No events are accepted afterwards.
	Stop() error

	// OnPlanEmit is called with the planned actions in execution order.
	OnPlanEmit(actions []string)

	// OnActionStart is called when an action begins. kind and argv may be empty.
	OnActionStart(spanID, name, kind, argv string, startTime time.Time)

	// OnActionLog is called with output of an action, possibly a partial line.
	OnActionLog(spanID string, data []byte)

	// OnActionComplete is called when an action finishes. upToDate is set when the
	// action did not need to run.
	OnActionComplete(spanID string, endTime time.Time, upToDate bool, err error)
}
