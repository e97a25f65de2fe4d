package tui

import "time"

// MsgPlan lists the planned actions in execution order.
type MsgPlan struct {
	Actions []string
}

// MsgActionStart reports that an action began.
type MsgActionStart struct {
	SpanID    string
	Name      string
	Kind      string
	Argv      string
	StartTime time.Time
}

// MsgActionLog carries output of a running action.
type MsgActionLog struct {
	SpanID string
	Data   []byte
}

// MsgActionComplete reports that an action finished.
type MsgActionComplete struct {
	SpanID   string
	EndTime  time.Time
	UpToDate bool
	Err      error
}
