package tui

import (
	"context"
	"errors"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/stagehand/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Renderer = (*Renderer)(nil)

// ErrInterrupted is returned by Start when the user quits the interface mid-run.
var ErrInterrupted = zerr.New("run interrupted from the terminal")

// Renderer drives a Model with a bubbletea program.
type Renderer struct {
	program *tea.Program
	model   *Model
	done    chan struct{}
	stop    sync.Once
}

// NewRenderer creates a renderer for model.
func NewRenderer(model *Model, opts ...tea.ProgramOption) *Renderer {
	return &Renderer{
		program: tea.NewProgram(model, opts...),
		model:   model,
		done:    make(chan struct{}),
	}
}

// Start runs the program until Stop is called or the user quits. Quitting from the
// terminal returns ErrInterrupted so the caller can cancel the run.
func (r *Renderer) Start(_ context.Context) error {
	defer close(r.done)

	final, err := r.program.Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return zerr.Wrap(err, "terminal interface failed")
	}
	if m, ok := final.(*Model); ok && m.Interrupted() {
		return ErrInterrupted
	}
	return nil
}

// Stop quits the program and waits until the terminal is restored.
func (r *Renderer) Stop() error {
	r.stop.Do(func() {
		r.program.Quit()
		<-r.done
	})
	return nil
}

// OnPlanEmit lists the planned actions.
func (r *Renderer) OnPlanEmit(actions []string) {
	r.program.Send(MsgPlan{Actions: actions})
}

// OnActionStart marks an action running.
func (r *Renderer) OnActionStart(spanID, name, kind, argv string, startTime time.Time) {
	r.program.Send(MsgActionStart{SpanID: spanID, Name: name, Kind: kind, Argv: argv, StartTime: startTime})
}

// OnActionLog appends output to an action.
func (r *Renderer) OnActionLog(spanID string, data []byte) {
	r.program.Send(MsgActionLog{SpanID: spanID, Data: data})
}

// OnActionComplete marks an action finished.
func (r *Renderer) OnActionComplete(spanID string, endTime time.Time, upToDate bool, err error) {
	r.program.Send(MsgActionComplete{SpanID: spanID, EndTime: endTime, UpToDate: upToDate, Err: err})
}
