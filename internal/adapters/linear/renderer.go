// Package linear provides a synchronous, line-buffered renderer for build logs.
package linear

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/stagehand/internal/ui/output"
	"go.trai.ch/stagehand/internal/ui/style"
)

// Renderer implements ports.Renderer. Each executed action is announced as
// "<kind>: <name>", its output lines are prefixed with its name, and a completion
// marker follows. Up-to-date actions stay silent unless verbose.
type Renderer struct {
	stdout  io.Writer
	stderr  io.Writer
	output  *termenv.Output
	verbose bool

	mu      sync.Mutex
	actions map[string]*actionState
}

type actionState struct {
	name      string
	kind      string
	argv      string
	startTime time.Time
	announced bool
	buf       bytes.Buffer
}

// NewRenderer creates a new Renderer. Nil writers default to stdout and stderr.
func NewRenderer(stdout, stderr io.Writer, verbose bool) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return &Renderer{
		stdout:  stdout,
		stderr:  stderr,
		output:  output.New(stderr),
		verbose: verbose,
		actions: make(map[string]*actionState),
	}
}

// Start is a no-op.
func (r *Renderer) Start(_ context.Context) error {
	return nil
}

// Stop flushes partial output lines.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.actions {
		r.flushLocked(a)
	}
	return nil
}

// OnPlanEmit prints the plan size in verbose mode.
func (r *Renderer) OnPlanEmit(actions []string) {
	if !r.verbose {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintf(r.stderr, "planned %d action(s)\n", len(actions))
}

// OnActionStart records the action. It is announced once it turns out to run.
func (r *Renderer) OnActionStart(spanID, name, kind, argv string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.actions[spanID] = &actionState{
		name:      name,
		kind:      kind,
		argv:      argv,
		startTime: startTime,
	}
}

// OnActionLog prints complete lines prefixed with the action name.
func (r *Renderer) OnActionLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.actions[spanID]
	if !ok {
		return
	}
	r.announceLocked(a)

	a.buf.Write(data)
	for {
		i := bytes.IndexByte(a.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		r.printLineLocked(a.name, a.buf.Next(i+1))
	}
}

// OnActionComplete prints the completion marker.
func (r *Renderer) OnActionComplete(spanID string, endTime time.Time, upToDate bool, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.actions[spanID]
	if !ok {
		return
	}
	delete(r.actions, spanID)

	if upToDate && err == nil {
		if r.verbose {
			_, _ = fmt.Fprintf(r.stderr, "%s %s up to date\n",
				r.output.String(style.Tilde).Faint().String(), a.name)
		}
		return
	}

	r.announceLocked(a)
	r.flushLocked(a)

	duration := endTime.Sub(a.startTime).Round(time.Millisecond)
	if err != nil {
		symbol := r.output.String(style.Cross).Foreground(termenv.RGBColor(string(style.Red))).String()
		_, _ = fmt.Fprintf(r.stderr, "%s %s failed after %v: %v\n", symbol, a.name, duration, err)
		return
	}
	symbol := r.output.String(style.Check).Foreground(termenv.RGBColor(string(style.Green))).String()
	_, _ = fmt.Fprintf(r.stderr, "%s %s %v\n", symbol, a.name, duration)
}

func (r *Renderer) announceLocked(a *actionState) {
	if a.announced {
		return
	}
	a.announced = true

	kind := a.kind
	if kind == "" {
		kind = "run"
	}
	label := r.output.String(kind + ":").Bold().Foreground(termenv.RGBColor(string(style.Iris))).String()
	_, _ = fmt.Fprintf(r.stderr, "%s %s\n", label, a.name)
	if r.verbose && a.argv != "" {
		_, _ = fmt.Fprintf(r.stderr, "  %s\n", r.output.String(a.argv).Faint().String())
	}
}

// flushLocked prints a trailing partial line.
func (r *Renderer) flushLocked(a *actionState) {
	if a.buf.Len() > 0 {
		r.printLineLocked(a.name, a.buf.Bytes())
		a.buf.Reset()
	}
}

func (r *Renderer) printLineLocked(name string, line []byte) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 {
		return
	}
	_, _ = fmt.Fprintf(r.stdout, "[%s] %s\n", name, line)
}
