// Package scheduler executes the action graph with bounded parallelism.
package scheduler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports"
	"go.trai.ch/zerr"
)

// ActionStatus represents the status of an action.
type ActionStatus string

const (
	// StatusPending indicates the action is waiting to be executed.
	StatusPending ActionStatus = "Pending"
	// StatusRunning indicates the action is currently executing.
	StatusRunning ActionStatus = "Running"
	// StatusCompleted indicates the action ran and succeeded.
	StatusCompleted ActionStatus = "Completed"
	// StatusUpToDate indicates the action's outputs were fresh and it did not run.
	StatusUpToDate ActionStatus = "UpToDate"
	// StatusFailed indicates the action execution failed.
	StatusFailed ActionStatus = "Failed"
	// StatusSkipped indicates a dependency failed and the action never started.
	StatusSkipped ActionStatus = "Skipped"
)

// RunOptions control one execution.
type RunOptions struct {
	// Parallelism bounds concurrently running actions. Zero means NumCPU.
	Parallelism int
	// KeepGoing runs independent branches after a failure instead of cancelling.
	KeepGoing bool
	// Force runs every action regardless of freshness.
	Force bool
}

// Summary counts final action statuses of a run.
type Summary struct {
	Ran      int
	UpToDate int
	Failed   int
	Skipped  int
}

// Scheduler manages the execution of actions in the dependency graph.
type Scheduler struct {
	handlers map[domain.ActionKind]ports.ActionHandler
	store    ports.BuildInfoStore
	hasher   ports.Hasher
	stater   ports.Stater
	tracer   ports.Tracer
	logger   ports.Logger

	mu     sync.RWMutex
	status map[domain.InternedString]ActionStatus
}

// NewScheduler creates a new Scheduler with the given dependencies.
func NewScheduler(
	handlers []ports.ActionHandler,
	store ports.BuildInfoStore,
	hasher ports.Hasher,
	stater ports.Stater,
	tracer ports.Tracer,
	logger ports.Logger,
) *Scheduler {
	byKind := make(map[domain.ActionKind]ports.ActionHandler)
	for _, h := range handlers {
		for _, k := range h.Kinds() {
			byKind[k] = h
		}
	}
	return &Scheduler{
		handlers: byKind,
		store:    store,
		hasher:   hasher,
		stater:   stater,
		tracer:   tracer,
		logger:   logger,
		status:   make(map[domain.InternedString]ActionStatus),
	}
}

// Status returns the last known status of an action.
func (s *Scheduler) Status(id domain.InternedString) ActionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status[id]
}

func (s *Scheduler) updateStatus(id domain.InternedString, status ActionStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[id] = status
}

// Run executes the closure of roots, or the whole graph when roots is empty.
func (s *Scheduler) Run(
	ctx context.Context,
	graph *domain.Graph,
	roots []domain.InternedString,
	opts RunOptions,
) (Summary, error) {
	// Validate populates the execution order.
	if err := graph.Validate(); err != nil {
		return Summary{}, err
	}

	state, err := s.newRunState(ctx, graph, roots, opts)
	if err != nil {
		return Summary{}, err
	}
	defer state.cancel()

	planned := make([]string, 0, len(state.actions))
	for a := range graph.Walk() {
		if _, ok := state.actions[a.ID]; ok {
			planned = append(planned, a.Name())
		}
	}
	s.tracer.EmitPlan(ctx, planned)

	for id := range state.actions {
		s.updateStatus(id, StatusPending)
	}

	err = state.runExecutionLoop()
	return state.summary(), err
}

type result struct {
	action      domain.InternedString
	err         error
	upToDate    bool
	commandHash string
}

type schedulerRunState struct {
	graph       *domain.Graph
	inDegree    map[domain.InternedString]int
	actions     map[domain.InternedString]*domain.Action
	ready       []domain.InternedString
	active      int
	ran         map[domain.InternedString]bool
	resultsCh   chan result
	errs        error
	parent      context.Context
	ctx         context.Context
	cancel      context.CancelFunc
	parallelism int
	opts        RunOptions
	s           *Scheduler
}

func (s *Scheduler) newRunState(
	ctx context.Context,
	graph *domain.Graph,
	roots []domain.InternedString,
	opts RunOptions,
) (*schedulerRunState, error) {
	var closure map[domain.InternedString]bool
	if len(roots) == 0 {
		closure = make(map[domain.InternedString]bool, graph.ActionCount())
		for a := range graph.Walk() {
			closure[a.ID] = true
		}
	} else {
		var err error
		if closure, err = graph.Closure(roots); err != nil {
			return nil, err
		}
	}

	inDegree := make(map[domain.InternedString]int, len(closure))
	actions := make(map[domain.InternedString]*domain.Action, len(closure))
	for id := range closure {
		a, _ := graph.GetAction(id)
		actions[id] = a

		// Only dependencies inside the closure hold an action back.
		degree := 0
		for _, dep := range a.Dependencies {
			if closure[dep] {
				degree++
			}
		}
		inDegree[id] = degree
	}

	// Seed the queue in execution order so runs are reproducible.
	var ready []domain.InternedString
	for a := range graph.Walk() {
		if closure[a.ID] && inDegree[a.ID] == 0 {
			ready = append(ready, a.ID)
		}
	}

	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	runCtx, cancel := context.WithCancel(ctx)
	return &schedulerRunState{
		graph:       graph,
		inDegree:    inDegree,
		actions:     actions,
		ready:       ready,
		ran:         make(map[domain.InternedString]bool, len(actions)),
		resultsCh:   make(chan result, parallelism),
		parent:      ctx,
		ctx:         runCtx,
		cancel:      cancel,
		parallelism: parallelism,
		opts:        opts,
		s:           s,
	}, nil
}

func (state *schedulerRunState) runExecutionLoop() error {
	for !state.isDone() {
		state.schedule()

		if state.isDone() {
			break
		}

		if state.ctx.Err() != nil && state.active == 0 {
			break
		}

		select {
		case res := <-state.resultsCh:
			state.handleResult(res)
		case <-state.ctx.Done():
			if state.active > 0 {
				state.handleResult(<-state.resultsCh)
			}
		}
	}

	state.skipUnfinished()

	if err := state.parent.Err(); err != nil {
		state.errs = errors.Join(state.errs, err)
	}

	if state.errs != nil {
		return zerr.Wrap(state.errs, domain.ErrBuildExecutionFailed.Error())
	}
	return nil
}

func (state *schedulerRunState) isDone() bool {
	return state.active == 0 && len(state.ready) == 0
}

func (state *schedulerRunState) schedule() {
	for len(state.ready) > 0 && state.active < state.parallelism && state.ctx.Err() == nil {
		id := state.ready[0]
		state.ready = state.ready[1:]

		state.active++
		state.s.updateStatus(id, StatusRunning)

		a := state.actions[id]
		depRan := false
		for _, dep := range a.Dependencies {
			if state.ran[dep] {
				depRan = true
				break
			}
		}
		go state.executeAction(a, depRan)
	}
}

func (state *schedulerRunState) executeAction(a *domain.Action, depRan bool) {
	// The span ends before the result is sent so the loop never finishes ahead of it.
	res := func() result {
		opts := []ports.SpanOption{ports.WithAttribute(ports.AttrKind, string(a.Kind))}
		if len(a.Command) > 0 {
			opts = append(opts, ports.WithAttribute(ports.AttrArgv, strings.Join(a.Command, " ")))
		}
		ctx, span := state.s.tracer.Start(state.ctx, a.Name(), opts...)
		defer span.End()

		root := state.graph.Root()
		hash := state.s.hasher.ComputeCommandHash(a)

		run, err := state.s.needsRun(root, a, hash, state.opts.Force || depRan)
		if err != nil {
			span.RecordError(err)
			return result{action: a.ID, err: err}
		}
		if !run {
			span.SetAttribute(ports.AttrUpToDate, true)
			return result{action: a.ID, upToDate: true}
		}

		if err = prepareOutputs(root, a); err != nil {
			span.RecordError(err)
			return result{action: a.ID, err: err}
		}

		handler, ok := state.s.handlers[a.Kind]
		if !ok {
			err = zerr.With(zerr.Wrap(domain.ErrNoHandler, "cannot execute action"), "kind", string(a.Kind))
			span.RecordError(err)
			return result{action: a.ID, err: err}
		}

		err = handler.Handle(ctx, root, a, span)
		state.s.stater.Invalidate(absPaths(root, a.Outputs)...)
		if err == nil {
			err = state.s.checkOutputs(root, a)
		}
		if err != nil {
			span.RecordError(err)
		}
		return result{action: a.ID, err: err, commandHash: hash}
	}()

	state.resultsCh <- res
}

func (state *schedulerRunState) handleResult(res result) {
	state.active--

	if res.err != nil {
		// Actions interrupted by a cancelled run did nothing wrong.
		if ctxErr := state.ctx.Err(); ctxErr != nil && errors.Is(res.err, ctxErr) {
			state.s.updateStatus(res.action, StatusSkipped)
			return
		}

		a := state.actions[res.action]
		err := zerr.Wrap(errors.Join(domain.ErrActionFailed, res.err), a.Name())
		kv := a.Context()
		for i := 0; i+1 < len(kv); i += 2 {
			err = zerr.With(err, kv[i].(string), kv[i+1])
		}
		state.errs = errors.Join(state.errs, err)
		state.s.updateStatus(res.action, StatusFailed)

		// A content mismatch only poisons what depends on it.
		if !state.opts.KeepGoing && !errors.Is(res.err, domain.ErrReproducibilityMismatch) {
			state.cancel()
			return
		}
		state.skipDependents(res.action)
		return
	}

	state.handleSuccess(res)
}

func (state *schedulerRunState) handleSuccess(res result) {
	if res.upToDate {
		state.s.updateStatus(res.action, StatusUpToDate)
	} else {
		state.s.updateStatus(res.action, StatusCompleted)
		state.ran[res.action] = true
		err := state.s.store.Put(domain.BuildInfo{Action: res.action.String(), CommandHash: res.commandHash})
		if err != nil && state.s.logger != nil {
			state.s.logger.Warn("failed to record build info for " + res.action.String() + ": " + err.Error())
		}
	}

	for _, dep := range state.graph.Dependents(res.action) {
		// Only consider dependents that are part of the current execution.
		if _, ok := state.actions[dep]; ok {
			state.inDegree[dep]--
			if state.inDegree[dep] == 0 {
				state.ready = append(state.ready, dep)
			}
		}
	}
}

// skipDependents marks every transitive dependent of a failed action inside the run.
func (state *schedulerRunState) skipDependents(id domain.InternedString) {
	queue := []domain.InternedString{id}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, dep := range state.graph.Dependents(cur) {
			if _, ok := state.actions[dep]; !ok || state.s.Status(dep) == StatusSkipped {
				continue
			}
			state.s.updateStatus(dep, StatusSkipped)
			queue = append(queue, dep)
		}
	}
}

// skipUnfinished marks actions that never started after a cancellation.
func (state *schedulerRunState) skipUnfinished() {
	for id := range state.actions {
		if state.s.Status(id) == StatusPending {
			state.s.updateStatus(id, StatusSkipped)
		}
	}
}

func (state *schedulerRunState) summary() Summary {
	var sum Summary
	for id := range state.actions {
		switch state.s.Status(id) {
		case StatusCompleted:
			sum.Ran++
		case StatusUpToDate:
			sum.UpToDate++
		case StatusFailed:
			sum.Failed++
		case StatusSkipped:
			sum.Skipped++
		default:
		}
	}
	return sum
}

// prepareOutputs rejects relative outputs escaping the root and creates parent dirs.
func prepareOutputs(root string, a *domain.Action) error {
	for _, out := range a.Outputs {
		if !filepath.IsAbs(out) {
			clean := filepath.Clean(out)
			if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
				return zerr.With(zerr.Wrap(domain.ErrOutputPathOutsideRoot, "invalid output"), "path", out)
			}
		}
		dir := filepath.Dir(absPath(root, out))
		if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to create output directory"), "path", dir)
		}
	}
	return nil
}

func absPath(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

func absPaths(root string, paths []string) []string {
	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = absPath(root, p)
	}
	return out
}
