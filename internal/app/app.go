// Package app implements the application layer for stagehand.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/stagehand/internal/adapters/detector"
	"go.trai.ch/stagehand/internal/adapters/linear"
	"go.trai.ch/stagehand/internal/adapters/snapshot"
	"go.trai.ch/stagehand/internal/adapters/telemetry"
	"go.trai.ch/stagehand/internal/adapters/tui"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports"
	"go.trai.ch/stagehand/internal/engine/depfile"
	"go.trai.ch/stagehand/internal/engine/goals"
	"go.trai.ch/stagehand/internal/engine/modules"
	"go.trai.ch/stagehand/internal/engine/planner"
	"go.trai.ch/stagehand/internal/engine/prereq"
	"go.trai.ch/stagehand/internal/engine/reconfig"
	"go.trai.ch/stagehand/internal/engine/resolver"
	"go.trai.ch/stagehand/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// Executor runs external actions and the configure step.
type Executor interface {
	ports.ActionHandler
	ports.Configurer
}

// RemoteFactory opens the snapshot object store of a configuration.
type RemoteFactory func(src domain.SnapshotSource) (snapshot.Remote, error)

// App represents the main application logic.
type App struct {
	configLoader  ports.ConfigLoader
	optionsLoader ports.OptionsLoader
	executor      Executor
	files         ports.ActionHandler
	logger        ports.Logger
	vcs           ports.VCS
	walker        ports.Walker
	store         ports.BuildInfoStore
	hasher        ports.Hasher
	stater        ports.Stater

	root      string
	stdout    io.Writer
	stderr    io.Writer
	remotes   RemoteFactory
	factories map[domain.ModuleCategory]modules.Factory

	terminal   detector.Environment
	teaOptions []tea.ProgramOption
}

// New creates a new App instance rooted at the working directory.
func New(
	loader ports.ConfigLoader,
	optionsLoader ports.OptionsLoader,
	executor Executor,
	files ports.ActionHandler,
	log ports.Logger,
	vcs ports.VCS,
	walker ports.Walker,
	store ports.BuildInfoStore,
	hasher ports.Hasher,
	stater ports.Stater,
) *App {
	root, err := os.Getwd()
	if err != nil {
		root = "."
	}
	return &App{
		configLoader:  loader,
		optionsLoader: optionsLoader,
		executor:      executor,
		files:         files,
		logger:        log,
		vcs:           vcs,
		walker:        walker,
		store:         store,
		hasher:        hasher,
		stater:        stater,
		root:          root,
		stdout:        os.Stdout,
		stderr:        os.Stderr,
		remotes:       newS3Remote,
		factories:     DefaultModules(),
		terminal:      detector.Current(),
	}
}

// WithRoot sets the build root.
func (a *App) WithRoot(root string) *App {
	a.root = root
	return a
}

// WithOutput redirects action output and listings.
func (a *App) WithOutput(stdout, stderr io.Writer) *App {
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// WithRemotes replaces the snapshot object store constructor.
func (a *App) WithRemotes(f RemoteFactory) *App {
	a.remotes = f
	return a
}

// WithModules replaces the rule module factories.
func (a *App) WithModules(factories map[domain.ModuleCategory]modules.Factory) *App {
	a.factories = factories
	return a
}

// WithTerminal replaces the environment output mode detection looks at.
func (a *App) WithTerminal(env detector.Environment) *App {
	a.terminal = env
	return a
}

// WithTeaOptions adds options to the interactive program.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// RunOptions configuration for the Build method.
type RunOptions struct {
	// ConfigPath is the persisted configuration, relative to the root.
	ConfigPath string
	// EnvFile is the options file, relative to the root.
	EnvFile string
	// Overrides are option values set by flags, keyed by their environment name.
	Overrides map[string]string
	// OutputMode selects the renderer. ModeAuto picks by terminal and environment.
	OutputMode detector.OutputMode
}

func (o RunOptions) withDefaults() RunOptions {
	if o.ConfigPath == "" {
		o.ConfigPath = domain.ConfigFileName
	}
	if o.EnvFile == "" {
		o.EnvFile = domain.EnvFileName
	}
	return o
}

// Build brings the configuration up to date, plans the requested goals and executes
// them. No goals means the default goal.
//
//nolint:cyclop // orchestration function
func (a *App) Build(ctx context.Context, goalNames []string, opts RunOptions) error {
	// 1. Options
	opts = opts.withDefaults()
	options, err := a.optionsLoader.Load(a.path(opts.EnvFile), opts.Overrides)
	if err != nil {
		return zerr.Wrap(err, "failed to load options")
	}

	// 2. Configuration, regenerated until fresh
	trigger := reconfig.New(a.root, os.DirFS(a.root), a.vcs, a.executor, a.configLoader, a.logger)
	cfg, err := trigger.Ensure(ctx, a.path(opts.ConfigPath), options, a.stderr)
	if err != nil {
		return err
	}

	// 3. Static graph and modules
	if len(goalNames) == 0 {
		goalNames = []string{domain.DefaultGoalName}
	}
	b, pl, err := a.plan(cfg, options)
	if err != nil {
		return err
	}
	if _, err := modules.NewActivator(a.factories).Activate(ctx, b, goalNames); err != nil {
		return err
	}

	// 4. Goal roots
	roots, err := a.roots(b, pl, goalNames)
	if err != nil {
		return err
	}
	if len(roots) == 0 {
		a.logger.Info("nothing to do")
		return nil
	}

	// 5. Dependency records
	stats, err := depfile.Merge(ctx, os.DirFS(a.root), b.Graph)
	if err != nil {
		return zerr.Wrap(err, "failed to merge dependency records")
	}
	a.logger.Debug(fmt.Sprintf("dependency records: %d read, %d missing, %d edges added",
		stats.Read, stats.Missing, stats.Edges))
	b.Graph.LinkProducers()
	if err := b.Graph.Validate(); err != nil {
		return err
	}

	// 6. Execution
	handlers, err := a.handlers(cfg)
	if err != nil {
		return err
	}
	return a.execute(ctx, b.Graph, roots, handlers, options, opts.OutputMode)
}

func (a *App) plan(cfg *domain.Configuration, opts domain.Options) (*modules.Build, *planner.Planner, error) {
	res, err := resolver.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	engine := prereq.New(res, cfg, opts)
	pl := planner.New(a.root, cfg, opts, res, engine, a.walker)
	g, pc, err := pl.Plan()
	if err != nil {
		return nil, nil, err
	}

	return &modules.Build{
		Root:     a.root,
		Config:   cfg,
		Options:  opts,
		Resolver: res,
		Engine:   engine,
		Goals:    goals.New(engine, res, cfg),
		Graph:    g,
		Plan:     pc,
		Walker:   a.walker,
		VCS:      a.vcs,
		Logger:   a.logger,
	}, pl, nil
}

// roots maps goal names onto the actions to run. Goals claimed by a module resolve to
// its bindings; canonical goals resolve through the aggregator.
func (a *App) roots(b *modules.Build, pl *planner.Planner, goalNames []string) ([]domain.InternedString, error) {
	var roots []domain.InternedString
	add := func(ids ...domain.InternedString) {
		for _, id := range ids {
			if !slices.Contains(roots, id) {
				roots = append(roots, id)
			}
		}
	}

	for _, name := range goalNames {
		if ids, ok := b.Bound(name); ok {
			add(ids...)
			continue
		}

		plan, err := b.Goals.Resolve(name)
		if err != nil {
			return nil, err
		}
		for _, n := range plan.Notices {
			a.logger.Warn(n)
		}
		ids, err := planner.Roots(b.Graph, plan.Prereqs)
		if err != nil {
			return nil, zerr.With(err, "goal", name)
		}
		add(ids...)

		if plan.Verify {
			id, err := pl.AddVerify(b.Graph, plan.Host)
			if err != nil {
				return nil, zerr.With(err, "goal", name)
			}
			add(id)
		}
	}

	return roots, nil
}

func (a *App) handlers(cfg *domain.Configuration) ([]ports.ActionHandler, error) {
	var remote snapshot.Remote
	if cfg.Snapshot.HasRemote() && a.remotes != nil {
		r, err := a.remotes(cfg.Snapshot)
		if err != nil {
			return nil, err
		}
		remote = r
	}

	return []ports.ActionHandler{
		a.files,
		a.executor,
		snapshot.NewHandler(cfg.Snapshot.Dir, remote),
	}, nil
}

func (a *App) execute(
	ctx context.Context,
	graph *domain.Graph,
	roots []domain.InternedString,
	handlers []ports.ActionHandler,
	opts domain.Options,
	mode detector.OutputMode,
) error {
	renderer := a.renderer(ctx, opts, mode)

	tp := telemetry.NewProvider(renderer)
	defer func() {
		_ = tp.Shutdown(context.WithoutCancel(ctx))
	}()
	tracer := telemetry.NewOTelTracer("stagehand", tp).WithRenderer(renderer)

	sched := scheduler.NewScheduler(handlers, a.store, a.hasher, a.stater, tracer, a.logger)

	g, ctx := errgroup.WithContext(ctx)

	// Renderer Routine
	g.Go(func() error {
		return renderer.Start(ctx)
	})

	// Scheduler Routine
	g.Go(func() error {
		defer func() {
			_ = renderer.Stop()
		}()

		summary, err := sched.Run(ctx, graph, roots, scheduler.RunOptions{
			Parallelism: opts.Jobs,
			KeepGoing:   opts.KeepGoing,
			Force:       opts.Force,
		})
		// The interactive screen must be gone before the summary is logged.
		_ = renderer.Stop()
		a.logger.Info(fmt.Sprintf("%d ran, %d up to date, %d failed, %d skipped",
			summary.Ran, summary.UpToDate, summary.Failed, summary.Skipped))
		if err != nil {
			return errors.Join(domain.ErrBuildExecutionFailed, err)
		}
		return nil
	})

	return g.Wait()
}

func (a *App) renderer(ctx context.Context, opts domain.Options, mode detector.OutputMode) ports.Renderer {
	if detector.Resolve(detector.Detect(a.terminal), mode) != detector.ModeTUI {
		return linear.NewRenderer(a.stdout, a.stderr, opts.Verbose)
	}
	teaOpts := append([]tea.ProgramOption{
		tea.WithContext(ctx),
		tea.WithOutput(a.stderr),
		tea.WithAltScreen(),
	}, a.teaOptions...)
	return tui.NewRenderer(tui.NewModel(), teaOpts...)
}

// Goals lists the canonical goal names of the configuration.
func (a *App) Goals(_ context.Context, configPath string) ([]string, error) {
	cfg, err := a.load(configPath)
	if err != nil {
		return nil, err
	}
	res, err := resolver.New(cfg)
	if err != nil {
		return nil, err
	}
	return goals.New(prereq.New(res, cfg, domain.Options{}), res, cfg).Names(), nil
}

// Paths writes the resolved artifact table matching the filter.
func (a *App) Paths(_ context.Context, configPath string, f resolver.Filter, w io.Writer) error {
	cfg, err := a.load(configPath)
	if err != nil {
		return err
	}
	res, err := resolver.New(cfg)
	if err != nil {
		return err
	}
	return resolver.WriteTable(w, res.Table(f))
}

// SetLogFormat switches the logger between pretty and JSON output when it supports it.
func (a *App) SetLogFormat(json bool) {
	if l, ok := a.logger.(interface{ SetJSON(bool) }); ok {
		l.SetJSON(json)
	}
}

func (a *App) load(configPath string) (*domain.Configuration, error) {
	return a.configLoader.Load(a.path(RunOptions{ConfigPath: configPath}.withDefaults().ConfigPath))
}

func (a *App) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.root, p)
}

func newS3Remote(src domain.SnapshotSource) (snapshot.Remote, error) {
	r, err := snapshot.NewS3Remote(src)
	if err != nil {
		return nil, err
	}
	return r, nil
}
