package app_test

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stagehand/internal/adapters/cas"
	"go.trai.ch/stagehand/internal/adapters/detector"
	"go.trai.ch/stagehand/internal/adapters/fs"
	"go.trai.ch/stagehand/internal/app"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports/mocks"
	"go.trai.ch/stagehand/internal/engine/modules"
	"go.trai.ch/stagehand/internal/engine/resolver"
	"go.uber.org/mock/gomock"
)

const (
	linux64 = domain.Triple("x86_64-unknown-linux-gnu")
	linux32 = domain.Triple("i686-unknown-linux-gnu")
)

// fakeExecutor records external actions and writes their declared outputs.
type fakeExecutor struct {
	mu         sync.Mutex
	handled    []*domain.Action
	configured int

	configureHook func()
}

func (f *fakeExecutor) Kinds() []domain.ActionKind {
	return []domain.ActionKind{domain.ActionCompile, domain.ActionRecipe, domain.ActionCommand}
}

func (f *fakeExecutor) Handle(_ context.Context, root string, a *domain.Action, _ io.Writer) error {
	f.mu.Lock()
	f.handled = append(f.handled, a)
	f.mu.Unlock()
	for _, out := range a.Outputs {
		if err := os.WriteFile(filepath.Join(root, out), []byte(a.Name()), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeExecutor) Configure(_ context.Context, _ string, _ []string, _ io.Writer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configured++
	if f.configureHook != nil {
		f.configureHook()
	}
	return nil
}

type fixture struct {
	root     string
	cfg      *domain.Configuration
	executor *fakeExecutor
	loader   *mocks.MockConfigLoader
	options  *mocks.MockOptionsLoader
	logger   *mocks.MockLogger
	app      *app.App
	out      *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	root := t.TempDir()
	cfg := &domain.Configuration{
		Hosts:   []domain.Triple{linux64},
		Targets: []domain.Triple{linux32},
		Version: "0.4",
	}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	f := &fixture{
		root:     root,
		cfg:      cfg,
		executor: &fakeExecutor{},
		loader:   mocks.NewMockConfigLoader(ctrl),
		options:  mocks.NewMockOptionsLoader(ctrl),
		logger:   mocks.NewMockLogger(ctrl),
		out:      new(bytes.Buffer),
	}
	f.logger.EXPECT().Debug(gomock.Any()).AnyTimes()
	f.logger.EXPECT().Info(gomock.Any()).AnyTimes()
	f.logger.EXPECT().Warn(gomock.Any()).AnyTimes()

	stater, err := fs.NewStater(0)
	require.NoError(t, err)

	f.app = app.New(
		f.loader,
		f.options,
		f.executor,
		fs.NewHandler(),
		f.logger,
		nil,
		fs.NewWalker(),
		cas.NewStore(filepath.Join(root, domain.DefaultStorePath())),
		fs.NewHasher(),
		stater,
	).WithRoot(root).WithOutput(f.out, f.out).WithTerminal(detector.Environment{})
	return f
}

func (f *fixture) write(t *testing.T, rel, content string) {
	t.Helper()
	p := filepath.Join(f.root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

// fresh makes the persisted configuration loadable and up to date.
func (f *fixture) fresh(t *testing.T) {
	t.Helper()
	f.write(t, domain.ConfigStampName, "")
	f.loader.EXPECT().Load(filepath.Join(f.root, domain.ConfigFileName)).Return(f.cfg, nil).AnyTimes()
	f.options.EXPECT().Load(filepath.Join(f.root, domain.EnvFileName), gomock.Any()).
		Return(domain.Options{DisableSubmoduleCheck: true, Jobs: 2}, nil).AnyTimes()
}

func TestApp_BuildTags(t *testing.T) {
	f := newFixture(t)
	f.fresh(t)
	f.write(t, "src/libstd/std.rc", "mod io;")
	f.write(t, "src/libstd/io.rs", "fn main() {}")

	err := f.app.Build(context.Background(), []string{"TAGS"}, app.RunOptions{})
	require.NoError(t, err)

	require.Len(t, f.executor.handled, 1)
	a := f.executor.handled[0]
	assert.Equal(t, "TAGS", a.Name())
	assert.Equal(t, []string{
		"ctags", "-e", "-f", "TAGS", "src/libstd/io.rs", "src/libstd/std.rc",
	}, a.Command)
	assert.FileExists(t, filepath.Join(f.root, "TAGS"))
}

func TestApp_BuildOutputMode(t *testing.T) {
	tests := []struct {
		name       string
		tty        bool
		mode       detector.OutputMode
		wantLinear bool
	}{
		{"pipe", false, detector.ModeAuto, true},
		{"terminal", true, detector.ModeAuto, false},
		{"terminal forced linear", true, detector.ModeLinear, true},
		{"pipe forced interactive", false, detector.ModeTUI, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.fresh(t)
			f.write(t, "src/libstd/std.rc", "mod io;")
			f.app.WithTerminal(detector.Environment{IsTTY: tt.tty}).WithTeaOptions(
				tea.WithInput(nil),
				tea.WithOutput(io.Discard),
				tea.WithoutRenderer(),
				tea.WithoutSignalHandler(),
			)

			require.NoError(t, f.app.Build(context.Background(), []string{"TAGS"}, app.RunOptions{OutputMode: tt.mode}))
			require.Len(t, f.executor.handled, 1)
			if tt.wantLinear {
				assert.Contains(t, f.out.String(), "TAGS")
			} else {
				assert.NotContains(t, f.out.String(), "TAGS")
			}
		})
	}
}

func TestApp_BuildUpToDate(t *testing.T) {
	f := newFixture(t)
	f.fresh(t)
	f.write(t, "src/libstd/std.rc", "mod io;")

	require.NoError(t, f.app.Build(context.Background(), []string{"TAGS"}, app.RunOptions{}))
	require.NoError(t, f.app.Build(context.Background(), []string{"TAGS"}, app.RunOptions{}))

	assert.Len(t, f.executor.handled, 1, "the second run finds TAGS fresh")
}

func TestApp_BuildClean(t *testing.T) {
	f := newFixture(t)
	f.fresh(t)
	stage := filepath.Join(string(linux64), "stage1", "bin", "rustc")
	f.write(t, stage, "driver")

	require.NoError(t, f.app.Build(context.Background(), []string{"clean"}, app.RunOptions{}))

	assert.NoFileExists(t, filepath.Join(f.root, stage))
	assert.Empty(t, f.executor.handled)
}

func TestApp_BuildUnknownGoal(t *testing.T) {
	f := newFixture(t)
	f.fresh(t)

	err := f.app.Build(context.Background(), []string{"frobnicate"}, app.RunOptions{})
	require.ErrorIs(t, err, domain.ErrUnknownGoal)
	assert.Empty(t, f.executor.handled)
}

func TestApp_BuildModulesAreLazy(t *testing.T) {
	f := newFixture(t)
	f.fresh(t)
	f.write(t, "src/libstd/std.rc", "mod io;")

	var called []domain.ModuleCategory
	factories := app.DefaultModules()
	for c, factory := range factories {
		factories[c] = func() modules.Module {
			called = append(called, c)
			return factory()
		}
	}
	f.app.WithModules(factories)

	require.NoError(t, f.app.Build(context.Background(), []string{"tags"}, app.RunOptions{}))
	assert.Equal(t, []domain.ModuleCategory{domain.ModuleTags}, called)
}

func TestApp_BuildReconfigures(t *testing.T) {
	f := newFixture(t)
	f.write(t, domain.ConfigStampName, "")
	f.write(t, "src/libstd/std.rc", "mod io;")
	// configure is newer than the stamp until the first regeneration touches it.
	f.write(t, "configure", "#!/bin/sh")
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(f.root, "configure"), later, later))

	f.options.EXPECT().Load(gomock.Any(), gomock.Any()).Return(domain.Options{DisableSubmoduleCheck: true}, nil)
	f.loader.EXPECT().Load(gomock.Any()).Return(f.cfg, nil).Times(2)
	f.executor.configureHook = func() {
		require.NoError(t, os.Chtimes(filepath.Join(f.root, domain.ConfigStampName), later, later.Add(time.Minute)))
	}

	require.NoError(t, f.app.Build(context.Background(), []string{"TAGS"}, app.RunOptions{}))
	assert.Equal(t, 1, f.executor.configured)
}

func TestApp_BuildConfigurationLoop(t *testing.T) {
	f := newFixture(t)
	f.options.EXPECT().Load(gomock.Any(), gomock.Any()).
		Return(domain.Options{DisableSubmoduleCheck: true, MaxReconfigure: 2}, nil)
	f.loader.EXPECT().Load(gomock.Any()).Return(f.cfg, nil).Times(3)

	err := f.app.Build(context.Background(), nil, app.RunOptions{})
	require.ErrorIs(t, err, domain.ErrConfigurationLoop)
	assert.Equal(t, 2, f.executor.configured)
}

func TestApp_BuildOptionOverrides(t *testing.T) {
	f := newFixture(t)
	f.write(t, domain.ConfigStampName, "")
	overrides := map[string]string{"FORCE": "1"}
	f.options.EXPECT().Load(filepath.Join(f.root, "ci.env"), overrides).
		Return(domain.Options{DisableSubmoduleCheck: true, Force: true}, nil)
	f.loader.EXPECT().Load(filepath.Join(f.root, "build.yaml")).Return(f.cfg, nil)
	f.write(t, "src/libstd/std.rc", "mod io;")
	f.write(t, "TAGS", "stale")

	err := f.app.Build(context.Background(), []string{"TAGS"}, app.RunOptions{
		ConfigPath: "build.yaml",
		EnvFile:    "ci.env",
		Overrides:  overrides,
	})
	require.NoError(t, err)
	assert.Len(t, f.executor.handled, 1, "forced runs ignore freshness")
}

func TestApp_Goals(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(filepath.Join(f.root, domain.ConfigFileName)).Return(f.cfg, nil)

	names, err := f.app.Goals(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, names, domain.DefaultGoalName)
	assert.Contains(t, names, domain.ToolchainGoalName(linux64))
	assert.Contains(t, names, domain.VerifyGoalName(linux64))
}

func TestApp_Paths(t *testing.T) {
	f := newFixture(t)
	f.loader.EXPECT().Load(filepath.Join(f.root, domain.ConfigFileName)).Return(f.cfg, nil)

	stage := domain.Stage(2)
	buf := new(bytes.Buffer)
	err := f.app.Paths(context.Background(), "", resolver.Filter{Stage: &stage, Host: linux64}, buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "x86_64-unknown-linux-gnu/stage2/bin/rustc")
	assert.NotContains(t, buf.String(), "stage1/")
}
