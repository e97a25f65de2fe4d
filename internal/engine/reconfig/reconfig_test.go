package reconfig_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports/mocks"
	"go.trai.ch/stagehand/internal/engine/reconfig"
	"go.uber.org/mock/gomock"
)

var epoch = time.Date(2013, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	fsys       fstest.MapFS
	vcs        *mocks.MockVCS
	configurer *mocks.MockConfigurer
	loader     *mocks.MockConfigLoader
	logger     *mocks.MockLogger
	trigger    *reconfig.Trigger
	cfg        *domain.Configuration
}

func setup(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	cfg := &domain.Configuration{
		Hosts:         []domain.Triple{"x86_64-unknown-linux-gnu"},
		ConfigureArgs: []string{"--enable-debug"},
	}
	cfg.ApplyDefaults()

	f := &fixture{
		fsys: fstest.MapFS{
			"configure":            &fstest.MapFile{ModTime: epoch},
			"config.yaml.in":       &fstest.MapFile{ModTime: epoch},
			domain.ConfigStampName: &fstest.MapFile{ModTime: epoch.Add(time.Minute)},
		},
		vcs:        mocks.NewMockVCS(ctrl),
		configurer: mocks.NewMockConfigurer(ctrl),
		loader:     mocks.NewMockConfigLoader(ctrl),
		logger:     mocks.NewMockLogger(ctrl),
		cfg:        cfg,
	}
	f.logger.EXPECT().Info(gomock.Any()).AnyTimes()
	f.loader.EXPECT().Load("config.yaml").Return(cfg, nil).AnyTimes()
	f.trigger = reconfig.New("/build", f.fsys, f.vcs, f.configurer, f.loader, f.logger)
	return f
}

func TestCheck_Fresh(t *testing.T) {
	f := setup(t)
	f.vcs.EXPECT().Submodules(gomock.Any(), "/build").Return([]domain.SubmoduleStatus{
		{Path: "src/llvm", Marker: ' '},
	}, nil)

	state, err := f.trigger.Check(t.Context(), f.cfg, domain.Options{})
	require.NoError(t, err)
	assert.False(t, state.Stale)
}

func TestCheck_Stale(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*fixture)
		subs   []domain.SubmoduleStatus
		check  func(*testing.T, domain.ReconfigState)
	}{
		{
			name: "input newer than stamp",
			mutate: func(f *fixture) {
				f.fsys["configure"].ModTime = epoch.Add(time.Hour)
			},
			check: func(t *testing.T, s domain.ReconfigState) {
				assert.Equal(t, []string{"configure"}, s.ChangedInputs)
				assert.False(t, s.Forced)
			},
		},
		{
			name: "missing stamp",
			mutate: func(f *fixture) {
				delete(f.fsys, domain.ConfigStampName)
			},
			check: func(t *testing.T, s domain.ReconfigState) {
				assert.True(t, s.MissingStamp)
			},
		},
		{
			name: "modified submodules",
			subs: []domain.SubmoduleStatus{
				{Path: "src/llvm", Marker: '+'},
				{Path: "src/libuv", Marker: '-'},
				{Path: "src/compiler-rt", Marker: ' '},
			},
			check: func(t *testing.T, s domain.ReconfigState) {
				assert.True(t, s.Forced)
				assert.Equal(t, []string{"src/llvm", "src/libuv"}, s.ModifiedSubmodules)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t)
			if tt.mutate != nil {
				tt.mutate(f)
			}
			f.vcs.EXPECT().Submodules(gomock.Any(), gomock.Any()).Return(tt.subs, nil)

			state, err := f.trigger.Check(t.Context(), f.cfg, domain.Options{})
			require.NoError(t, err)
			assert.True(t, state.Stale)
			tt.check(t, state)
		})
	}
}

func TestCheck_SubmoduleProbe(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		f := setup(t)
		state, err := f.trigger.Check(t.Context(), f.cfg, domain.Options{DisableSubmoduleCheck: true})
		require.NoError(t, err)
		assert.False(t, state.Stale)
	})

	t.Run("probe failure is a warning", func(t *testing.T) {
		f := setup(t)
		f.vcs.EXPECT().Submodules(gomock.Any(), gomock.Any()).Return(nil, errors.New("not a git repository"))
		f.logger.EXPECT().Warn(gomock.Any())

		state, err := f.trigger.Check(t.Context(), f.cfg, domain.Options{})
		require.NoError(t, err)
		assert.False(t, state.Stale)
	})
}

func TestEnsure_RegeneratesOnce(t *testing.T) {
	f := setup(t)
	f.fsys["config.yaml.in"].ModTime = epoch.Add(time.Hour)
	f.vcs.EXPECT().Submodules(gomock.Any(), gomock.Any()).Return(nil, nil).Times(2)

	f.configurer.EXPECT().
		Configure(gomock.Any(), "/build", []string{"/build/configure", "--enable-debug"}, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, _ []string, _ io.Writer) error {
			f.fsys[domain.ConfigStampName] = &fstest.MapFile{ModTime: epoch.Add(2 * time.Hour)}
			return nil
		})

	cfg, err := f.trigger.Ensure(t.Context(), "config.yaml", domain.Options{}, io.Discard)
	require.NoError(t, err)
	assert.Same(t, f.cfg, cfg)
}

func TestEnsure_ConfigurationLoop(t *testing.T) {
	f := setup(t)
	delete(f.fsys, domain.ConfigStampName)

	// configure never writes the stamp
	f.configurer.EXPECT().Configure(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)

	_, err := f.trigger.Ensure(t.Context(), "config.yaml",
		domain.Options{DisableSubmoduleCheck: true, MaxReconfigure: 2}, io.Discard)
	require.ErrorIs(t, err, domain.ErrConfigurationLoop)
}

func TestEnsure_ConfigureFailure(t *testing.T) {
	f := setup(t)
	delete(f.fsys, domain.ConfigStampName)
	f.configurer.EXPECT().Configure(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("exit status 1"))

	_, err := f.trigger.Ensure(t.Context(), "config.yaml", domain.Options{DisableSubmoduleCheck: true}, io.Discard)
	require.ErrorIs(t, err, domain.ErrReconfigureFailed)
}
