package shell_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stagehand/internal/adapters/shell"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports/mocks"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func newExecutor(t *testing.T) *shell.Executor {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Debug(gomock.Any()).AnyTimes()
	return shell.NewExecutor(mockLogger)
}

func TestExecutor_Kinds(t *testing.T) {
	assert.Equal(t,
		[]domain.ActionKind{domain.ActionCompile, domain.ActionRecipe, domain.ActionCommand},
		newExecutor(t).Kinds())
}

func TestExecutor_Handle_Output(t *testing.T) {
	root := t.TempDir()
	a := &domain.Action{
		ID:      domain.NewInternedString("doc/version.md"),
		Kind:    domain.ActionCommand,
		Command: []string{"sh", "-c", "echo line1; printf part1; sleep 0.1; echo part2"},
	}

	var out bytes.Buffer
	require.NoError(t, newExecutor(t).Handle(t.Context(), root, a, &out))
	assert.Contains(t, out.String(), "line1")
	assert.Contains(t, out.String(), "part1part2")
}

func TestExecutor_Handle_RelativeExecutableAndEnv(t *testing.T) {
	root := t.TempDir()
	script := filepath.Join(root, "tools", "recipe.sh")
	require.NoError(t, os.MkdirAll(filepath.Dir(script), 0o750))
	//nolint:gosec // test script must be executable
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho \"$STAGEHAND_TARGET\" > \"$STAGEHAND_OUT\"\n"), 0o755))

	a := &domain.Action{
		ID:      domain.NewInternedString("rt/i686-pc-mingw32/rustrt.dll"),
		Kind:    domain.ActionRecipe,
		Command: []string{"tools/recipe.sh"},
		Environment: map[string]string{
			"STAGEHAND_OUT":    "marker",
			"STAGEHAND_TARGET": "i686-pc-mingw32",
		},
	}
	require.NoError(t, newExecutor(t).Handle(t.Context(), root, a, &bytes.Buffer{}))

	data, err := os.ReadFile(filepath.Join(root, "marker"))
	require.NoError(t, err)
	assert.Equal(t, "i686-pc-mingw32\n", string(data))
}

func TestExecutor_Handle_WorkingDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "test"), 0o750))

	a := &domain.Action{
		ID:         domain.NewInternedString("test/run"),
		Kind:       domain.ActionCommand,
		Command:    []string{"sh", "-c", "touch here"},
		WorkingDir: "test",
	}
	require.NoError(t, newExecutor(t).Handle(t.Context(), root, a, &bytes.Buffer{}))
	assert.FileExists(t, filepath.Join(root, "test", "here"))
}

func TestExecutor_Handle_ExitCode(t *testing.T) {
	a := &domain.Action{
		ID:      domain.NewInternedString("fail"),
		Kind:    domain.ActionCommand,
		Command: []string{"sh", "-c", "echo boom; exit 3"},
	}

	var out bytes.Buffer
	err := newExecutor(t).Handle(t.Context(), t.TempDir(), a, &out)
	require.Error(t, err)
	assert.Contains(t, out.String(), "boom")

	var zErr *zerr.Error
	require.ErrorAs(t, err, &zErr)
	assert.Equal(t, 3, zErr.Metadata()["exit_code"])
	assert.Equal(t, "sh", zErr.Metadata()["command"])
}

func TestExecutor_Handle_EmptyCommand(t *testing.T) {
	a := &domain.Action{ID: domain.NewInternedString("noop"), Kind: domain.ActionCommand}
	require.NoError(t, newExecutor(t).Handle(t.Context(), t.TempDir(), a, &bytes.Buffer{}))
}

func TestExecutor_Configure(t *testing.T) {
	root := t.TempDir()
	script := filepath.Join(root, "configure")
	//nolint:gosec // test script must be executable
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho \"hosts: [$1]\" > config.yaml\n"), 0o755))

	var out bytes.Buffer
	err := newExecutor(t).Configure(t.Context(), root, []string{"./configure", "x86_64-unknown-linux-gnu"}, &out)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(root, domain.ConfigFileName))
	require.NoError(t, err)
	assert.Equal(t, "hosts: [x86_64-unknown-linux-gnu]\n", string(data))
	assert.FileExists(t, filepath.Join(root, domain.ConfigStampName))
}

func TestExecutor_Configure_Failure(t *testing.T) {
	root := t.TempDir()
	err := newExecutor(t).Configure(t.Context(), root, []string{"sh", "-c", "exit 1"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(root, domain.ConfigStampName))

	require.Error(t, newExecutor(t).Configure(t.Context(), root, nil, &bytes.Buffer{}))
}

func TestExecutor_Handle_Cancelled(t *testing.T) {
	a := &domain.Action{
		ID:      domain.NewInternedString("slow"),
		Kind:    domain.ActionCommand,
		Command: []string{"sleep", "5"},
	}

	ctx, cancel := context.WithTimeout(t.Context(), 100*time.Millisecond)
	defer cancel()
	err := newExecutor(t).Handle(ctx, t.TempDir(), a, &bytes.Buffer{})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
