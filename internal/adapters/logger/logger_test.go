package logger_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stagehand/internal/adapters/logger"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/zerr"
)

// newTestLogger creates a logger writing to a buffer with colors disabled.
func newTestLogger(t *testing.T) (*logger.Logger, *bytes.Buffer) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	buf := &bytes.Buffer{}
	lg := logger.New().(*logger.Logger)
	lg.SetOutput(buf)
	return lg, buf
}

func TestLogger_Levels(t *testing.T) {
	lg, buf := newTestLogger(t)

	lg.Debug("hidden")
	lg.Info("planning 42 actions")
	lg.Warn("in-transition configuration")
	assert.Equal(t, "planning 42 actions\n! in-transition configuration\n", buf.String())

	buf.Reset()
	lg.SetVerbose(true)
	lg.Debug("activated module test")
	assert.Equal(t, "~ activated module test\n", buf.String())
}

func TestLogger_ErrorChain(t *testing.T) {
	lg, buf := newTestLogger(t)

	err := zerr.With(zerr.Wrap(domain.ErrOutOfDomain, "cannot resolve artifact"), "stage", 4)
	lg.Error(err)

	assert.Equal(t,
		"✗ Error: cannot resolve artifact\n"+
			"\n"+
			"  Caused by:\n"+
			"    → request outside the configured stage/triple domain\n"+
			"\n"+
			"  stage=4\n",
		buf.String())
}

func TestLogger_ErrorNil(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.Error(nil)
	assert.Empty(t, buf.String())
}

func TestFormatError_StandardError(t *testing.T) {
	assert.Equal(t, "Error: boom", logger.FormatError(errors.New("boom")))
}

func TestLogger_JSON(t *testing.T) {
	lg, buf := newTestLogger(t)
	lg.SetJSON(true)

	lg.Error(zerr.Wrap(domain.ErrActionFailed, "x86_64-unknown-linux-gnu/stage1/bin/rustc"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "ERROR", rec["level"])
	assert.Equal(t, "operation failed", rec["msg"])
	// zerr errors log as a group with their cause.
	group, ok := rec["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "x86_64-unknown-linux-gnu/stage1/bin/rustc", group["msg"])
	cause, ok := group["cause"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "action failed", cause["msg"])
}
