package detector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stagehand/internal/adapters/detector"
	"go.trai.ch/stagehand/internal/core/domain"
)

func env(tty bool, vars map[string]string) detector.Environment {
	return detector.Environment{IsTTY: tty, Getenv: func(k string) string { return vars[k] }}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name string
		env  detector.Environment
		want detector.OutputMode
	}{
		{"terminal", env(true, nil), detector.ModeTUI},
		{"pipe", env(false, nil), detector.ModeLinear},
		{"CI=true", env(true, map[string]string{"CI": "true"}), detector.ModeLinear},
		{"CI=1", env(true, map[string]string{"CI": "1"}), detector.ModeLinear},
		{"CI=false", env(true, map[string]string{"CI": "false"}), detector.ModeTUI},
		{"dumb terminal", env(true, map[string]string{"TERM": "dumb"}), detector.ModeLinear},
		{"no lookup", detector.Environment{IsTTY: true}, detector.ModeTUI},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detector.Detect(tt.env))
		})
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]detector.OutputMode{
		"":       detector.ModeAuto,
		"auto":   detector.ModeAuto,
		"TUI":    detector.ModeTUI,
		"linear": detector.ModeLinear,
		"ci":     detector.ModeLinear,
	} {
		got, err := detector.ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := detector.ParseMode("fancy")
	require.ErrorIs(t, err, domain.ErrInvalidOption)
}

func TestResolve(t *testing.T) {
	assert.Equal(t, detector.ModeTUI, detector.Resolve(detector.ModeTUI, detector.ModeAuto))
	assert.Equal(t, detector.ModeLinear, detector.Resolve(detector.ModeTUI, detector.ModeLinear))
	assert.Equal(t, detector.ModeTUI, detector.Resolve(detector.ModeLinear, detector.ModeTUI))
	assert.Equal(t, "linear", detector.ModeLinear.String())
}
