// Package detector picks the output mode of a run from the terminal and environment.
package detector

import (
	"os"
	"strings"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/term"
)

// OutputMode represents the rendering mode for the application.
type OutputMode int

const (
	// ModeAuto automatically detects the appropriate mode.
	ModeAuto OutputMode = iota
	// ModeTUI forces the interactive TUI renderer.
	ModeTUI
	// ModeLinear forces the line renderer.
	ModeLinear
)

// String returns the flag spelling of the mode.
func (m OutputMode) String() string {
	switch m {
	case ModeTUI:
		return "tui"
	case ModeLinear:
		return "linear"
	default:
		return "auto"
	}
}

// Environment is what detection looks at.
type Environment struct {
	IsTTY  bool
	Getenv func(string) string
}

// Current describes the running process: whether stdout is a terminal and its variables.
func Current() Environment {
	return Environment{
		IsTTY:  term.IsTerminal(int(os.Stdout.Fd())),
		Getenv: os.Getenv,
	}
}

// Detect returns the recommended output mode. Pipes, CI and dumb terminals get
// the line renderer.
func Detect(env Environment) OutputMode {
	if !env.IsTTY {
		return ModeLinear
	}
	if env.Getenv != nil {
		ci := strings.ToLower(env.Getenv("CI"))
		if ci == "true" || ci == "1" || env.Getenv("TERM") == "dumb" {
			return ModeLinear
		}
	}
	return ModeTUI
}

// ParseMode reads a user supplied mode. "ci" is an alias of "linear".
func ParseMode(s string) (OutputMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "tui":
		return ModeTUI, nil
	case "linear", "ci":
		return ModeLinear, nil
	default:
		return ModeAuto, zerr.With(zerr.Wrap(domain.ErrInvalidOption, "unknown output mode"), "mode", s)
	}
}

// Resolve applies the requested mode over the detected one.
func Resolve(detected, requested OutputMode) OutputMode {
	if requested == ModeAuto {
		return detected
	}
	return requested
}
