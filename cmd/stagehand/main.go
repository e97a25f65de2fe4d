// Package main is the entry point for the stagehand build orchestrator.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/grindlemire/graft"
	"go.trai.ch/stagehand/cmd/stagehand/commands"
	"go.trai.ch/stagehand/internal/app"
	"go.trai.ch/stagehand/internal/core/domain"
	_ "go.trai.ch/stagehand/internal/wiring"
)

func main() {
	os.Exit(run())
}

func run(opts ...func(*app.App)) int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	components, _, err := graft.ExecuteFor[*app.Components](ctx)
	if err != nil {
		// The logger is not available when initialization fails.
		_, _ = os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 1
	}

	for _, opt := range opts {
		opt(components.App)
	}

	cli := commands.New(components.App)

	if err := cli.Execute(ctx); err != nil {
		components.Logger.Error(err)
		return exitCode(err)
	}
	return 0
}

// exitCode is 2 for requests rejected before anything ran and 1 otherwise.
func exitCode(err error) int {
	if errors.Is(err, domain.ErrUnknownGoal) ||
		errors.Is(err, domain.ErrOutOfDomain) ||
		errors.Is(err, domain.ErrInvalidOption) {
		return 2
	}
	return 1
}
