// Package perf times the compiler phases of the stage-2 compiler.
package perf

import (
	"context"
	"maps"
	"slices"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/engine/modules"
)

// Goal runs the measurement.
const Goal = "perf"

// Stage is the measured compiler.
const Stage domain.Stage = 2

// Module serves `perf`.
type Module struct{}

// New creates the module.
func New() *Module {
	return &Module{}
}

// Setup adds a timed, codegen-free compile of the perf input. Without a configured
// input the compiler crate itself is measured.
func (m *Module) Setup(_ context.Context, b *modules.Build, goals []string) error {
	if !slices.Contains(goals, Goal) {
		return nil
	}
	host := b.Config.PrimaryHost
	input := b.Config.PerfInput
	if input == "" {
		input = b.Config.Components.Compiler.Root
	}
	input = b.Config.SourcePath(input)

	inv, err := b.Engine.Invocation(Stage, host, host)
	if err != nil {
		return err
	}
	libs, err := b.Engine.TargetCompleteRequirements(Stage, host, host)
	if err != nil {
		return err
	}
	libDir, err := b.Resolver.Target(Stage, host, host, domain.KindTargetLibDir)
	if err != nil {
		return err
	}

	argv := slices.Clone(inv.Argv)
	if !slices.Contains(argv, "--time-passes") {
		argv = append(argv, "--time-passes")
	}
	argv = append(argv, "--no-trans", "-L", libDir.Path, input)

	id := domain.NewInternedString("perf(" + input + ")")
	if err := b.Ensure(&domain.Action{
		ID:          id,
		Kind:        domain.ActionCommand,
		Inputs:      append(libs.Paths(), input),
		Command:     argv,
		Environment: maps.Clone(inv.Env),
		AlwaysRun:   true,
	}); err != nil {
		return err
	}
	b.Bind(Goal, id)
	return nil
}
