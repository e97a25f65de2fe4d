// Package reformat pretty-prints the compiler sources with the stage-1 driver.
package reformat

import (
	"context"
	"maps"
	"path/filepath"
	"slices"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/engine/modules"
)

// Goal pretty-prints every compiler source.
const Goal = "reformat"

// Stage is the stage whose driver does the printing.
const Stage domain.Stage = 1

// Module serves `reformat`.
type Module struct{}

// New creates the module.
func New() *Module {
	return &Module{}
}

// Setup adds one pretty-print action per compiler source. Output lands in a mirror
// tree below the reformat dir and never overwrites sources.
func (m *Module) Setup(_ context.Context, b *modules.Build, goals []string) error {
	if !slices.Contains(goals, Goal) {
		return nil
	}
	host := b.Config.PrimaryHost
	driver, err := b.Resolver.Host(Stage, host, domain.KindDriver)
	if err != nil {
		return err
	}
	reqs, err := b.Engine.HostRequirements(Stage, host)
	if err != nil {
		return err
	}
	inv, err := b.Engine.Invocation(Stage, host, host)
	if err != nil {
		return err
	}

	sources := b.Sources(b.Config.Components.Compiler.Dir, b.Config.SourceSuffixes)
	slices.Sort(sources)
	ids := make([]domain.InternedString, 0, len(sources))
	for _, src := range sources {
		out := filepath.Join(domain.ReformatDirName, src)
		id := domain.NewInternedString(out)
		if err := b.Ensure(&domain.Action{
			ID:          id,
			Kind:        domain.ActionCommand,
			Outputs:     []string{out},
			Inputs:      append(reqs.Paths(), src),
			Command:     []string{driver.Path, "--pretty", "normal", "-o", out, src},
			Environment: maps.Clone(inv.Env),
		}); err != nil {
			return err
		}
		ids = append(ids, id)
	}
	b.Bind(Goal, ids...)
	return nil
}
