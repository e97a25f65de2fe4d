// Package modules activates optional rule modules from the requested goal names.
package modules

import (
	"path/filepath"
	"slices"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports"
	"go.trai.ch/stagehand/internal/engine/goals"
	"go.trai.ch/stagehand/internal/engine/prereq"
	"go.trai.ch/stagehand/internal/engine/resolver"
)

// Build is the state a module extends: the planned graph, its accumulator and the
// collaborators needed to add actions.
type Build struct {
	Root     string
	Config   *domain.Configuration
	Options  domain.Options
	Resolver *resolver.Resolver
	Engine   *prereq.Engine
	Goals    *goals.Aggregator
	Graph    *domain.Graph
	Plan     *domain.PlanContext
	Walker   ports.Walker
	VCS      ports.VCS
	Logger   ports.Logger

	bindings map[string][]domain.InternedString
}

// AddAction adds an action to the graph and records its outputs in the plan context.
func (b *Build) AddAction(a *domain.Action) error {
	if err := b.Graph.AddAction(a); err != nil {
		return err
	}
	b.Plan.Outputs = append(b.Plan.Outputs, a.Outputs...)
	return nil
}

// Ensure adds an action unless the graph already holds one with the same id. Goals
// of one module often share actions.
func (b *Build) Ensure(a *domain.Action) error {
	if _, ok := b.Graph.GetAction(a.ID); ok {
		return nil
	}
	return b.AddAction(a)
}

// Bind makes goal resolve to the given actions. Binding a goal claims it.
func (b *Build) Bind(goal string, ids ...domain.InternedString) {
	if b.bindings == nil {
		b.bindings = make(map[string][]domain.InternedString)
	}
	cur := b.bindings[goal]
	for _, id := range ids {
		if !slices.Contains(cur, id) {
			cur = append(cur, id)
		}
	}
	b.bindings[goal] = cur
}

// Bound returns the actions bound to goal and whether a module claimed it.
func (b *Build) Bound(goal string) ([]domain.InternedString, bool) {
	ids, ok := b.bindings[goal]
	return ids, ok
}

// Producers returns the ids of the actions producing paths. Paths without a producer
// are returned separately.
func (b *Build) Producers(paths []string) (ids []domain.InternedString, missing []string) {
	for _, p := range paths {
		id, ok := b.Graph.ProducerOf(p)
		if !ok {
			missing = append(missing, p)
			continue
		}
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids, missing
}

// Sources lists tracked source files under a source-relative directory, relative to
// the build root.
func (b *Build) Sources(dir string, suffixes []string) []string {
	if dir == "" || b.Walker == nil {
		return nil
	}
	abs := filepath.Join(b.Root, b.Config.SourcePath(dir))
	var out []string
	for p := range b.Walker.WalkFiles(abs, suffixes) {
		rel, err := filepath.Rel(b.Root, p)
		if err != nil {
			continue
		}
		out = append(out, rel)
	}
	return out
}
