// Package moduletest plans a small build for rule module tests.
package moduletest

import (
	"iter"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/engine/goals"
	"go.trai.ch/stagehand/internal/engine/modules"
	"go.trai.ch/stagehand/internal/engine/planner"
	"go.trai.ch/stagehand/internal/engine/prereq"
	"go.trai.ch/stagehand/internal/engine/resolver"
)

// Triples of the planned matrix.
const (
	Linux64 = domain.Triple("x86_64-unknown-linux-gnu")
	Linux32 = domain.Triple("i686-unknown-linux-gnu")
)

// Root is the build root of planned builds.
const Root = "/build"

// Walker serves files from a map of root-relative directory to root-relative files.
type Walker map[string][]string

// WalkFiles yields the absolute paths of the files listed for dir.
func (w Walker) WalkFiles(dir string, suffixes []string) iter.Seq[string] {
	rel, err := filepath.Rel(Root, dir)
	if err != nil {
		return slices.Values([]string(nil))
	}
	var out []string
	for _, f := range w[rel] {
		if len(suffixes) > 0 && !slices.ContainsFunc(suffixes, func(s string) bool { return strings.HasSuffix(f, s) }) {
			continue
		}
		out = append(out, filepath.Join(Root, f))
	}
	return slices.Values(out)
}

// Fixture configures NewBuild.
type Fixture struct {
	Files   Walker
	Options domain.Options
	Mutate  func(*domain.Configuration)
}

// NewBuild plans a linux64 host with a linux32 target and returns the build modules
// extend.
func NewBuild(t testing.TB, f Fixture) *modules.Build {
	t.Helper()
	cfg := &domain.Configuration{
		Hosts:   []domain.Triple{Linux64},
		Targets: []domain.Triple{Linux32},
		Version: "0.4",
	}
	if f.Mutate != nil {
		f.Mutate(cfg)
	}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())

	res, err := resolver.New(cfg)
	require.NoError(t, err)
	engine := prereq.New(res, cfg, f.Options)
	walker := f.Files
	if walker == nil {
		walker = Walker{}
	}

	g, plan, err := planner.New(Root, cfg, f.Options, res, engine, walker).Plan()
	require.NoError(t, err)

	return &modules.Build{
		Root:     Root,
		Config:   cfg,
		Options:  f.Options,
		Resolver: res,
		Engine:   engine,
		Goals:    goals.New(engine, res, cfg),
		Graph:    g,
		Plan:     plan,
		Walker:   walker,
	}
}

// Action returns the action with id or fails the test.
func Action(t testing.TB, b *modules.Build, id string) *domain.Action {
	t.Helper()
	a, ok := b.Graph.GetAction(domain.NewInternedString(id))
	require.True(t, ok, "no action %s", id)
	return a
}

// Bound returns the action ids bound to goal as strings or fails the test.
func Bound(t testing.TB, b *modules.Build, goal string) []string {
	t.Helper()
	ids, ok := b.Bound(goal)
	require.True(t, ok, "goal %s not bound", goal)
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}
