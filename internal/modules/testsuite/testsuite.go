// Package testsuite compiles and runs the test suite with a stage compiler.
//
// Goals have the form `check`, `check-stageN` or `check-stageN-<suite>`, where a
// suite is a directory below the configured test dir. `test` is an alias of `check`
// and `bench` runs the same binaries with `--bench`. `tidy` runs the source linter.
package testsuite

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/engine/modules"
	"go.trai.ch/stagehand/internal/engine/prereq"
)

// DefaultStage is tested when a goal names no stage.
const DefaultStage domain.Stage = 2

// TidyGoal runs the linter over every tracked source.
const TidyGoal = "tidy"

// TidyScript is the source-relative linter script.
const TidyScript = "src/etc/tidy.py"

var goalPattern = regexp.MustCompile(`^(check|test|bench)(?:-stage([1-3]))?(?:-([A-Za-z0-9_.-]+))?$`)

// Request is a parsed test goal.
type Request struct {
	Stage domain.Stage
	Suite string
	Bench bool
}

// ParseGoal parses a test goal name.
func ParseGoal(name string) (Request, bool) {
	m := goalPattern.FindStringSubmatch(name)
	if m == nil {
		return Request{}, false
	}
	req := Request{Stage: DefaultStage, Suite: m[3], Bench: m[1] == "bench"}
	if m[2] != "" {
		n, _ := strconv.Atoi(m[2])
		req.Stage = domain.Stage(n)
	}
	return req, true
}

// Module serves the test goals.
type Module struct {
	// scanned caches test sources per suite dir.
	scanned map[string][]string
}

// New creates the module.
func New() *Module {
	return &Module{scanned: make(map[string][]string)}
}

// Setup scans the test dir for each requested suite and adds a compile and a run
// action per test file.
func (m *Module) Setup(_ context.Context, b *modules.Build, goals []string) error {
	for _, g := range goals {
		if g == TidyGoal {
			if err := m.tidy(b); err != nil {
				return err
			}
			continue
		}
		req, ok := ParseGoal(g)
		if !ok {
			continue
		}
		ids, err := m.suite(b, req)
		if err != nil {
			return err
		}
		if len(ids) == 0 && b.Logger != nil {
			b.Logger.Warn(fmt.Sprintf("%s: no test sources found", g))
		}
		b.Bind(g, ids...)
	}
	return nil
}

func (m *Module) sources(b *modules.Build, dir string) []string {
	if files, ok := m.scanned[dir]; ok {
		return files
	}
	files := b.Sources(dir, b.Config.SourceSuffixes)
	slices.Sort(files)
	m.scanned[dir] = files
	return files
}

func (m *Module) suite(b *modules.Build, req Request) ([]domain.InternedString, error) {
	host := b.Config.PrimaryHost
	inv, err := b.Engine.Invocation(req.Stage, host, host)
	if err != nil {
		return nil, err
	}
	libs, err := b.Engine.TargetCompleteRequirements(req.Stage, host, host)
	if err != nil {
		return nil, err
	}
	libDir, err := b.Resolver.Target(req.Stage, host, host, domain.KindTargetLibDir)
	if err != nil {
		return nil, err
	}

	testDir := filepath.Join(b.Config.TestDir, req.Suite)
	base := b.Config.SourcePath(b.Config.TestDir)
	var ids []domain.InternedString
	for _, src := range m.sources(b, testDir) {
		rel, err := filepath.Rel(base, src)
		if err != nil {
			continue
		}
		bin := filepath.Join(domain.TestBuildDirName, fmt.Sprintf("stage%d", req.Stage), host.String(),
			strings.TrimSuffix(rel, filepath.Ext(rel))+host.ExeSuffix())

		argv := slices.Clone(inv.Argv)
		argv = append(argv, "--test", "-L", libDir.Path, "-o", bin, src)
		if err := b.Ensure(&domain.Action{
			ID:          domain.NewInternedString(bin),
			Kind:        domain.ActionCompile,
			Outputs:     []string{bin},
			Inputs:      append(libs.Paths(), src),
			Command:     argv,
			Environment: maps.Clone(inv.Env),
		}); err != nil {
			return nil, err
		}

		run := []string{bin}
		name := "run(" + bin + ")"
		if req.Bench {
			run = append(run, "--bench")
			name = "bench(" + bin + ")"
		}
		id := domain.NewInternedString(name)
		if err := b.Ensure(&domain.Action{
			ID:          id,
			Kind:        domain.ActionCommand,
			Inputs:      []string{bin},
			Command:     run,
			Environment: map[string]string{prereq.LibraryPathVar(host): libDir.Path},
			AlwaysRun:   true,
		}); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *Module) tidy(b *modules.Build) error {
	script := b.Config.SourcePath(TidyScript)
	files := slices.Clone(b.Plan.Sources)
	slices.Sort(files)

	id := domain.NewInternedString(TidyGoal)
	if err := b.Ensure(&domain.Action{
		ID:        id,
		Kind:      domain.ActionCommand,
		Inputs:    append([]string{script}, files...),
		Command:   append([]string{"python3", script}, files...),
		AlwaysRun: true,
	}); err != nil {
		return err
	}
	b.Bind(TidyGoal, id)
	return nil
}
