// Package clean removes build outputs.
package clean

import (
	"context"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/engine/modules"
)

// Goal removes every build output.
const Goal = "clean"

var stageGoal = regexp.MustCompile(`^clean-stage([0-3])$`)

// Module serves `clean` and `clean-stageN`.
type Module struct{}

// New creates the module.
func New() *Module {
	return &Module{}
}

// Setup adds one remove action per requested clean goal.
func (m *Module) Setup(_ context.Context, b *modules.Build, goals []string) error {
	for _, g := range goals {
		var paths []string
		if g == Goal {
			paths = everything(b)
		} else if sm := stageGoal.FindStringSubmatch(g); sm != nil {
			n, _ := strconv.Atoi(sm[1])
			paths = stageTrees(b, domain.Stage(n))
		} else {
			continue
		}

		id := domain.NewInternedString(g)
		if err := b.Ensure(&domain.Action{
			ID:        id,
			Kind:      domain.ActionRemove,
			Remove:    paths,
			AlwaysRun: true,
		}); err != nil {
			return err
		}
		b.Bind(g, id)
	}
	return nil
}

func stageTrees(b *modules.Build, stage domain.Stage) []string {
	var out []string
	for _, h := range b.Resolver.Matrix().Hosts() {
		out = append(out, domain.StageDir(h, stage))
	}
	return out
}

// everything lists stage trees, auxiliary build dirs, generated outputs and the
// dependency records not already below one of those.
func everything(b *modules.Build) []string {
	var dirs []string
	for _, s := range b.Resolver.Matrix().Stages() {
		dirs = append(dirs, stageTrees(b, s)...)
	}
	dirs = append(dirs,
		domain.RuntimeBuildDirName,
		domain.BackendBuildDirName,
		domain.TestBuildDirName,
		domain.ReformatDirName,
		domain.DistDirName,
	)

	paths := slices.Clone(dirs)
	for _, p := range slices.Concat(b.Plan.Generated, b.Plan.DepFiles) {
		if !within(p, dirs) && !slices.Contains(paths, p) {
			paths = append(paths, p)
		}
	}
	return paths
}

func within(p string, dirs []string) bool {
	for _, d := range dirs {
		if strings.HasPrefix(filepath.Clean(p), d+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
