// Package install copies the primary host's stage-2 toolchain under the install
// prefix.
package install

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/engine/modules"
	"go.trai.ch/zerr"
)

// Goals served by the module.
const (
	Goal          = "install"
	UninstallGoal = "uninstall"
)

// Stage is the stage whose host tree gets installed.
const Stage domain.Stage = 2

// Module serves `install` and `uninstall`.
type Module struct{}

// New creates the module.
func New() *Module {
	return &Module{}
}

type entry struct {
	src  string
	dst  string
	kind domain.ArtifactKind
}

// Setup plans one install copy per toolchain artifact.
func (m *Module) Setup(_ context.Context, b *modules.Build, goals []string) error {
	prefix := Prefix(b)
	var entries []entry

	for _, g := range goals {
		if g != Goal && g != UninstallGoal {
			continue
		}
		if entries == nil {
			var err error
			if entries, err = artifacts(b, prefix); err != nil {
				return err
			}
		}

		if g == UninstallGoal {
			id := domain.NewInternedString(UninstallGoal)
			remove := make([]string, 0, len(entries))
			for _, e := range entries {
				remove = append(remove, e.dst)
			}
			if err := b.Ensure(&domain.Action{ID: id, Kind: domain.ActionRemove, Remove: remove, AlwaysRun: true}); err != nil {
				return err
			}
			b.Bind(g, id)
			continue
		}

		for _, e := range entries {
			mode := uint32(domain.FilePerm)
			if e.kind.IsExecutable() {
				mode = domain.ExecPerm
			}
			id := domain.NewInternedString(e.dst)
			if err := b.Ensure(&domain.Action{
				ID:      id,
				Kind:    domain.ActionInstall,
				Sources: []string{e.src},
				Outputs: []string{e.dst},
				Mode:    mode,
			}); err != nil {
				return err
			}
			b.Bind(g, id)
		}
	}
	return nil
}

// Prefix returns the install prefix, below DESTDIR when one is set.
func Prefix(b *modules.Build) string {
	prefix := b.Config.Prefix
	if b.Options.DestDir == "" {
		return prefix
	}
	rewired := filepath.Join(b.Options.DestDir, prefix)
	if b.Logger != nil {
		b.Logger.Info(fmt.Sprintf("install prefix %s rewired to %s", prefix, rewired))
	}
	return rewired
}

// artifacts maps every stage-2 artifact of the primary host, including the aux tools,
// to its place below prefix. The layout below the stage tree is kept.
func artifacts(b *modules.Build, prefix string) ([]entry, error) {
	host := b.Config.PrimaryHost
	set, err := b.Goals.StageGoal(Stage, host)
	if err != nil {
		return nil, err
	}
	aux, err := b.Engine.AuxPromotions(host)
	if err != nil {
		return nil, err
	}
	set.AddArtifacts(auxTargets(aux)...)

	tree := domain.StageDir(host, Stage) + string(filepath.Separator)
	var out []entry
	for p := range set.Artifacts() {
		rel, ok := strings.CutPrefix(p.Path, tree)
		if !ok {
			return nil, zerr.With(zerr.Wrap(domain.ErrOutOfDomain, "artifact outside the stage tree"), "path", p.Path)
		}
		out = append(out, entry{src: p.Path, dst: filepath.Join(prefix, rel), kind: p.Artifact.Kind})
	}
	return out, nil
}

func auxTargets(edges []domain.PromotionEdge) []domain.ArtifactPath {
	out := make([]domain.ArtifactPath, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.To)
	}
	return out
}
