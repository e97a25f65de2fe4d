// Package packaging builds distribution tarballs.
package packaging

import (
	"context"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/engine/modules"
	"go.trai.ch/zerr"
)

// Goals served by the module.
const (
	SourceGoal    = "dist"
	ToolchainGoal = "dist-toolchain"
)

// Stage is the stage whose host tree the toolchain tarball holds.
const Stage domain.Stage = 2

// ArchiveExt is the extension of every tarball.
const ArchiveExt = ".tar.gz"

// HashExt names the content hash written next to each tarball.
const HashExt = ".xxh"

// Module serves `dist` and `dist-toolchain`.
type Module struct{}

// New creates the module.
func New() *Module {
	return &Module{}
}

// Setup adds a pack action per requested tarball.
func (m *Module) Setup(_ context.Context, b *modules.Build, goals []string) error {
	for _, g := range goals {
		var (
			a   *domain.Action
			err error
		)
		switch g {
		case SourceGoal:
			a = sourceTarball(b)
		case ToolchainGoal:
			a, err = toolchainTarball(b)
		default:
			continue
		}
		if err != nil {
			return err
		}
		if err := b.Ensure(a); err != nil {
			return err
		}
		b.Bind(g, a.ID)
	}
	return nil
}

// Name is the base name of the distribution, with the version when one is configured.
func Name(cfg *domain.Configuration) string {
	if cfg.Version == "" {
		return cfg.DistName
	}
	return cfg.DistName + "-" + cfg.Version
}

func packAction(archive, prefix, workDir string, files []string) *domain.Action {
	return &domain.Action{
		ID:            domain.NewInternedString(archive),
		Kind:          domain.ActionPack,
		Outputs:       []string{archive, archive + HashExt},
		Sources:       files,
		WorkingDir:    workDir,
		Archive:       archive,
		ArchivePrefix: prefix,
	}
}

// sourceTarball packs everything below the source tree's src dir plus the configure
// inputs.
func sourceTarball(b *modules.Build) *domain.Action {
	files := b.Sources("src", nil)
	for _, in := range b.Config.ReconfigureInputs {
		p := b.Config.SourcePath(in)
		if !slices.Contains(files, p) {
			files = append(files, p)
		}
	}
	slices.Sort(files)

	name := Name(b.Config)
	archive := filepath.Join(domain.DistDirName, name+ArchiveExt)
	return packAction(archive, name, b.Config.SrcDir, files)
}

// toolchainTarball packs the primary host's stage-2 tree as laid out by the resolver.
func toolchainTarball(b *modules.Build) (*domain.Action, error) {
	host := b.Config.PrimaryHost
	set, err := b.Goals.StageGoal(Stage, host)
	if err != nil {
		return nil, err
	}
	aux, err := b.Engine.AuxPromotions(host)
	if err != nil {
		return nil, err
	}
	for _, e := range aux {
		set.AddArtifacts(e.To)
	}

	tree := domain.StageDir(host, Stage)
	var files []string
	for p := range set.Artifacts() {
		if !strings.HasPrefix(p.Path, tree+string(filepath.Separator)) {
			return nil, zerr.With(zerr.Wrap(domain.ErrOutOfDomain, "artifact outside the stage tree"), "path", p.Path)
		}
		files = append(files, p.Path)
	}

	name := Name(b.Config) + "-" + host.String()
	archive := filepath.Join(domain.DistDirName, name+ArchiveExt)
	return packAction(archive, name, tree, files), nil
}
