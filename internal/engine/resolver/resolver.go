// Package resolver maps artifact references onto canonical build-root relative paths.
package resolver

import (
	"fmt"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/zerr"
)

// Resolver computes artifact paths for a fixed configuration. It never touches the
// file system.
type Resolver struct {
	matrix     domain.Matrix
	libDir     string
	naming     domain.NamingScheme
	version    string
	components domain.Components
}

// New creates a Resolver for a validated configuration.
func New(cfg *domain.Configuration) (*Resolver, error) {
	m, err := domain.NewMatrix(cfg.Hosts, cfg.Targets)
	if err != nil {
		return nil, err
	}
	return &Resolver{
		matrix:     m,
		libDir:     cfg.LibDir,
		naming:     cfg.Naming,
		version:    cfg.Version,
		components: cfg.Components,
	}, nil
}

// Matrix returns the configured domain.
func (r *Resolver) Matrix() domain.Matrix {
	return r.matrix
}

// LibDir returns the configured library directory name.
func (r *Resolver) LibDir() string {
	return r.libDir
}

// Host resolves a host-scoped artifact.
func (r *Resolver) Host(stage domain.Stage, host domain.Triple, kind domain.ArtifactKind) (domain.ArtifactPath, error) {
	return r.Resolve(domain.HostRef(stage, host, kind))
}

// Target resolves a target-scoped artifact.
func (r *Resolver) Target(
	stage domain.Stage, target, host domain.Triple, kind domain.ArtifactKind,
) (domain.ArtifactPath, error) {
	return r.Resolve(domain.TargetRef(stage, target, host, kind))
}

// Resolve maps a reference to its canonical path.
func (r *Resolver) Resolve(ref domain.ArtifactRef) (domain.ArtifactPath, error) {
	if err := r.check(ref); err != nil {
		return domain.ArtifactPath{}, err
	}

	var binDir, libDir string
	owner := ref.Host
	if ref.IsHostScoped() {
		binDir = r.hostBinDir(ref.Stage, ref.Host)
		libDir = r.hostLibDir(ref.Stage, ref.Host)
	} else {
		owner = ref.Target
		binDir = filepath.Join(r.targetRoot(ref.Stage, ref.Target, ref.Host), domain.HostBinDirName)
		libDir = filepath.Join(r.targetRoot(ref.Stage, ref.Target, ref.Host), r.libDir)
	}

	var p string
	switch ref.Kind {
	case domain.KindHostBinDir, domain.KindTargetBinDir:
		p = binDir
	case domain.KindHostLibDir, domain.KindTargetLibDir:
		p = libDir
	case domain.KindDriver, domain.KindPackageTool, domain.KindDocTool:
		p = filepath.Join(binDir, r.FileName(ref.Kind, owner))
	default:
		p = filepath.Join(libDir, r.FileName(ref.Kind, owner))
	}
	return domain.ArtifactPath{Ref: ref, Path: p}, nil
}

func (r *Resolver) check(ref domain.ArtifactRef) error {
	if err := r.matrix.CheckStage(ref.Stage); err != nil {
		return err
	}
	if err := r.matrix.CheckHost(ref.Host); err != nil {
		return err
	}
	if ref.IsHostScoped() {
		if !ref.Kind.IsHostScoped() {
			return zerr.With(zerr.Wrap(domain.ErrInvalidArtifactKind, "kind has no host-scoped path"),
				"kind", ref.Kind.String())
		}
		return nil
	}
	if err := r.matrix.CheckTarget(ref.Target); err != nil {
		return err
	}
	if !ref.Kind.IsTargetScoped() {
		return zerr.With(zerr.Wrap(domain.ErrInvalidArtifactKind, "kind has no target-scoped path"),
			"kind", ref.Kind.String())
	}
	return nil
}

// FileName returns the file name of a non-directory artifact for the triple that will
// load or run it.
func (r *Resolver) FileName(kind domain.ArtifactKind, triple domain.Triple) string {
	comp, _ := r.components.ByKind(kind)
	switch {
	case kind.IsExecutable():
		return comp.Name + triple.ExeSuffix()
	case kind.IsCrate():
		return r.CrateFileName(comp.Name, triple)
	case kind == domain.KindLinkSupport:
		return triple.StaticLibName(comp.Name)
	default:
		return triple.SharedLibName(comp.Name)
	}
}

// CrateFileName returns the library file name of a crate under the configured naming
// scheme.
func (r *Resolver) CrateFileName(crate string, triple domain.Triple) string {
	if r.naming == domain.NamingVersioned {
		return versionedName(crate, r.version, triple)
	}
	return fixedName(crate, triple)
}

func fixedName(crate string, triple domain.Triple) string {
	return triple.SharedLibName(crate)
}

func versionedName(crate, version string, triple domain.Triple) string {
	return triple.SharedLibName(fmt.Sprintf("%s-%s-%s", crate, crateHash(crate, version), version))
}

// crateHash is the first eight hex digits of the hash of the crate name and version.
func crateHash(crate, version string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(crate+"-"+version))[:8]
}

func (r *Resolver) hostBinDir(stage domain.Stage, host domain.Triple) string {
	return filepath.Join(domain.StageDir(host, stage), domain.HostBinDirName)
}

func (r *Resolver) hostLibDir(stage domain.Stage, host domain.Triple) string {
	return filepath.Join(domain.StageDir(host, stage), r.libDir)
}

func (r *Resolver) targetRoot(stage domain.Stage, target, host domain.Triple) string {
	return filepath.Join(r.hostLibDir(stage, host), domain.ToolchainDirName, target.String())
}
