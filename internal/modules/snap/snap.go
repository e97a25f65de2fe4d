// Package snap packs a stage's host tree into a stage-0 snapshot archive.
//
// `snap` snapshots the last stage, `snap-stageN` a given one. Appending `-upload`
// publishes the archive to the configured object store.
package snap

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"go.trai.ch/stagehand/internal/adapters/snapshot"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/engine/modules"
	"go.trai.ch/zerr"
)

// ArchivePrefix is the top directory inside snapshot archives.
const ArchivePrefix = "stage0"

// UnknownRev stands in for the revision when the source tree is not a checkout.
const UnknownRev = "unknown"

var goalPattern = regexp.MustCompile(`^snap(?:-stage([1-3]))?(-upload)?$`)

// Module serves the snapshot goals.
type Module struct {
	now func() time.Time
	rev string
}

// New creates the module.
func New() *Module {
	return &Module{now: time.Now}
}

// NewWithClock creates a module dating archives with now.
func NewWithClock(now func() time.Time) *Module {
	return &Module{now: now}
}

// Setup adds a pack action, and an upload action when requested, per snapshot goal.
func (m *Module) Setup(ctx context.Context, b *modules.Build, goals []string) error {
	for _, g := range goals {
		sm := goalPattern.FindStringSubmatch(g)
		if sm == nil {
			continue
		}
		stage := domain.MaxStage
		if sm[1] != "" {
			n, _ := strconv.Atoi(sm[1])
			stage = domain.Stage(n)
		}

		pack, err := m.pack(ctx, b, stage)
		if err != nil {
			return err
		}
		if sm[2] == "" {
			b.Bind(g, pack.ID)
			continue
		}

		if !b.Config.Snapshot.HasRemote() {
			return zerr.With(zerr.Wrap(domain.ErrConfigInvalid, "snapshot upload needs an object store"), "goal", g)
		}
		id := domain.NewInternedString("upload(" + pack.Archive + ")")
		if err := b.Ensure(&domain.Action{
			ID:        id,
			Kind:      domain.ActionUpload,
			Inputs:    pack.Outputs,
			Archive:   pack.Archive,
			AlwaysRun: true,
		}); err != nil {
			return err
		}
		b.Bind(g, id)
	}
	return nil
}

func (m *Module) revision(ctx context.Context, b *modules.Build) string {
	if m.rev != "" {
		return m.rev
	}
	m.rev = UnknownRev
	if b.VCS == nil {
		return m.rev
	}
	rev, err := b.VCS.Head(ctx, filepath.Join(b.Root, b.Config.SrcDir))
	if err != nil {
		if b.Logger != nil {
			b.Logger.Warn(fmt.Sprintf("snapshot revision unavailable, using %q", UnknownRev))
		}
		return m.rev
	}
	m.rev = rev
	return m.rev
}

func (m *Module) pack(ctx context.Context, b *modules.Build, stage domain.Stage) (*domain.Action, error) {
	host := b.Config.PrimaryHost
	set, err := b.Engine.HostRequirements(stage, host)
	if err != nil {
		return nil, err
	}
	var files []string
	for p := range set.Artifacts() {
		files = append(files, p.Path)
	}

	date := m.now().UTC().Format(time.DateOnly)
	name := snapshot.BaseName(date, m.revision(ctx, b), host) + snapshot.ArchiveExt
	// Stages pack into separate directories so the file name stays fetchable.
	archive := filepath.Join(domain.DistDirName, stage.String(), name)

	a := &domain.Action{
		ID:            domain.NewInternedString(archive),
		Kind:          domain.ActionPack,
		Outputs:       []string{archive, archive + snapshot.HashExt},
		Sources:       files,
		WorkingDir:    domain.StageDir(host, stage),
		Archive:       archive,
		ArchivePrefix: ArchivePrefix,
	}
	if err := b.Ensure(a); err != nil {
		return nil, err
	}
	return a, nil
}
