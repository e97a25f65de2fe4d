package snap_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stagehand/internal/adapters/snapshot"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports/mocks"
	"go.trai.ch/stagehand/internal/modules/moduletest"
	"go.trai.ch/stagehand/internal/modules/snap"
	"go.uber.org/mock/gomock"
)

func clock() time.Time {
	return time.Date(2012, 4, 1, 23, 0, 0, 0, time.UTC)
}

func TestModule_Snap(t *testing.T) {
	ctrl := gomock.NewController(t)
	vcs := mocks.NewMockVCS(ctrl)
	vcs.EXPECT().Head(gomock.Any(), "/build").Return("abc1234", nil).Times(1)

	b := moduletest.NewBuild(t, moduletest.Fixture{})
	b.VCS = vcs
	require.NoError(t, snap.NewWithClock(clock).Setup(context.Background(), b, []string{"snap", "snap-stage1"}))

	archive := "dist/stage3/snapshot-2012-04-01-abc1234-" + moduletest.Linux64.String() + ".tar.gz"
	assert.Equal(t, []string{archive}, moduletest.Bound(t, b, "snap"))

	a := moduletest.Action(t, b, archive)
	assert.Equal(t, domain.ActionPack, a.Kind)
	assert.Equal(t, domain.StageDir(moduletest.Linux64, 3), a.WorkingDir)
	assert.Equal(t, []string{archive, archive + ".xxh"}, a.Outputs)
	driver, err := b.Resolver.Host(3, moduletest.Linux64, domain.KindDriver)
	require.NoError(t, err)
	assert.Contains(t, a.Sources, driver.Path)

	stage1 := moduletest.Bound(t, b, "snap-stage1")
	require.Len(t, stage1, 1)
	assert.Equal(t, "dist/stage1/snapshot-2012-04-01-abc1234-"+moduletest.Linux64.String()+".tar.gz", stage1[0])
	assert.NotEqual(t, archive, stage1[0])
	assert.Equal(t, domain.StageDir(moduletest.Linux64, 1), moduletest.Action(t, b, stage1[0]).WorkingDir)
}

func TestModule_SnapArchiveNameIsFetchable(t *testing.T) {
	b := moduletest.NewBuild(t, moduletest.Fixture{})
	require.NoError(t, snap.NewWithClock(clock).Setup(context.Background(), b, []string{"snap-stage2"}))

	ids := moduletest.Bound(t, b, "snap-stage2")
	require.Len(t, ids, 1)
	assert.Equal(t, "dist/stage2", filepath.Dir(ids[0]))
	assert.Equal(t, snapshot.BaseName("2012-04-01", snap.UnknownRev, moduletest.Linux64)+snapshot.ArchiveExt, filepath.Base(ids[0]))
}

func TestModule_SnapWithoutRevision(t *testing.T) {
	ctrl := gomock.NewController(t)
	vcs := mocks.NewMockVCS(ctrl)
	vcs.EXPECT().Head(gomock.Any(), gomock.Any()).Return("", errors.New("not a git repository"))
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Warn(gomock.Any())

	b := moduletest.NewBuild(t, moduletest.Fixture{})
	b.VCS = vcs
	b.Logger = logger
	require.NoError(t, snap.NewWithClock(clock).Setup(context.Background(), b, []string{"snap"}))

	assert.Equal(t, []string{"dist/stage3/snapshot-2012-04-01-unknown-" + moduletest.Linux64.String() + ".tar.gz"},
		moduletest.Bound(t, b, "snap"))
}

func TestModule_SnapUpload(t *testing.T) {
	b := moduletest.NewBuild(t, moduletest.Fixture{Mutate: func(c *domain.Configuration) {
		c.Snapshot.Endpoint = "s3.example.com"
		c.Snapshot.Bucket = "snapshots"
	}})
	require.NoError(t, snap.NewWithClock(clock).Setup(context.Background(), b, []string{"snap-stage2-upload"}))

	ids := moduletest.Bound(t, b, "snap-stage2-upload")
	require.Len(t, ids, 1)
	up := moduletest.Action(t, b, ids[0])
	assert.Equal(t, domain.ActionUpload, up.Kind)
	assert.True(t, up.AlwaysRun)

	b.Graph.LinkProducers()
	require.NoError(t, b.Graph.Validate())
	pack, ok := b.Graph.ProducerOf(up.Archive)
	require.True(t, ok)
	assert.Contains(t, up.Dependencies, pack)
}

func TestModule_SnapUploadWithoutStore(t *testing.T) {
	b := moduletest.NewBuild(t, moduletest.Fixture{})
	err := snap.NewWithClock(clock).Setup(context.Background(), b, []string{"snap-upload"})
	require.ErrorIs(t, err, domain.ErrConfigInvalid)
}
