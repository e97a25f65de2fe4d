package snapshot_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stagehand/internal/adapters/fs"
	"go.trai.ch/stagehand/internal/adapters/snapshot"
	"go.trai.ch/stagehand/internal/core/domain"
)

const host = "x86_64-unknown-linux-gnu"

// memRemote keeps objects as files in a directory.
type memRemote struct {
	fetched []string
	objects map[string][]byte
}

func newMemRemote() *memRemote {
	return &memRemote{objects: map[string][]byte{}}
}

func (r *memRemote) Fetch(_ context.Context, key, dst string) error {
	r.fetched = append(r.fetched, key)
	data, ok := r.objects[key]
	if !ok {
		return domain.ErrSnapshotNotFound
	}
	return os.WriteFile(dst, data, 0o644)
}

func (r *memRemote) Upload(_ context.Context, key, src string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	r.objects[key] = data
	return nil
}

// buildArchive packs a fake stage-0 tree and returns the archive bytes and their hash.
func buildArchive(t *testing.T) ([]byte, string) {
	t.Helper()
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "bin/rustc"), "driver", 0o755)
	writeFile(t, filepath.Join(src, "lib/libcore.so"), "core", 0o644)

	var buf bytes.Buffer
	require.NoError(t, snapshot.Pack(&buf, []snapshot.File{
		{Path: filepath.Join(src, "bin/rustc"), Name: "rust-stage0/bin/rustc"},
		{Path: filepath.Join(src, "lib/libcore.so"), Name: "rust-stage0/lib/libcore.so"},
	}))

	path := filepath.Join(t.TempDir(), "a.tar.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	sum, err := fs.HashFile(path)
	require.NoError(t, err)
	return buf.Bytes(), snapshot.FormatHash(sum)
}

func fetchAction(t *testing.T, root, hash string) (*domain.Action, snapshot.Entry) {
	t.Helper()
	writeManifestAt(t, root, "2012-03-28", "9c9e3e5", hash)
	stageDir := domain.StageDir(host, 0)
	return &domain.Action{
		ID:   domain.NewInternedString("fetch"),
		Kind: domain.ActionFetch,
		Outputs: []string{
			filepath.Join(stageDir, "bin", "rustc"),
			filepath.Join(stageDir, "lib", "libcore.so"),
		},
		Inputs: []string{"src/snapshots.txt"},
		Environment: map[string]string{
			domain.EnvHost:     host,
			domain.EnvStageDir: stageDir,
			domain.EnvLibDir:   "lib",
		},
	}, snapshot.Entry{Date: "2012-03-28", Rev: "9c9e3e5", Triple: host, Hash: hash}
}

func TestHandler_Kinds(t *testing.T) {
	h := snapshot.NewHandler("", nil)
	assert.Equal(t, []domain.ActionKind{domain.ActionFetch, domain.ActionPack, domain.ActionUpload}, h.Kinds())
}

func TestHandler_FetchFromRemote(t *testing.T) {
	root := t.TempDir()
	data, hash := buildArchive(t)
	a, entry := fetchAction(t, root, hash)

	remote := newMemRemote()
	remote.objects[entry.Key()] = data
	h := snapshot.NewHandler("", remote)

	var out bytes.Buffer
	require.NoError(t, h.Handle(context.Background(), root, a, &out))
	assert.Contains(t, out.String(), "extracted snapshot 2012-03-28 9c9e3e5")

	got, err := os.ReadFile(filepath.Join(root, a.Outputs[0]))
	require.NoError(t, err)
	assert.Equal(t, "driver", string(got))
	assert.FileExists(t, filepath.Join(root, a.Outputs[1]))

	// The verified archive is cached and reused.
	require.NoError(t, h.Handle(context.Background(), root, a, &out))
	assert.Equal(t, []string{entry.Key()}, remote.fetched)
}

func TestHandler_FetchFromLocalDir(t *testing.T) {
	root := t.TempDir()
	data, hash := buildArchive(t)
	a, entry := fetchAction(t, root, hash)

	local := filepath.Join(root, "snapshots")
	require.NoError(t, os.MkdirAll(local, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(local, entry.Key()), data, 0o644))

	remote := newMemRemote()
	h := snapshot.NewHandler("snapshots", remote)
	require.NoError(t, h.Handle(context.Background(), root, a, &bytes.Buffer{}))
	assert.Empty(t, remote.fetched)
	assert.FileExists(t, filepath.Join(root, a.Outputs[0]))
}

func TestHandler_FetchHashMismatch(t *testing.T) {
	root := t.TempDir()
	data, _ := buildArchive(t)
	a, entry := fetchAction(t, root, "0000000000000000")

	remote := newMemRemote()
	remote.objects[entry.Key()] = data
	h := snapshot.NewHandler("", remote)

	err := h.Handle(context.Background(), root, a, &bytes.Buffer{})
	require.ErrorIs(t, err, domain.ErrSnapshotFetchFailed)
	assert.NoFileExists(t, filepath.Join(root, domain.StateDirName, domain.DownloadDirName, entry.Key()))
	assert.NoFileExists(t, filepath.Join(root, a.Outputs[0]))
}

func TestHandler_FetchUnavailable(t *testing.T) {
	root := t.TempDir()
	_, hash := buildArchive(t)
	a, _ := fetchAction(t, root, hash)

	err := snapshot.NewHandler("", nil).Handle(context.Background(), root, a, &bytes.Buffer{})
	require.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestHandler_FetchMissingArtifact(t *testing.T) {
	root := t.TempDir()
	data, hash := buildArchive(t)
	a, entry := fetchAction(t, root, hash)
	a.Outputs = append(a.Outputs, filepath.Join(domain.StageDir(host, 0), "lib", "libstd.so"))

	remote := newMemRemote()
	remote.objects[entry.Key()] = data
	err := snapshot.NewHandler("", remote).Handle(context.Background(), root, a, &bytes.Buffer{})
	require.ErrorIs(t, err, domain.ErrMissingCollaboratorOutput)
}

func TestHandler_PackAndUpload(t *testing.T) {
	root := t.TempDir()
	tree := domain.StageDir(host, 3)
	writeFile(t, filepath.Join(root, tree, "bin/rustc"), "driver", 0o755)
	writeFile(t, filepath.Join(root, tree, "lib/libstd.so"), "std", 0o644)

	archive := filepath.Join(domain.DistDirName, snapshot.BaseName("2012-04-01", "abc1234", host)+snapshot.ArchiveExt)
	pack := &domain.Action{
		ID:            domain.NewInternedString(archive),
		Kind:          domain.ActionPack,
		Outputs:       []string{archive, archive + snapshot.HashExt},
		Sources:       []string{filepath.Join(tree, "lib/libstd.so"), filepath.Join(tree, "bin/rustc")},
		WorkingDir:    tree,
		Archive:       archive,
		ArchivePrefix: "rust-stage0",
	}

	remote := newMemRemote()
	h := snapshot.NewHandler("", remote)

	var out bytes.Buffer
	require.NoError(t, h.Handle(context.Background(), root, pack, &out))
	assert.Contains(t, out.String(), "packed 2 file(s)")

	sidecar, err := os.ReadFile(filepath.Join(root, archive+snapshot.HashExt))
	require.NoError(t, err)
	hash := strings.TrimSpace(string(sidecar))
	sum, err := fs.HashFile(filepath.Join(root, archive))
	require.NoError(t, err)
	assert.Equal(t, snapshot.FormatHash(sum), hash)

	upload := &domain.Action{
		ID:        domain.NewInternedString("upload"),
		Kind:      domain.ActionUpload,
		Archive:   archive,
		AlwaysRun: true,
	}
	require.NoError(t, h.Handle(context.Background(), root, upload, &out))

	key := snapshot.UploadKey(archive, hash)
	assert.Equal(t, (snapshot.Entry{Date: "2012-04-01", Rev: "abc1234", Triple: host, Hash: hash}).Key(), key)
	assert.Contains(t, remote.objects, key)
	assert.Contains(t, remote.objects, key+snapshot.HashExt)

	// A packed snapshot is fetchable once listed in the manifest.
	fetchRoot := t.TempDir()
	a, _ := fetchAction(t, fetchRoot, hash)
	a.Outputs = []string{filepath.Join(domain.StageDir(host, 0), "lib", "libstd.so")}
	writeManifestAt(t, fetchRoot, "2012-04-01", "abc1234", hash)
	require.NoError(t, h.Handle(context.Background(), fetchRoot, a, &out))
}

func writeManifestAt(t *testing.T, root, date, rev, hash string) {
	t.Helper()
	writeFile(t, filepath.Join(root, "src", "snapshots.txt"), "S "+date+" "+rev+"\n  "+host+" "+hash+"\n", 0o644)
}

func TestHandler_UploadWithoutRemote(t *testing.T) {
	err := snapshot.NewHandler("", nil).Handle(context.Background(), t.TempDir(),
		&domain.Action{ID: domain.NewInternedString("upload"), Kind: domain.ActionUpload, Archive: "x.tar.gz"},
		&bytes.Buffer{})
	require.ErrorIs(t, err, domain.ErrConfigInvalid)
}
