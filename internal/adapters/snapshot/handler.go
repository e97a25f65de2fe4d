package snapshot

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"go.trai.ch/stagehand/internal/adapters/fs"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ActionHandler = (*Handler)(nil)

// Handler fetches the stage-0 snapshot, packs archives and publishes them.
type Handler struct {
	dir    string
	remote Remote
}

// NewHandler creates a Handler that looks for archives in dir, then in remote. Either
// may be empty.
func NewHandler(dir string, remote Remote) *Handler {
	return &Handler{dir: dir, remote: remote}
}

// Kinds returns the action kinds the handler accepts.
func (h *Handler) Kinds() []domain.ActionKind {
	return []domain.ActionKind{domain.ActionFetch, domain.ActionPack, domain.ActionUpload}
}

// Handle runs the action.
func (h *Handler) Handle(ctx context.Context, root string, a *domain.Action, out io.Writer) error {
	switch a.Kind {
	case domain.ActionFetch:
		return h.fetch(ctx, root, a, out)
	case domain.ActionPack:
		return h.pack(root, a, out)
	case domain.ActionUpload:
		return h.upload(ctx, root, a, out)
	default:
		return zerr.With(zerr.Wrap(domain.ErrNoHandler, "unsupported kind"), "kind", string(a.Kind))
	}
}

func (h *Handler) fetch(ctx context.Context, root string, a *domain.Action, out io.Writer) error {
	if len(a.Inputs) == 0 {
		return zerr.With(zerr.Wrap(domain.ErrSnapshotManifestInvalid, "fetch has no manifest input"), "action", a.Name())
	}
	snaps, err := LoadManifest(fs.Abs(root, a.Inputs[0]))
	if err != nil {
		return err
	}
	host := domain.Triple(a.Environment[domain.EnvHost])
	entry, err := Find(snaps, host)
	if err != nil {
		return err
	}

	archive, err := h.obtain(ctx, root, entry)
	if err != nil {
		return err
	}

	f, err := os.Open(archive) //nolint:gosec // path under the build root
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", archive)
	}
	defer f.Close() //nolint:errcheck // read-only

	dest := fs.Abs(root, a.Environment[domain.EnvStageDir])
	libDir := a.Environment[domain.EnvLibDir]
	if libDir == "" {
		libDir = domain.DefaultLibDir
	}
	if _, err := Extract(f, dest, StageMapper(libDir)); err != nil {
		return zerr.With(err, "archive", archive)
	}

	for _, o := range a.Outputs {
		if _, err := os.Stat(fs.Abs(root, o)); err != nil {
			return zerr.With(zerr.With(zerr.Wrap(domain.ErrMissingCollaboratorOutput, "snapshot lacks artifact"),
				"path", o), "archive", entry.Key())
		}
	}

	_, _ = fmt.Fprintf(out, "extracted snapshot %s %s for %s\n", entry.Date, entry.Rev, host)
	return nil
}

// obtain returns a verified copy of the entry's archive under the download dir.
func (h *Handler) obtain(ctx context.Context, root string, e Entry) (string, error) {
	dst := filepath.Join(root, domain.StateDirName, domain.DownloadDirName, e.Key())
	if err := checkHash(dst, e.Hash); err == nil {
		return dst, nil
	}
	_ = os.Remove(dst)

	if err := os.MkdirAll(filepath.Dir(dst), domain.DirPerm); err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrSnapshotFetchFailed.Error()), "path", dst)
	}

	switch local := h.localPath(root, e.Key()); {
	case local != "":
		if err := fs.AtomicCopy(local, dst, domain.FilePerm); err != nil {
			return "", err
		}
	case h.remote != nil:
		if err := h.remote.Fetch(ctx, e.Key(), dst); err != nil {
			return "", err
		}
	default:
		return "", zerr.With(zerr.Wrap(domain.ErrSnapshotNotFound, "archive not available"), "archive", e.Key())
	}

	if err := checkHash(dst, e.Hash); err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	return dst, nil
}

func (h *Handler) localPath(root, key string) string {
	if h.dir == "" {
		return ""
	}
	p := filepath.Join(fs.Abs(root, h.dir), key)
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}

func checkHash(path, want string) error {
	got, err := fs.HashFile(path)
	if err != nil {
		return err
	}
	if FormatHash(got) != want {
		return zerr.With(zerr.With(zerr.With(zerr.Wrap(domain.ErrSnapshotFetchFailed, "archive hash mismatch"),
			"path", path), "expected", want), "actual", FormatHash(got))
	}
	return nil
}

func (h *Handler) pack(root string, a *domain.Action, out io.Writer) error {
	if a.Archive == "" {
		return zerr.With(zerr.New("pack action has no archive"), "action", a.Name())
	}
	base := fs.Abs(root, a.WorkingDir)
	files := make([]File, 0, len(a.Sources))
	for _, s := range a.Sources {
		p := fs.Abs(root, s)
		rel, err := filepath.Rel(base, p)
		if err != nil || !filepath.IsLocal(rel) {
			return zerr.With(zerr.Wrap(domain.ErrOutputPathOutsideRoot, "archive member outside working dir"), "path", s)
		}
		files = append(files, File{Path: p, Name: path.Join(a.ArchivePrefix, filepath.ToSlash(rel))})
	}
	slices.SortFunc(files, func(x, y File) int { return strings.Compare(x.Name, y.Name) })

	archive := fs.Abs(root, a.Archive)
	if err := os.MkdirAll(filepath.Dir(archive), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveFailed.Error()), "path", archive)
	}
	tmp, err := os.CreateTemp(filepath.Dir(archive), "."+filepath.Base(archive)+".tmp-*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveFailed.Error()), "path", archive)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := Pack(tmp, files); err != nil {
		_ = tmp.Close()
		return zerr.With(err, "path", archive)
	}
	if err := tmp.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveFailed.Error()), "path", archive)
	}
	sum, err := fs.HashFile(tmp.Name())
	if err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveFailed.Error()), "path", archive)
	}
	if err := os.Rename(tmp.Name(), archive); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveFailed.Error()), "path", archive)
	}
	if err := os.WriteFile(archive+HashExt, []byte(FormatHash(sum)+"\n"), domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveFailed.Error()), "path", archive+HashExt)
	}

	_, _ = fmt.Fprintf(out, "packed %d file(s) into %s (%s)\n", len(files), a.Archive, FormatHash(sum))
	return nil
}

// UploadKey is the object name of an archive with the given content hash.
func UploadKey(archive, hash string) string {
	return strings.TrimSuffix(filepath.Base(archive), ArchiveExt) + "-" + hash + ArchiveExt
}

func (h *Handler) upload(ctx context.Context, root string, a *domain.Action, out io.Writer) error {
	if h.remote == nil {
		return zerr.Wrap(domain.ErrConfigInvalid, "no snapshot store configured")
	}
	archive := fs.Abs(root, a.Archive)
	raw, err := os.ReadFile(archive + HashExt) //nolint:gosec // path under the build root
	if err != nil {
		if os.IsNotExist(err) {
			return zerr.With(zerr.Wrap(domain.ErrMissingInput, "archive hash missing"), "path", a.Archive+HashExt)
		}
		return zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", a.Archive+HashExt)
	}
	key := UploadKey(archive, strings.TrimSpace(string(raw)))

	if err := h.remote.Upload(ctx, key, archive); err != nil {
		return err
	}
	if err := h.remote.Upload(ctx, key+HashExt, archive+HashExt); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out, "uploaded %s\n", key)
	return nil
}
