package fs

import (
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/zerr"
)

// AtomicCopy copies src to dst through a temp file in the destination directory. The
// temp file is hashed and compared against the bytes read from src before it is
// chmod-ed and renamed over dst, so dst is either the old file or a verified copy.
func AtomicCopy(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src) //nolint:gosec // Path is controlled by caller
	if err != nil {
		if os.IsNotExist(err) {
			return zerr.With(zerr.Wrap(domain.ErrMissingCollaboratorOutput, "copy source missing"), "path", src)
		}
		return zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", src)
	}
	defer in.Close() //nolint:errcheck // Best effort close in defer

	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCopyFailed.Error()), "path", dst)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dst)+".tmp-*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCopyFailed.Error()), "path", dst)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	srcHash := xxhash.New()
	if _, err := io.Copy(tmp, io.TeeReader(in, srcHash)); err != nil {
		_ = tmp.Close()
		return zerr.With(zerr.Wrap(err, domain.ErrCopyFailed.Error()), "path", dst)
	}
	if err := tmp.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCopyFailed.Error()), "path", dst)
	}

	written, err := HashFile(tmpName)
	if err != nil {
		return err
	}
	if written != srcHash.Sum64() {
		return zerr.With(zerr.With(zerr.Wrap(domain.ErrReproducibilityMismatch, "copy differs from source"),
			"source", src), "path", dst)
	}

	if err := os.Chmod(tmpName, mode); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCopyFailed.Error()), "path", dst)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCopyFailed.Error()), "path", dst)
	}
	return nil
}
