package snapshot

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/zerr"
)

// File is an archive member: the file on disk and its entry name.
type File struct {
	Path string
	Name string
}

// Pack writes files as a gzip-compressed tarball. Entries carry no owner and a fixed
// time so equal inputs produce equal archives.
func Pack(w io.Writer, files []File) error {
	gz, err := gzip.NewWriterLevel(w, gzip.BestCompression)
	if err != nil {
		return zerr.Wrap(err, domain.ErrArchiveFailed.Error())
	}
	tw := tar.NewWriter(gz)

	for _, f := range files {
		if err := addFile(tw, f); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return zerr.Wrap(err, domain.ErrArchiveFailed.Error())
	}
	if err := gz.Close(); err != nil {
		return zerr.Wrap(err, domain.ErrArchiveFailed.Error())
	}
	return nil
}

func addFile(tw *tar.Writer, f File) error {
	in, err := os.Open(f.Path) //nolint:gosec // paths come from the plan
	if err != nil {
		if os.IsNotExist(err) {
			return zerr.With(zerr.Wrap(domain.ErrMissingInput, "archive member missing"), "path", f.Path)
		}
		return zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", f.Path)
	}
	defer in.Close() //nolint:errcheck // read-only

	info, err := in.Stat()
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrPathStatFailed.Error()), "path", f.Path)
	}

	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     filepath.ToSlash(f.Name),
		Mode:     int64(info.Mode().Perm()),
		Size:     info.Size(),
		ModTime:  time.Unix(0, 0),
		Format:   tar.FormatPAX,
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveFailed.Error()), "path", f.Path)
	}
	if _, err := io.Copy(tw, in); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveFailed.Error()), "path", f.Path)
	}
	return nil
}

// Mapper turns an entry name into a destination path relative to the extraction
// directory. Entries it rejects are skipped.
type Mapper func(name string) (string, bool)

// StageMapper keeps bin/ and lib/ entries of a snapshot, optionally below one leading
// directory, and places library entries under libDir.
func StageMapper(libDir string) Mapper {
	return func(name string) (string, bool) {
		parts := strings.Split(path.Clean(name), "/")
		for i := 0; i < len(parts)-1 && i <= 1; i++ {
			switch parts[i] {
			case domain.HostBinDirName:
				return path.Join(append([]string{domain.HostBinDirName}, parts[i+1:]...)...), true
			case "lib", libDir:
				return path.Join(append([]string{libDir}, parts[i+1:]...)...), true
			}
		}
		return "", false
	}
}

// Extract unpacks the regular files of a gzip-compressed tarball below dest and
// returns the written paths.
func Extract(r io.Reader, dest string, mapName Mapper) ([]string, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrArchiveFailed.Error())
	}
	defer gz.Close() //nolint:errcheck // read-only

	var written []string
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return written, nil
		}
		if err != nil {
			return written, zerr.Wrap(err, domain.ErrArchiveFailed.Error())
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		rel, ok := mapName(hdr.Name)
		if !ok {
			continue
		}
		if !filepath.IsLocal(filepath.FromSlash(rel)) {
			return written, zerr.With(zerr.Wrap(domain.ErrArchiveFailed, "entry escapes destination"), "entry", hdr.Name)
		}

		target := filepath.Join(dest, filepath.FromSlash(rel))
		if err := writeEntry(tr, target, os.FileMode(hdr.Mode).Perm()); err != nil {
			return written, err
		}
		written = append(written, target)
	}
}

func writeEntry(r io.Reader, target string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveFailed.Error()), "path", target)
	}
	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveFailed.Error()), "path", target)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := io.Copy(tmp, r); err != nil { //nolint:gosec // archive size is bounded by the snapshot
		_ = tmp.Close()
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveFailed.Error()), "path", target)
	}
	if err := tmp.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveFailed.Error()), "path", target)
	}
	if mode == 0 {
		mode = domain.FilePerm
	}
	if err := os.Chmod(tmp.Name(), mode); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveFailed.Error()), "path", target)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveFailed.Error()), "path", target)
	}
	return nil
}

// FormatHash renders a content hash the way manifests and sidecars record it.
func FormatHash(h uint64) string {
	return fmt.Sprintf("%016x", h)
}
