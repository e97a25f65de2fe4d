package ports

import (
	"iter"
	"time"
)

// Stater reports file modification times, memoising results.
//
//go:generate mockgen -destination=mocks/fs_mock.go -package=mocks -source=fs.go
type Stater interface {
	// ModTime returns the modification time of path and whether it exists.
	ModTime(path string) (time.Time, bool, error)

	// Invalidate drops cached results for paths.
	Invalidate(paths ...string)
}

// Walker enumerates source files.
type Walker interface {
	// WalkFiles yields files under root whose names end in one of the suffixes.
	// An empty suffix list yields every file.
	WalkFiles(root string, suffixes []string) iter.Seq[string]
}
