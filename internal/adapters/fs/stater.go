package fs

import (
	"errors"
	iofs "io/fs"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Stater = (*Stater)(nil)

// DefaultStatCacheSize bounds the number of memoised stat results.
const DefaultStatCacheSize = 16384

type statEntry struct {
	modTime time.Time
	exists  bool
}

// Stater memoises modification times in a bounded LRU cache. Errors are never cached.
type Stater struct {
	cache *lru.Cache[string, statEntry]
}

// NewStater creates a Stater holding at most size entries.
func NewStater(size int) (*Stater, error) {
	if size <= 0 {
		size = DefaultStatCacheSize
	}
	cache, err := lru.New[string, statEntry](size)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create stat cache")
	}
	return &Stater{cache: cache}, nil
}

// ModTime returns the modification time of path and whether it exists.
func (s *Stater) ModTime(path string) (time.Time, bool, error) {
	if e, ok := s.cache.Get(path); ok {
		return e.modTime, e.exists, nil
	}

	var e statEntry
	info, err := os.Stat(path)
	switch {
	case err == nil:
		e = statEntry{modTime: info.ModTime(), exists: true}
	case errors.Is(err, iofs.ErrNotExist):
	default:
		return time.Time{}, false, zerr.With(zerr.Wrap(err, domain.ErrPathStatFailed.Error()), "path", path)
	}

	s.cache.Add(path, e)
	return e.modTime, e.exists, nil
}

// Invalidate drops cached results for paths.
func (s *Stater) Invalidate(paths ...string) {
	for _, p := range paths {
		s.cache.Remove(p)
	}
}
