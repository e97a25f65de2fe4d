package fs_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stagehand/internal/adapters/fs"
)

func TestStater_ModTime(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "out")

	s, err := fs.NewStater(4)
	require.NoError(t, err)

	_, ok, err := s.ModTime(path)
	require.NoError(t, err)
	assert.False(t, ok)

	// The negative result is memoised until invalidated.
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	_, ok, err = s.ModTime(path)
	require.NoError(t, err)
	assert.False(t, ok)

	s.Invalidate(path)
	first := time.Date(2013, 3, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(path, first, first))
	mt, ok, err := s.ModTime(path)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, mt.Equal(first))

	// Later changes are hidden by the cache, then visible after invalidation.
	second := first.Add(time.Hour)
	require.NoError(t, os.Chtimes(path, second, second))
	mt, _, _ = s.ModTime(path)
	assert.True(t, mt.Equal(first))
	s.Invalidate(path)
	mt, _, _ = s.ModTime(path)
	assert.True(t, mt.Equal(second))
}

func TestStater_Eviction(t *testing.T) {
	tmpDir := t.TempDir()
	s, err := fs.NewStater(1)
	require.NoError(t, err)

	a := filepath.Join(tmpDir, "a")
	b := filepath.Join(tmpDir, "b")
	_, _, _ = s.ModTime(a)
	_, _, _ = s.ModTime(b)

	// a was evicted, so its creation is observed without invalidation.
	require.NoError(t, os.WriteFile(a, nil, 0o600))
	_, ok, err := s.ModTime(a)
	require.NoError(t, err)
	assert.True(t, ok)
}
