package snapshot_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stagehand/internal/adapters/snapshot"
	"go.trai.ch/stagehand/internal/core/domain"
)

func writeFile(t *testing.T, path, content string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), mode))
}

func TestPack_Deterministic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "bin/rustc"), "driver", 0o755)
	writeFile(t, filepath.Join(dir, "lib/libstd.so"), "std", 0o644)
	files := []snapshot.File{
		{Path: filepath.Join(dir, "bin/rustc"), Name: "rust-stage0/bin/rustc"},
		{Path: filepath.Join(dir, "lib/libstd.so"), Name: "rust-stage0/lib/libstd.so"},
	}

	var first, second bytes.Buffer
	require.NoError(t, snapshot.Pack(&first, files))

	// Touching inputs must not change the archive.
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(files[0].Path, later, later))
	require.NoError(t, snapshot.Pack(&second, files))
	assert.Equal(t, first.Bytes(), second.Bytes())
}

func TestPack_MissingMember(t *testing.T) {
	var buf bytes.Buffer
	err := snapshot.Pack(&buf, []snapshot.File{{Path: filepath.Join(t.TempDir(), "nope"), Name: "nope"}})
	require.ErrorIs(t, err, domain.ErrMissingInput)
}

func TestExtract_StageMapper(t *testing.T) {
	src := t.TempDir()
	writeFile(t, filepath.Join(src, "rustc"), "driver", 0o755)
	writeFile(t, filepath.Join(src, "libcore.so"), "core", 0o644)
	writeFile(t, filepath.Join(src, "README"), "readme", 0o644)

	var buf bytes.Buffer
	require.NoError(t, snapshot.Pack(&buf, []snapshot.File{
		{Path: filepath.Join(src, "rustc"), Name: "rust-stage0/bin/rustc"},
		{Path: filepath.Join(src, "libcore.so"), Name: "rust-stage0/lib/libcore.so"},
		{Path: filepath.Join(src, "README"), Name: "rust-stage0/README"},
	}))

	dest := t.TempDir()
	written, err := snapshot.Extract(&buf, dest, snapshot.StageMapper("lib64"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dest, "bin", "rustc"),
		filepath.Join(dest, "lib64", "libcore.so"),
	}, written)

	info, err := os.Stat(filepath.Join(dest, "bin", "rustc"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
	assert.NoFileExists(t, filepath.Join(dest, "README"))
}

func TestStageMapper(t *testing.T) {
	m := snapshot.StageMapper("lib64")
	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"bin/rustc", "bin/rustc", true},
		{"stage0/bin/rustc", "bin/rustc", true},
		{"stage0/lib/libstd.so", "lib64/libstd.so", true},
		{"stage0/lib64/libstd.so", "lib64/libstd.so", true},
		{"a/b/bin/rustc", "", false},
		{"stage0/doc/index.html", "", false},
		{"bin", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m(tt.name)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
