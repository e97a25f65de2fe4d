package snapshot_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stagehand/internal/adapters/snapshot"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/zerr"
)

const manifest = `# newest first
S 2012-03-28 9c9e3e5
  x86_64-unknown-linux-gnu 00112233aabbccdd
  i686-unknown-linux-gnu ffeeddccbbaa9988

S 2012-03-01 4d1b7b7
	x86_64-unknown-linux-gnu 0123456789abcdef
	x86_64-apple-darwin FEDCBA9876543210
`

func TestParseManifest(t *testing.T) {
	snaps, err := snapshot.ParseManifest(strings.NewReader(manifest))
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Equal(t, "2012-03-28", snaps[0].Date)
	assert.Len(t, snaps[0].Entries, 2)
	assert.Equal(t, "4d1b7b7", snaps[1].Entries[1].Rev)
	assert.Equal(t, "fedcba9876543210", snaps[1].Entries[1].Hash)
}

func TestFind(t *testing.T) {
	snaps, err := snapshot.ParseManifest(strings.NewReader(manifest))
	require.NoError(t, err)

	e, err := snapshot.Find(snaps, "x86_64-unknown-linux-gnu")
	require.NoError(t, err)
	assert.Equal(t, "9c9e3e5", e.Rev)
	assert.Equal(t, "snapshot-2012-03-28-9c9e3e5-x86_64-unknown-linux-gnu-00112233aabbccdd.tar.gz", e.Key())

	e, err = snapshot.Find(snaps, "x86_64-apple-darwin")
	require.NoError(t, err)
	assert.Equal(t, "2012-03-01", e.Date)

	_, err = snapshot.Find(snaps, "i686-pc-mingw32")
	require.ErrorIs(t, err, domain.ErrSnapshotNotFound)
}

func TestParseManifest_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"entry before header", "  x86_64-unknown-linux-gnu 00\n", 1},
		{"bad header", "S 2012-03-28\n", 1},
		{"bad entry", "S 2012-03-28 abc\n  x86_64-unknown-linux-gnu\n", 2},
		{"unknown record", "T 2012 abc\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := snapshot.ParseManifest(strings.NewReader(tt.input))
			require.ErrorIs(t, err, domain.ErrSnapshotManifestInvalid)

			var zErr *zerr.Error
			require.ErrorAs(t, err, &zErr)
			assert.Equal(t, tt.line, zErr.Metadata()["line"])
		})
	}
}

func TestLoadManifest_Missing(t *testing.T) {
	_, err := snapshot.LoadManifest(t.TempDir() + "/snapshots.txt")
	require.ErrorIs(t, err, domain.ErrMissingInput)
}
