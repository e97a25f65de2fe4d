// Package snapshot fetches, packs and publishes stage-0 snapshot archives.
package snapshot

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/zerr"
)

// ArchiveExt is the extension of snapshot archives.
const ArchiveExt = ".tar.gz"

// HashExt is appended to an archive path to name its content hash sidecar.
const HashExt = ".xxh"

// Entry is one archive of a snapshot.
type Entry struct {
	Date   string
	Rev    string
	Triple domain.Triple
	Hash   string
}

// Key returns the archive file name.
func (e Entry) Key() string {
	return fmt.Sprintf("%s-%s", BaseName(e.Date, e.Rev, e.Triple), e.Hash) + ArchiveExt
}

// BaseName is the archive name of a snapshot before its hash is known.
func BaseName(date, rev string, triple domain.Triple) string {
	return fmt.Sprintf("snapshot-%s-%s-%s", date, rev, triple)
}

// Snapshot is a block of the manifest.
type Snapshot struct {
	Date    string
	Rev     string
	Entries []Entry
}

// ParseManifest reads `S <date> <rev>` blocks followed by indented
// `<triple> <hash>` lines. Blank lines and `#` comments are ignored.
func ParseManifest(r io.Reader) ([]Snapshot, error) {
	var snaps []Snapshot
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		raw := sc.Text()
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)

		if raw[0] != ' ' && raw[0] != '\t' {
			if len(fields) != 3 || fields[0] != "S" {
				return nil, invalidLine(lineNo, raw)
			}
			snaps = append(snaps, Snapshot{Date: fields[1], Rev: fields[2]})
			continue
		}

		if len(snaps) == 0 || len(fields) != 2 {
			return nil, invalidLine(lineNo, raw)
		}
		cur := &snaps[len(snaps)-1]
		cur.Entries = append(cur.Entries, Entry{
			Date:   cur.Date,
			Rev:    cur.Rev,
			Triple: domain.Triple(fields[0]),
			Hash:   strings.ToLower(fields[1]),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, zerr.Wrap(err, domain.ErrSnapshotManifestInvalid.Error())
	}
	return snaps, nil
}

func invalidLine(n int, line string) error {
	return zerr.With(zerr.With(zerr.Wrap(domain.ErrSnapshotManifestInvalid, "malformed line"), "line", n), "text", line)
}

// Find returns the entry for host from the first snapshot that has one.
func Find(snaps []Snapshot, host domain.Triple) (Entry, error) {
	for _, s := range snaps {
		for _, e := range s.Entries {
			if e.Triple == host {
				return e, nil
			}
		}
	}
	return Entry{}, zerr.With(zerr.Wrap(domain.ErrSnapshotNotFound, "manifest has no entry"), "host", host.String())
}

// LoadManifest parses the manifest file at path.
func LoadManifest(path string) ([]Snapshot, error) {
	f, err := os.Open(path) //nolint:gosec // path from configuration
	if err != nil {
		if os.IsNotExist(err) {
			return nil, zerr.With(zerr.Wrap(domain.ErrMissingInput, "snapshot manifest missing"), "path", path)
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", path)
	}
	defer f.Close() //nolint:errcheck // read-only

	snaps, err := ParseManifest(f)
	if err != nil {
		return nil, zerr.With(err, "path", path)
	}
	return snaps, nil
}
