package fs

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Hasher = (*Hasher)(nil)

// Hasher provides hashing functionality for actions and files.
type Hasher struct{}

// NewHasher creates a new Hasher.
func NewHasher() *Hasher {
	return &Hasher{}
}

// ComputeFileHash computes the XXHash of a file's content.
func (h *Hasher) ComputeFileHash(path string) (uint64, error) {
	return HashFile(path)
}

// HashFile computes the XXHash of a file's content.
func HashFile(path string) (uint64, error) {
	f, err := os.Open(path) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", path)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return 0, zerr.With(zerr.Wrap(err, domain.ErrFileHashFailed.Error()), "path", path)
	}

	return hasher.Sum64(), nil
}

// ComputeCommandHash hashes the definition of an action: its kind, argv, environment,
// outputs and every copy/verify/archive parameter. Input file contents are not part
// of it; freshness compares their times.
func (h *Hasher) ComputeCommandHash(a *domain.Action) string {
	hasher := xxhash.New()

	writeField(hasher, string(a.Kind))
	writeList(hasher, a.Command)
	hashEnvironment(a.Environment, hasher)
	writeList(hasher, a.Outputs)
	writeList(hasher, a.Sources)
	writeList(hasher, a.Against)
	writeList(hasher, a.Remove)
	writeField(hasher, a.WorkingDir)
	writeField(hasher, a.DepFile)
	writeField(hasher, a.Archive)
	writeField(hasher, a.ArchivePrefix)
	writeField(hasher, strconv.FormatUint(uint64(a.Mode), 8))

	return fmt.Sprintf("%016x", hasher.Sum64())
}

func writeField(hasher *xxhash.Digest, s string) {
	_, _ = hasher.WriteString(s)
	_, _ = hasher.Write([]byte{0})
}

func writeList(hasher *xxhash.Digest, list []string) {
	for _, s := range list {
		writeField(hasher, s)
	}
	_, _ = hasher.Write([]byte{0}) // Section separator
}

// hashEnvironment hashes environment variables in a deterministic order.
func hashEnvironment(env map[string]string, hasher *xxhash.Digest) {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		_, _ = hasher.WriteString(k)
		_, _ = hasher.Write([]byte{'='})
		writeField(hasher, env[k])
	}
	_, _ = hasher.Write([]byte{0})
}
