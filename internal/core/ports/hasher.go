package ports

import "go.trai.ch/stagehand/internal/core/domain"

// Hasher defines the interface for computing hashes.
//
//go:generate mockgen -destination=mocks/hasher_mock.go -package=mocks -source=hasher.go
type Hasher interface {
	// ComputeFileHash computes the content hash of a file.
	ComputeFileHash(path string) (uint64, error)

	// ComputeCommandHash hashes everything about an action that changes its outputs
	// other than the content of its inputs.
	ComputeCommandHash(action *domain.Action) string
}
