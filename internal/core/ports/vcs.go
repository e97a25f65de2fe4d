package ports

import (
	"context"

	"go.trai.ch/stagehand/internal/core/domain"
)

// VCS queries the version control system holding the compiler sources.
//
//go:generate go run go.uber.org/mock/mockgen -source=vcs.go -destination=mocks/mock_vcs.go -package=mocks
type VCS interface {
	// Submodules returns the status of every submodule under dir.
	Submodules(ctx context.Context, dir string) ([]domain.SubmoduleStatus, error)

	// Head returns the abbreviated revision checked out in dir.
	Head(ctx context.Context, dir string) (string, error)
}
