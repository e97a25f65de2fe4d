// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"

	"go.trai.ch/stagehand/internal/core/domain"
)

// ActionHandler executes actions of the kinds it declares.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type ActionHandler interface {
	// Kinds returns the action kinds the handler accepts.
	Kinds() []domain.ActionKind

	// Handle runs the action. Paths in the action are relative to root.
	// Output produced while running is written to out.
	Handle(ctx context.Context, root string, action *domain.Action, out io.Writer) error
}

// Configurer runs the external configure step.
type Configurer interface {
	// Configure re-runs configure in root with the recorded arguments.
	Configure(ctx context.Context, root string, args []string, out io.Writer) error
}
