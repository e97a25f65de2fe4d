package modules

import (
	"context"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/zerr"
)

// Module is an optional rule module. It contributes actions and goal bindings.
type Module interface {
	// Setup adds the module's actions to the build and binds the goals it serves.
	Setup(ctx context.Context, b *Build, goals []string) error
}

// Factory creates a module. Factories of modules whose triggers do not match are never
// called.
type Factory func() Module

// Activator holds one lazy factory per category.
type Activator struct {
	factories map[domain.ModuleCategory]Factory
}

// NewActivator creates an Activator.
func NewActivator(factories map[domain.ModuleCategory]Factory) *Activator {
	return &Activator{factories: factories}
}

// Active returns the categories a goal list activates, in activation order.
func (a *Activator) Active(goals []string) []domain.ModuleCategory {
	var active []domain.ModuleCategory
	for _, c := range domain.AllModuleCategories {
		if _, ok := a.factories[c]; ok && c.Matches(goals) {
			active = append(active, c)
		}
	}
	return active
}

// Activate creates and sets up every module whose triggers match a requested goal.
func (a *Activator) Activate(ctx context.Context, b *Build, goals []string) ([]domain.ModuleCategory, error) {
	active := a.Active(goals)
	for _, c := range active {
		m := a.factories[c]()
		if err := m.Setup(ctx, b, goals); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "module setup failed"), "module", string(c))
		}
		if b.Logger != nil {
			b.Logger.Debug("activated module " + string(c))
		}
	}
	return active, nil
}
