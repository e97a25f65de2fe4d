// Package tags runs the editor tag indexer over the tracked sources.
package tags

import (
	"context"
	"slices"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/engine/modules"
)

// Output is the generated index.
const Output = "TAGS"

// Module serves `TAGS` and `tags`.
type Module struct{}

// New creates the module.
func New() *Module {
	return &Module{}
}

// Setup adds the indexer action when a tags goal is requested.
func (m *Module) Setup(_ context.Context, b *modules.Build, goals []string) error {
	files := slices.Clone(b.Plan.Sources)
	if len(files) == 0 {
		files = b.Sources(".", b.Config.SourceSuffixes)
	}
	slices.Sort(files)
	files = slices.Compact(files)

	id := domain.NewInternedString(Output)
	for _, g := range goals {
		if g != "TAGS" && g != "tags" {
			continue
		}
		if err := b.Ensure(&domain.Action{
			ID:      id,
			Kind:    domain.ActionCommand,
			Outputs: []string{Output},
			Inputs:  files,
			Command: append(slices.Clone(b.Config.TagsCommand), files...),
		}); err != nil {
			return err
		}
		b.Bind(g, id)
	}
	return nil
}
