package config

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stagehand/internal/adapters/logger"
	"go.trai.ch/stagehand/internal/core/ports"
)

const (
	// NodeID is the unique identifier for the configuration loader Graft node.
	NodeID graft.ID = "adapter.config_loader"
	// OptionsNodeID is the unique identifier for the options loader Graft node.
	OptionsNodeID graft.ID = "adapter.options_loader"
)

func init() {
	graft.Register(graft.Node[ports.ConfigLoader]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (ports.ConfigLoader, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewLoader(log), nil
		},
	})

	graft.Register(graft.Node[ports.OptionsLoader]{
		ID:        OptionsNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.OptionsLoader, error) {
			return NewOptionsLoader(), nil
		},
	})
}
