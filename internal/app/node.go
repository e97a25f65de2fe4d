package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stagehand/internal/adapters/cas"    //nolint:depguard // Wired in app layer
	"go.trai.ch/stagehand/internal/adapters/config" //nolint:depguard // Wired in app layer
	"go.trai.ch/stagehand/internal/adapters/fs"     //nolint:depguard // Wired in app layer
	"go.trai.ch/stagehand/internal/adapters/git"    //nolint:depguard // Wired in app layer
	"go.trai.ch/stagehand/internal/adapters/logger" //nolint:depguard // Wired in app layer
	"go.trai.ch/stagehand/internal/adapters/shell"  //nolint:depguard // Wired in app layer
	"go.trai.ch/stagehand/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components groups the application with the collaborators main needs directly.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			config.OptionsNodeID,
			shell.NodeID,
			fs.HandlerNodeID,
			logger.NodeID,
			git.NodeID,
			fs.WalkerNodeID,
			cas.NodeID,
			fs.HasherNodeID,
			fs.StaterNodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			app, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return &Components{App: app, Logger: log}, nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	options, err := graft.Dep[ports.OptionsLoader](ctx)
	if err != nil {
		return nil, err
	}

	executor, err := graft.Dep[*shell.Executor](ctx)
	if err != nil {
		return nil, err
	}

	files, err := graft.Dep[*fs.Handler](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	vcs, err := graft.Dep[ports.VCS](ctx)
	if err != nil {
		return nil, err
	}

	walker, err := graft.Dep[ports.Walker](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.BuildInfoStore](ctx)
	if err != nil {
		return nil, err
	}

	hasher, err := graft.Dep[ports.Hasher](ctx)
	if err != nil {
		return nil, err
	}

	stater, err := graft.Dep[ports.Stater](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, options, executor, files, log, vcs, walker, store, hasher, stater), nil
}
