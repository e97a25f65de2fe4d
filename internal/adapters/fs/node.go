package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/stagehand/internal/core/ports"
)

const (
	// WalkerNodeID is the unique identifier for the walker Graft node.
	WalkerNodeID graft.ID = "adapter.fs.walker"
	// HasherNodeID is the unique identifier for the hasher Graft node.
	HasherNodeID graft.ID = "adapter.fs.hasher"
	// StaterNodeID is the unique identifier for the stater Graft node.
	StaterNodeID graft.ID = "adapter.fs.stater"
	// HandlerNodeID is the unique identifier for the file action handler Graft node.
	HandlerNodeID graft.ID = "adapter.fs.handler"
)

func init() {
	graft.Register(graft.Node[ports.Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Walker, error) {
			return NewWalker(), nil
		},
	})

	graft.Register(graft.Node[ports.Hasher]{
		ID:        HasherNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Hasher, error) {
			return NewHasher(), nil
		},
	})

	graft.Register(graft.Node[ports.Stater]{
		ID:        StaterNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.Stater, error) {
			return NewStater(DefaultStatCacheSize)
		},
	})

	graft.Register(graft.Node[*Handler]{
		ID:        HandlerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Handler, error) {
			return NewHandler(), nil
		},
	})
}
