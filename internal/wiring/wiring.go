// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/stagehand/internal/adapters/cas"
	_ "go.trai.ch/stagehand/internal/adapters/config"
	_ "go.trai.ch/stagehand/internal/adapters/fs"
	_ "go.trai.ch/stagehand/internal/adapters/git"
	_ "go.trai.ch/stagehand/internal/adapters/logger"
	_ "go.trai.ch/stagehand/internal/adapters/shell"
	// Register app nodes.
	_ "go.trai.ch/stagehand/internal/app"
)
