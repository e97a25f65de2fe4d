package app

import (
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/engine/modules"
	"go.trai.ch/stagehand/internal/modules/clean"
	"go.trai.ch/stagehand/internal/modules/install"
	"go.trai.ch/stagehand/internal/modules/packaging"
	"go.trai.ch/stagehand/internal/modules/perf"
	"go.trai.ch/stagehand/internal/modules/reformat"
	"go.trai.ch/stagehand/internal/modules/snap"
	"go.trai.ch/stagehand/internal/modules/tags"
	"go.trai.ch/stagehand/internal/modules/testsuite"
)

// DefaultModules returns a lazy factory for every rule module.
func DefaultModules() map[domain.ModuleCategory]modules.Factory {
	return map[domain.ModuleCategory]modules.Factory{
		domain.ModulePackaging: func() modules.Module { return packaging.New() },
		domain.ModuleSnapshot:  func() modules.Module { return snap.New() },
		domain.ModuleReformat:  func() modules.Module { return reformat.New() },
		domain.ModuleTest:      func() modules.Module { return testsuite.New() },
		domain.ModulePerf:      func() modules.Module { return perf.New() },
		domain.ModuleClean:     func() modules.Module { return clean.New() },
		domain.ModuleInstall:   func() modules.Module { return install.New() },
		domain.ModuleTags:      func() modules.Module { return tags.New() },
	}
}
