package domain

import "strings"

// ModuleCategory names an optional rule module that is only loaded on demand.
type ModuleCategory string

const (
	// ModulePackaging builds distribution archives.
	ModulePackaging ModuleCategory = "packaging"
	// ModuleSnapshot regenerates stage-0 snapshot archives.
	ModuleSnapshot ModuleCategory = "snapshot"
	// ModuleReformat pretty-prints the compiler sources.
	ModuleReformat ModuleCategory = "reformat"
	// ModuleTest compiles and runs the test suite.
	ModuleTest ModuleCategory = "test"
	// ModulePerf runs phase-timing measurements.
	ModulePerf ModuleCategory = "perf"
	// ModuleClean removes build outputs.
	ModuleClean ModuleCategory = "clean"
	// ModuleInstall copies the toolchain under the install prefix.
	ModuleInstall ModuleCategory = "install"
	// ModuleTags generates an editor tag index.
	ModuleTags ModuleCategory = "tags"
)

// AllModuleCategories lists every category in activation order.
var AllModuleCategories = []ModuleCategory{
	ModulePackaging,
	ModuleSnapshot,
	ModuleReformat,
	ModuleTest,
	ModulePerf,
	ModuleClean,
	ModuleInstall,
	ModuleTags,
}

var moduleTriggers = map[ModuleCategory][]string{
	ModulePackaging: {"dist"},
	ModuleSnapshot:  {"snap"},
	ModuleReformat:  {"reformat"},
	ModuleTest:      {"check", "test", "bench", "tidy"},
	ModulePerf:      {"perf"},
	ModuleClean:     {"clean"},
	ModuleInstall:   {"install"},
	ModuleTags:      {"tags", "TAGS"},
}

// Triggers returns the substrings that activate the category.
func (c ModuleCategory) Triggers() []string {
	return moduleTriggers[c]
}

// Matches reports whether any goal contains one of the category's triggers.
func (c ModuleCategory) Matches(goals []string) bool {
	for _, g := range goals {
		for _, trig := range moduleTriggers[c] {
			if strings.Contains(g, trig) {
				return true
			}
		}
	}
	return false
}
