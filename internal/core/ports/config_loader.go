package ports

import "go.trai.ch/stagehand/internal/core/domain"

// ConfigLoader defines the interface for loading the persisted configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration written by the configure step.
	// Defaults are applied and the result is validated.
	Load(path string) (*domain.Configuration, error)
}

// OptionsLoader resolves per-invocation options.
type OptionsLoader interface {
	// Load merges the env file, the process environment and the overrides, in
	// increasing order of precedence. Overrides use the environment variable names.
	Load(envFile string, overrides map[string]string) (domain.Options, error)
}
