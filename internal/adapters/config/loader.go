// Package config loads the persisted configuration and the invocation options.
package config

import (
	"errors"
	"io/fs"
	"os"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using the YAML file configure writes.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(log ports.Logger) *Loader {
	return &Loader{Logger: log}
}

// Load reads, defaults and validates the configuration at path.
func (l *Loader) Load(path string) (*domain.Configuration, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(domain.ErrConfigNotFound, "configuration missing"), "path", path)
		}
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", path)
	}

	var file Configfile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", path)
	}

	cfg := file.toDomain()
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, zerr.With(err, "path", path)
	}

	if cfg.InTransition && l.Logger != nil {
		l.Logger.Debug("configuration is in transition")
	}
	return cfg, nil
}

func (f *Configfile) toDomain() *domain.Configuration {
	return &domain.Configuration{
		SrcDir:      f.SrcDir,
		Hosts:       triples(f.Hosts),
		Targets:     triples(f.Targets),
		PrimaryHost: domain.Triple(f.PrimaryHost),
		LibDir:      f.LibDir,
		Naming:      domain.NamingScheme(f.Naming),
		Version:     f.Version,
		Components: domain.Components{
			Driver:      f.Components.Driver.toDomain(),
			Core:        f.Components.Core.toDomain(),
			Std:         f.Components.Std.toDomain(),
			Compiler:    f.Components.Compiler.toDomain(),
			PackageTool: f.Components.PackageTool.toDomain(),
			DocTool:     f.Components.DocTool.toDomain(),
			Runtime:     f.Components.Runtime.toDomain(),
			Backend:     f.Components.Backend.toDomain(),
			LinkSupport: f.Components.LinkSupport.toDomain(),
		},
		Instrumentation: domain.Instrumentation{
			Tool:     f.Instrumentation.Tool,
			Enabled:  f.Instrumentation.Enabled,
			KnownBad: f.Instrumentation.KnownBad,
		},
		InTransition:      f.InTransition,
		Generated:         generated(f.Generated),
		ReconfigureInputs: f.ReconfigureInputs,
		ConfigureArgs:     f.ConfigureArgs,
		Prefix:            f.Prefix,
		Snapshot: domain.SnapshotSource{
			Manifest:  f.Snapshot.Manifest,
			Dir:       f.Snapshot.Dir,
			Endpoint:  f.Snapshot.Endpoint,
			Bucket:    f.Snapshot.Bucket,
			Prefix:    f.Snapshot.Prefix,
			Region:    f.Snapshot.Region,
			AccessKey: f.Snapshot.AccessKey,
			SecretKey: f.Snapshot.SecretKey,
			Secure:    f.Snapshot.Secure,
		},
		SourceSuffixes: f.SourceSuffixes,
		TestDir:        f.TestDir,
		PerfInput:      f.PerfInput,
		TagsCommand:    f.TagsCommand,
		DistName:       f.DistName,
	}
}

func (c ComponentDTO) toDomain() domain.Component {
	return domain.Component{Name: c.Name, Root: c.Root, Dir: c.Dir, Recipe: c.Recipe}
}

func triples(in []string) []domain.Triple {
	if len(in) == 0 {
		return nil
	}
	out := make([]domain.Triple, len(in))
	for i, s := range in {
		out[i] = domain.Triple(s)
	}
	return out
}

func generated(in []GeneratedDTO) []domain.GeneratedOutput {
	out := make([]domain.GeneratedOutput, 0, len(in))
	for _, g := range in {
		out = append(out, domain.GeneratedOutput{Output: g.Output, Command: g.Command, Inputs: g.Inputs})
	}
	return out
}
