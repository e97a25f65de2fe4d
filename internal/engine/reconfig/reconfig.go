// Package reconfig decides whether the persisted configuration is stale and re-runs the
// external configure step until it is not.
package reconfig

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports"
	"go.trai.ch/zerr"
)

// Trigger checks configuration freshness.
type Trigger struct {
	root       string
	fsys       fs.FS
	vcs        ports.VCS
	configurer ports.Configurer
	loader     ports.ConfigLoader
	logger     ports.Logger
}

// New creates a Trigger. fsys must be rooted at root.
func New(
	root string,
	fsys fs.FS,
	vcs ports.VCS,
	configurer ports.Configurer,
	loader ports.ConfigLoader,
	logger ports.Logger,
) *Trigger {
	return &Trigger{
		root:       root,
		fsys:       fsys,
		vcs:        vcs,
		configurer: configurer,
		loader:     loader,
		logger:     logger,
	}
}

// Check computes the reconfiguration state of a loaded configuration.
func (t *Trigger) Check(ctx context.Context, cfg *domain.Configuration, opts domain.Options) (domain.ReconfigState, error) {
	var state domain.ReconfigState

	if !opts.DisableSubmoduleCheck && t.vcs != nil {
		subs, err := t.vcs.Submodules(ctx, t.sourceDir(cfg))
		if err != nil {
			// Without a submodule report the timestamp rule still applies.
			t.logger.Warn("submodule check skipped: " + err.Error())
		}
		for _, s := range subs {
			if s.Modified() {
				state.ModifiedSubmodules = append(state.ModifiedSubmodules, s.Path)
			}
		}
		if len(state.ModifiedSubmodules) > 0 {
			state.Stale = true
			state.Forced = true
		}
	}

	stamp, ok, err := t.modTime(domain.ConfigStampName)
	if err != nil {
		return state, err
	}
	if !ok {
		state.Stale = true
		state.MissingStamp = true
		return state, nil
	}

	for _, in := range cfg.ReconfigureInputs {
		p := cfg.SourcePath(in)
		mt, ok, err := t.modTime(p)
		if err != nil {
			return state, err
		}
		if ok && mt.After(stamp) {
			state.ChangedInputs = append(state.ChangedInputs, p)
		}
	}
	if len(state.ChangedInputs) > 0 {
		state.Stale = true
	}
	return state, nil
}

// Ensure loads the configuration and regenerates it until a check reports it fresh.
// More than opts.MaxReconfigure regenerations fail with ErrConfigurationLoop.
func (t *Trigger) Ensure(ctx context.Context, cfgPath string, opts domain.Options, out io.Writer) (*domain.Configuration, error) {
	limit := opts.MaxReconfigure
	if limit <= 0 {
		limit = domain.DefaultMaxReconfigure
	}

	for runs := 0; ; runs++ {
		cfg, err := t.loader.Load(cfgPath)
		if err != nil {
			return nil, err
		}
		state, err := t.Check(ctx, cfg, opts)
		if err != nil {
			return nil, err
		}
		if !state.Stale {
			return cfg, nil
		}
		if runs >= limit {
			err := zerr.With(zerr.Wrap(domain.ErrConfigurationLoop, "configuration still stale"), "runs", runs)
			return nil, zerr.With(err, "reason", reason(state))
		}

		t.logger.Info("configuration is stale (" + reason(state) + "), running configure")
		script := cfg.SourcePath("configure")
		if !filepath.IsAbs(script) {
			script = filepath.Join(t.root, script)
		}
		argv := append([]string{script}, cfg.ConfigureArgs...)
		if err := t.configurer.Configure(ctx, t.root, argv, out); err != nil {
			return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrReconfigureFailed, err), "configure failed"), "run", runs+1)
		}
	}
}

func (t *Trigger) sourceDir(cfg *domain.Configuration) string {
	if filepath.IsAbs(cfg.SrcDir) {
		return cfg.SrcDir
	}
	return filepath.Join(t.root, cfg.SrcDir)
}

// modTime stats a root-relative path through fsys. Absolute paths outside the root are
// stated directly.
func (t *Trigger) modTime(p string) (time.Time, bool, error) {
	var (
		info fs.FileInfo
		err  error
	)
	if rel, ok := t.relative(p); ok {
		info, err = fs.Stat(t.fsys, filepath.ToSlash(rel))
	} else {
		info, err = os.Stat(p)
	}
	if errors.Is(err, fs.ErrNotExist) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, zerr.With(zerr.Wrap(domain.ErrPathStatFailed, err.Error()), "path", p)
	}
	return info.ModTime(), true, nil
}

func (t *Trigger) relative(p string) (string, bool) {
	if !filepath.IsAbs(p) {
		return filepath.Clean(p), true
	}
	rel, err := filepath.Rel(t.root, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return rel, true
}

func reason(s domain.ReconfigState) string {
	switch {
	case s.MissingStamp:
		return "no " + domain.ConfigStampName
	case len(s.ModifiedSubmodules) > 0:
		return "submodules modified: " + strings.Join(s.ModifiedSubmodules, ", ")
	default:
		return "changed: " + strings.Join(s.ChangedInputs, ", ")
	}
}
