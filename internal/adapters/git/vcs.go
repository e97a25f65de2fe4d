// Package git queries the git checkout holding the compiler sources.
package git

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"

	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.VCS = (*VCS)(nil)

// VCS implements ports.VCS by running the git binary.
type VCS struct {
	binary string
}

// New creates a VCS running git from PATH.
func New() *VCS {
	return &VCS{binary: "git"}
}

// Submodules returns the status of every submodule under dir.
func (v *VCS) Submodules(ctx context.Context, dir string) ([]domain.SubmoduleStatus, error) {
	out, err := v.output(ctx, dir, "submodule", "status")
	if err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrSubmoduleProbeFailed, err), "git submodule status"), "dir", dir)
	}
	return ParseSubmoduleStatus(out), nil
}

// Head returns the abbreviated revision checked out in dir.
func (v *VCS) Head(ctx context.Context, dir string) (string, error) {
	out, err := v.output(ctx, dir, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "git rev-parse"), "dir", dir)
	}
	return strings.TrimSpace(string(out)), nil
}

func (v *VCS) output(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, v.binary, args...) //nolint:gosec // fixed git subcommands
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, zerr.With(zerr.Wrap(err, "git failed"), "stderr", msg)
		}
		return nil, err
	}
	return out, nil
}

// ParseSubmoduleStatus parses `git submodule status` output. Each line is a status
// marker, the commit, the path and an optional description in parentheses.
func ParseSubmoduleStatus(out []byte) []domain.SubmoduleStatus {
	var res []domain.SubmoduleStatus
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if len(line) < 2 {
			continue
		}
		fields := strings.Fields(line[1:])
		if len(fields) < 2 {
			continue
		}
		res = append(res, domain.SubmoduleStatus{Path: fields[1], Marker: line[0]})
	}
	return res
}
