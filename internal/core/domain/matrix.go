package domain

import (
	"fmt"
	"iter"
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Triple identifies a platform. It is opaque and compared by value.
type Triple string

// String returns the triple as written in the configuration.
func (t Triple) String() string {
	return string(t)
}

// IsWindows reports whether the triple follows windows file conventions.
func (t Triple) IsWindows() bool {
	s := string(t)
	return strings.Contains(s, "windows") || strings.Contains(s, "mingw")
}

// IsDarwin reports whether the triple follows darwin file conventions.
func (t Triple) IsDarwin() bool {
	s := string(t)
	return strings.Contains(s, "darwin") || strings.Contains(s, "apple")
}

// ExeSuffix returns the executable suffix of the platform.
func (t Triple) ExeSuffix() string {
	if t.IsWindows() {
		return ".exe"
	}
	return ""
}

// SharedLibName returns the shared library file name for a library base name.
func (t Triple) SharedLibName(base string) string {
	switch {
	case t.IsWindows():
		return base + ".dll"
	case t.IsDarwin():
		return "lib" + base + ".dylib"
	default:
		return "lib" + base + ".so"
	}
}

// StaticLibName returns the static archive file name for a library base name.
func (t Triple) StaticLibName(base string) string {
	if t.IsWindows() {
		return base + ".lib"
	}
	return "lib" + base + ".a"
}

// Stage is a bootstrap generation. Stage 0 is fetched, later stages are built.
type Stage int

const (
	// MinStage is the snapshot stage.
	MinStage Stage = 0
	// MaxStage is the last stage the matrix enumerates.
	MaxStage Stage = 3
)

// String returns "stageN".
func (s Stage) String() string {
	return fmt.Sprintf("stage%d", int(s))
}

// Next returns the following stage.
func (s Stage) Next() Stage {
	return s + 1
}

// Tuple is one point of the stage x target x host product.
type Tuple struct {
	Stage  Stage
	Target Triple
	Host   Triple
}

// Matrix is the configured domain: ordered, deduplicated host and target lists and the
// stage range. Every host is also a target.
type Matrix struct {
	hosts   []Triple
	targets []Triple
	stages  []Stage
}

// NewMatrix builds a matrix from configured triples. Hosts missing from the target list
// are appended to it.
func NewMatrix(hosts, targets []Triple) (Matrix, error) {
	if len(hosts) == 0 {
		return Matrix{}, zerr.Wrap(ErrConfigInvalid, "no host triples configured")
	}

	m := Matrix{
		hosts:   dedupTriples(hosts),
		targets: dedupTriples(targets),
	}
	for _, h := range m.hosts {
		if !slices.Contains(m.targets, h) {
			m.targets = append(m.targets, h)
		}
	}
	for s := MinStage; s <= MaxStage; s++ {
		m.stages = append(m.stages, s)
	}
	return m, nil
}

func dedupTriples(in []Triple) []Triple {
	out := make([]Triple, 0, len(in))
	for _, t := range in {
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Hosts returns the host triples in configuration order.
func (m Matrix) Hosts() []Triple {
	return slices.Clone(m.hosts)
}

// Targets returns the target triples in configuration order.
func (m Matrix) Targets() []Triple {
	return slices.Clone(m.targets)
}

// Stages returns all stages in ascending order.
func (m Matrix) Stages() []Stage {
	return slices.Clone(m.stages)
}

// CheckStage returns ErrOutOfDomain if the stage is not enumerated.
func (m Matrix) CheckStage(s Stage) error {
	if !slices.Contains(m.stages, s) {
		return zerr.With(zerr.Wrap(ErrOutOfDomain, "stage not enumerated"), "stage", int(s))
	}
	return nil
}

// CheckHost returns ErrOutOfDomain if the host is not configured.
func (m Matrix) CheckHost(h Triple) error {
	if !slices.Contains(m.hosts, h) {
		return zerr.With(zerr.Wrap(ErrOutOfDomain, "host not configured"), "host", h.String())
	}
	return nil
}

// CheckTarget returns ErrOutOfDomain if the target is not configured.
func (m Matrix) CheckTarget(t Triple) error {
	if !slices.Contains(m.targets, t) {
		return zerr.With(zerr.Wrap(ErrOutOfDomain, "target not configured"), "target", t.String())
	}
	return nil
}

// Check validates a full tuple.
func (m Matrix) Check(s Stage, target, host Triple) error {
	if err := m.CheckStage(s); err != nil {
		return err
	}
	if err := m.CheckHost(host); err != nil {
		return err
	}
	return m.CheckTarget(target)
}

// Tuples yields the Cartesian product ordered by stage, then host, then target.
func (m Matrix) Tuples() iter.Seq[Tuple] {
	return func(yield func(Tuple) bool) {
		for _, s := range m.stages {
			for _, h := range m.hosts {
				for _, t := range m.targets {
					if !yield(Tuple{Stage: s, Target: t, Host: h}) {
						return
					}
				}
			}
		}
	}
}
