package domain

import (
	"path/filepath"
	"slices"

	"go.trai.ch/zerr"
)

// Component describes a compiled crate/binary or an externally built library.
type Component struct {
	// Name is the base name of the produced file.
	Name string
	// Root is the crate root source file, relative to the source dir.
	Root string
	// Dir is scanned for tracked source files, relative to the source dir.
	Dir string
	// Recipe is the argv of the external step for recipe components.
	Recipe []string
}

// Components groups every component the stage trees are made of.
type Components struct {
	Driver      Component
	Core        Component
	Std         Component
	Compiler    Component
	PackageTool Component
	DocTool     Component
	Runtime     Component
	Backend     Component
	LinkSupport Component
}

// ByKind returns the component that produces an artifact kind.
func (c Components) ByKind(k ArtifactKind) (Component, bool) {
	switch k {
	case KindDriver:
		return c.Driver, true
	case KindCoreLib:
		return c.Core, true
	case KindStdLib:
		return c.Std, true
	case KindCompilerLib:
		return c.Compiler, true
	case KindPackageTool:
		return c.PackageTool, true
	case KindDocTool:
		return c.DocTool, true
	case KindRuntime:
		return c.Runtime, true
	case KindBackendInterop:
		return c.Backend, true
	case KindLinkSupport:
		return c.LinkSupport, true
	default:
		return Component{}, false
	}
}

// GeneratedOutput is a statically generated, non-compiled output.
type GeneratedOutput struct {
	Output  string
	Command []string
	Inputs  []string
}

// Instrumentation configures the memory-checking wrapper around stage compilers.
type Instrumentation struct {
	Tool     []string
	Enabled  bool
	KnownBad bool
}

// SnapshotSource locates stage-0 snapshot archives.
type SnapshotSource struct {
	// Manifest lists snapshots, relative to the source dir.
	Manifest string
	// Dir is a local directory holding archives.
	Dir string
	// Endpoint, Bucket and friends locate an S3-compatible object store.
	Endpoint  string
	Bucket    string
	Prefix    string
	Region    string
	AccessKey string
	SecretKey string
	Secure    bool
}

// HasRemote reports whether an object store is configured.
func (s SnapshotSource) HasRemote() bool {
	return s.Endpoint != "" && s.Bucket != ""
}

// Configuration is the persisted result of the external configure step.
type Configuration struct {
	SrcDir            string
	Hosts             []Triple
	Targets           []Triple
	PrimaryHost       Triple
	LibDir            string
	Naming            NamingScheme
	Version           string
	Components        Components
	Instrumentation   Instrumentation
	InTransition      bool
	Generated         []GeneratedOutput
	ReconfigureInputs []string
	ConfigureArgs     []string
	Prefix            string
	Snapshot          SnapshotSource
	SourceSuffixes    []string
	TestDir           string
	PerfInput         string
	TagsCommand       []string
	DistName          string
}

// SourcePath joins a source-relative path with the source dir.
func (c *Configuration) SourcePath(rel string) string {
	if rel == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(c.SrcDir, rel)
}

// ApplyDefaults fills fields configure may leave empty.
func (c *Configuration) ApplyDefaults() {
	if c.SrcDir == "" {
		c.SrcDir = "."
	}
	if c.LibDir == "" {
		c.LibDir = DefaultLibDir
	}
	if c.Naming == "" {
		c.Naming = NamingFixed
	}
	if c.PrimaryHost == "" && len(c.Hosts) > 0 {
		c.PrimaryHost = c.Hosts[0]
	}
	if len(c.SourceSuffixes) == 0 {
		c.SourceSuffixes = []string{".rs", ".rc"}
	}
	if len(c.ReconfigureInputs) == 0 {
		c.ReconfigureInputs = []string{"configure", "config.yaml.in", "src/snapshots.txt"}
	}
	if c.Snapshot.Manifest == "" {
		c.Snapshot.Manifest = "src/snapshots.txt"
	}
	if c.TestDir == "" {
		c.TestDir = "src/test"
	}
	if len(c.TagsCommand) == 0 {
		c.TagsCommand = []string{"ctags", "-e", "-f", "TAGS"}
	}
	if c.DistName == "" {
		c.DistName = "toolchain"
	}
	if c.Prefix == "" {
		c.Prefix = "/usr/local"
	}
	c.Components.applyDefaults()
}

func (c *Components) applyDefaults() {
	crate := func(comp *Component, name, root string) {
		if comp.Name == "" {
			comp.Name = name
		}
		if comp.Root == "" {
			comp.Root = root
		}
		if comp.Dir == "" {
			comp.Dir = filepath.Dir(comp.Root)
		}
	}
	crate(&c.Driver, "rustc", "src/driver/driver.rs")
	crate(&c.Core, "core", "src/libcore/core.rc")
	crate(&c.Std, "std", "src/libstd/std.rc")
	crate(&c.Compiler, "rustc", "src/librustc/rustc.rc")
	crate(&c.PackageTool, "cargo", "src/cargo/cargo.rc")
	crate(&c.DocTool, "rustdoc", "src/rustdoc/rustdoc.rc")

	// External components default to a make target named after them.
	recipe := func(comp *Component, name, dir string) {
		if comp.Name == "" {
			comp.Name = name
		}
		if comp.Dir == "" {
			comp.Dir = dir
		}
		if len(comp.Recipe) == 0 {
			comp.Recipe = []string{"make", comp.Name}
		}
	}
	recipe(&c.Runtime, "rustrt", "src/rt")
	recipe(&c.Backend, "rustllvm", "src/rustllvm")
	recipe(&c.LinkSupport, "morestack", "src/rt/arch")
}

// Validate rejects configurations under which artifact paths would collide.
func (c *Configuration) Validate() error {
	if len(c.Hosts) == 0 {
		return zerr.Wrap(ErrConfigInvalid, "no host triples")
	}
	if !slices.Contains(c.Hosts, c.PrimaryHost) {
		return zerr.With(zerr.Wrap(ErrConfigInvalid, "primary host is not a host"), "host", c.PrimaryHost.String())
	}
	if c.LibDir == HostBinDirName || c.LibDir == "" || filepath.IsAbs(c.LibDir) {
		return zerr.With(zerr.Wrap(ErrConfigInvalid, "libdir must be a relative name other than bin"), "libdir", c.LibDir)
	}
	if !c.Naming.Valid() {
		return zerr.With(zerr.Wrap(ErrConfigInvalid, "unknown naming scheme"), "naming", string(c.Naming))
	}
	if c.Naming == NamingVersioned && c.Version == "" {
		return zerr.Wrap(ErrConfigInvalid, "versioned naming requires a version")
	}

	// Binaries share bin/, libraries share the lib dir.
	bins := []string{c.Components.Driver.Name, c.Components.PackageTool.Name, c.Components.DocTool.Name}
	libs := []string{
		c.Components.Core.Name, c.Components.Std.Name, c.Components.Compiler.Name,
		c.Components.Runtime.Name, c.Components.Backend.Name, c.Components.LinkSupport.Name,
	}
	for _, group := range [][]string{bins, libs} {
		seen := make(map[string]bool, len(group))
		for _, n := range group {
			if n == "" || n == ToolchainDirName {
				return zerr.With(zerr.Wrap(ErrConfigInvalid, "invalid component name"), "name", n)
			}
			if seen[n] {
				return zerr.With(zerr.Wrap(ErrConfigInvalid, "duplicate component name"), "name", n)
			}
			seen[n] = true
		}
	}
	return nil
}
