package domain

import "fmt"

// ArtifactKind enumerates the artifacts a stage tree can hold.
type ArtifactKind int

const (
	// KindDriver is the compiler driver binary.
	KindDriver ArtifactKind = iota
	// KindRuntime is the runtime support library.
	KindRuntime
	// KindBackendInterop is the library bridging the compiler and its code generation backend.
	KindBackendInterop
	// KindLinkSupport is the static stack-growth/link support library. Target side only.
	KindLinkSupport
	// KindCoreLib is the core library.
	KindCoreLib
	// KindStdLib is the standard library.
	KindStdLib
	// KindCompilerLib is the compiler library.
	KindCompilerLib
	// KindPackageTool is the package manager binary.
	KindPackageTool
	// KindDocTool is the documentation generator binary.
	KindDocTool
	// KindHostBinDir is the host binary directory.
	KindHostBinDir
	// KindHostLibDir is the host library directory.
	KindHostLibDir
	// KindTargetBinDir is the per-target binary directory.
	KindTargetBinDir
	// KindTargetLibDir is the per-target library directory.
	KindTargetLibDir
)

var kindNames = map[ArtifactKind]string{
	KindDriver:         "driver",
	KindRuntime:        "runtime",
	KindBackendInterop: "backend-interop",
	KindLinkSupport:    "link-support",
	KindCoreLib:        "core",
	KindStdLib:         "std",
	KindCompilerLib:    "compiler",
	KindPackageTool:    "package-tool",
	KindDocTool:        "doc-tool",
	KindHostBinDir:     "host-bin-dir",
	KindHostLibDir:     "host-lib-dir",
	KindTargetBinDir:   "target-bin-dir",
	KindTargetLibDir:   "target-lib-dir",
}

// String returns the kind's stable name.
func (k ArtifactKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// IsHostScoped reports whether the kind can be resolved without a target.
func (k ArtifactKind) IsHostScoped() bool {
	switch k {
	case KindDriver, KindRuntime, KindBackendInterop, KindCoreLib, KindStdLib, KindCompilerLib,
		KindPackageTool, KindDocTool, KindHostBinDir, KindHostLibDir:
		return true
	default:
		return false
	}
}

// IsTargetScoped reports whether the kind can be resolved for a target.
func (k ArtifactKind) IsTargetScoped() bool {
	switch k {
	case KindDriver, KindRuntime, KindBackendInterop, KindLinkSupport, KindCoreLib, KindStdLib,
		KindCompilerLib, KindPackageTool, KindDocTool, KindTargetBinDir, KindTargetLibDir:
		return true
	default:
		return false
	}
}

// IsCrate reports whether the kind is named by the naming scheme.
func (k ArtifactKind) IsCrate() bool {
	return k == KindCoreLib || k == KindStdLib || k == KindCompilerLib
}

// IsDir reports whether the kind names a directory rather than a file.
func (k ArtifactKind) IsDir() bool {
	switch k {
	case KindHostBinDir, KindHostLibDir, KindTargetBinDir, KindTargetLibDir:
		return true
	default:
		return false
	}
}

// IsExecutable reports whether the kind is a binary.
func (k ArtifactKind) IsExecutable() bool {
	return k == KindDriver || k == KindPackageTool || k == KindDocTool
}

// PromotesTo returns the host-side kind a target-side artifact of this kind becomes
// in the next stage, and false when the kind is never promoted.
func (k ArtifactKind) PromotesTo() (ArtifactKind, bool) {
	switch k {
	case KindDriver, KindRuntime, KindBackendInterop, KindCoreLib, KindStdLib, KindCompilerLib,
		KindPackageTool, KindDocTool:
		return k, true
	default:
		return 0, false
	}
}

// ArtifactRef addresses one artifact. An empty Target means host scope.
type ArtifactRef struct {
	Stage  Stage
	Host   Triple
	Target Triple
	Kind   ArtifactKind
}

// HostRef builds a host-scoped reference.
func HostRef(stage Stage, host Triple, kind ArtifactKind) ArtifactRef {
	return ArtifactRef{Stage: stage, Host: host, Kind: kind}
}

// TargetRef builds a target-scoped reference.
func TargetRef(stage Stage, target, host Triple, kind ArtifactKind) ArtifactRef {
	return ArtifactRef{Stage: stage, Host: host, Target: target, Kind: kind}
}

// IsHostScoped reports whether the reference has no target.
func (r ArtifactRef) IsHostScoped() bool {
	return r.Target == ""
}

// String renders the reference for logs and errors.
func (r ArtifactRef) String() string {
	if r.IsHostScoped() {
		return fmt.Sprintf("%s/%s/%s", r.Host, r.Stage, r.Kind)
	}
	return fmt.Sprintf("%s/%s/%s/%s", r.Host, r.Stage, r.Target, r.Kind)
}

// ArtifactPath is a resolved artifact: its reference and its build-root relative path.
type ArtifactPath struct {
	Ref  ArtifactRef
	Path string
}

// String returns the path.
func (p ArtifactPath) String() string {
	return p.Path
}

// NamingScheme selects how core, std and compiler libraries are named.
type NamingScheme string

const (
	// NamingFixed uses lib<crate>.<ext>.
	NamingFixed NamingScheme = "fixed"
	// NamingVersioned uses lib<crate>-<hash>-<version>.<ext>.
	NamingVersioned NamingScheme = "versioned"
)

// Valid reports whether the scheme is known.
func (n NamingScheme) Valid() bool {
	return n == NamingFixed || n == NamingVersioned
}

// PromotionEdge copies a target-side artifact of stage N into the host tree of stage N+1.
type PromotionEdge struct {
	From ArtifactPath
	To   ArtifactPath
}
