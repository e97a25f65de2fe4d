package domain

import (
	"fmt"
	"path/filepath"
)

const (
	// StateDirName is the name of the internal state directory under the build root.
	StateDirName = ".stagehand"

	// StoreDirName is the name of the build info store directory.
	StoreDirName = "store"

	// ConfigFileName is the name of the persisted configuration written by configure.
	ConfigFileName = "config.yaml"

	// ConfigStampName is the stamp touched whenever configure succeeds.
	ConfigStampName = "config.stamp"

	// EnvFileName is the optional dotenv file holding invocation options.
	EnvFileName = "stagehand.env"

	// HostBinDirName is the host binary directory inside a stage tree.
	HostBinDirName = "bin"

	// ToolchainDirName separates per-target trees inside a host library directory.
	ToolchainDirName = "toolchain"

	// DepFileSuffix is appended to an output path to name its dependency record.
	DepFileSuffix = ".d"

	// RuntimeBuildDirName holds per-target runtime and link-support builds.
	RuntimeBuildDirName = "rt"

	// BackendBuildDirName holds per-target backend-interop builds.
	BackendBuildDirName = "backend"

	// DownloadDirName caches snapshot archives.
	DownloadDirName = "dl"

	// TestBuildDirName holds compiled test binaries.
	TestBuildDirName = "test"

	// DistDirName holds packaging output.
	DistDirName = "dist"

	// ReformatDirName holds pretty-printed sources.
	ReformatDirName = "reformat"

	// DefaultLibDir is used when configure did not record a libdir.
	DefaultLibDir = "lib"

	// DefaultMaxReconfigure bounds configure re-runs within one invocation.
	DefaultMaxReconfigure = 3

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644

	// ExecPerm is the default permission for executables (rwxr-xr-x).
	ExecPerm = 0o755
)

// StageDir returns the root of a stage tree for a host, relative to the build root.
func StageDir(host Triple, stage Stage) string {
	return filepath.Join(host.String(), fmt.Sprintf("stage%d", stage))
}

// DefaultStorePath returns the path of the build info store.
// It joins .stagehand and store.
func DefaultStorePath() string {
	return filepath.Join(StateDirName, StoreDirName)
}

// DepFileFor returns the dependency record path for an output.
func DepFileFor(output string) string {
	return output + DepFileSuffix
}
