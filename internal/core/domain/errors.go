package domain

import "go.trai.ch/zerr"

var (
	// ErrOutOfDomain is returned when a stage, host or target lies outside the configured matrix.
	ErrOutOfDomain = zerr.New("request outside the configured stage/triple domain")

	// ErrInvalidArtifactKind is returned when an artifact kind is not valid for the requested scope.
	ErrInvalidArtifactKind = zerr.New("artifact kind not valid for scope")

	// ErrUnknownGoal is returned when a goal name is neither canonical nor claimed by a module.
	ErrUnknownGoal = zerr.New("unknown goal")

	// ErrConfigurationLoop is returned when reconfiguration keeps reporting stale past its bound.
	ErrConfigurationLoop = zerr.New("configuration did not converge")

	// ErrMissingCollaboratorOutput is returned when an external step did not produce a declared path.
	ErrMissingCollaboratorOutput = zerr.New("declared output missing after external step")

	// ErrMissingInput is returned when a declared input of an action does not exist.
	ErrMissingInput = zerr.New("declared input does not exist")

	// ErrActionFailed is returned when an action in the graph fails.
	ErrActionFailed = zerr.New("action failed")

	// ErrBuildExecutionFailed is returned when the build execution fails.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrReproducibilityMismatch is returned when promoted or rebuilt artifacts differ in content.
	ErrReproducibilityMismatch = zerr.New("artifact content mismatch")

	// ErrActionAlreadyExists is returned when an action with the same id is added twice.
	ErrActionAlreadyExists = zerr.New("action already exists")

	// ErrDuplicateOutput is returned when two actions declare the same output path.
	ErrDuplicateOutput = zerr.New("output path has more than one producer")

	// ErrMissingDependency is returned when an action references a dependency that doesn't exist in the graph.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when a cycle is detected in the action graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrActionNotFound is returned when a requested action is not found in the graph.
	ErrActionNotFound = zerr.New("action not found")

	// ErrNoHandler is returned when no handler is registered for an action kind.
	ErrNoHandler = zerr.New("no handler for action kind")

	// ErrOutputPathOutsideRoot is returned when an output path is outside the build root.
	ErrOutputPathOutsideRoot = zerr.New("output path is outside build root")

	// ErrConfigNotFound is returned when the persisted configuration cannot be found.
	ErrConfigNotFound = zerr.New("persisted configuration not found, run configure first")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrConfigInvalid is returned when the persisted configuration fails validation.
	ErrConfigInvalid = zerr.New("invalid configuration")

	// ErrInvalidOption is returned when an invocation option cannot be parsed.
	ErrInvalidOption = zerr.New("invalid option")

	// ErrReconfigureFailed is returned when the external configure step fails.
	ErrReconfigureFailed = zerr.New("configure step failed")

	// ErrSubmoduleProbeFailed is returned when the submodule status cannot be read.
	ErrSubmoduleProbeFailed = zerr.New("failed to probe submodules")

	// ErrStoreCreateFailed is returned when the build info store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create build info store directory")

	// ErrStoreReadFailed is returned when the build info cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read build info")

	// ErrStoreUnmarshalFailed is returned when the build info cannot be unmarshaled.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal build info")

	// ErrStoreMarshalFailed is returned when the build info cannot be marshaled.
	ErrStoreMarshalFailed = zerr.New("failed to marshal build info")

	// ErrStoreWriteFailed is returned when the build info cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write build info")

	// ErrSnapshotNotFound is returned when no snapshot in the manifest covers a host.
	ErrSnapshotNotFound = zerr.New("no snapshot for host")

	// ErrSnapshotManifestInvalid is returned when the snapshot manifest cannot be parsed.
	ErrSnapshotManifestInvalid = zerr.New("invalid snapshot manifest")

	// ErrSnapshotFetchFailed is returned when a snapshot archive cannot be obtained.
	ErrSnapshotFetchFailed = zerr.New("failed to fetch snapshot")

	// ErrSnapshotUploadFailed is returned when a snapshot archive cannot be published.
	ErrSnapshotUploadFailed = zerr.New("failed to upload snapshot")

	// ErrArchiveFailed is returned when an archive cannot be written or extracted.
	ErrArchiveFailed = zerr.New("archive operation failed")

	// ErrFileOpenFailed is returned when a file cannot be opened.
	ErrFileOpenFailed = zerr.New("failed to open file")

	// ErrFileHashFailed is returned when hashing a file fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")

	// ErrPathStatFailed is returned when stating a path fails.
	ErrPathStatFailed = zerr.New("failed to stat path")

	// ErrCopyFailed is returned when copying a file fails.
	ErrCopyFailed = zerr.New("failed to copy file")
)
