package domain

// SubmoduleStatus is one line of the version control system's submodule report.
type SubmoduleStatus struct {
	Path string
	// Marker is the status prefix: ' ' in sync, '+' different commit, '-' uninitialized.
	Marker byte
}

// Modified reports whether the submodule forces reconfiguration.
func (s SubmoduleStatus) Modified() bool {
	return s.Marker == '+' || s.Marker == '-'
}

// ReconfigState is recomputed at the start of every invocation.
type ReconfigState struct {
	Stale bool
	// Forced is set when a submodule modification, not a timestamp, made it stale.
	Forced bool
	// ChangedInputs lists reconfigure inputs newer than the stamp.
	ChangedInputs []string
	// ModifiedSubmodules lists submodules out of sync.
	ModifiedSubmodules []string
	// MissingStamp is set when configure never completed.
	MissingStamp bool
}

// BuildInfo records how an action last ran.
type BuildInfo struct {
	Action      string `json:"action"`
	CommandHash string `json:"command_hash"`
}
