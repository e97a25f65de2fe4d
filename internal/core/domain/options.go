package domain

// Options are per-invocation switches read from flags and the environment.
type Options struct {
	Verbose           bool
	SaveTemps         bool
	TimePasses        bool
	TimeBackendPasses bool
	Trace             bool
	DisableOptimize   bool
	EnableDebug       bool

	EnableInstrumentation  bool
	DisableInstrumentation bool
	BadInstrumentation     bool

	// StageFlags are appended to every compiler invocation of the stage.
	StageFlags map[Stage][]string

	DisableSubmoduleCheck bool
	// DestDir rewires the install prefix when set.
	DestDir string

	Jobs           int
	KeepGoing      bool
	Force          bool
	MaxReconfigure int
}

// InstrumentationEnabled reports whether stage compilers above stage 0 are wrapped.
func (o Options) InstrumentationEnabled(cfg Instrumentation) bool {
	if len(cfg.Tool) == 0 {
		return false
	}
	if o.DisableInstrumentation || o.BadInstrumentation || cfg.KnownBad {
		return false
	}
	return cfg.Enabled || o.EnableInstrumentation
}

// CompilerFlags returns the flags every compiler invocation of a stage carries.
func (o Options) CompilerFlags(stage Stage) []string {
	var flags []string
	if !o.DisableOptimize {
		flags = append(flags, "-O")
	}
	if o.EnableDebug {
		flags = append(flags, "--cfg", "debug")
	} else {
		flags = append(flags, "--cfg", "ndebug")
	}
	if o.SaveTemps {
		flags = append(flags, "--save-temps")
	}
	if o.TimePasses {
		flags = append(flags, "--time-passes")
	}
	if o.TimeBackendPasses {
		flags = append(flags, "--time-llvm-passes")
	}
	if o.Trace {
		flags = append(flags, "--cfg", "trace")
	}
	flags = append(flags, o.StageFlags[stage]...)
	return flags
}
