package prereq

import (
	"go.trai.ch/stagehand/internal/core/domain"
)

// Invocation is the argv prefix and environment for running a stage compiler.
type Invocation struct {
	Argv []string
	Env  map[string]string
}

// Invocation builds the command line that runs the stage-N host compiler for host H
// targeting T. Stage 0 is never wrapped by the instrumentation tool.
func (e *Engine) Invocation(stage domain.Stage, target, host domain.Triple) (Invocation, error) {
	if err := e.res.Matrix().Check(stage, target, host); err != nil {
		return Invocation{}, err
	}
	driver, err := e.res.Host(stage, host, domain.KindDriver)
	if err != nil {
		return Invocation{}, err
	}
	libDir, err := e.res.Host(stage, host, domain.KindHostLibDir)
	if err != nil {
		return Invocation{}, err
	}

	var argv []string
	if stage > domain.MinStage && e.opts.InstrumentationEnabled(e.instr) {
		argv = append(argv, e.instr.Tool...)
	}
	argv = append(argv, driver.Path)
	argv = append(argv, e.opts.CompilerFlags(stage)...)
	argv = append(argv, "--target", target.String())

	return Invocation{
		Argv: argv,
		Env:  map[string]string{LibraryPathVar(host): libDir.Path},
	}, nil
}

// LibraryPathVar names the dynamic library search path variable of a host.
func LibraryPathVar(host domain.Triple) string {
	switch {
	case host.IsWindows():
		return "PATH"
	case host.IsDarwin():
		return "DYLD_LIBRARY_PATH"
	default:
		return "LD_LIBRARY_PATH"
	}
}
