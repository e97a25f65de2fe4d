// Package shell runs external commands: compiler invocations, recipes and the
// configure step.
package shell

import (
	"context"
	"errors"
	"io"
	"maps"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/creack/pty"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	_ ports.ActionHandler = (*Executor)(nil)
	_ ports.Configurer    = (*Executor)(nil)
)

// searchPathVars are prepended to the inherited value instead of replacing it.
var searchPathVars = map[string]struct{}{
	"PATH":              {},
	"LD_LIBRARY_PATH":   {},
	"DYLD_LIBRARY_PATH": {},
}

// Executor implements ports.ActionHandler and ports.Configurer. Commands run in a
// PTY when one can be allocated, otherwise on plain pipes.
type Executor struct {
	logger  ports.Logger
	environ func() []string
}

// NewExecutor creates a new Executor inheriting the process environment.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{
		logger:  logger,
		environ: os.Environ,
	}
}

// Kinds returns the action kinds the executor accepts.
func (e *Executor) Kinds() []domain.ActionKind {
	return []domain.ActionKind{domain.ActionCompile, domain.ActionRecipe, domain.ActionCommand}
}

// Handle runs the action's argv in root, or in its working directory.
func (e *Executor) Handle(ctx context.Context, root string, a *domain.Action, out io.Writer) error {
	if len(a.Command) == 0 {
		return nil
	}
	dir := root
	if a.WorkingDir != "" {
		dir = absPath(root, a.WorkingDir)
	}
	return e.run(ctx, root, dir, a.Command, a.Environment, out)
}

// Configure re-runs the configure program with its recorded arguments and touches the
// configuration stamp on success.
func (e *Executor) Configure(ctx context.Context, root string, args []string, out io.Writer) error {
	if len(args) == 0 {
		return zerr.New("no configure command recorded")
	}
	if err := e.run(ctx, root, root, args, nil, out); err != nil {
		return err
	}

	stamp := filepath.Join(root, domain.ConfigStampName)
	f, err := os.OpenFile(stamp, os.O_CREATE|os.O_WRONLY, domain.FilePerm) //nolint:gosec // path under root
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to touch configuration stamp"), "path", stamp)
	}
	_ = f.Close()
	now := time.Now()
	if err := os.Chtimes(stamp, now, now); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to touch configuration stamp"), "path", stamp)
	}
	return nil
}

func (e *Executor) run(
	ctx context.Context,
	root, dir string,
	argv []string,
	env map[string]string,
	out io.Writer,
) error {
	cmdEnv := resolveEnvironment(e.environ(), root, env)
	name := argv[0]
	executable := resolveExecutable(root, name, cmdEnv)

	if e.logger != nil {
		e.logger.Debug("exec: " + strings.Join(argv, " "))
	}

	newCmd := func() *exec.Cmd {
		cmd := exec.CommandContext(ctx, executable, argv[1:]...) //nolint:gosec // argv comes from the configuration
		cmd.Args[0] = name
		cmd.Dir = dir
		cmd.Env = cmdEnv
		return cmd
	}

	cmd := newCmd()
	err := runPTY(cmd, out)
	if errors.Is(err, errNoPTY) {
		cmd = newCmd()
		cmd.Stdout = out
		cmd.Stderr = out
		err = cmd.Run()
	}
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		// Killed by the context rather than by its own fault.
		err = errors.Join(ctx.Err(), err)
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	return zerr.With(zerr.With(zerr.Wrap(err, "command failed"), "exit_code", exitCode), "command", name)
}

var errNoPTY = errors.New("pty unavailable")

// runPTY starts cmd on a pseudo terminal and copies its output to out.
func runPTY(cmd *exec.Cmd, out io.Writer) error {
	ptmx, tty, err := pty.Open()
	if err != nil {
		return errNoPTY
	}
	defer func() { _ = ptmx.Close() }()

	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty
	cmd.SysProcAttr = ptySysProcAttr()
	if err := cmd.Start(); err != nil {
		_ = tty.Close()
		return err
	}
	// The child holds its own copy.
	_ = tty.Close()

	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		// Reading the master fails with EIO once the child side is closed.
		_, _ = io.Copy(out, ptmx)
	}()

	err = cmd.Wait()
	<-ioDone
	return err
}

// resolveEnvironment merges the action environment over the inherited one. Search
// path variables are prepended, and their relative entries resolved against root.
func resolveEnvironment(sysEnv []string, root string, env map[string]string) []string {
	envMap := make(map[string]string, len(sysEnv))
	var order []string
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, seen := envMap[k]; !seen {
			order = append(order, k)
		}
		envMap[k] = v
	}

	for _, k := range slices.Sorted(maps.Keys(env)) {
		v := env[k]
		if _, ok := searchPathVars[k]; ok {
			v = absList(root, v)
			if cur := envMap[k]; cur != "" {
				v = v + string(os.PathListSeparator) + cur
			}
		}
		if _, seen := envMap[k]; !seen {
			order = append(order, k)
		}
		envMap[k] = v
	}

	result := make([]string, 0, len(order))
	for _, k := range order {
		result = append(result, k+"="+envMap[k])
	}
	return result
}

func absList(root, list string) string {
	parts := filepath.SplitList(list)
	for i, p := range parts {
		if p != "" {
			parts[i] = absPath(root, p)
		}
	}
	return strings.Join(parts, string(os.PathListSeparator))
}

// resolveExecutable resolves names containing a separator against root and bare names
// against the PATH of the command environment.
func resolveExecutable(root, name string, env []string) string {
	if filepath.IsAbs(name) {
		return name
	}
	if strings.ContainsRune(name, '/') || strings.ContainsRune(name, filepath.Separator) {
		return filepath.Join(root, name)
	}
	if lp, err := lookPath(name, env); err == nil {
		return lp
	}
	return name
}

// lookPath searches for an executable in the directories named by the PATH environment variable.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := filepath.Join(dir, file)
		if err := findExecutable(path); err == nil {
			return path, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}

func absPath(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
