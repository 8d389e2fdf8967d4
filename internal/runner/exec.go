package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"slices"

	"github.com/servinagrero/monaco/internal/config"
	"github.com/servinagrero/monaco/internal/ctxlog"
	"github.com/servinagrero/monaco/internal/template"
)

// execCommand renders one shell command step and runs it through the
// platform interpreter, blocking until it exits.
func (r *Runner) execCommand(ctx context.Context, text string, data *template.Data, out io.Writer) error {
	logger := ctxlog.FromContext(ctx).With("job", data.Job)

	rendered := template.Interpolate(text, data)
	stepEcho.Fprintf(r.out, "$ %s\n", rendered)
	if r.dry {
		return nil
	}

	logger.Debug("Spawning command.", "command", rendered, "dir", data.Dir)
	if err := r.spawn(rendered, data, out); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("command exited with code %d", exitErr.ExitCode())
		}
		return fmt.Errorf("failed to spawn command: %w", err)
	}
	return nil
}

// gateOpen evaluates the job's when commands in order. Every command must
// exit zero for the job to run; evaluation short-circuits on the first
// failure. A dry run spawns nothing and treats the gate as satisfied.
func (r *Runner) gateOpen(ctx context.Context, job *config.Job, data *template.Data, spec *config.LogSpec) (bool, error) {
	logger := ctxlog.FromContext(ctx).With("job", job.Name)
	if r.dry {
		logger.Debug("Dry run, treating when gate as satisfied.")
		return true, nil
	}

	out, closeLog, err := r.logTarget(spec, data)
	if err != nil {
		return false, err
	}
	defer closeLog()

	for _, command := range job.When {
		rendered := template.Interpolate(command, data)
		logger.Debug("Evaluating when command.", "command", rendered)
		if err := r.spawn(rendered, data, out); err != nil {
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				logger.Debug("When command exited non-zero.", "command", rendered, "code", exitErr.ExitCode())
				return false, nil
			}
			return false, fmt.Errorf("failed to spawn when command: %w", err)
		}
	}
	return true, nil
}

// spawn runs a rendered command line in the job's directory with the
// layered environment, both output streams on out.
func (r *Runner) spawn(rendered string, data *template.Data, out io.Writer) error {
	shell, flag := platformShell()
	cmd := exec.Command(shell, flag, rendered)
	cmd.Dir = data.Dir
	cmd.Env = environFor(data)
	cmd.Stdout = out
	cmd.Stderr = out
	return cmd.Run()
}

// environFor layers the job's environment over the process environment.
// Values are interpolated, so entries can reference the iteration state.
func environFor(data *template.Data) []string {
	env := os.Environ()
	keys := make([]string, 0, len(data.Env))
	for key := range data.Env {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		env = append(env, key+"="+template.Interpolate(data.Env[key], data))
	}
	return env
}

func platformShell() (shell, flag string) {
	if runtime.GOOS == "windows" {
		return "cmd", "/C"
	}
	return "/bin/sh", "-c"
}
