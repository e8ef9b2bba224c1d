// Package shell runs external processes and user-defined command tasks.
package shell

import (
	"context"
	"errors"
	"io"
	"maps"
	"os"
	"os/exec"
	"slices"
	"strings"

	"go.trai.ch/press/internal/core/domain"
	"go.trai.ch/press/internal/core/ports"
	"go.trai.ch/zerr"
)

var (
	_ ports.CommandRunner = (*Executor)(nil)
	_ ports.Executor      = (*Executor)(nil)
)

// Executor runs commands with os/exec, streaming every output line to the
// logger and to the current telemetry vertex as it is produced.
type Executor struct {
	logger ports.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{
		logger: logger,
	}
}

// Execute runs a command task.
func (e *Executor) Execute(ctx context.Context, task *domain.Task) error {
	if len(task.Command) == 0 {
		return nil
	}
	if _, ok := ports.TaskFromContext(ctx); !ok {
		ctx = ports.ContextWithTask(ctx, task.Name.String())
	}
	return e.Run(ctx, ports.Command{
		Args: task.Command,
		Dir:  task.WorkingDir.String(),
		Env:  task.Environment,
	})
}

// Run starts the command and waits for it to exit. Output lines are logged
// with the name of the task carried by ctx as a prefix.
// A non-zero exit is returned with "exit_code" metadata; a command that could
// not be started reports -1.
func (e *Executor) Run(ctx context.Context, c ports.Command) error {
	if len(c.Args) == 0 {
		return zerr.New("empty command")
	}

	task, _ := ports.TaskFromContext(ctx)
	stdoutLog := newLineWriter(task, e.logger.Info)
	stderrLog := newLineWriter(task, e.logger.Warn)

	stdout := []io.Writer{stdoutLog}
	stderr := []io.Writer{stderrLog}
	if c.Stdout != nil {
		stdout = append(stdout, c.Stdout)
	}
	if c.Stderr != nil {
		stderr = append(stderr, c.Stderr)
	}
	if v, ok := ports.VertexFromContext(ctx); ok {
		stdout = append(stdout, v.Stdout())
		stderr = append(stderr, v.Stderr())
	}

	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...) //nolint:gosec // user provided command
	cmd.Dir = c.Dir
	cmd.Env = resolveEnvironment(os.Environ(), c.Env)
	cmd.Stdout = io.MultiWriter(stdout...)
	cmd.Stderr = io.MultiWriter(stderr...)

	err := cmd.Run()
	_ = stdoutLog.Close()
	_ = stderrLog.Close()

	if err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return zerr.With(zerr.With(zerr.Wrap(err, "command failed"), "command", strings.Join(c.Args, " ")), "exit_code", exitCode)
	}

	return nil
}

// resolveEnvironment applies overrides on top of the inherited environment.
// The result is sorted for reproducible child environments.
func resolveEnvironment(sysEnv []string, overrides map[string]string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(overrides))
	for _, entry := range sysEnv {
		if k, v, ok := strings.Cut(entry, "="); ok {
			envMap[k] = v
		}
	}
	maps.Copy(envMap, overrides)

	result := make([]string, 0, len(envMap))
	for _, k := range slices.Sorted(maps.Keys(envMap)) {
		result = append(result, k+"="+envMap[k])
	}
	return result
}
