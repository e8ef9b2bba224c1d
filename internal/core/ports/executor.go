// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"io"

	"go.trai.ch/press/internal/core/domain"
)

// Executor runs the body of a task.
//
//go:generate go run go.uber.org/mock/mockgen -source=executor.go -destination=mocks/mock_executor.go -package=mocks
type Executor interface {
	// Execute runs the given task's body. Prerequisites have already completed.
	Execute(ctx context.Context, task *domain.Task) error
}

// Command describes an external process invocation.
type Command struct {
	Args []string
	Dir  string
	// Env is merged over the inherited process environment.
	Env map[string]string
	// Stdout and Stderr receive the process output as it is produced, in addition to the logger.
	Stdout io.Writer
	Stderr io.Writer
}

// CommandRunner runs external processes, streaming their output.
type CommandRunner interface {
	// Run starts the command and waits for it to exit.
	// A non-zero exit is returned as an error carrying "exit_code" metadata.
	Run(ctx context.Context, cmd Command) error
}
