package domain

import "go.trai.ch/zerr"

var (
	// ErrTaskAlreadyExists is returned when attempting to add a task with a name that already exists.
	ErrTaskAlreadyExists = zerr.New("task already exists")

	// ErrMissingDependency is returned when a task references a dependency that doesn't exist in the graph.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrCycleDetected is returned when a cycle is detected in the task dependency graph.
	ErrCycleDetected = zerr.New("cycle detected")

	// ErrTaskNotFound is returned when a requested task is not found in the graph.
	ErrTaskNotFound = zerr.New("task not found")

	// ErrRegistrySealed is returned when adding a task to a validated registry.
	ErrRegistrySealed = zerr.New("task registry is sealed")

	// ErrRegistryNotSealed is returned when running tasks from a registry that was never validated.
	ErrRegistryNotSealed = zerr.New("task registry has not been validated")

	// ErrUnknownReaction is returned when a watch rule references an unregistered task.
	ErrUnknownReaction = zerr.New("watch rule references unknown task")

	// ErrNoTargetsSpecified is returned when a run is requested without targets.
	ErrNoTargetsSpecified = zerr.New("no targets specified")

	// ErrTaskExecutionFailed is returned when a task body or one of its prerequisites fails.
	ErrTaskExecutionFailed = zerr.New("task execution failed")

	// ErrBuildExecutionFailed marks a failed orchestrated run that has already been reported.
	ErrBuildExecutionFailed = zerr.New("build execution failed")

	// ErrNoExecutor is returned when no executor is registered for a task's action.
	ErrNoExecutor = zerr.New("no executor for task action")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = zerr.New("configuration file not found")

	// ErrInvalidPath is returned when a configured path is absolute or escapes the project root.
	ErrInvalidPath = zerr.New("invalid project path")

	// ErrInvalidQuality is returned for a malformed image quality range.
	ErrInvalidQuality = zerr.New("invalid image quality range")

	// ErrStylesheetSyntax is returned when a stylesheet fails to parse.
	ErrStylesheetSyntax = zerr.New("stylesheet syntax error")

	// ErrImportCycle is returned when stylesheet imports form a cycle.
	ErrImportCycle = zerr.New("stylesheet import cycle")

	// ErrLintFailed is returned when the application scripts violate lint rules.
	ErrLintFailed = zerr.New("lint failed")

	// ErrUnknownLintRule is returned when the configuration enables an unknown lint rule.
	ErrUnknownLintRule = zerr.New("unknown lint rule")

	// ErrScriptSyntax is returned when a script bundle cannot be minified.
	ErrScriptSyntax = zerr.New("script syntax error")

	// ErrSiteBuildFailed is returned when the site generator exits with a non-zero code.
	ErrSiteBuildFailed = zerr.New("site build failed")

	// ErrServerNotRunning is returned when stopping a server that was never started.
	ErrServerNotRunning = zerr.New("server not running")

	// ErrAlreadyServing is returned when starting a watch loop twice.
	ErrAlreadyServing = zerr.New("watch loop already started")
)
