package domain

// TaskStatus is the lifecycle state of a task within an orchestrated run.
type TaskStatus string

const (
	// TaskStatusPending indicates the task is waiting for its prerequisites.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusRunning indicates the task body is executing.
	TaskStatusRunning TaskStatus = "running"
	// TaskStatusCompleted indicates the task finished successfully.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates the task body failed.
	TaskStatusFailed TaskStatus = "failed"
	// TaskStatusSkipped indicates the body never ran because a prerequisite failed.
	TaskStatusSkipped TaskStatus = "skipped"
)

// IsTerminal reports whether the status is final for the run.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusSkipped:
		return true
	default:
		return false
	}
}

// LogLevel represents the severity of a log message, mirroring the standard slog levels.
type LogLevel int

const (
	// LogLevelDebug represents debug-level verbosity.
	LogLevelDebug LogLevel = -4
	// LogLevelInfo represents informational verbosity.
	LogLevelInfo LogLevel = 0
	// LogLevelWarn represents warning verbosity.
	LogLevelWarn LogLevel = 4
	// LogLevelError represents error verbosity.
	LogLevelError LogLevel = 8
)

// String returns the string representation of the LogLevel.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "INFO"
	}
}
