package shell

import "io"

var ResolveEnvironment = resolveEnvironment

// NewLineWriter exposes the line-buffered output writer to tests.
func NewLineWriter(task string, log func(string)) io.WriteCloser {
	return newLineWriter(task, log)
}
