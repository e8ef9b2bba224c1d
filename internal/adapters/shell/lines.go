package shell

import (
	"bytes"
	"sync"
)

// lineWriter buffers command output and logs every complete line, prefixed
// with the task name when there is one.
type lineWriter struct {
	mu     sync.Mutex
	log    func(string)
	prefix string
	buf    bytes.Buffer
}

func newLineWriter(task string, log func(string)) *lineWriter {
	w := &lineWriter{log: log}
	if task != "" {
		w.prefix = "[" + task + "] "
	}
	return w
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf.Write(p)
	for {
		i := bytes.IndexByte(w.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		w.printLineLocked(w.buf.Next(i + 1))
	}
	return len(p), nil
}

// Close logs a trailing partial line.
func (w *lineWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf.Len() > 0 {
		w.printLineLocked(w.buf.Bytes())
		w.buf.Reset()
	}
	return nil
}

// printLineLocked must be called with w.mu held.
func (w *lineWriter) printLineLocked(line []byte) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 {
		return
	}
	w.log(w.prefix + string(line))
}
