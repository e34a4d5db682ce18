// Package logging provides the file-backed debug logger shared by
// taskweave components. Logging is off unless TASKWEAVE_DEBUG_LOG
// names a file, so normal runs stay quiet.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DebugLogger writes timestamped debug lines to a file.
type DebugLogger struct {
	mu   sync.Mutex
	file *os.File
}

var (
	pkg     *DebugLogger
	pkgOnce sync.Once
)

// NewDebugLogger creates a logger writing to the given path. An empty
// path returns a no-op logger. Parent directories are created.
func NewDebugLogger(logPath string) (*DebugLogger, error) {
	if logPath == "" {
		return &DebugLogger{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return &DebugLogger{file: f}, nil
}

// Log writes a formatted line. No-op when the logger has no file.
func (l *DebugLogger) Log(format string, args ...interface{}) {
	if l == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return
	}

	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(l.file, "%s %s\n", ts, fmt.Sprintf(format, args...))
}

// Close releases the underlying file.
func (l *DebugLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// Debugf writes to the process-wide logger, initialized lazily from
// the TASKWEAVE_DEBUG_LOG environment variable.
func Debugf(format string, args ...interface{}) {
	pkgOnce.Do(func() {
		l, err := NewDebugLogger(os.Getenv("TASKWEAVE_DEBUG_LOG"))
		if err != nil {
			l = &DebugLogger{}
		}
		pkg = l
	})
	pkg.Log(format, args...)
}
