// Package logger provides verbose logging for entsync.
// When verbose mode is enabled, debug messages are printed to stderr to help
// operators follow the sync pipeline.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for verbose logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	logf("[DEBUG] ", format, args...)
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	logf("[INFO] ", format, args...)
}

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) {
	logf("[WARN] ", format, args...)
}

// Error prints an error message. Errors are printed regardless of verbose
// mode.
func Error(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	fmt.Fprintf(output, "[ERROR] "+format+"\n", args...)
}

func logf(level, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, level+format+"\n", args...)
	}
}

// Run is a logger scoped to one sync run. Every message carries the sync and
// job identifiers so interleaved runs can be told apart.
type Run struct {
	prefix string
}

// ForRun creates a run-scoped logger.
func ForRun(syncID, jobID string) *Run {
	return &Run{prefix: fmt.Sprintf("sync=%s job=%s ", syncID, jobID)}
}

// Debug prints a run-scoped debug message if verbose mode is enabled.
func (r *Run) Debug(format string, args ...any) {
	logf("[DEBUG] "+r.prefix, format, args...)
}

// Info prints a run-scoped informational message if verbose mode is enabled.
func (r *Run) Info(format string, args ...any) {
	logf("[INFO] "+r.prefix, format, args...)
}

// Warn prints a run-scoped warning message if verbose mode is enabled.
func (r *Run) Warn(format string, args ...any) {
	logf("[WARN] "+r.prefix, format, args...)
}

// Error prints a run-scoped error message regardless of verbose mode.
func (r *Run) Error(format string, args ...any) {
	Error(r.prefix+format, args...)
}
