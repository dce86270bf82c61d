// Package logger provides leveled progress logging for the TrustLens
// CLI. Debug, Info and Warn print only when verbose mode is enabled
// via the --verbose flag; they narrate the ingest, retrieval and
// review pipeline on stderr so long runs stay observable without
// polluting command output on stdout.
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

// SetVerbose toggles verbose logging for the whole process.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether verbose logging is on.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects log output. Defaults to os.Stderr; tests point
// it at a buffer.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// logf writes one tagged line when verbose mode is on. Callers hold
// no lock.
func logf(tag, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, tag+" "+format+"\n", args...)
	}
}

// Debug logs fine-grained pipeline steps (per-chunk, per-query).
func Debug(format string, args ...any) {
	logf("[DEBUG]", format, args...)
}

// Info logs user-relevant milestones (document ingested, rule done).
func Info(format string, args ...any) {
	logf("[INFO]", format, args...)
}

// Warn logs degraded-but-continuing conditions (a failed embedding
// batch, a rule converted to a FAILED result).
func Warn(format string, args ...any) {
	logf("[WARN]", format, args...)
}

// Section prints a banner separating pipeline phases.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}
