// Package logger writes the tool's diagnostic output to stderr.
//
// Debug, Info, Warn and Section lines appear only with --verbose so index
// builds and sweeps can be followed in detail. Error and Progress lines
// are always written.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// level selects the line prefix and whether verbosity gates the line.
type level struct {
	prefix string
	gated  bool
}

var (
	levelDebug    = level{prefix: "[DEBUG] ", gated: true}
	levelInfo     = level{prefix: "[INFO] ", gated: true}
	levelWarn     = level{prefix: "[WARN] ", gated: true}
	levelError    = level{prefix: "[ERROR] "}
	levelProgress = level{}
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose turns the gated levels on or off.
func SetVerbose(v bool) {
	mu.Lock()
	verbose = v
	mu.Unlock()
}

// IsVerbose reports whether the gated levels are written.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects all log lines. Tests use it to capture output.
func SetOutput(w io.Writer) {
	mu.Lock()
	output = w
	mu.Unlock()
}

func write(l level, format string, args []any) {
	mu.RLock()
	defer mu.RUnlock()
	if l.gated && !verbose {
		return
	}
	fmt.Fprintf(output, l.prefix+format+"\n", args...)
}

// Debug writes fine-grained detail such as per-batch embedding counts.
func Debug(format string, args ...any) { write(levelDebug, format, args) }

// Info writes milestones such as an index becoming ready.
func Info(format string, args ...any) { write(levelInfo, format, args) }

// Warn writes recoverable problems such as a skipped configuration.
func Warn(format string, args ...any) { write(levelWarn, format, args) }

// Error writes failures.
func Error(format string, args ...any) { write(levelError, format, args) }

// Progress writes an unprefixed status line for long sweeps.
func Progress(format string, args ...any) { write(levelProgress, format, args) }

// Section writes a header separating the phases of a verbose run.
func Section(name string) {
	write(level{gated: true}, "\n=== %s ===", []any{name})
}

// standardWriter feeds lines written through the standard library log
// package into Debug.
type standardWriter struct{}

func (standardWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		Debug("%s", line)
	}
	return len(p), nil
}

// CaptureStandardLog routes the standard library log package through Debug
// so third-party warnings, such as the text splitter's oversize chunk
// notices, stay hidden unless --verbose is set.
func CaptureStandardLog() {
	log.SetFlags(0)
	log.SetPrefix("")
	log.SetOutput(standardWriter{})
}
