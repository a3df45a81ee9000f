package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Logger provides leveled logging with redaction support. Output goes to
// stderr so command stdout stays scriptable.
type Logger struct {
	debug   bool
	noColor bool
	out     io.Writer
}

// New creates a new logger instance.
func New(debug, noColor bool) *Logger {
	return &Logger{
		debug:   debug,
		noColor: noColor,
		out:     os.Stderr,
	}
}

// SetOutput redirects log output. Used by tests.
func (l *Logger) SetOutput(w io.Writer) {
	l.out = w
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	l.emit("\033[32m✓\033[0m", "✓", format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.emit("\033[33m⚠\033[0m", "⚠", format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...interface{}) {
	l.emit("\033[31m✗\033[0m", "✗", format, args...)
}

// Debug logs a debug message if debug mode is enabled.
func (l *Logger) Debug(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	l.emit("\033[36m[DEBUG]\033[0m", "[DEBUG]", format, args...)
}

func (l *Logger) emit(colorPrefix, plainPrefix, format string, args ...interface{}) {
	prefix := colorPrefix
	if l.noColor {
		prefix = plainPrefix
	}
	fmt.Fprintf(l.out, "%s %s\n", prefix, fmt.Sprintf(format, args...))
}

// Secret represents a value that must be redacted in logs.
type Secret string

// String implements the Stringer interface, always returning a redacted value.
func (s Secret) String() string {
	return "[REDACTED]"
}

// GoString implements the GoStringer interface for %#v formatting.
func (s Secret) GoString() string {
	return "[REDACTED]"
}

// Redact replaces sensitive values in a string with [REDACTED].
func Redact(s string, secrets []string) string {
	result := s
	for _, secret := range secrets {
		if secret != "" && len(secret) > 3 { // Only redact non-trivial secrets
			result = strings.ReplaceAll(result, secret, "[REDACTED]")
		}
	}
	return result
}
