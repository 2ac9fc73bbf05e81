// Package logger provides the process-wide structured logger.
package logger

import (
	"sync"
)

// Log levels accepted in configuration.
const (
	DebugLevel = "debug"
	InfoLevel  = "info"
	WarnLevel  = "warn"
	ErrorLevel = "error"
)

// Output encodings.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

var (
	globalLogger *Logger
	once         sync.Once
)

// Get returns the process logger, building it on first use with the console
// encoding. Later calls ignore level.
func Get(level string) *Logger {
	return Init(level, FormatConsole)
}

// Init is Get with an explicit output format. Only the first call to Init or
// Get configures the logger.
func Init(level, format string) *Logger {
	once.Do(func() {
		globalLogger = newZapLogger(level, format)
	})
	return globalLogger
}

// Nop returns a logger that discards everything, for tests and wiring that
// has no logger configured.
func Nop() *Logger {
	return nopLogger
}
