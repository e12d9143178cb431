// Package logger provides the structured logging used across the
// preprocessing kernels, backed by zerolog.
package logger

import "sync"

// Logger provides structured logging with a component tag and
// arbitrary context fields.
type Logger interface {
	Info(component, message string, fields map[string]interface{})
	Error(component string, err error, fields map[string]interface{})
	Warning(component, message string, fields map[string]interface{})
	Debug(component, message string, fields map[string]interface{})
}

var (
	mu         sync.RWMutex
	defaultLog Logger
)

// Default returns the process-wide logger, lazily initialised to a
// console logger at warning level so library use stays quiet.
func Default() Logger {
	mu.RLock()
	l := defaultLog
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if defaultLog == nil {
		defaultLog = NewConsoleLogger(DefaultLevel)
	}
	return defaultLog
}

// SetDefault replaces the process-wide logger. Intended for the CLI
// and for tests; the kernels only ever call Default.
func SetDefault(l Logger) {
	mu.Lock()
	defaultLog = l
	mu.Unlock()
}
