package logging

import (
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"sync/atomic"
)

// LogLevel represents the severity of a log message
type LogLevel int32

const (
	// LevelDebug is the debug log level
	LevelDebug LogLevel = iota
	// LevelInfo is the info log level
	LevelInfo
	// LevelWarn is the warning log level
	LevelWarn
	// LevelError is the error log level
	LevelError
)

var levelNames = [...]string{
	LevelDebug: "debug",
	LevelInfo:  "info",
	LevelWarn:  "warn",
	LevelError: "error",
}

var (
	threshold atomic.Int32
	seedOnce  sync.Once
)

// seed reads DEBUG and LOG_LEVEL the first time a level is needed. A
// SetLevel call that happens earlier takes precedence.
func seed() {
	seedOnce.Do(func() {
		threshold.Store(int32(envLevel(os.Getenv)))
	})
}

func envLevel(getenv func(string) string) LogLevel {
	switch strings.ToLower(getenv("DEBUG")) {
	case "1", "true", "yes", "on":
		return LevelDebug
	}
	level, _ := ParseLevel(getenv("LOG_LEVEL"))
	return level
}

// ParseLevel converts a level name into a LogLevel. The empty string maps
// to LevelInfo. Unknown names also yield LevelInfo, alongside an error.
func ParseLevel(s string) (LogLevel, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "":
		return LevelInfo, nil
	case "warning":
		return LevelWarn, nil
	}
	for l, n := range levelNames {
		if n == name {
			return LogLevel(l), nil
		}
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// SetLevel overrides the level derived from the environment.
func SetLevel(level LogLevel) {
	seedOnce.Do(func() {})
	threshold.Store(int32(level))
}

// GetLevel returns the current log level
func GetLevel() LogLevel {
	seed()
	return LogLevel(threshold.Load())
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return GetLevel() <= LevelDebug
}

func emit(level LogLevel, format string, args []interface{}) {
	if level < GetLevel() {
		return
	}
	tag := strings.ToUpper(levelNames[level])
	log.Printf("["+tag+"] "+format, args...)
}

// Debug logs a debug message (only if DEBUG=true or LOG_LEVEL=debug)
func Debug(format string, args ...interface{}) { emit(LevelDebug, format, args) }

// Info logs an info message
func Info(format string, args ...interface{}) { emit(LevelInfo, format, args) }

// Warn logs a warning message
func Warn(format string, args ...interface{}) { emit(LevelWarn, format, args) }

// Error logs an error message
func Error(format string, args ...interface{}) { emit(LevelError, format, args) }

// Fatal logs an error message and exits
func Fatal(format string, args ...interface{}) {
	log.Fatalf("[FATAL] "+format, args...)
}

// String returns the string representation of a log level
func (l LogLevel) String() string {
	if l >= 0 && int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("unknown(%d)", l)
}
