// Package logger provides leveled logging (debug/info/warning/error) on top
// of the standard log package.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel parses "debug", "info", "warning" (or "warn") and "error".
// An empty string is LevelInfo.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger writes leveled entries to a single writer.
//
// A nil *Logger discards everything, so components can take one optionally.
type Logger struct {
	level      Level
	debugLog   *log.Logger
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	mu         sync.Mutex
}

// New creates a Logger writing entries at or above level to w.
func New(w io.Writer, level Level) *Logger {
	flags := log.Ldate | log.Ltime | log.Lshortfile
	return &Logger{
		level:      level,
		debugLog:   log.New(w, "DEBUG   ", flags),
		infoLog:    log.New(w, "INFO    ", flags),
		warningLog: log.New(w, "WARNING ", flags),
		errorLog:   log.New(w, "ERROR   ", flags),
	}
}

// Stderr creates a Logger on os.Stderr. Stdout is reserved for the stdio
// tool transport.
func Stderr(level Level) *Logger {
	return New(os.Stderr, level)
}

// Discard returns a Logger that writes nowhere.
func Discard() *Logger {
	return New(io.Discard, LevelError+1)
}

// Level returns the minimum level that is written.
func (l *Logger) Level() Level {
	if l == nil {
		return LevelError + 1
	}
	return l.level
}

// Enabled reports whether entries at level are written.
func (l *Logger) Enabled(level Level) bool {
	return l != nil && level >= l.level
}

// Debug writes a formatted debug-level log entry.
func (l *Logger) Debug(format string, v ...interface{}) {
	l.output(LevelDebug, format, v...)
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.output(LevelInfo, format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.output(LevelWarning, format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.output(LevelError, format, v...)
}

func (l *Logger) output(level Level, format string, v ...interface{}) {
	if !l.Enabled(level) {
		return
	}

	var target *log.Logger
	switch level {
	case LevelDebug:
		target = l.debugLog
	case LevelInfo:
		target = l.infoLog
	case LevelWarning:
		target = l.warningLog
	default:
		target = l.errorLog
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// Depth 3 reports the caller of Debug/Info/Warning/Error.
	_ = target.Output(3, fmt.Sprintf(format, v...))
}
