// Package logger provides leveled logging on top of the standard log package.
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
		return fmt.Sprintf("Unknown(%d)", int(l))
	}
}

// ParseLevel resolves debug, info, warning (or warn) and error.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warning", "warn":
		return LevelWarning, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// Logger writes leveled entries. Entries below the configured level are
// discarded.
type Logger struct {
	debugLog   *log.Logger
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	level      Level
	mu         sync.Mutex
}

// New creates a Logger writing every level to w.
func New(w io.Writer, level Level) *Logger {
	flags := log.Ldate | log.Ltime | log.Lshortfile
	return &Logger{
		debugLog:   log.New(w, "DEBUG   ", flags),
		infoLog:    log.New(w, "INFO    ", flags),
		warningLog: log.New(w, "WARNING ", flags),
		errorLog:   log.New(w, "ERROR   ", flags),
		level:      level,
	}
}

// Default returns an info-level Logger on stderr. Stdout is left free for
// command output and the MCP protocol stream.
func Default() *Logger {
	return New(os.Stderr, LevelInfo)
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, LevelError+1)
}

// Level returns the minimum level written.
func (l *Logger) Level() Level {
	return l.level
}

// Debug writes a formatted debug-level entry.
func (l *Logger) Debug(format string, v ...interface{}) {
	l.output(LevelDebug, l.debugLog, format, v...)
}

// Info writes a formatted info-level entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.output(LevelInfo, l.infoLog, format, v...)
}

// Warning writes a formatted warning-level entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.output(LevelWarning, l.warningLog, format, v...)
}

// Error writes a formatted error-level entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.output(LevelError, l.errorLog, format, v...)
}

func (l *Logger) output(level Level, dst *log.Logger, format string, v ...interface{}) {
	if level < l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	// Skip output and the exported wrapper so Lshortfile names the caller.
	_ = dst.Output(3, fmt.Sprintf(format, v...))
}
