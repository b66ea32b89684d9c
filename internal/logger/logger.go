// Package logger provides leveled logging on top of the standard log package.
//
// All output goes to a single writer, normally stderr, because stdout carries
// the MCP protocol stream.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// LevelEnv is the environment variable that selects the minimum level.
const LevelEnv = "SHAPES_LOG_LEVEL"

// Level is a logging severity.
type Level int

// Levels in increasing severity.
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
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel parses debug, info, warning (or warn) and error, ignoring case.
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
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

// Logger writes leveled, prefixed log lines.
type Logger struct {
	debugLog   *log.Logger
	infoLog    *log.Logger
	warningLog *log.Logger
	errorLog   *log.Logger
	level      Level
	mu         sync.Mutex
}

// New creates a Logger writing to w at the given minimum level.
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

// FromEnv creates a stderr Logger whose level comes from SHAPES_LOG_LEVEL.
// An unrecognized value falls back to info and is reported once.
func FromEnv() *Logger {
	level, err := ParseLevel(os.Getenv(LevelEnv))
	l := New(os.Stderr, level)
	if err != nil {
		l.Warning("%v, using info", err)
	}
	return l
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, LevelError+1)
}

// Level returns the minimum level that is written.
func (l *Logger) Level() Level {
	return l.level
}

// output writes one entry. A nil Logger discards everything.
func (l *Logger) output(level Level, format string, v ...interface{}) {
	if l == nil || level < l.level {
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
	target.Output(3, fmt.Sprintf(format, v...))
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
