// Package logging provides the leveled logger shared by the controller, the
// prediction client and the command surfaces.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level represents logging verbosity.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// String returns the lower-case level name.
func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel maps a level name (case-insensitive) onto a Level.
func ParseLevel(raw string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "error":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "", "info":
		return LevelInfo, nil
	case "debug", "trace":
		return LevelDebug, nil
	default:
		return LevelInfo, fmt.Errorf("logging: unknown level %q", raw)
	}
}

// Logger is the leveled logging surface components depend on.
type Logger interface {
	Error(format string, args ...any)
	Warn(format string, args ...any)
	Info(format string, args ...any)
	Debug(format string, args ...any)
}

// StdLogger writes prefixed lines through a stdlib *log.Logger.
type StdLogger struct {
	level Level
	out   *log.Logger
}

// New creates a logger writing to w at the given level. A nil writer means
// stderr.
func New(level Level, w io.Writer) *StdLogger {
	if w == nil {
		w = os.Stderr
	}
	return &StdLogger{
		level: level,
		out:   log.New(w, "", log.LstdFlags),
	}
}

// Level returns the configured verbosity.
func (l *StdLogger) Level() Level {
	return l.level
}

func (l *StdLogger) Error(format string, args ...any) { l.logf(LevelError, format, args...) }
func (l *StdLogger) Warn(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *StdLogger) Info(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *StdLogger) Debug(format string, args ...any) { l.logf(LevelDebug, format, args...) }

func (l *StdLogger) logf(level Level, format string, args ...any) {
	if l == nil || level > l.level {
		return
	}
	l.out.Printf("["+strings.ToUpper(level.String())+"] "+format, args...)
}

type nop struct{}

func (nop) Error(string, ...any) {}
func (nop) Warn(string, ...any)  {}
func (nop) Info(string, ...any)  {}
func (nop) Debug(string, ...any) {}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return nop{}
}

// OrNop returns logger, or Nop when logger is nil.
func OrNop(logger Logger) Logger {
	if logger == nil {
		return Nop()
	}
	return logger
}
