// Package logging configures process-wide structured logging for sheetsync.
//
// Levels follow the names used in the LOG_LEVEL setting: DEBUG, INFO,
// WARNING, ERROR and CRITICAL. CRITICAL has no slog equivalent and is
// defined here as LevelCritical.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// LevelCritical sits above slog.LevelError and is used for job failures.
const LevelCritical = slog.Level(12)

// NameKey is the attribute carrying a component's logger name.
const NameKey = "logger"

var levelNames = map[string]slog.Level{
	"DEBUG":    slog.LevelDebug,
	"INFO":     slog.LevelInfo,
	"WARNING":  slog.LevelWarn,
	"ERROR":    slog.LevelError,
	"CRITICAL": LevelCritical,
}

// ParseLevel converts a level name into a slog.Level
func ParseLevel(name string) (slog.Level, error) {
	level, ok := levelNames[strings.ToUpper(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("invalid log level %q (expected one of DEBUG, INFO, WARNING, ERROR, CRITICAL)", name)
	}
	return level, nil
}

// LevelName returns the LOG_LEVEL style name of a level
func LevelName(level slog.Level) string {
	switch {
	case level >= LevelCritical:
		return "CRITICAL"
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARNING"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// Options controls Setup
type Options struct {
	Level   slog.Level
	Console bool // human readable, colored output instead of JSON
}

// New builds a logger writing to w without touching the default logger
func New(w io.Writer, opts Options) *slog.Logger {
	if opts.Console {
		return slog.New(NewConsoleHandler(w, opts.Level))
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       opts.Level,
		ReplaceAttr: replaceLevel,
	}))
}

// Setup builds a logger and installs it as the slog default.
// It is meant to be called once, at process start.
func Setup(w io.Writer, opts Options) *slog.Logger {
	logger := New(w, opts)
	slog.SetDefault(logger)
	return logger
}

// Named returns a child logger tagged with a component name
func Named(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(NameKey, name)
}

func replaceLevel(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.LevelKey {
		if level, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(LevelName(level))
		}
	}
	return a
}
