// Package log provides structured logging for go-nao.
// It wraps slog with a process-wide logger configured once from flags or
// the NAO_LOG_LEVEL environment variable.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// EnvLogLevel overrides the level passed to Init when set.
const EnvLogLevel = "NAO_LOG_LEVEL"

var (
	mu     sync.RWMutex
	logger *slog.Logger
)

// ParseLevel maps "debug", "info", "warn" and "error" to slog levels.
// Unknown values fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Init configures the global logger. NAO_LOG_LEVEL wins over level.
// JSON output is used when GO_ENV=production, text otherwise.
func Init(level string) {
	if env := os.Getenv(EnvLogLevel); env != "" {
		level = env
	}
	SetOutput(os.Stdout, ParseLevel(level), os.Getenv("GO_ENV") == "production")
}

// SetOutput replaces the global logger. Tests use it to capture output.
func SetOutput(w io.Writer, level slog.Level, json bool) {
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if json {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}

	mu.Lock()
	logger = slog.New(h)
	mu.Unlock()
}

// L returns the global logger, initializing it at info level on first use.
func L() *slog.Logger {
	mu.RLock()
	l := logger
	mu.RUnlock()
	if l != nil {
		return l
	}
	Init("info")
	return L()
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}

// Component returns a logger tagged with a component name.
func Component(name string) *slog.Logger {
	return L().With("component", name)
}
