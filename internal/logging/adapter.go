package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the key/value logging interface consumed by the server and the
// Kubernetes layer.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	With(args ...interface{}) Logger
}

// SlogAdapter implements Logger on top of *slog.Logger.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter wraps logger. A nil logger uses slog.Default().
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogAdapter{logger: logger}
}

// DefaultLogger returns an adapter around slog.Default().
func DefaultLogger() *SlogAdapter {
	return NewSlogAdapter(nil)
}

// Logger returns the underlying slog logger.
func (a *SlogAdapter) Logger() *slog.Logger { return a.logger }

func (a *SlogAdapter) Debug(msg string, args ...interface{}) { a.logger.Debug(msg, args...) }
func (a *SlogAdapter) Info(msg string, args ...interface{})  { a.logger.Info(msg, args...) }
func (a *SlogAdapter) Warn(msg string, args ...interface{})  { a.logger.Warn(msg, args...) }
func (a *SlogAdapter) Error(msg string, args ...interface{}) { a.logger.Error(msg, args...) }

func (a *SlogAdapter) With(args ...interface{}) Logger {
	return &SlogAdapter{logger: a.logger.With(args...)}
}

// ParseLevel maps debug, info, warn and error to slog levels.
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

// New builds a slog logger writing to w. Format "json" selects the JSON
// handler; anything else uses text. A nil writer means stderr.
func New(w io.Writer, format string, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
