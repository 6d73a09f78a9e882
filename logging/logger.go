// Package logging provides the logging abstraction used across supportmesh.
// Components accept a Logger and default to NoOpLogger, so logging stays an
// opt-in concern wired at construction time.
package logging

import (
	"log/slog"
	"os"
)

// Logger is the minimal leveled logging interface the engine and its
// collaborators depend on. Args are alternating key/value pairs, slog style.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// NoOpLogger discards all log output. It is the default for every component
// that is not explicitly given a logger.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...any) {}
func (NoOpLogger) Info(string, ...any)  {}
func (NoOpLogger) Warn(string, ...any)  {}
func (NoOpLogger) Error(string, ...any) {}

// SlogLogger adapts a *slog.Logger to the Logger interface.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps an existing slog logger. A nil logger falls back to
// slog.Default().
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

// NewTextLogger builds a text-handler logger writing to stderr at the given
// level, suitable for the daemon.
func NewTextLogger(level slog.Level) *SlogLogger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &SlogLogger{logger: slog.New(h)}
}

func (l *SlogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *SlogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// WithComponent returns a logger that stamps every record with the component
// name.
func (l *SlogLogger) WithComponent(name string) *SlogLogger {
	return &SlogLogger{logger: l.logger.With("component", name)}
}

// WithSession returns a logger that stamps every record with the session id.
func (l *SlogLogger) WithSession(sessionID string) *SlogLogger {
	return &SlogLogger{logger: l.logger.With("session_id", sessionID)}
}
