// Package logging provides the structured logger used across the
// repository, session, and client façade layers.
package logging

import (
	"log/slog"
	"os"
)

// Logger is the narrow interface the rest of the module depends on,
// so tests can substitute a no-op or capturing implementation. With
// derives a logger that carries fixed fields on every subsequent
// call, the way Repository tags its commit-loop log lines with the
// retry bound and the attempt number, without every call site having
// to repeat them.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
}

type defaultLogger struct {
	logger *slog.Logger
}

// New builds the default slog-backed Logger, writing text-formatted
// records to stderr at the given level.
func New(level slog.Level) Logger {
	return &defaultLogger{
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: level,
		})),
	}
}

const prefix = "[smalltable] "

func (d *defaultLogger) Debug(msg string, args ...any) { d.logger.Debug(prefix+msg, args...) }
func (d *defaultLogger) Info(msg string, args ...any)  { d.logger.Info(prefix+msg, args...) }
func (d *defaultLogger) Warn(msg string, args ...any)  { d.logger.Warn(prefix+msg, args...) }
func (d *defaultLogger) Error(msg string, args ...any) { d.logger.Error(prefix+msg, args...) }

func (d *defaultLogger) With(args ...any) Logger {
	return &defaultLogger{logger: d.logger.With(args...)}
}

// Nop is a Logger that discards everything, used as the zero-value
// default so Repository/Session/Table never need a nil check.
type Nop struct{}

func (Nop) Debug(string, ...any) {}
func (Nop) Info(string, ...any)  {}
func (Nop) Warn(string, ...any)  {}
func (Nop) Error(string, ...any) {}
func (Nop) With(...any) Logger   { return Nop{} }
