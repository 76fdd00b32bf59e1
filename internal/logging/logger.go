// Package logging defines a minimal structured-logging interface used across
// the project, with slog and logrus implementations.
package logging

import (
	"context"
	"io"
	"log/slog"

	"github.com/sirupsen/logrus"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "card added", "id", id, "backend", kind)
type Logger interface {
	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

const (
	BackendSlog   = "slog"
	BackendLogrus = "logrus"
)

// New builds a Logger writing to w. backend selects the implementation;
// anything other than BackendLogrus yields the JSON slog logger.
func New(backend string, w io.Writer) Logger {
	if backend == BackendLogrus {
		l := logrus.New()
		l.SetOutput(w)
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		l.SetLevel(logrus.InfoLevel)
		return NewLogrusLogger(l)
	}
	return NewSlogLogger(slog.New(slog.NewJSONHandler(w, nil)))
}

// Redact hides a secret in diagnostics, reporting only whether it is present.
func Redact(secret string) string {
	if secret == "" {
		return "NOT SET"
	}
	return "SET"
}
