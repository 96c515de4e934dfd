// Package ctxlog carries a *slog.Logger through context.Context, so every
// package in this module logs through ctxlog.FromContext(ctx) instead of
// holding its own logger field.
package ctxlog

import (
	"context"
	"log/slog"
)

type key struct{}

var loggerKey = key{}

// WithLogger returns a new context carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger embedded by WithLogger. A context built
// without one is a programmer error — every entrypoint in this module
// installs a logger before doing any work — so FromContext panics rather
// than silently falling back to a default.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	panic("ctxlog: logger missing from context")
}
