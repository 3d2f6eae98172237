package logger

import (
	"context"

	"go.uber.org/zap"
)

// contextKey is the private type for the logger stored in a context.
type contextKey struct{}

// toContext returns a copy of ctx carrying the provided logger.
func toContext(ctx context.Context, l *zap.SugaredLogger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger stored in ctx, or the global logger.
func FromContext(ctx context.Context) *zap.SugaredLogger {
	if ctx == nil {
		return Logger()
	}

	if l, ok := ctx.Value(contextKey{}).(*zap.SugaredLogger); ok && l != nil {
		return l
	}

	return Logger()
}

// WithName attaches a named logger to the context.
func WithName(ctx context.Context, name string) context.Context {
	return toContext(ctx, FromContext(ctx).Named(name))
}

// WithKV attaches key-value pairs to every message logged through the context.
func WithKV(ctx context.Context, kvs ...any) context.Context {
	return toContext(ctx, FromContext(ctx).With(kvs...))
}
