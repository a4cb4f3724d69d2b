package slogx

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

func WithContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

func FromContext(ctx context.Context) *slog.Logger {
	l, ok := ctx.Value(ctxKey{}).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return l
}

// WithConnection tags the contextual logger with the (user, provider) pair an
// operation is acting on.
func WithConnection(ctx context.Context, userID, provider string) context.Context {
	return WithContext(ctx, FromContext(ctx).With("user_id", userID, "provider", provider))
}
