package logging

import (
	"context"
	"log/slog"
)

type requestIDKey struct{}

// WithRequestID attaches a render request identifier to ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, requestIDKey{}, id)
}

// WithContext returns logger tagged with the request id carried by ctx, or
// logger unchanged when there is none.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	if ctx == nil {
		return logger
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return logger.With(String(FieldRequestID, id))
	}
	return logger
}
