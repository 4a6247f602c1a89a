package logger

import (
	"context"

	"go.uber.org/zap"
)

// ctxKey keys the request-scoped logger placed by the HTTP middleware.
type ctxKey struct{}

// ContextWithLogger returns a context carrying the given logger. The wide-event
// middleware attaches a per-request logger (with request_id) this way so
// handlers and usecases log under the same request.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger attached to ctx. Outside a request
// (startup indexing, tests) there is none and a no-op logger is returned.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}
