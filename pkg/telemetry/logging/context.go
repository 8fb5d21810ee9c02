package logging

import (
	"context"
	"log/slog"
)

type contextKey string

const (
	// CycleDateKey is the context key for the date a cycle runs for.
	CycleDateKey contextKey = "cycle_date"

	// RequestIDKey is the context key for API and tool request IDs.
	RequestIDKey contextKey = "request_id"
)

// WithCycleDate adds the cycle date to the context.
func WithCycleDate(ctx context.Context, date string) context.Context {
	return context.WithValue(ctx, CycleDateKey, date)
}

// GetCycleDate retrieves the cycle date from the context.
func GetCycleDate(ctx context.Context) string {
	if v, ok := ctx.Value(CycleDateKey).(string); ok {
		return v
	}
	return ""
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

// contextHandler adds context fields to records logged with a *Context
// method.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if d := GetCycleDate(ctx); d != "" {
		r.AddAttrs(slog.String(string(CycleDateKey), d))
	}
	if id := GetRequestID(ctx); id != "" {
		r.AddAttrs(slog.String(string(RequestIDKey), id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}
