package logging

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	context_ "github.com/onlineexam/examsvc/internal/infra/context"
)

// TracingHandler wraps another slog.Handler to add the request trace ID and,
// when a recording span is active, the OpenTelemetry span ID to all log records.
type TracingHandler struct {
	h slog.Handler
}

var _ slog.Handler = (*TracingHandler)(nil)

// NewTracingHandler creates a new TracingHandler wrapping the given handler.
func NewTracingHandler(h slog.Handler) *TracingHandler {
	return &TracingHandler{h: h}
}

// Handle implements slog.Handler.
func (h *TracingHandler) Handle(ctx context.Context, r slog.Record) error {
	var attrs []any

	if traceID, ok := context_.TraceIDFromContext(ctx); ok {
		attrs = append(attrs, slog.String("id", traceID))
	}

	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		attrs = append(attrs, slog.String("span", sc.SpanID().String()))
	}

	if len(attrs) > 0 {
		r.AddAttrs(slog.Group("trace", attrs...))
	}

	//nolint:wrapcheck
	return h.h.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.WithAttrs.
func (h *TracingHandler) WithAttrs(attrs []slog.Attr) Handler {
	return NewTracingHandler(h.h.WithAttrs(attrs))
}

// WithGroup implements slog.Handler.WithGroup.
func (h *TracingHandler) WithGroup(name string) Handler {
	return NewTracingHandler(h.h.WithGroup(name))
}

// Enabled implements slog.Handler.Enabled.
func (h *TracingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.h.Enabled(ctx, level)
}
