package http

import (
	"net/http"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	context_ "github.com/onlineexam/examsvc/internal/infra/context"
)

const TraceIDHeader = "X-Request-ID"

// TracingMiddleware creates middleware that adds request tracing.
// It extracts W3C trace context, starts a server span and assigns a trace ID taken
// from the X-Request-ID header, the span's trace ID or a fresh UUIDv7, in that order.
// The trace ID is added to the request context and echoed in the response header.
func TracingMiddleware(next http.Handler) http.Handler {
	tracer := otel.Tracer("infra.transport.http")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path, trace.WithSpanKind(trace.SpanKindServer))
		defer span.End()

		traceID := getTraceID(r, span.SpanContext())
		w.Header().Set(TraceIDHeader, traceID)

		next.ServeHTTP(w, r.WithContext(context_.WithTraceID(ctx, traceID)))
	})
}

func getTraceID(r *http.Request, sc trace.SpanContext) string {
	if traceID := r.Header.Get(TraceIDHeader); traceID != "" {
		return traceID
	}

	if sc.HasTraceID() {
		return sc.TraceID().String()
	}

	id, err := uuid.NewV7()
	if err != nil {
		return ""
	}

	return id.String()
}
