package otelx

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// TraceID returns the hex trace id of the span in ctx, or "" when there is
// no valid span. Used to correlate log lines with traces.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}
