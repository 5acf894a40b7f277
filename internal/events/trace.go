package events

import (
	"context"

	"go.opentelemetry.io/otel/trace"
)

// mergeTrace returns base carrying the span of from, if any.
func mergeTrace(base, from context.Context) context.Context {
	if from == nil {
		return base
	}
	sc := trace.SpanContextFromContext(from)
	if !sc.IsValid() {
		return base
	}
	return trace.ContextWithSpanContext(base, sc)
}
