package system

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("foldnet")

// Span creates and returns a new span within the scope of the given
// component. Exporter selection is left to whatever trace provider the
// process registered with the otel global; with none registered the spans
// are no-ops, which is what we want for tests and the bare CLI.
func Span(ctx context.Context, component, name string,
	attrs ...attribute.KeyValue) (context.Context, oteltrace.Span) {
	return tracer.Start(ctx, component+"/"+name,
		oteltrace.WithAttributes(attrs...))
}
