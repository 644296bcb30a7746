package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/vango-dev/reconcile/pkg/vdom"
)

// DefaultTracerName is the instrumentation name used by Tracer.
const DefaultTracerName = "github.com/vango-dev/reconcile"

// Tracer returns the tracer of the global OpenTelemetry provider. Configure
// the provider before creating roots:
//
//	otel.SetTracerProvider(tp)
func Tracer() trace.Tracer {
	return otel.Tracer(DefaultTracerName)
}

// Span attribute keys.
const (
	AttrPatches = attribute.Key("reconcile.patches")
	AttrNodes   = attribute.Key("reconcile.nodes")
	AttrRoot    = attribute.Key("reconcile.root")
	AttrOp      = attribute.Key("reconcile.op")
)

// StartSpan starts a span named "reconcile.<name>". A nil tracer uses a
// no-op tracer.
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer(DefaultTracerName)
	}
	return tracer.Start(ctx, "reconcile."+name, trace.WithAttributes(attrs...))
}

// PatchAttributes describes a patch list: the total count and one
// attribute per operation present.
func PatchAttributes(patches []vdom.Patch) []attribute.KeyValue {
	counts := vdom.CountOps(patches)
	total := 0
	attrs := make([]attribute.KeyValue, 0, len(counts)+1)
	for op := vdom.OpCreate; op <= vdom.OpText; op++ {
		if n := counts[op]; n > 0 {
			total += n
			attrs = append(attrs, attribute.Int("reconcile.patches."+op.String(), n))
		}
	}
	return append(attrs, AttrPatches.Int(total))
}

// EndSpan records err, if any, and ends the span.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
