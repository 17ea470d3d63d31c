package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/psantana5/calltimer/pkg/calltimer"
)

// Reporter records each measurement as a span named after the function.
// The span carries the measured timestamps rather than the time it was
// reported, so it lines up with any span already active in ctx.
type Reporter struct {
	tracer trace.Tracer
}

// NewReporter creates a span reporter on the provider's tracer
func NewReporter(p *Provider) *Reporter {
	return &Reporter{tracer: p.Tracer()}
}

// Report implements calltimer.Reporter
func (r *Reporter) Report(ctx context.Context, m calltimer.Measurement) {
	_, span := r.tracer.Start(ctx, m.Name,
		trace.WithTimestamp(m.Start),
		trace.WithAttributes(
			attribute.String("call.id", m.ID),
			attribute.String("call.function", m.Name),
			attribute.Float64("call.duration_seconds", m.Duration().Seconds()),
		),
	)

	if m.Failed() {
		span.RecordError(m.Err)
		span.SetStatus(codes.Error, m.Err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End(trace.WithTimestamp(m.End))
}
