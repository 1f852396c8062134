package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// ProbeMeta identifies one probe for telemetry purposes.
type ProbeMeta struct {
	Checker string // Name of the owning checker (may be empty)
	Name    string // Probe name (required)
	PID     int    // Process running the probe (optional)
}

// ID returns the fully qualified probe identifier: checker.name or name.
func (m ProbeMeta) ID() string {
	if m.Checker != "" {
		return m.Checker + "." + m.Name
	}
	return m.Name
}

// SpanName returns the deterministic span name for this probe.
// Format: probe.exec.<checker>.<name> or probe.exec.<name>
func (m ProbeMeta) SpanName() string {
	return "probe.exec." + m.ID()
}

func (m ProbeMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("probe.id", m.ID()),
		attribute.String("probe.name", m.Name),
	}
	if m.Checker != "" {
		attrs = append(attrs, attribute.String("probe.checker", m.Checker))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with probe-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for one probe invocation.
	StartSpan(ctx context.Context, meta ProbeMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording the outcome.
	EndSpan(span trace.Span, passed bool, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer wraps an OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

func (t *tracerImpl) StartSpan(ctx context.Context, meta ProbeMeta) (context.Context, trace.Span) {
	attrs := meta.attributes()
	if meta.PID != 0 {
		attrs = append(attrs, attribute.Int("process.pid", meta.PID))
	}
	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (t *tracerImpl) EndSpan(span trace.Span, passed bool, err error) {
	span.SetAttributes(attribute.Bool("probe.passed", passed))
	switch {
	case err != nil:
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	case !passed:
		span.SetStatus(codes.Error, ErrProbeFailed.Error())
	default:
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// NopTracer returns a tracer whose spans are never recorded.
func NopTracer() Tracer {
	return &nopTracer{tracer: tracenoop.NewTracerProvider().Tracer("noop")}
}

type nopTracer struct {
	tracer trace.Tracer
}

func (t *nopTracer) StartSpan(ctx context.Context, meta ProbeMeta) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, meta.SpanName())
}

func (t *nopTracer) EndSpan(span trace.Span, _ bool, _ error) {
	span.End()
}
