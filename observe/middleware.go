package observe

import (
	"context"
	"time"
)

// ProbeFunc is the signature of one instrumented probe invocation.
// err carries a captured failure (panic, timeout or probe error); a probe can
// also fail with passed=false and a nil err.
type ProbeFunc func(ctx context.Context, meta ProbeMeta) (passed bool, output any, err error)

// Middleware wraps probe invocations with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe ProbeFunc.
//   - Context: Propagates context through tracing spans.
//   - Ownership: outputs are passed through without modification.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
// Nil components are replaced with no-ops.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	if tracer == nil {
		tracer = NopTracer()
	}
	if metrics == nil {
		metrics = NopMetrics()
	}
	if logger == nil {
		logger = NopLogger()
	}
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Logger returns the logger the middleware writes to.
func (m *Middleware) Logger() Logger {
	return m.logger
}

// Metrics returns the metrics sink the middleware records to.
func (m *Middleware) Metrics() Metrics {
	return m.metrics
}

// Wrap wraps fn with a span, metrics and a log line per invocation.
// Passing probes log at debug, failing probes at error.
func (m *Middleware) Wrap(fn ProbeFunc) ProbeFunc {
	return func(ctx context.Context, meta ProbeMeta) (bool, any, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)

		start := time.Now()
		passed, output, err := fn(ctx, meta)
		duration := time.Since(start)

		m.tracer.EndSpan(span, passed, err)
		m.metrics.RecordProbe(ctx, meta, duration, passed)

		fields := []Field{
			{Key: "probe", Value: meta.ID()},
			{Key: "duration_ms", Value: float64(duration) / float64(time.Millisecond)},
		}
		if passed {
			m.logger.Debug(ctx, "health check passed", fields...)
		} else {
			fields = append(fields, Field{Key: "output", Value: output})
			if err != nil {
				fields = append(fields, ErrorField(err))
			}
			m.logger.Error(ctx, "health check failed", fields...)
		}

		return passed, output, err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
