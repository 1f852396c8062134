package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records probe and collector metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordProbe records one probe invocation.
	RecordProbe(ctx context.Context, meta ProbeMeta, duration time.Duration, passed bool)

	// RecordCollection records one collector query. query is "health" or
	// "liveness"; skipped counts unreadable snapshot files.
	RecordCollection(ctx context.Context, query string, contributors, skipped int, ok bool)
}

type metricsImpl struct {
	probeTotal    metric.Int64Counter
	probeFailures metric.Int64Counter
	probeDuration metric.Float64Histogram
	queryTotal    metric.Int64Counter
	skipped       metric.Int64Counter
	contributors  metric.Int64Gauge
}

// NewMetrics creates instruments on meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	probeTotal, err := meter.Int64Counter(
		"probe.exec.total",
		metric.WithDescription("Total number of probe invocations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	probeFailures, err := meter.Int64Counter(
		"probe.exec.failures",
		metric.WithDescription("Total number of failed probe invocations"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	probeDuration, err := meter.Float64Histogram(
		"probe.exec.duration_ms",
		metric.WithDescription("Probe invocation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	queryTotal, err := meter.Int64Counter(
		"collector.query.total",
		metric.WithDescription("Total number of collector queries"),
		metric.WithUnit("{query}"),
	)
	if err != nil {
		return nil, err
	}

	skipped, err := meter.Int64Counter(
		"collector.snapshots.skipped",
		metric.WithDescription("Snapshot files skipped because they could not be read or decoded"),
		metric.WithUnit("{file}"),
	)
	if err != nil {
		return nil, err
	}

	contributors, err := meter.Int64Gauge(
		"collector.snapshots.contributors",
		metric.WithDescription("Snapshots contributing to the last collector query"),
		metric.WithUnit("{snapshot}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		probeTotal:    probeTotal,
		probeFailures: probeFailures,
		probeDuration: probeDuration,
		queryTotal:    queryTotal,
		skipped:       skipped,
		contributors:  contributors,
	}, nil
}

func (m *metricsImpl) RecordProbe(ctx context.Context, meta ProbeMeta, duration time.Duration, passed bool) {
	opt := metric.WithAttributes(meta.attributes()...)

	m.probeTotal.Add(ctx, 1, opt)
	if !passed {
		m.probeFailures.Add(ctx, 1, opt)
	}
	m.probeDuration.Record(ctx, float64(duration)/float64(time.Millisecond), opt)
}

func (m *metricsImpl) RecordCollection(ctx context.Context, query string, contributors, skipped int, ok bool) {
	opt := metric.WithAttributes(
		attribute.String("collector.query", query),
		attribute.Bool("collector.ok", ok),
	)

	m.queryTotal.Add(ctx, 1, opt)
	if skipped > 0 {
		m.skipped.Add(ctx, int64(skipped), metric.WithAttributes(attribute.String("collector.query", query)))
	}
	m.contributors.Record(ctx, int64(contributors), metric.WithAttributes(attribute.String("collector.query", query)))
}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics {
	return nopMetrics{}
}

type nopMetrics struct{}

func (nopMetrics) RecordProbe(context.Context, ProbeMeta, time.Duration, bool) {}

func (nopMetrics) RecordCollection(context.Context, string, int, int, bool) {}
