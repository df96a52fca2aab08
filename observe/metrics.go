package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/providergate/resilience"
)

// Metrics records telemetry for governed provider calls.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordCall records one provider call with its duration and
	// error outcome.
	RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error)
}

// callMetrics maintains a call counter, an error counter labeled by
// taxonomy kind, and a latency histogram.
type callMetrics struct {
	meter        metric.Meter
	totalCount   metric.Int64Counter
	errorCount   metric.Int64Counter
	durationHist metric.Float64Histogram
}

func newMetrics(meter metric.Meter) (*callMetrics, error) {
	m := &callMetrics{meter: meter}

	var err error
	if m.totalCount, err = meter.Int64Counter(
		"provider.call.total",
		metric.WithDescription("Total number of provider calls"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}
	if m.errorCount, err = meter.Int64Counter(
		"provider.call.errors",
		metric.WithDescription("Total number of failed provider calls"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}
	if m.durationHist, err = meter.Float64Histogram(
		"provider.call.duration_ms",
		metric.WithDescription("Provider call duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordCall increments the call counter and records latency for every
// call. Failures additionally bump the error counter with the
// classified error kind, so dashboards can split rate limits from
// provider outages.
func (m *callMetrics) RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("call.subject", meta.Subject),
		attribute.String("call.endpoint", meta.Endpoint),
	}
	if meta.Provider != "" {
		attrs = append(attrs, attribute.String("call.provider", meta.Provider))
	}
	opt := metric.WithAttributes(attrs...)

	m.totalCount.Add(ctx, 1, opt)
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)

	if err != nil {
		errAttrs := append(attrs,
			attribute.String("error.kind", string(resilience.Classify(err).Kind)))
		m.errorCount.Add(ctx, 1, metric.WithAttributes(errAttrs...))
	}
}

type noopMetrics struct{}

func (m *noopMetrics) RecordCall(ctx context.Context, meta CallMeta, duration time.Duration, err error) {
}
