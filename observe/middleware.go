package observe

import (
	"context"
	"time"

	"github.com/jonwraymond/providergate/resilience"
)

// CallFunc is the shape of a provider call as the middleware sees it.
type CallFunc func(ctx context.Context, meta CallMeta, request any) (any, error)

// Middleware instruments provider calls with a span, call metrics, and
// one structured log record per call.
//
// Contract:
//   - Concurrency: Wrap() returns a CallFunc safe for concurrent use.
//   - Context: the span context is what the wrapped call receives.
//   - Errors: errors from the wrapped call are recorded and returned unchanged.
//   - Ownership: request and response values pass through untouched.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware assembles a Middleware from its three instruments.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Wrap returns fn instrumented. The span covers the call only; metric
// and log emission happen after it closes.
func (m *Middleware) Wrap(fn CallFunc) CallFunc {
	return func(ctx context.Context, meta CallMeta, request any) (any, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)
		start := time.Now()

		result, err := fn(ctx, meta, request)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordCall(ctx, meta, duration, err)
		m.logCall(ctx, meta, duration, err)

		return result, err
	}
}

// logCall emits one record per call. Raw provider errors stay in the
// log; the classified kind is what downstream dashboards key on.
func (m *Middleware) logCall(ctx context.Context, meta CallMeta, duration time.Duration, err error) {
	logger := m.logger.WithCall(meta)
	fields := []Field{
		{Key: "duration_ms", Value: float64(duration.Milliseconds())},
	}

	if err == nil {
		logger.Info(ctx, "provider call completed", fields...)
		return
	}

	classified := resilience.Classify(err)
	fields = append(fields,
		Field{Key: "error", Value: err.Error()},
		Field{Key: "error.kind", Value: string(classified.Kind)},
		Field{Key: "retryable", Value: classified.Retryable},
	)
	logger.Error(ctx, "provider call failed", fields...)
}

// MiddlewareFromObserver builds a Middleware directly from an
// Observer's tracer, meter, and logger.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(newTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
