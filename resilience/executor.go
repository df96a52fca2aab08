package resilience

import (
	"context"
	"time"
)

// Executor layers the configured resilience patterns around one
// provider call. Unconfigured layers are skipped.
//
// Layering, outermost first:
//
//	bulkhead -> circuit breaker -> retry -> timeout -> provider
//
// The timeout sits inside the retry so each attempt gets a fresh
// budget, and the circuit breaker sits outside the retry so one
// exhausted retry budget counts as a single failure.
type Executor struct {
	circuitBreaker *CircuitBreaker
	retry          *Retry
	bulkhead       *Bulkhead
	timeout        *Timeout
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor builds an executor from the given layers. With no
// options it runs calls straight through.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCircuitBreaker adds a circuit breaker layer.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) { e.circuitBreaker = cb }
}

// WithRetry adds a retry layer.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) { e.retry = r }
}

// WithBulkhead adds a concurrency isolation layer.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) { e.bulkhead = b }
}

// WithTimeout adds a per-attempt timeout layer.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = NewTimeout(TimeoutConfig{Timeout: timeout})
	}
}

// WithTimeoutConfig adds a preconfigured timeout layer.
func WithTimeoutConfig(t *Timeout) ExecutorOption {
	return func(e *Executor) { e.timeout = t }
}

// Execute runs op through every configured layer.
func (e *Executor) Execute(ctx context.Context, op func(context.Context) error) error {
	call := op

	// Assemble inside out so the declared layering holds.
	if e.timeout != nil {
		call = wrap(e.timeout, call)
	}
	if e.retry != nil {
		call = wrap(e.retry, call)
	}
	if e.circuitBreaker != nil {
		call = wrap(e.circuitBreaker, call)
	}
	if e.bulkhead != nil {
		call = wrap(e.bulkhead, call)
	}

	return call(ctx)
}

// layer is any resilience pattern that can wrap a call.
type layer interface {
	Execute(ctx context.Context, op func(context.Context) error) error
}

func wrap(l layer, inner func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) error {
		return l.Execute(ctx, inner)
	}
}
