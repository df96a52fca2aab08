package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"
)

// BackoffStrategy selects how the wait between attempts grows.
type BackoffStrategy int

const (
	// BackoffExponential multiplies the delay each attempt.
	BackoffExponential BackoffStrategy = iota
	// BackoffLinear grows the delay by the initial delay each attempt.
	BackoffLinear
	// BackoffConstant waits the same delay every attempt.
	BackoffConstant
)

// RetryConfig configures retries of failed provider calls.
type RetryConfig struct {
	// MaxAttempts is the total attempt budget, the first call included.
	// Default: 3
	MaxAttempts int

	// InitialDelay is the wait before the first retry. Default: 100ms
	InitialDelay time.Duration

	// MaxDelay caps the wait between attempts. Default: 30s
	MaxDelay time.Duration

	// Multiplier scales the exponential backoff. Default: 2.0
	Multiplier float64

	// Strategy picks the backoff curve. Default: BackoffExponential
	Strategy BackoffStrategy

	// Jitter spreads retry timing so that callers denied together do
	// not come back together. Default: true
	Jitter bool

	// RetryIf decides whether an error is worth another attempt.
	// Default: only failures whose classification is retryable
	// (rate limited, timeout, service unavailable) trigger a retry.
	RetryIf func(err error) bool

	// OnRetry is called before each retry with the attempt number that
	// just failed, its error, and the upcoming wait.
	OnRetry func(attempt int, err error, delay time.Duration)
}

// Retry re-runs failed provider calls under a bounded attempt budget.
type Retry struct {
	config RetryConfig
}

// NewRetry creates a retry handler with defaults applied.
func NewRetry(config RetryConfig) *Retry {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.InitialDelay <= 0 {
		config.InitialDelay = 100 * time.Millisecond
	}
	if config.MaxDelay <= 0 {
		config.MaxDelay = 30 * time.Second
	}
	if config.Multiplier <= 0 {
		config.Multiplier = 2.0
	}
	if config.RetryIf == nil {
		config.RetryIf = IsRetryable
	}

	return &Retry{config: config}
}

// Execute runs op until it succeeds, fails non-retryably, exhausts the
// attempt budget, or the caller's context ends. The returned error is
// always the most recent provider error, never a retry bookkeeping
// error, except when the context ends mid-wait.
func (r *Retry) Execute(ctx context.Context, op func(context.Context) error) error {
	var lastErr error

	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if !r.config.RetryIf(err) {
			return err
		}
		if attempt == r.config.MaxAttempts {
			break
		}

		delay := r.backoffDelay(attempt)
		if r.config.OnRetry != nil {
			r.config.OnRetry(attempt, err, delay)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	return lastErr
}

// Config returns the applied configuration.
func (r *Retry) Config() RetryConfig {
	return r.config
}

// backoffDelay computes the wait after the given failed attempt.
func (r *Retry) backoffDelay(attempt int) time.Duration {
	var delay time.Duration
	switch r.config.Strategy {
	case BackoffConstant:
		delay = r.config.InitialDelay
	case BackoffLinear:
		delay = r.config.InitialDelay * time.Duration(attempt)
	case BackoffExponential:
		delay = time.Duration(float64(r.config.InitialDelay) * math.Pow(r.config.Multiplier, float64(attempt-1)))
	}

	if r.config.Jitter && delay > 0 {
		// Up to 25% extra, so synchronized retriers fan out.
		// #nosec G404 -- jitter is non-cryptographic timing variance.
		delay += time.Duration(rand.Int64N(int64(delay / 4)))
	}

	if delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}
	return delay
}
