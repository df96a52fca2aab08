// Package resilience provides failure handling for metered provider calls.
//
// This package implements the patterns that keep a provider integration
// healthy under load and partial outage. The patterns can be composed
// together to build robust invocation pipelines.
//
// # Patterns
//
// The package provides the following resilience patterns:
//
//   - Classification: Maps raw provider failures onto a closed error
//     taxonomy (rate limited, timeout, invalid input, model error, quota
//     exceeded, service unavailable, unknown) with per-kind retryability
//     and generic user-facing messages.
//
//   - Retry: Automatically retries failed operations with configurable
//     backoff strategies (exponential, linear, constant). By default only
//     failures whose classification is retryable trigger another attempt.
//
//   - Timeout: Races each attempt against a deadline so slow provider
//     calls surface as classified timeouts.
//
//   - Circuit Breaker: Prevents cascading failures by stopping requests to
//     failing providers after a threshold is reached.
//
//   - Bulkhead: Limits concurrent in-flight calls to prevent resource
//     exhaustion.
//
// # Usage
//
// Each pattern can be used independently or composed together:
//
//	// Create a circuit breaker
//	cb := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	    MaxFailures:  5,
//	    ResetTimeout: time.Minute,
//	})
//
//	// Create a retry policy
//	retry := resilience.NewRetry(resilience.RetryConfig{
//	    MaxAttempts:  3,
//	    InitialDelay: 100 * time.Millisecond,
//	    MaxDelay:     5 * time.Second,
//	    Multiplier:   2.0,
//	})
//
//	// Compose patterns
//	executor := resilience.NewExecutor(
//	    resilience.WithCircuitBreaker(cb),
//	    resilience.WithRetry(retry),
//	    resilience.WithTimeout(5*time.Second),
//	)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return callProvider(ctx)
//	})
//
//	// Surface a safe message to the caller
//	if err != nil {
//	    classified := resilience.Classify(err)
//	    log.Printf("kind=%s retryable=%t: %s",
//	        classified.Kind, classified.Retryable, classified.UserMessage)
//	}
package resilience
