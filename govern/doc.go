// Package govern composes admission control, response memoization, and
// resilient invocation into a single pipeline for calls to a metered
// provider.
//
// A Governor runs one logical request end to end: look up the memoized
// response, and on a miss check the admission quota, invoke the provider
// under the configured resilience patterns, then store the response for the
// next caller. Concurrent requests with the same canonical key are coalesced
// so that only one provider call is in flight per key.
//
// Usage:
//
//	gov := govern.NewGovernor(govern.Config{
//		Cache:   cache.NewMemoryCache(cache.MemoryConfig{MaxSize: 10000}),
//		Limiter: admission.NewLimiter(admission.LimiterConfig{}),
//		Quota:   admission.Config{Window: time.Minute, MaxRequests: 60},
//	})
//	defer gov.Shutdown()
//
//	result, err := gov.Execute(ctx, observe.CallMeta{
//		Subject:  "user-42",
//		Endpoint: "chat.completions",
//	}, request, providerFn)
//
// Admission denials are reported as ErrDenied with the wait hint in
// Result.RetryAfter; they are backpressure, not provider failures. Provider
// failures surface as classified errors from the resilience package, with
// generic user-facing messages.
package govern
