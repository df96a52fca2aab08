// Package health provides health checking over the call-governance layer.
//
// This package implements a generic health checking framework plus checkers
// for the governance components: the response memoizer (occupancy and hit
// rate) and the admission controller (process-wide block rate). It provides
// interfaces for defining health checks, aggregating results from multiple
// checkers, and exposing health status via HTTP endpoints.
//
// # Core Concepts
//
// A Checker is any component that can report its health status. The Status
// type represents the health state: Healthy, Degraded, or Unhealthy.
//
// # Basic Usage
//
//	// Check the memoizer's occupancy
//	cacheCheck := health.NewCacheChecker(store, health.CacheCheckerConfig{
//	    MaxSize:           10000,
//	    WarningOccupancy:  0.80,
//	    CriticalOccupancy: 0.95,
//	})
//
//	result := cacheCheck.Check(ctx)
//	if result.Status == health.StatusUnhealthy {
//	    log.Printf("Cache critical: %s", result.Message)
//	}
//
// # Aggregating Health Checks
//
// Use Aggregator to combine multiple health checks into a single composite check:
//
//	agg := health.NewAggregator()
//	agg.Register("memory", health.NewMemoryChecker(health.MemoryCheckerConfig{}))
//	agg.Register("cache", cacheChecker)
//	agg.Register("admission", admissionChecker)
//
//	// Check all components
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
//
// # HTTP Endpoints
//
// The package provides HTTP handlers for common health check patterns:
//
//	// Liveness probe (for Kubernetes)
//	http.Handle("/healthz", health.LivenessHandler())
//
//	// Readiness probe with component checks
//	http.Handle("/readyz", health.ReadinessHandler(aggregator))
//
//	// Detailed health status
//	http.Handle("/health", health.DetailedHandler(aggregator))
package health
