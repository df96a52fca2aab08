package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/providergate/admission"
	"github.com/jonwraymond/providergate/cache"
)

// CacheCheckerConfig configures the memoizer health checker.
type CacheCheckerConfig struct {
	// MaxSize is the cache's configured capacity. Occupancy thresholds are
	// relative to it. Zero disables occupancy checking (unbounded cache).
	MaxSize int

	// WarningOccupancy is the occupancy ratio that triggers degraded
	// status. Value should be between 0 and 1. Default: 0.8 (80%)
	WarningOccupancy float64

	// CriticalOccupancy is the occupancy ratio that triggers unhealthy
	// status. Value should be between 0 and 1. Default: 0.95 (95%)
	CriticalOccupancy float64
}

// CacheChecker reports on the response memoizer: occupancy against its
// capacity, plus hit-rate counters in the details.
type CacheChecker struct {
	store  *cache.MemoryCache
	config CacheCheckerConfig
}

// NewCacheChecker creates a checker over the given memoizer.
func NewCacheChecker(store *cache.MemoryCache, config CacheCheckerConfig) *CacheChecker {
	if config.WarningOccupancy <= 0 || config.WarningOccupancy >= 1 {
		config.WarningOccupancy = 0.8
	}
	if config.CriticalOccupancy <= 0 || config.CriticalOccupancy > 1 {
		config.CriticalOccupancy = 0.95
	}
	if config.CriticalOccupancy < config.WarningOccupancy {
		config.CriticalOccupancy = config.WarningOccupancy
	}

	return &CacheChecker{store: store, config: config}
}

// Name returns the name of this checker.
func (c *CacheChecker) Name() string {
	return "cache"
}

// Check performs the memoizer health check.
func (c *CacheChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	if c.store == nil {
		return Unhealthy("cache not configured", ErrCheckFailed)
	}

	stats := c.store.Stats()
	details := map[string]any{
		"size":     stats.Size,
		"hits":     stats.Hits,
		"misses":   stats.Misses,
		"sets":     stats.Sets,
		"deletes":  stats.Deletes,
		"hit_rate": c.store.HitRate(),
	}

	if c.config.MaxSize <= 0 {
		return Healthy(fmt.Sprintf("cache holds %d entries", stats.Size)).WithDetails(details)
	}

	occupancy := float64(stats.Size) / float64(c.config.MaxSize)
	details["max_size"] = c.config.MaxSize
	details["occupancy_percent"] = occupancy * 100

	if occupancy >= c.config.CriticalOccupancy {
		return Unhealthy(
			fmt.Sprintf("cache occupancy critical: %.1f%%", occupancy*100),
			ErrCheckFailed,
		).WithDetails(details)
	}
	if occupancy >= c.config.WarningOccupancy {
		return Degraded(
			fmt.Sprintf("cache occupancy high: %.1f%%", occupancy*100),
		).WithDetails(details)
	}
	return Healthy(
		fmt.Sprintf("cache occupancy normal: %.1f%%", occupancy*100),
	).WithDetails(details)
}

// AdmissionCheckerConfig configures the admission health checker.
type AdmissionCheckerConfig struct {
	// WarningBlockRate is the process-wide denial ratio that triggers
	// degraded status. Value should be between 0 and 1. Default: 0.2
	WarningBlockRate float64

	// CriticalBlockRate is the denial ratio that triggers unhealthy
	// status. Value should be between 0 and 1. Default: 0.5
	CriticalBlockRate float64

	// MinChecks is how many checks must have been seen before the block
	// rate is judged at all. Below it the checker reports healthy.
	// Default: 10
	MinChecks int64
}

// AdmissionChecker reports on the admission controller: a sustained high
// denial rate means quotas are too tight or callers are hammering.
type AdmissionChecker struct {
	limiter *admission.Limiter
	config  AdmissionCheckerConfig
}

// NewAdmissionChecker creates a checker over the given limiter.
func NewAdmissionChecker(limiter *admission.Limiter, config AdmissionCheckerConfig) *AdmissionChecker {
	if config.WarningBlockRate <= 0 || config.WarningBlockRate >= 1 {
		config.WarningBlockRate = 0.2
	}
	if config.CriticalBlockRate <= 0 || config.CriticalBlockRate > 1 {
		config.CriticalBlockRate = 0.5
	}
	if config.CriticalBlockRate < config.WarningBlockRate {
		config.CriticalBlockRate = config.WarningBlockRate
	}
	if config.MinChecks <= 0 {
		config.MinChecks = 10
	}

	return &AdmissionChecker{limiter: limiter, config: config}
}

// Name returns the name of this checker.
func (c *AdmissionChecker) Name() string {
	return "admission"
}

// Check performs the admission health check.
func (c *AdmissionChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	if c.limiter == nil {
		return Unhealthy("limiter not configured", ErrCheckFailed)
	}

	counters := c.limiter.Counters()
	details := map[string]any{
		"total_checks": counters.TotalChecks,
		"allowed":      counters.Allowed,
		"denied":       counters.Denied,
	}

	if counters.TotalChecks < c.config.MinChecks {
		return Healthy("not enough admission activity to judge").WithDetails(details)
	}

	blockRate := float64(counters.Denied) / float64(counters.TotalChecks)
	details["block_rate"] = blockRate

	if blockRate >= c.config.CriticalBlockRate {
		return Unhealthy(
			fmt.Sprintf("admission block rate critical: %.1f%%", blockRate*100),
			ErrCheckFailed,
		).WithDetails(details)
	}
	if blockRate >= c.config.WarningBlockRate {
		return Degraded(
			fmt.Sprintf("admission block rate high: %.1f%%", blockRate*100),
		).WithDetails(details)
	}
	return Healthy(
		fmt.Sprintf("admission block rate normal: %.1f%%", blockRate*100),
	).WithDetails(details)
}
