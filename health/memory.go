package health

import (
	"context"
	"fmt"
	"runtime"
)

// MemoryCheckerConfig configures the process memory probe.
type MemoryCheckerConfig struct {
	// WarningThreshold is the heap usage ratio (0-1) that reports
	// degraded. Default: 0.8
	WarningThreshold float64

	// CriticalThreshold is the heap usage ratio (0-1) that reports
	// unhealthy. Default: 0.95
	CriticalThreshold float64

	// MaxAlloc is the expected heap ceiling in bytes. Zero falls back
	// to the memory obtained from the OS.
	MaxAlloc uint64
}

// MemoryChecker probes process heap usage. Memoized response bodies
// live on the heap, so a gateway running hot on memory usually means
// the cache bound is set too high for the deployment.
type MemoryChecker struct {
	warning  float64
	critical float64
	maxAlloc uint64
}

// NewMemoryChecker creates a memory probe with thresholds per config.
func NewMemoryChecker(config MemoryCheckerConfig) *MemoryChecker {
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold >= 1 {
		config.CriticalThreshold = 0.95
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = config.WarningThreshold + 0.1
		if config.CriticalThreshold > 1 {
			config.CriticalThreshold = 0.99
		}
	}

	return &MemoryChecker{
		warning:  config.WarningThreshold,
		critical: config.CriticalThreshold,
		maxAlloc: config.MaxAlloc,
	}
}

func (m *MemoryChecker) Name() string { return "memory" }

// Check reads runtime memory stats and grades heap usage against the
// configured thresholds.
func (m *MemoryChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	ceiling := m.maxAlloc
	if ceiling == 0 {
		ceiling = stats.Sys
	}
	if ceiling == 0 {
		return Healthy("memory stats unavailable")
	}

	usage := float64(stats.Alloc) / float64(ceiling)

	details := map[string]any{
		"alloc_bytes":   stats.Alloc,
		"ceiling_bytes": ceiling,
		"usage_percent": usage * 100,
		"heap_objects":  stats.HeapObjects,
		"num_gc":        stats.NumGC,
		"goroutines":    runtime.NumGoroutine(),
	}

	switch {
	case usage >= m.critical:
		return Unhealthy(
			fmt.Sprintf("memory usage critical: %.1f%%", usage*100),
			ErrCheckFailed,
		).WithDetails(details)
	case usage >= m.warning:
		return Degraded(
			fmt.Sprintf("memory usage high: %.1f%%", usage*100),
		).WithDetails(details)
	default:
		return Healthy(
			fmt.Sprintf("memory usage normal: %.1f%%", usage*100),
		).WithDetails(details)
	}
}
