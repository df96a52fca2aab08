package resilience

import (
	"context"
	"sync"
	"time"
)

// BulkheadConfig configures concurrency isolation for provider calls.
type BulkheadConfig struct {
	// MaxConcurrent caps how many provider calls may be in flight at
	// once. Default: 10
	MaxConcurrent int

	// MaxWait is how long Acquire blocks for a free slot before giving
	// up. Default: 0 (reject immediately when saturated)
	MaxWait time.Duration
}

// Bulkhead caps the number of in-flight provider calls so a slow
// upstream cannot absorb every goroutine in the process.
//
// Contract:
//   - Acquire either grants a slot or returns ErrBulkheadFull; it never
//     grants more than MaxConcurrent slots.
//   - Every successful Acquire must be paired with exactly one Release.
//   - Execute handles the pairing itself and is the preferred entry point.
type Bulkhead struct {
	maxConcurrent int
	maxWait       time.Duration
	slots         chan struct{}

	mu       sync.Mutex
	inFlight int
	peak     int
	rejected int64
}

// NewBulkhead creates a bulkhead sized per config.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = 10
	}

	return &Bulkhead{
		maxConcurrent: config.MaxConcurrent,
		maxWait:       config.MaxWait,
		slots:         make(chan struct{}, config.MaxConcurrent),
	}
}

// Acquire claims a call slot, waiting up to MaxWait when the bulkhead
// is saturated. Returns ErrBulkheadFull when no slot frees up in time,
// or ctx.Err() if the caller gives up first.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.slots <- struct{}{}:
		b.noteAcquired()
		return nil
	default:
	}

	if b.maxWait <= 0 {
		b.noteRejected()
		return ErrBulkheadFull
	}

	deadline := time.NewTimer(b.maxWait)
	defer deadline.Stop()

	select {
	case b.slots <- struct{}{}:
		b.noteAcquired()
		return nil
	case <-deadline.C:
		b.noteRejected()
		return ErrBulkheadFull
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot claimed by Acquire.
func (b *Bulkhead) Release() {
	select {
	case <-b.slots:
		b.mu.Lock()
		b.inFlight--
		b.mu.Unlock()
	default:
		// Release without a matching Acquire; nothing to return.
	}
}

// Execute runs one provider call inside a slot, releasing it when the
// call returns.
func (b *Bulkhead) Execute(ctx context.Context, op func(context.Context) error) error {
	if err := b.Acquire(ctx); err != nil {
		return err
	}
	defer b.Release()

	return op(ctx)
}

// Metrics reports a snapshot of bulkhead occupancy.
func (b *Bulkhead) Metrics() BulkheadMetrics {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BulkheadMetrics{
		Active:        b.inFlight,
		MaxActive:     b.peak,
		Available:     b.maxConcurrent - b.inFlight,
		MaxConcurrent: b.maxConcurrent,
		Rejected:      b.rejected,
	}
}

func (b *Bulkhead) noteAcquired() {
	b.mu.Lock()
	b.inFlight++
	if b.inFlight > b.peak {
		b.peak = b.inFlight
	}
	b.mu.Unlock()
}

func (b *Bulkhead) noteRejected() {
	b.mu.Lock()
	b.rejected++
	b.mu.Unlock()
}

// BulkheadMetrics describes bulkhead occupancy at a point in time.
type BulkheadMetrics struct {
	Active        int
	MaxActive     int
	Available     int
	MaxConcurrent int
	Rejected      int64
}
