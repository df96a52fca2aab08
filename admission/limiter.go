package admission

import (
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/providergate/clock"
)

// shardCount is the number of lock shards. Must be a power of two.
const shardCount = 32

// keySep separates subject and endpoint in record keys. It cannot appear in
// either component without corrupting pair isolation, so Check rejects it.
const keySep = "\x1f"

// LimiterConfig configures the limiter.
type LimiterConfig struct {
	// Clock is the time source. Default: the system clock.
	Clock clock.Clock

	// SweepInterval is how often stale records are reclaimed.
	// Default: 1 minute. Negative disables the sweep.
	SweepInterval time.Duration
}

// record holds quota state for one (subject, endpoint) pair. All fields are
// protected by the owning shard's mutex.
type record struct {
	subject  string
	endpoint string

	// timestamps of allowed calls within the window, oldest first.
	timestamps []time.Time

	// blockedUntil denies all calls while in the future. Zero when unblocked.
	blockedUntil time.Time

	// Last-seen config, retained so statistics can compute current usage.
	window time.Duration
	max    int

	total   int64
	allowed int64
	denied  int64
}

// prune drops timestamps outside [now - window, now]. Timestamps are
// appended in order, so only a prefix can be stale.
func (r *record) prune(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	idx := 0
	for idx < len(r.timestamps) && !r.timestamps[idx].After(cutoff) {
		idx++
	}
	if idx > 0 {
		r.timestamps = append(r.timestamps[:0], r.timestamps[idx:]...)
	}
}

type shard struct {
	mu      sync.Mutex
	records map[string]*record
}

// Limiter is a sliding window log admission controller keyed by
// (subject, endpoint). Check fuses the admission decision and the commit of
// the call instant into one atomic operation per key.
//
// A Limiter must be constructed with NewLimiter and released with Close.
type Limiter struct {
	clock  clock.Clock
	shards [shardCount]shard

	// Process-wide counters, reset by ResetStats.
	checks  atomic.Int64
	allowed atomic.Int64
	denied  atomic.Int64

	done      chan struct{}
	closeOnce sync.Once
}

// NewLimiter creates a new limiter and starts its background sweep.
func NewLimiter(cfg LimiterConfig) *Limiter {
	// Apply defaults
	if cfg.Clock == nil {
		cfg.Clock = clock.NewSystem()
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = time.Minute
	}

	l := &Limiter{
		clock: cfg.Clock,
		done:  make(chan struct{}),
	}
	for i := range l.shards {
		l.shards[i].records = make(map[string]*record)
	}

	if cfg.SweepInterval > 0 {
		go l.sweepLoop(cfg.SweepInterval)
	}

	return l
}

// Close stops the background sweep. Idempotent.
func (l *Limiter) Close() {
	l.closeOnce.Do(func() {
		close(l.done)
	})
}

// Check decides whether a call for the given pair may proceed right now and,
// if so, commits it in the same critical section. The decision order is:
// active cooldown, then window occupancy. A denial never mutates the
// timestamp log. A violation starts a cooldown of cfg.BlockDuration during
// which all calls for the pair are denied regardless of occupancy.
func (l *Limiter) Check(subject, endpoint string, cfg Config) (Decision, error) {
	if err := validatePair(subject, endpoint); err != nil {
		return Decision{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Decision{}, err
	}
	cfg = cfg.withDefaults()

	now := l.clock.Now()
	sh := l.shard(subject, endpoint)

	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec := sh.lookup(subject, endpoint)
	rec.window = cfg.Window
	rec.max = cfg.MaxRequests
	rec.total++
	l.checks.Add(1)

	// Active cooldown denies without touching the log.
	if !rec.blockedUntil.IsZero() && now.Before(rec.blockedUntil) {
		rec.denied++
		l.denied.Add(1)
		return Decision{
			Allowed:    false,
			ResetAt:    rec.blockedUntil,
			RetryAfter: rec.blockedUntil.Sub(now),
		}, nil
	}
	rec.blockedUntil = time.Time{}

	rec.prune(now, cfg.Window)

	if len(rec.timestamps) >= cfg.MaxRequests {
		rec.blockedUntil = now.Add(cfg.BlockDuration)
		rec.denied++
		l.denied.Add(1)
		return Decision{
			Allowed:    false,
			ResetAt:    rec.blockedUntil,
			RetryAfter: cfg.BlockDuration,
		}, nil
	}

	rec.timestamps = append(rec.timestamps, now)
	rec.allowed++
	l.allowed.Add(1)

	return Decision{
		Allowed:   true,
		Remaining: cfg.MaxRequests - len(rec.timestamps),
		ResetAt:   rec.timestamps[0].Add(cfg.Window),
	}, nil
}

// Reset discards all quota state for one pair, including any cooldown.
func (l *Limiter) Reset(subject, endpoint string) {
	sh := l.shard(subject, endpoint)
	sh.mu.Lock()
	delete(sh.records, subject+keySep+endpoint)
	sh.mu.Unlock()
}

// ClearAll discards all quota state for all pairs. Process-wide counters
// are unaffected; use ResetStats for those.
func (l *Limiter) ClearAll() {
	for i := range l.shards {
		sh := &l.shards[i]
		sh.mu.Lock()
		sh.records = make(map[string]*record)
		sh.mu.Unlock()
	}
}

func (l *Limiter) shard(subject, endpoint string) *shard {
	h := fnv.New32a()
	h.Write([]byte(subject))
	h.Write([]byte(keySep))
	h.Write([]byte(endpoint))
	return &l.shards[h.Sum32()&(shardCount-1)]
}

// lookup returns the record for the pair, creating it lazily.
// Must be called with the shard's mutex held.
func (sh *shard) lookup(subject, endpoint string) *record {
	key := subject + keySep + endpoint
	rec, ok := sh.records[key]
	if !ok {
		rec = &record{subject: subject, endpoint: endpoint}
		sh.records[key] = rec
	}
	return rec
}

func validatePair(subject, endpoint string) error {
	if subject == "" || strings.Contains(subject, keySep) {
		return ErrInvalidSubject
	}
	if endpoint == "" || strings.Contains(endpoint, keySep) {
		return ErrInvalidEndpoint
	}
	return nil
}

// sweepLoop periodically removes records with no live timestamps and no
// active cooldown. Each shard is locked only long enough to scan its own
// records.
func (l *Limiter) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

func (l *Limiter) sweep() {
	now := l.clock.Now()
	for i := range l.shards {
		sh := &l.shards[i]
		sh.mu.Lock()
		for key, rec := range sh.records {
			if !rec.blockedUntil.IsZero() && now.Before(rec.blockedUntil) {
				continue
			}
			rec.prune(now, rec.window)
			if len(rec.timestamps) == 0 {
				delete(sh.records, key)
			}
		}
		sh.mu.Unlock()
	}
}
