package admission

// Stats describes admission activity for one (subject, endpoint) pair.
type Stats struct {
	// TotalRequests is the number of checks performed for the pair.
	TotalRequests int64

	// AllowedRequests is the number of checks that were admitted.
	AllowedRequests int64

	// BlockedRequests is the number of checks that were denied.
	BlockedRequests int64

	// BlockRate is BlockedRequests / TotalRequests, in [0, 1].
	BlockRate float64

	// CurrentUsage is the number of live timestamps in the window.
	CurrentUsage int

	// RemainingRequests is the window capacity left, per the most recent
	// config seen for the pair.
	RemainingRequests int
}

// GlobalStats aggregates admission activity for one endpoint across all
// subjects.
type GlobalStats struct {
	TotalUsers             int
	TotalRequests          int64
	AllowedRequests        int64
	BlockedRequests        int64
	AverageRequestsPerUser float64
}

// Counters are the process-wide admission counters.
type Counters struct {
	TotalChecks int64
	Allowed     int64
	Denied      int64
}

// Stats returns activity for one pair. A pair that has never been checked
// reports zeroes.
func (l *Limiter) Stats(subject, endpoint string) Stats {
	sh := l.shard(subject, endpoint)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec, ok := sh.records[subject+keySep+endpoint]
	if !ok {
		return Stats{}
	}

	rec.prune(l.clock.Now(), rec.window)

	s := Stats{
		TotalRequests:     rec.total,
		AllowedRequests:   rec.allowed,
		BlockedRequests:   rec.denied,
		CurrentUsage:      len(rec.timestamps),
		RemainingRequests: rec.max - len(rec.timestamps),
	}
	if s.RemainingRequests < 0 {
		s.RemainingRequests = 0
	}
	if rec.total > 0 {
		s.BlockRate = float64(rec.denied) / float64(rec.total)
	}
	return s
}

// GlobalStats returns activity for one endpoint aggregated over all subjects
// with live records.
func (l *Limiter) GlobalStats(endpoint string) GlobalStats {
	var g GlobalStats
	for i := range l.shards {
		sh := &l.shards[i]
		sh.mu.Lock()
		for _, rec := range sh.records {
			if rec.endpoint != endpoint {
				continue
			}
			g.TotalUsers++
			g.TotalRequests += rec.total
			g.AllowedRequests += rec.allowed
			g.BlockedRequests += rec.denied
		}
		sh.mu.Unlock()
	}
	if g.TotalUsers > 0 {
		g.AverageRequestsPerUser = float64(g.TotalRequests) / float64(g.TotalUsers)
	}
	return g
}

// Counters returns the process-wide check counters.
func (l *Limiter) Counters() Counters {
	return Counters{
		TotalChecks: l.checks.Load(),
		Allowed:     l.allowed.Load(),
		Denied:      l.denied.Load(),
	}
}

// ResetStats zeroes the process-wide counters and every pair's counters.
// Quota state (timestamps, cooldowns) is untouched.
func (l *Limiter) ResetStats() {
	l.checks.Store(0)
	l.allowed.Store(0)
	l.denied.Store(0)
	for i := range l.shards {
		sh := &l.shards[i]
		sh.mu.Lock()
		for _, rec := range sh.records {
			rec.total = 0
			rec.allowed = 0
			rec.denied = 0
		}
		sh.mu.Unlock()
	}
}
