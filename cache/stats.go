package cache

// Stats are the cache's operation counters.
type Stats struct {
	Hits    int64
	Misses  int64
	Sets    int64
	Deletes int64
	Size    int
}

// Stats returns a snapshot of the cache counters.
func (c *MemoryCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:    c.hits,
		Misses:  c.misses,
		Sets:    c.sets,
		Deletes: c.deletes,
		Size:    len(c.entries),
	}
}

// HitRate returns the hit percentage in [0, 100]. A cache with no reads
// reports 0.
func (c *MemoryCache) HitRate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	reads := c.hits + c.misses
	if reads == 0 {
		return 0
	}
	return float64(c.hits) / float64(reads) * 100
}

// ResetStats zeroes the counters. Stored entries are unaffected.
func (c *MemoryCache) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits = 0
	c.misses = 0
	c.sets = 0
	c.deletes = 0
}
