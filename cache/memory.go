package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/jonwraymond/providergate/clock"
)

// MemoryConfig configures the in-memory cache.
type MemoryConfig struct {
	// MaxSize bounds the number of entries. Inserting beyond the bound
	// evicts the least-recently-used entry first; an insert never fails
	// because of capacity. Zero means unbounded.
	MaxSize int

	// Clock is the time source. Default: the system clock.
	Clock clock.Clock

	// SweepInterval is how often expired entries are reclaimed eagerly,
	// in addition to the lazy check on access.
	// Default: 1 minute. Negative disables the sweep.
	SweepInterval time.Duration
}

// MemoryCache is an in-memory cache implementation with TTL expiry, tag
// indexing, and LRU capacity eviction.
//
// A MemoryCache must be constructed with NewMemoryCache and released with
// Close.
type MemoryCache struct {
	maxSize int
	clock   clock.Clock

	// mu guards entries, lru, and tags. Reads update recency, so even Get
	// takes the write lock.
	mu      sync.Mutex
	entries map[string]*cacheEntry
	lru     *list.List // front = most recently used
	tags    map[string]map[string]struct{}

	hits    int64
	misses  int64
	sets    int64
	deletes int64

	done      chan struct{}
	closeOnce sync.Once
}

type cacheEntry struct {
	key            string
	value          []byte
	expiresAt      time.Time
	tags           []string
	insertedAt     time.Time
	lastAccessedAt time.Time
	elem           *list.Element
}

// NewMemoryCache creates a new in-memory cache and starts its background
// sweep.
func NewMemoryCache(cfg MemoryConfig) *MemoryCache {
	// Apply defaults
	if cfg.Clock == nil {
		cfg.Clock = clock.NewSystem()
	}
	if cfg.SweepInterval == 0 {
		cfg.SweepInterval = time.Minute
	}

	c := &MemoryCache{
		maxSize: cfg.MaxSize,
		clock:   cfg.Clock,
		entries: make(map[string]*cacheEntry),
		lru:     list.New(),
		tags:    make(map[string]map[string]struct{}),
		done:    make(chan struct{}),
	}

	if cfg.SweepInterval > 0 {
		go c.sweepLoop(cfg.SweepInterval)
	}

	return c
}

// Close stops the background sweep. Idempotent.
func (c *MemoryCache) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

// Get retrieves a value from the cache. Returns (nil, false) on miss or
// expiry. A hit refreshes the entry's recency.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}

	// Expired - clean up lazily
	if !now.Before(entry.expiresAt) {
		c.removeLocked(entry)
		c.misses++
		return nil, false
	}

	entry.lastAccessedAt = now
	c.lru.MoveToFront(entry.elem)
	c.hits++
	return entry.value, true
}

// Set stores a value with the given TTL and optional tags. A TTL <= 0 means
// the value is immediately expired: any existing entry for the key is
// removed and nothing is stored. Re-setting an existing key replaces both
// value and expiry.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration, tags ...string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		if entry, ok := c.entries[key]; ok {
			c.removeLocked(entry)
			c.deletes++
		}
		return nil
	}

	c.sets++

	if entry, ok := c.entries[key]; ok {
		c.untagLocked(entry)
		entry.value = value
		entry.expiresAt = now.Add(ttl)
		entry.tags = tags
		entry.lastAccessedAt = now
		c.tagLocked(entry)
		c.lru.MoveToFront(entry.elem)
		return nil
	}

	// Evict before admitting the new entry so the bound is never exceeded.
	if c.maxSize > 0 {
		for len(c.entries) >= c.maxSize {
			c.evictOldestLocked()
		}
	}

	entry := &cacheEntry{
		key:            key,
		value:          value,
		expiresAt:      now.Add(ttl),
		tags:           tags,
		insertedAt:     now,
		lastAccessedAt: now,
	}
	entry.elem = c.lru.PushFront(entry)
	c.entries[key] = entry
	c.tagLocked(entry)

	return nil
}

// Delete removes a value from the cache. Idempotent - no error on miss.
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		c.removeLocked(entry)
		c.deletes++
	}
	return nil
}

// Has reports whether a live entry exists for the key. Unlike Get it does
// not update recency or the hit/miss counters.
func (c *MemoryCache) Has(_ context.Context, key string) bool {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return false
	}
	if !now.Before(entry.expiresAt) {
		c.removeLocked(entry)
		return false
	}
	return true
}

// DeleteByTag removes every entry carrying the tag in one logical operation
// and returns how many were removed.
func (c *MemoryCache) DeleteByTag(_ context.Context, tag string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys, ok := c.tags[tag]
	if !ok {
		return 0
	}

	removed := 0
	for key := range keys {
		if entry, ok := c.entries[key]; ok {
			c.removeLocked(entry)
			removed++
		}
	}
	c.deletes += int64(removed)
	return removed
}

// KeysByTag returns the keys of live entries carrying the tag.
func (c *MemoryCache) KeysByTag(_ context.Context, tag string) []string {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.tags[tag]))
	for key := range c.tags[tag] {
		entry, ok := c.entries[key]
		if !ok || !now.Before(entry.expiresAt) {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// GetMany retrieves many keys at once. The result contains hits only.
func (c *MemoryCache) GetMany(ctx context.Context, keys []string) map[string][]byte {
	result := make(map[string][]byte, len(keys))
	for _, key := range keys {
		if value, ok := c.Get(ctx, key); ok {
			result[key] = value
		}
	}
	return result
}

// SetMany stores many entries at once. All keys are validated before any
// entry is written.
func (c *MemoryCache) SetMany(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		if err := ValidateKey(e.Key); err != nil {
			return err
		}
	}
	for _, e := range entries {
		if err := c.Set(ctx, e.Key, e.Value, e.TTL, e.Tags...); err != nil {
			return err
		}
	}
	return nil
}

// DeleteMany removes many keys at once and returns how many existed.
func (c *MemoryCache) DeleteMany(_ context.Context, keys []string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for _, key := range keys {
		if entry, ok := c.entries[key]; ok {
			c.removeLocked(entry)
			removed++
		}
	}
	c.deletes += int64(removed)
	return removed
}

// Len returns the number of stored entries, including any not yet swept.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear removes all entries. Counters are unaffected; use ResetStats.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry)
	c.lru.Init()
	c.tags = make(map[string]map[string]struct{})
}

// removeLocked unlinks an entry from the store, the LRU list, and the tag
// index. Must be called with c.mu held.
func (c *MemoryCache) removeLocked(entry *cacheEntry) {
	delete(c.entries, entry.key)
	c.lru.Remove(entry.elem)
	c.untagLocked(entry)
}

// evictOldestLocked removes the least-recently-used entry.
// Must be called with c.mu held.
func (c *MemoryCache) evictOldestLocked() {
	back := c.lru.Back()
	if back == nil {
		return
	}
	c.removeLocked(back.Value.(*cacheEntry))
}

func (c *MemoryCache) tagLocked(entry *cacheEntry) {
	for _, tag := range entry.tags {
		keys, ok := c.tags[tag]
		if !ok {
			keys = make(map[string]struct{})
			c.tags[tag] = keys
		}
		keys[entry.key] = struct{}{}
	}
}

func (c *MemoryCache) untagLocked(entry *cacheEntry) {
	for _, tag := range entry.tags {
		keys, ok := c.tags[tag]
		if !ok {
			continue
		}
		delete(keys, entry.key)
		if len(keys) == 0 {
			delete(c.tags, tag)
		}
	}
}

// sweepLoop periodically reclaims expired entries that may never be read
// again. The lock is held only for the duration of one pass.
func (c *MemoryCache) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

func (c *MemoryCache) sweep() {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range c.entries {
		if !now.Before(entry.expiresAt) {
			c.removeLocked(entry)
		}
	}
}

// Ensure MemoryCache implements Cache
var _ Cache = (*MemoryCache)(nil)
