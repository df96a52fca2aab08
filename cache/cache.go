package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilCache      = errors.New("cache: cache is nil")
	ErrInvalidKey    = errors.New("cache: key is invalid")
	ErrKeyTooLong    = errors.New("cache: key exceeds max length")
	ErrCyclicPayload = errors.New("cache: payload contains a reference cycle")
)

// Entry is one key/value pair for batch writes.
type Entry struct {
	Key   string
	Value []byte
	TTL   time.Duration
	Tags  []string
}

// Cache is the interface for memoizing provider responses.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods should honor cancellation/deadlines where applicable.
// - Errors: Get should never error; it returns (nil, false) on miss.
// - TTL: a TTL <= 0 means the value is immediately expired (never cached).
type Cache interface {
	// Get retrieves a cached value. Returns (nil, false) on miss or expiry.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores a value with the given TTL and optional tags. A TTL <= 0
	// removes any existing entry for the key instead of storing.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) error

	// Delete removes a cached value. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error

	// Has reports whether a live (unexpired) entry exists for the key
	// without updating its recency.
	Has(ctx context.Context, key string) bool

	// DeleteByTag removes every entry carrying the tag and returns how
	// many were removed.
	DeleteByTag(ctx context.Context, tag string) int

	// KeysByTag returns the keys of live entries carrying the tag.
	KeysByTag(ctx context.Context, tag string) []string

	// GetMany retrieves many keys at once. The result contains hits only.
	GetMany(ctx context.Context, keys []string) map[string][]byte

	// SetMany stores many entries at once. Keys are validated before any
	// entry is written, so an invalid key leaves the store untouched.
	SetMany(ctx context.Context, entries []Entry) error

	// DeleteMany removes many keys at once and returns how many existed.
	DeleteMany(ctx context.Context, keys []string) int
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
