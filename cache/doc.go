// Package cache provides response memoization for provider calls.
//
// It provides a Cache interface with an in-memory implementation, SHA-256
// key derivation over canonicalized request payloads, TTL policies,
// tag-based grouped invalidation, and LRU capacity eviction.
package cache
