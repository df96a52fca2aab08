package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// KeyInfo describes a registered API key. Keys are stored by hash; the
// plaintext key never enters the store.
type KeyInfo struct {
	// SubjectID is the subject this key resolves to.
	SubjectID string

	// Tenant is the tenant the key belongs to.
	Tenant string

	// ExpiresAt is when this key stops working. Zero means never.
	ExpiresAt time.Time

	// Metadata carries additional key detail, surfaced as subject claims.
	Metadata map[string]any
}

// KeyStore looks up API keys by their SHA-256 hash.
type KeyStore interface {
	// Lookup returns the key info for the given hash, or nil when the
	// hash is unknown.
	Lookup(ctx context.Context, keyHash string) (*KeyInfo, error)
}

// APIKeyResolver resolves API keys to subjects.
type APIKeyResolver struct {
	store KeyStore
}

// NewAPIKeyResolver creates an API key resolver over the given store.
func NewAPIKeyResolver(store KeyStore) *APIKeyResolver {
	return &APIKeyResolver{store: store}
}

// Resolve hashes the key and looks it up.
func (r *APIKeyResolver) Resolve(ctx context.Context, credential string) (Subject, error) {
	credential = strings.TrimSpace(credential)
	if credential == "" {
		return Subject{}, ErrMissingCredential
	}

	info, err := r.store.Lookup(ctx, HashKey(credential))
	if err != nil {
		return Subject{}, err
	}
	if info == nil {
		return Subject{}, ErrInvalidCredential
	}
	if !info.ExpiresAt.IsZero() && time.Now().After(info.ExpiresAt) {
		return Subject{}, ErrExpiredCredential
	}
	if info.SubjectID == "" {
		return Subject{}, ErrNoSubject
	}

	subject := Subject{
		ID:        info.SubjectID,
		Tenant:    info.Tenant,
		Method:    "api_key",
		ExpiresAt: info.ExpiresAt,
	}
	if info.Metadata != nil {
		subject.Claims = make(map[string]any, len(info.Metadata))
		for k, v := range info.Metadata {
			subject.Claims[k] = v
		}
	}
	return subject, nil
}

// HashKey hashes an API key for storage and lookup.
func HashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// MemoryKeyStore is an in-memory KeyStore.
type MemoryKeyStore struct {
	mu   sync.RWMutex
	keys map[string]*KeyInfo
}

// NewMemoryKeyStore creates an empty in-memory key store.
func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{keys: make(map[string]*KeyInfo)}
}

// Lookup returns the key info for the given hash.
func (s *MemoryKeyStore) Lookup(_ context.Context, keyHash string) (*KeyInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.keys[keyHash], nil
}

// Add registers a key by its plaintext value.
func (s *MemoryKeyStore) Add(key string, info *KeyInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys[HashKey(key)] = info
}

// Remove deletes a key by its plaintext value.
func (s *MemoryKeyStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, HashKey(key))
}

var (
	_ Resolver = (*APIKeyResolver)(nil)
	_ KeyStore = (*MemoryKeyStore)(nil)
)
