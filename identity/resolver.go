package identity

import (
	"context"
	"errors"
	"time"
)

// Subject is a resolved caller identity. ID is what the admission
// controller keys quotas on; everything else is advisory.
type Subject struct {
	// ID is the opaque subject string, unique per principal.
	ID string

	// Tenant is the tenant the principal belongs to, when known.
	Tenant string

	// Method names the resolver that produced this subject ("jwt",
	// "api_key").
	Method string

	// ExpiresAt is when the backing credential expires. Zero means no
	// expiry was communicated.
	ExpiresAt time.Time

	// Claims carries resolver-specific detail (token claims, key
	// metadata).
	Claims map[string]any
}

// String returns the subject ID.
func (s Subject) String() string {
	return s.ID
}

// Resolver turns a raw credential into a Subject.
//
// Contract:
//   - Concurrency: implementations are safe for concurrent use.
//   - Errors: resolution failures are sentinel errors from this package,
//     possibly wrapped with detail. Raw credentials never appear in error
//     text.
type Resolver interface {
	// Resolve validates the credential and returns the subject it
	// identifies.
	Resolve(ctx context.Context, credential string) (Subject, error)
}

// ChainResolver tries each resolver in order and returns the first
// successful resolution. A resolver that reports ErrInvalidCredential or
// ErrMissingCredential passes the credential to the next one; any other
// failure stops the chain.
type ChainResolver struct {
	resolvers []Resolver
}

// NewChainResolver creates a ChainResolver over the given resolvers.
func NewChainResolver(resolvers ...Resolver) *ChainResolver {
	return &ChainResolver{resolvers: resolvers}
}

// Resolve tries each resolver in order.
func (c *ChainResolver) Resolve(ctx context.Context, credential string) (Subject, error) {
	for _, r := range c.resolvers {
		subject, err := r.Resolve(ctx, credential)
		if err == nil {
			return subject, nil
		}
		if errors.Is(err, ErrInvalidCredential) || errors.Is(err, ErrMissingCredential) {
			continue
		}
		return Subject{}, err
	}
	return Subject{}, ErrNoResolver
}

var _ Resolver = (*ChainResolver)(nil)
