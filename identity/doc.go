// Package identity resolves caller credentials to the opaque subject
// strings the admission controller keys quotas on.
//
// The governance pipeline treats subjects as opaque; this package is where
// they come from. Two resolvers are provided: JWT bearer tokens (HMAC or
// RSA signed) and API keys backed by a hashed-key store. A ChainResolver
// tries several in order.
//
// Usage:
//
//	resolver := identity.NewJWTResolver(identity.JWTConfig{
//		Issuer: "https://issuer.example.com",
//	}, identity.NewStaticKeyProvider([]byte("signing-secret")))
//
//	subject, err := resolver.Resolve(ctx, bearerToken)
//	if err != nil {
//		// deny the call
//	}
//	decision, err := limiter.Check(subject.ID, endpoint, quota)
package identity
