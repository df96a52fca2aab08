package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTConfig configures the JWT resolver.
type JWTConfig struct {
	// Issuer is the expected token issuer (iss claim). Empty skips the
	// check.
	Issuer string

	// Audience is the expected token audience (aud claim). Empty skips
	// the check.
	Audience string

	// SubjectClaim is the claim carrying the subject ID.
	// Default: "sub"
	SubjectClaim string

	// TenantClaim is the claim carrying the tenant ID. Empty skips tenant
	// extraction.
	TenantClaim string

	// TokenPrefix is stripped from the credential before parsing, so
	// "Bearer <token>" header values resolve directly.
	// Default: "Bearer "
	TokenPrefix string
}

// KeyProvider retrieves verification keys for JWT validation.
type KeyProvider interface {
	// Key returns the verification key for the given key ID. An empty
	// keyID means the token carried no kid header.
	Key(ctx context.Context, keyID string) (any, error)
}

// StaticKeyProvider serves one fixed key regardless of key ID. For HMAC
// tokens pass the shared secret as []byte; for RSA pass the *rsa.PublicKey.
type StaticKeyProvider struct {
	key any
}

// NewStaticKeyProvider creates a static key provider.
func NewStaticKeyProvider(key any) *StaticKeyProvider {
	return &StaticKeyProvider{key: key}
}

// Key returns the static key.
func (p *StaticKeyProvider) Key(_ context.Context, _ string) (any, error) {
	return p.key, nil
}

// JWTResolver resolves bearer tokens to subjects.
type JWTResolver struct {
	config JWTConfig
	keys   KeyProvider
}

// NewJWTResolver creates a JWT resolver with defaults applied.
func NewJWTResolver(config JWTConfig, keys KeyProvider) *JWTResolver {
	if config.SubjectClaim == "" {
		config.SubjectClaim = "sub"
	}
	if config.TokenPrefix == "" {
		config.TokenPrefix = "Bearer "
	}
	return &JWTResolver{config: config, keys: keys}
}

// Resolve validates the token and extracts the subject.
func (r *JWTResolver) Resolve(ctx context.Context, credential string) (Subject, error) {
	credential = strings.TrimSpace(strings.TrimPrefix(credential, r.config.TokenPrefix))
	if credential == "" {
		return Subject{}, ErrMissingCredential
	}

	token, err := jwt.Parse(credential, func(token *jwt.Token) (any, error) {
		switch token.Method.(type) {
		case *jwt.SigningMethodHMAC, *jwt.SigningMethodRSA:
		default:
			return nil, fmt.Errorf("unexpected signing method %q", token.Method.Alg())
		}
		kid, _ := token.Header["kid"].(string)
		return r.keys.Key(ctx, kid)
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Subject{}, ErrExpiredCredential
		}
		return Subject{}, ErrInvalidCredential
	}
	if !token.Valid {
		return Subject{}, ErrInvalidCredential
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Subject{}, ErrInvalidCredential
	}

	if r.config.Issuer != "" {
		if iss, _ := claims["iss"].(string); iss != r.config.Issuer {
			return Subject{}, ErrInvalidCredential
		}
	}
	if r.config.Audience != "" && !hasAudience(claims, r.config.Audience) {
		return Subject{}, ErrInvalidCredential
	}

	id, _ := claims[r.config.SubjectClaim].(string)
	if id == "" {
		return Subject{}, ErrNoSubject
	}

	subject := Subject{
		ID:     id,
		Method: "jwt",
		Claims: map[string]any(claims),
	}
	if r.config.TenantClaim != "" {
		subject.Tenant, _ = claims[r.config.TenantClaim].(string)
	}
	if exp, ok := claims["exp"].(float64); ok {
		subject.ExpiresAt = time.Unix(int64(exp), 0)
	}
	return subject, nil
}

func hasAudience(claims jwt.MapClaims, target string) bool {
	switch v := claims["aud"].(type) {
	case string:
		return v == target
	case []any:
		for _, aud := range v {
			if s, ok := aud.(string); ok && s == target {
				return true
			}
		}
	}
	return false
}

var _ Resolver = (*JWTResolver)(nil)
