package identity

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-signing-secret")

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(testSecret)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return signed
}

func TestJWTResolver_Resolve(t *testing.T) {
	resolver := NewJWTResolver(JWTConfig{
		Issuer:      "https://issuer.example.com",
		TenantClaim: "org",
	}, NewStaticKeyProvider(testSecret))
	ctx := context.Background()

	exp := time.Now().Add(time.Hour)
	token := signToken(t, jwt.MapClaims{
		"sub": "user-42",
		"iss": "https://issuer.example.com",
		"org": "acme",
		"exp": exp.Unix(),
	})

	subject, err := resolver.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if subject.ID != "user-42" {
		t.Errorf("ID = %q, want %q", subject.ID, "user-42")
	}
	if subject.Tenant != "acme" {
		t.Errorf("Tenant = %q, want %q", subject.Tenant, "acme")
	}
	if subject.Method != "jwt" {
		t.Errorf("Method = %q, want %q", subject.Method, "jwt")
	}
	if subject.ExpiresAt.Unix() != exp.Unix() {
		t.Errorf("ExpiresAt = %v, want %v", subject.ExpiresAt.Unix(), exp.Unix())
	}
}

func TestJWTResolver_BearerPrefix(t *testing.T) {
	resolver := NewJWTResolver(JWTConfig{}, NewStaticKeyProvider(testSecret))
	token := signToken(t, jwt.MapClaims{"sub": "user-1"})

	subject, err := resolver.Resolve(context.Background(), "Bearer "+token)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if subject.ID != "user-1" {
		t.Errorf("ID = %q, want %q", subject.ID, "user-1")
	}
}

func TestJWTResolver_Failures(t *testing.T) {
	resolver := NewJWTResolver(JWTConfig{
		Issuer:   "https://issuer.example.com",
		Audience: "providergate",
	}, NewStaticKeyProvider(testSecret))
	ctx := context.Background()

	valid := jwt.MapClaims{
		"sub": "user-1",
		"iss": "https://issuer.example.com",
		"aud": "providergate",
	}

	t.Run("empty credential", func(t *testing.T) {
		if _, err := resolver.Resolve(ctx, ""); !errors.Is(err, ErrMissingCredential) {
			t.Errorf("Resolve() error = %v, want ErrMissingCredential", err)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		if _, err := resolver.Resolve(ctx, "not.a.token"); !errors.Is(err, ErrInvalidCredential) {
			t.Errorf("Resolve() error = %v, want ErrInvalidCredential", err)
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		other := jwt.NewWithClaims(jwt.SigningMethodHS256, valid)
		signed, err := other.SignedString([]byte("a-different-secret"))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := resolver.Resolve(ctx, signed); !errors.Is(err, ErrInvalidCredential) {
			t.Errorf("Resolve() error = %v, want ErrInvalidCredential", err)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{
			"sub": "user-1",
			"iss": "https://issuer.example.com",
			"aud": "providergate",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		if _, err := resolver.Resolve(ctx, token); !errors.Is(err, ErrExpiredCredential) {
			t.Errorf("Resolve() error = %v, want ErrExpiredCredential", err)
		}
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{
			"sub": "user-1",
			"iss": "https://other.example.com",
			"aud": "providergate",
		})
		if _, err := resolver.Resolve(ctx, token); !errors.Is(err, ErrInvalidCredential) {
			t.Errorf("Resolve() error = %v, want ErrInvalidCredential", err)
		}
	})

	t.Run("wrong audience", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{
			"sub": "user-1",
			"iss": "https://issuer.example.com",
			"aud": "someone-else",
		})
		if _, err := resolver.Resolve(ctx, token); !errors.Is(err, ErrInvalidCredential) {
			t.Errorf("Resolve() error = %v, want ErrInvalidCredential", err)
		}
	})

	t.Run("no subject claim", func(t *testing.T) {
		token := signToken(t, jwt.MapClaims{
			"iss": "https://issuer.example.com",
			"aud": "providergate",
		})
		if _, err := resolver.Resolve(ctx, token); !errors.Is(err, ErrNoSubject) {
			t.Errorf("Resolve() error = %v, want ErrNoSubject", err)
		}
	})
}

func TestJWTResolver_AudienceList(t *testing.T) {
	resolver := NewJWTResolver(JWTConfig{
		Audience: "providergate",
	}, NewStaticKeyProvider(testSecret))

	token := signToken(t, jwt.MapClaims{
		"sub": "user-1",
		"aud": []string{"other-service", "providergate"},
	})

	subject, err := resolver.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if subject.ID != "user-1" {
		t.Errorf("ID = %q, want %q", subject.ID, "user-1")
	}
}

func TestJWTResolver_CustomSubjectClaim(t *testing.T) {
	resolver := NewJWTResolver(JWTConfig{
		SubjectClaim: "uid",
	}, NewStaticKeyProvider(testSecret))

	token := signToken(t, jwt.MapClaims{"uid": "u-99"})
	subject, err := resolver.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if subject.ID != "u-99" {
		t.Errorf("ID = %q, want %q", subject.ID, "u-99")
	}
}

func TestJWTResolver_ErrorsDoNotLeakToken(t *testing.T) {
	resolver := NewJWTResolver(JWTConfig{}, NewStaticKeyProvider(testSecret))
	token := signToken(t, jwt.MapClaims{"sub": "user-1", "exp": time.Now().Add(-time.Hour).Unix()})

	_, err := resolver.Resolve(context.Background(), token)
	if err == nil {
		t.Fatal("Resolve() should fail")
	}
	if strings.Contains(err.Error(), token) {
		t.Errorf("error text leaks the credential: %v", err)
	}
}
