package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testKeyID = "test-key"

// newJWKSServer serves the public half of key as a one-key JWKS.
func newJWKSServer(t *testing.T, key *rsa.PrivateKey) *httptest.Server {
	t.Helper()
	pub := key.Public().(*rsa.PublicKey)
	n := base64.RawURLEncoding.EncodeToString(pub.N.Bytes())
	e := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes())
	body := fmt.Sprintf(`{"keys":[{"kty":"RSA","kid":"%s","use":"sig","alg":"RS256","n":"%s","e":"%s"}]}`,
		testKeyID, n, e)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func signToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestClerkVerifier(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	jwks := newJWKSServer(t, key)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	verifier, err := NewClerkVerifier(ctx, jwks.URL, "https://issuer.example", "")
	if err != nil {
		t.Fatalf("NewClerkVerifier: %v", err)
	}

	t.Run("valid token", func(t *testing.T) {
		token := signToken(t, key, jwt.MapClaims{
			"sub": "user_123",
			"iss": "https://issuer.example",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		subject, err := verifier.Verify(ctx, token)
		if err != nil {
			t.Fatalf("Verify: %v", err)
		}
		if subject != "user_123" {
			t.Errorf("subject = %q, want user_123", subject)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		token := signToken(t, key, jwt.MapClaims{
			"sub": "user_123",
			"iss": "https://issuer.example",
			"exp": time.Now().Add(-time.Hour).Unix(),
		})
		if _, err := verifier.Verify(ctx, token); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("expired token: got %v, want ErrUnauthorized", err)
		}
	})

	t.Run("missing expiry", func(t *testing.T) {
		token := signToken(t, key, jwt.MapClaims{
			"sub": "user_123",
			"iss": "https://issuer.example",
		})
		if _, err := verifier.Verify(ctx, token); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("token without exp: got %v, want ErrUnauthorized", err)
		}
	})

	t.Run("wrong issuer", func(t *testing.T) {
		token := signToken(t, key, jwt.MapClaims{
			"sub": "user_123",
			"iss": "https://evil.example",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		if _, err := verifier.Verify(ctx, token); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("wrong issuer: got %v, want ErrUnauthorized", err)
		}
	})

	t.Run("missing subject", func(t *testing.T) {
		token := signToken(t, key, jwt.MapClaims{
			"iss": "https://issuer.example",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		if _, err := verifier.Verify(ctx, token); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("missing subject: got %v, want ErrUnauthorized", err)
		}
	})

	t.Run("malformed token", func(t *testing.T) {
		if _, err := verifier.Verify(ctx, "not-a-jwt"); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("malformed token: got %v, want ErrUnauthorized", err)
		}
	})

	t.Run("symmetric alg rejected", func(t *testing.T) {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub": "user_123",
			"iss": "https://issuer.example",
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		token.Header["kid"] = testKeyID
		signed, err := token.SignedString([]byte("secret"))
		if err != nil {
			t.Fatalf("sign HS256 token: %v", err)
		}
		if _, err := verifier.Verify(ctx, signed); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("HS256 token: got %v, want ErrUnauthorized", err)
		}
	})
}
