// Package auth verifies identity-provider bearer tokens and resolves the
// local user for each request.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized covers every verification failure: missing or malformed
// token, bad signature, wrong issuer or audience, expiry.
var ErrUnauthorized = errors.New("unauthorized")

// Verifier checks a bearer token and returns the provider's stable subject
// id. Injected so tests can substitute a fake.
type Verifier interface {
	Verify(ctx context.Context, token string) (subject string, err error)
}

// ClerkVerifier validates RS256 tokens against the identity provider's
// published JWKS, with keys fetched and cached by key id.
type ClerkVerifier struct {
	keys     keyfunc.Keyfunc
	issuer   string
	audience string
}

// NewClerkVerifier fetches the JWKS and keeps it refreshed in the
// background for the lifetime of ctx.
func NewClerkVerifier(ctx context.Context, jwksURL, issuer, audience string) (*ClerkVerifier, error) {
	keys, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("load jwks: %w", err)
	}
	return &ClerkVerifier{keys: keys, issuer: issuer, audience: audience}, nil
}

func (v *ClerkVerifier) Verify(ctx context.Context, token string) (string, error) {
	parsed, err := jwt.Parse(token, v.keys.Keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	subject, err := parsed.Claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("%w: token has no subject", ErrUnauthorized)
	}
	return subject, nil
}
