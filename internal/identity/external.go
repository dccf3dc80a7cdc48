package identity

import (
	"context"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// ExternalClaims are the identity claims extracted from a verified
// externally issued token.
type ExternalClaims struct {
	Subject string
	Email   string
	Name    string
	Picture string
}

// ExternalVerifier verifies RS256 bearer tokens issued by a configured
// external identity provider.
type ExternalVerifier struct {
	issuer   string
	audience string
	keys     *KeyCache
}

// NewExternalVerifier creates a verifier for the given issuer/audience
// backed by a JWKS key cache.
func NewExternalVerifier(issuer, audience string, keys *KeyCache) *ExternalVerifier {
	return &ExternalVerifier{issuer: issuer, audience: audience, keys: keys}
}

type externalTokenClaims struct {
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
	jwt.RegisteredClaims
}

// Verify validates the token signature and standard claims and returns the
// identity claims it carries.
func (v *ExternalVerifier) Verify(ctx context.Context, token string) (*ExternalClaims, error) {
	var claims externalTokenClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, fmt.Errorf("token has no key id")
		}
		return v.keys.Key(ctx, kid)
	},
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
		jwt.WithValidMethods([]string{"RS256"}),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &ExternalClaims{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Picture: claims.Picture,
	}, nil
}
