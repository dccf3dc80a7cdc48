package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/statustrack/statustrack/internal/domain"
)

// TokenPair holds a freshly issued access and refresh token.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

// AuthenticatorConfig contains settings for locally issued tokens.
type AuthenticatorConfig struct {
	SecretKey            string
	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration
}

// Authenticator issues and verifies HS256 tokens for locally registered
// users. Both tokens are stateless; refresh tokens differ only in lifetime
// and a type claim so an access token can never be replayed as a refresh.
type Authenticator struct {
	cfg AuthenticatorConfig
}

// NewAuthenticator creates a local token authenticator.
func NewAuthenticator(cfg AuthenticatorConfig) *Authenticator {
	return &Authenticator{cfg: cfg}
}

type localClaims struct {
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// GenerateTokens issues a token pair for user.
func (a *Authenticator) GenerateTokens(user *domain.User) (*TokenPair, error) {
	access, err := a.sign(user.ID, tokenTypeAccess, a.cfg.AccessTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refresh, err := a.sign(user.ID, tokenTypeRefresh, a.cfg.RefreshTokenDuration)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// ValidateAccessToken verifies an access token and returns the subject
// user id.
func (a *Authenticator) ValidateAccessToken(token string) (string, error) {
	return a.validate(token, tokenTypeAccess)
}

// ValidateRefreshToken verifies a refresh token and returns the subject
// user id.
func (a *Authenticator) ValidateRefreshToken(token string) (string, error) {
	return a.validate(token, tokenTypeRefresh)
}

func (a *Authenticator) sign(userID, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := localClaims{
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.cfg.SecretKey))
}

func (a *Authenticator) validate(token, wantType string) (string, error) {
	var claims localClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(a.cfg.SecretKey), nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.TokenType != wantType || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
