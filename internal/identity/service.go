package identity

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/statustrack/statustrack/internal/domain"
	"github.com/statustrack/statustrack/internal/pkg/ctxlog"
)

// ExternalTokenVerifier verifies externally issued bearer tokens.
type ExternalTokenVerifier interface {
	Verify(ctx context.Context, token string) (*ExternalClaims, error)
}

// Service implements identity business logic: local registration and
// login, and mapping of bearer credentials to internal users.
type Service struct {
	repo     Repository
	auth     *Authenticator
	external ExternalTokenVerifier // nil when external auth is disabled
}

// NewService creates a new identity service. external may be nil.
func NewService(repo Repository, auth *Authenticator, external ExternalTokenVerifier) *Service {
	return &Service{repo: repo, auth: auth, external: external}
}

// RegisterInput contains registration data.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// Register creates a new local user with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	if _, err := s.repo.GetUserByEmail(ctx, input.Email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: string(hash),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// LoginInput contains login credentials.
type LoginInput struct {
	Email    string
	Password string
}

// Login verifies credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, input LoginInput) (*domain.User, *TokenPair, error) {
	user, err := s.repo.GetUserByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("get user: %w", err)
	}
	if user.PasswordHash == "" {
		// Externally managed account, no local password to check.
		return nil, nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.auth.GenerateTokens(user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}
	return user, tokens, nil
}

// RefreshTokens exchanges a valid refresh token for a new token pair.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := s.auth.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	tokens, err := s.auth.GenerateTokens(user)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}
	return tokens, nil
}

// GetUserByID returns a user by id.
func (s *Service) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// ResolvePrincipal maps a bearer credential to an internal user. Locally
// issued tokens resolve by subject id; externally issued tokens are
// verified against the provider and mapped by external id, creating the
// user on first sight and refreshing profile claims when they changed.
func (s *Service) ResolvePrincipal(ctx context.Context, token string) (*domain.User, error) {
	if userID, err := s.auth.ValidateAccessToken(token); err == nil {
		user, err := s.repo.GetUserByID(ctx, userID)
		if err != nil {
			return nil, ErrInvalidToken
		}
		return user, nil
	}

	if s.external == nil {
		return nil, ErrInvalidToken
	}

	claims, err := s.external.Verify(ctx, token)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return s.findOrCreateExternalUser(ctx, claims)
}

func (s *Service) findOrCreateExternalUser(ctx context.Context, claims *ExternalClaims) (*domain.User, error) {
	user, err := s.repo.GetUserByExternalID(ctx, claims.Subject)
	if err == nil {
		if syncExternalProfile(user, claims) {
			if err := s.repo.UpdateUser(ctx, user); err != nil {
				// Stale profile data is not worth failing the request over.
				ctxlog.FromContext(ctx).Warn("failed to sync external profile",
					"user_id", user.ID, "error", err)
			}
		}
		return user, nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("get user by external id: %w", err)
	}

	if claims.Email == "" {
		return nil, ErrInvalidToken
	}

	externalID := claims.Subject
	user = &domain.User{
		ExternalID: &externalID,
		Email:      claims.Email,
		Name:       claims.Name,
		Picture:    claims.Picture,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user from external identity: %w", err)
	}
	return user, nil
}

// syncExternalProfile copies changed claims onto the user and reports
// whether anything changed.
func syncExternalProfile(user *domain.User, claims *ExternalClaims) bool {
	changed := false
	if claims.Name != "" && user.Name != claims.Name {
		user.Name = claims.Name
		changed = true
	}
	if claims.Picture != "" && user.Picture != claims.Picture {
		user.Picture = claims.Picture
		changed = true
	}
	if claims.Email != "" && user.Email != claims.Email {
		user.Email = claims.Email
		changed = true
	}
	return changed
}
