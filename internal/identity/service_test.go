package identity

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statustrack/statustrack/internal/domain"
)

// mockRepository implements Repository for testing.
type mockRepository struct {
	users   map[string]*domain.User
	updated []*domain.User
	nextID  int
}

func newMockRepository() *mockRepository {
	return &mockRepository{users: make(map[string]*domain.User)}
}

func (m *mockRepository) CreateUser(_ context.Context, user *domain.User) error {
	m.nextID++
	user.ID = fmt.Sprintf("user-%d", m.nextID)
	m.users[user.ID] = user
	return nil
}

func (m *mockRepository) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) GetUserByExternalID(_ context.Context, externalID string) (*domain.User, error) {
	for _, u := range m.users {
		if u.ExternalID != nil && *u.ExternalID == externalID {
			return u, nil
		}
	}
	return nil, ErrUserNotFound
}

func (m *mockRepository) UpdateUser(_ context.Context, user *domain.User) error {
	m.updated = append(m.updated, user)
	m.users[user.ID] = user
	return nil
}

// mockVerifier implements ExternalTokenVerifier for testing.
type mockVerifier struct {
	claims *ExternalClaims
	err    error
}

func (m *mockVerifier) Verify(_ context.Context, _ string) (*ExternalClaims, error) {
	return m.claims, m.err
}

func newTestService(repo Repository, external ExternalTokenVerifier) *Service {
	auth := NewAuthenticator(AuthenticatorConfig{
		SecretKey:            "test-secret",
		AccessTokenDuration:  time.Minute,
		RefreshTokenDuration: time.Hour,
	})
	return NewService(repo, auth, external)
}

func TestRegisterAndLogin(t *testing.T) {
	repo := newMockRepository()
	service := newTestService(repo, nil)
	ctx := context.Background()

	user, err := service.Register(ctx, RegisterInput{
		Email:    "alice@example.com",
		Password: "hunter2hunter2",
		Name:     "Alice",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "hunter2hunter2", user.PasswordHash)

	loggedIn, tokens, err := service.Login(ctx, LoginInput{
		Email:    "alice@example.com",
		Password: "hunter2hunter2",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newMockRepository()
	service := newTestService(repo, nil)
	ctx := context.Background()

	_, err := service.Register(ctx, RegisterInput{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	_, err = service.Register(ctx, RegisterInput{Email: "a@example.com", Password: "password2"})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newMockRepository()
	service := newTestService(repo, nil)
	ctx := context.Background()

	_, err := service.Register(ctx, RegisterInput{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	_, _, err = service.Login(ctx, LoginInput{Email: "a@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = service.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResolvePrincipalLocalToken(t *testing.T) {
	repo := newMockRepository()
	service := newTestService(repo, nil)
	ctx := context.Background()

	user, err := service.Register(ctx, RegisterInput{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	_, tokens, err := service.Login(ctx, LoginInput{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	principal, err := service.ResolvePrincipal(ctx, tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, principal.ID)

	// A refresh token must not pass as an access credential.
	_, err = service.ResolvePrincipal(ctx, tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestResolvePrincipalCreatesExternalUser(t *testing.T) {
	repo := newMockRepository()
	verifier := &mockVerifier{claims: &ExternalClaims{
		Subject: "ext|123",
		Email:   "bob@example.com",
		Name:    "Bob",
		Picture: "https://example.com/bob.png",
	}}
	service := newTestService(repo, verifier)
	ctx := context.Background()

	user, err := service.ResolvePrincipal(ctx, "external-token")
	require.NoError(t, err)
	require.NotNil(t, user.ExternalID)
	assert.Equal(t, "ext|123", *user.ExternalID)
	assert.Equal(t, "bob@example.com", user.Email)

	// Second resolution maps to the same user.
	again, err := service.ResolvePrincipal(ctx, "external-token")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)
	assert.Len(t, repo.users, 1)
}

func TestResolvePrincipalSyncsChangedProfile(t *testing.T) {
	repo := newMockRepository()
	verifier := &mockVerifier{claims: &ExternalClaims{
		Subject: "ext|123",
		Email:   "bob@example.com",
		Name:    "Bob",
	}}
	service := newTestService(repo, verifier)
	ctx := context.Background()

	_, err := service.ResolvePrincipal(ctx, "external-token")
	require.NoError(t, err)

	verifier.claims.Name = "Robert"
	user, err := service.ResolvePrincipal(ctx, "external-token")
	require.NoError(t, err)
	assert.Equal(t, "Robert", user.Name)
	require.Len(t, repo.updated, 1)
}

func TestRefreshTokens(t *testing.T) {
	repo := newMockRepository()
	service := newTestService(repo, nil)
	ctx := context.Background()

	_, err := service.Register(ctx, RegisterInput{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)
	_, tokens, err := service.Login(ctx, LoginInput{Email: "a@example.com", Password: "password1"})
	require.NoError(t, err)

	fresh, err := service.RefreshTokens(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, fresh.AccessToken)

	_, err = service.RefreshTokens(ctx, tokens.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = service.RefreshTokens(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
