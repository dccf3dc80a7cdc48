//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statustrack/statustrack/internal/domain"
	"github.com/statustrack/statustrack/internal/testutil"
)

var userSeq atomic.Int64

// registerUser creates a unique account and returns an authenticated client
// plus the account email.
func registerUser(t *testing.T, name string) (*testutil.Client, string) {
	t.Helper()
	email := fmt.Sprintf("%s-%d@example.com", name, userSeq.Add(1))
	return baseClient.Register(t, email, name, "password123"), email
}

func TestOrganizationLifecycle(t *testing.T) {
	owner, _ := registerUser(t, "owner")

	resp, err := owner.POST("/api/v1/organizations", map[string]string{"name": "Acme Corp"})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var org domain.Organization
	testutil.DecodeJSON(t, resp, &org)
	assert.Equal(t, "acme-corp", org.Slug)
	require.Len(t, org.Members, 1)
	assert.Equal(t, domain.RoleAdmin, org.Members[0].Role)

	// A second organization with the same name gets a suffixed slug.
	resp, err = owner.POST("/api/v1/organizations", map[string]string{"name": "Acme Corp"})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var second domain.Organization
	testutil.DecodeJSON(t, resp, &second)
	assert.Equal(t, "acme-corp-1", second.Slug)

	// Update.
	resp, err = owner.PATCH("/api/v1/organizations/"+org.ID, map[string]string{"name": "Acme Inc"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated domain.Organization
	testutil.DecodeJSON(t, resp, &updated)
	assert.Equal(t, "Acme Inc", updated.Name)
	assert.Equal(t, "acme-corp", updated.Slug)

	// Strangers see nothing.
	stranger, _ := registerUser(t, "stranger")
	resp, err = stranger.GET("/api/v1/organizations/" + org.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	// Empty update is rejected.
	resp, err = owner.PATCH("/api/v1/organizations/"+org.ID, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestOrganizationMembers(t *testing.T) {
	owner, _ := registerUser(t, "owner")
	_, bobEmail := registerUser(t, "bob")

	resp, err := owner.POST("/api/v1/organizations", map[string]string{"name": "Member Org"})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var org domain.Organization
	testutil.DecodeJSON(t, resp, &org)

	// Add by email.
	resp, err = owner.POST("/api/v1/organizations/"+org.ID+"/members", map[string]string{
		"email": bobEmail,
		"role":  "member",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	testutil.DecodeJSON(t, resp, &org)
	require.Len(t, org.Members, 2)

	// Duplicate add conflicts.
	resp, err = owner.POST("/api/v1/organizations/"+org.ID+"/members", map[string]string{
		"email": bobEmail,
		"role":  "member",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()

	// Owner role cannot be granted.
	var bobID string
	for _, m := range org.Members {
		if m.Role == domain.RoleMember {
			bobID = m.UserID
		}
	}
	require.NotEmpty(t, bobID)

	resp, err = owner.PATCH("/api/v1/organizations/"+org.ID+"/members/"+bobID, map[string]string{"role": "owner"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	// Promote then remove.
	resp, err = owner.PATCH("/api/v1/organizations/"+org.ID+"/members/"+bobID, map[string]string{"role": "admin"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = owner.DELETE("/api/v1/organizations/" + org.ID + "/members/" + bobID)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestTeamFlow(t *testing.T) {
	owner, _ := registerUser(t, "owner")
	_, carolEmail := registerUser(t, "carol")

	resp, err := owner.POST("/api/v1/organizations", map[string]string{"name": "Team Org"})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var org domain.Organization
	testutil.DecodeJSON(t, resp, &org)

	resp, err = owner.POST("/api/v1/organizations/"+org.ID+"/teams", map[string]string{"name": "Platform"})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var team domain.Team
	testutil.DecodeJSON(t, resp, &team)
	require.Len(t, team.Members, 1)
	assert.Equal(t, domain.RoleAdmin, team.Members[0].Role)

	// Non org member cannot join a team.
	resp, err = owner.POST("/api/v1/organizations/"+org.ID+"/members", map[string]string{
		"email": carolEmail,
		"role":  "member",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	testutil.DecodeJSON(t, resp, &org)

	var carolID string
	for _, m := range org.Members {
		if m.Role == domain.RoleMember {
			carolID = m.UserID
		}
	}
	require.NotEmpty(t, carolID)

	resp, err = owner.POST("/api/v1/teams/"+team.ID+"/members", map[string]string{
		"user_id": carolID,
		"role":    "member",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	testutil.DecodeJSON(t, resp, &team)
	assert.Len(t, team.Members, 2)

	// The lone team admin cannot remove themselves.
	resp, err = owner.DELETE("/api/v1/teams/" + team.ID + "/members/" + team.Members[0].UserID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}
