//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statustrack/statustrack/internal/domain"
	"github.com/statustrack/statustrack/internal/testutil"
)

func TestIncidentLifecycle(t *testing.T) {
	owner, _ := registerUser(t, "owner")
	org := createOrg(t, owner, "Incident Org")
	svc := createService(t, owner, org.ID, "Checkout")

	resp, err := owner.POST("/api/v1/organizations/"+org.ID+"/incidents", map[string]interface{}{
		"title":             "Checkout errors",
		"severity":          "major",
		"affected_services": []string{svc.ID},
		"message":           "We are investigating elevated error rates.",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var incident domain.Incident
	testutil.DecodeJSON(t, resp, &incident)
	assert.Equal(t, domain.IncidentInvestigating, incident.Status)
	assert.Equal(t, domain.SeverityMajor, incident.Severity)
	assert.Equal(t, []string{svc.ID}, incident.AffectedServices)
	require.Len(t, incident.Updates, 1)
	assert.Nil(t, incident.ResolvedAt)

	// Posting an update appends to the timeline, newest first.
	resp, err = owner.PATCH("/api/v1/incidents/"+incident.ID, map[string]string{
		"status":  "identified",
		"message": "Root cause identified in the payment provider.",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	testutil.DecodeJSON(t, resp, &incident)
	assert.Equal(t, domain.IncidentIdentified, incident.Status)
	require.Len(t, incident.Updates, 2)
	assert.Equal(t, "Root cause identified in the payment provider.", incident.Updates[0].Message)

	// Resolving stamps resolved_at.
	resp, err = owner.PATCH("/api/v1/incidents/"+incident.ID, map[string]string{"status": "resolved"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	testutil.DecodeJSON(t, resp, &incident)
	require.NotNil(t, incident.ResolvedAt)

	// Reopening clears it again.
	resp, err = owner.PATCH("/api/v1/incidents/"+incident.ID, map[string]string{"status": "monitoring"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	testutil.DecodeJSON(t, resp, &incident)
	assert.Nil(t, incident.ResolvedAt)

	resp, err = owner.DELETE("/api/v1/incidents/" + incident.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = owner.GET("/api/v1/incidents/" + incident.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestIncidentValidation(t *testing.T) {
	owner, _ := registerUser(t, "owner")
	org := createOrg(t, owner, "Validation Org")

	// Services from another organization cannot be attached.
	other, _ := registerUser(t, "other")
	otherOrg := createOrg(t, other, "Other Org")
	foreign := createService(t, other, otherOrg.ID, "Foreign")

	resp, err := owner.POST("/api/v1/organizations/"+org.ID+"/incidents", map[string]interface{}{
		"title":             "Bad reference",
		"affected_services": []string{foreign.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = owner.POST("/api/v1/organizations/"+org.ID+"/incidents", map[string]string{
		"title":    "Bad severity",
		"severity": "catastrophic",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = owner.POST("/api/v1/organizations/"+org.ID+"/incidents", map[string]string{
		"title": "Empty patch target",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var incident domain.Incident
	testutil.DecodeJSON(t, resp, &incident)

	resp, err = owner.PATCH("/api/v1/incidents/"+incident.ID, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestIncidentListVisibility(t *testing.T) {
	owner, _ := registerUser(t, "owner")
	org := createOrg(t, owner, "Visibility Org")

	for _, title := range []string{"First", "Second"} {
		resp, err := owner.POST("/api/v1/organizations/"+org.ID+"/incidents", map[string]string{"title": title})
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		_ = resp.Body.Close()
	}

	resp, err := owner.GET("/api/v1/organizations/" + org.ID + "/incidents")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var incidents []domain.Incident
	testutil.DecodeJSON(t, resp, &incidents)
	assert.Len(t, incidents, 2)

	stranger, _ := registerUser(t, "stranger")
	resp, err = stranger.GET("/api/v1/organizations/" + org.ID + "/incidents")
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()
}
