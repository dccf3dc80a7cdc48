//go:build integration

package integration

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statustrack/statustrack/internal/domain"
	"github.com/statustrack/statustrack/internal/testutil"
)

// createOrg is shared by the service and incident tests.
func createOrg(t *testing.T, c *testutil.Client, name string) domain.Organization {
	t.Helper()
	resp, err := c.POST("/api/v1/organizations", map[string]string{"name": name})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var org domain.Organization
	testutil.DecodeJSON(t, resp, &org)
	return org
}

func createService(t *testing.T, c *testutil.Client, orgID, name string) domain.Service {
	t.Helper()
	resp, err := c.POST("/api/v1/organizations/"+orgID+"/services", map[string]string{"name": name})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var svc domain.Service
	testutil.DecodeJSON(t, resp, &svc)
	return svc
}

func TestServiceLifecycle(t *testing.T) {
	owner, _ := registerUser(t, "owner")
	org := createOrg(t, owner, "Service Org")

	svc := createService(t, owner, org.ID, "API Gateway")
	assert.Equal(t, domain.StatusOperational, svc.Status)

	// Creation writes the first status log entry with no previous status.
	resp, err := owner.GET("/api/v1/services/" + svc.ID + "/status-events")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var events []domain.StatusEvent
	testutil.DecodeJSON(t, resp, &events)
	require.Len(t, events, 1)
	assert.Nil(t, events[0].OldStatus)
	assert.Equal(t, domain.StatusOperational, events[0].NewStatus)

	// A status change appends exactly one entry recording the transition.
	resp, err = owner.PATCH("/api/v1/services/"+svc.ID, map[string]string{"status": "major_outage"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated domain.Service
	testutil.DecodeJSON(t, resp, &updated)
	assert.Equal(t, domain.StatusMajorOutage, updated.Status)

	resp, err = owner.GET("/api/v1/services/" + svc.ID + "/status-events")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	testutil.DecodeJSON(t, resp, &events)
	require.Len(t, events, 2)
	require.NotNil(t, events[0].OldStatus)
	assert.Equal(t, domain.StatusOperational, *events[0].OldStatus)
	assert.Equal(t, domain.StatusMajorOutage, events[0].NewStatus)

	// A rename without a status change leaves the log alone.
	resp, err = owner.PATCH("/api/v1/services/"+svc.ID, map[string]string{"name": "Gateway"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = owner.GET("/api/v1/services/" + svc.ID + "/status-events")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	testutil.DecodeJSON(t, resp, &events)
	assert.Len(t, events, 2)

	// Unknown status is rejected.
	resp, err = owner.PATCH("/api/v1/services/"+svc.ID, map[string]string{"status": "on_fire"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = owner.DELETE("/api/v1/services/" + svc.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = owner.GET("/api/v1/services/" + svc.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestServiceAccessControl(t *testing.T) {
	owner, _ := registerUser(t, "owner")
	org := createOrg(t, owner, "Private Org")
	svc := createService(t, owner, org.ID, "Billing")

	stranger, _ := registerUser(t, "stranger")
	resp, err := stranger.GET("/api/v1/services/" + svc.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = stranger.PATCH("/api/v1/services/"+svc.ID, map[string]string{"status": "maintenance"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestStatusLogPagination(t *testing.T) {
	owner, _ := registerUser(t, "owner")
	org := createOrg(t, owner, "Paging Org")
	svc := createService(t, owner, org.ID, "Search")

	statuses := []string{"maintenance", "operational", "degraded_performance", "operational"}
	for _, s := range statuses {
		resp, err := owner.PATCH("/api/v1/services/"+svc.ID, map[string]string{"status": s})
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	}

	resp, err := owner.GET(fmt.Sprintf("/api/v1/services/%s/status-events?limit=2&offset=1", svc.ID))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var events []domain.StatusEvent
	testutil.DecodeJSON(t, resp, &events)
	require.Len(t, events, 2)
	// Newest first: offset 1 skips the final flip back to operational.
	assert.Equal(t, domain.StatusDegradedPerformance, events[0].NewStatus)
	assert.Equal(t, domain.StatusOperational, events[1].NewStatus)
}
