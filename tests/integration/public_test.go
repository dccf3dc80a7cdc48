//go:build integration

package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statustrack/statustrack/internal/domain"
	"github.com/statustrack/statustrack/internal/statuspage"
	"github.com/statustrack/statustrack/internal/testutil"
	"github.com/statustrack/statustrack/internal/uptime"
)

func TestPublicStatusPage(t *testing.T) {
	owner, _ := registerUser(t, "owner")
	org := createOrg(t, owner, "Public Page Org")
	svc := createService(t, owner, org.ID, "Web")

	resp, err := owner.POST("/api/v1/organizations/"+org.ID+"/incidents", map[string]interface{}{
		"title":             "Open incident",
		"affected_services": []string{svc.ID},
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = owner.POST("/api/v1/organizations/"+org.ID+"/incidents", map[string]string{
		"title":  "Old incident",
		"status": "resolved",
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	// No authentication required.
	anon := testutil.NewClient(baseClient.BaseURL)
	resp, err = anon.GET("/public/" + org.Slug + "/status")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page statuspage.PublicStatus
	testutil.DecodeJSON(t, resp, &page)
	assert.Equal(t, org.Slug, page.Organization.Slug)
	require.Len(t, page.Services, 1)
	assert.Equal(t, svc.ID, page.Services[0].ID)

	// Only unresolved incidents show up.
	require.Len(t, page.Incidents, 1)
	assert.Equal(t, "Open incident", page.Incidents[0].Title)

	resp, err = anon.GET("/public/no-such-org/status")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestPublicUptimeEndpoint(t *testing.T) {
	owner, _ := registerUser(t, "owner")
	org := createOrg(t, owner, "Uptime Org")
	svc := createService(t, owner, org.ID, "DB")

	anon := testutil.NewClient(baseClient.BaseURL)
	resp, err := anon.GET("/public/" + org.Slug + "/services/" + svc.ID + "/uptime")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report uptime.Report
	testutil.DecodeJSON(t, resp, &report)
	// A freshly created operational service is fully up.
	assert.Equal(t, 100.0, report.OverallUptimePercentage)
	assert.NotEmpty(t, report.DailyStatuses)
	assert.Equal(t, domain.StatusOperational, report.DailyStatuses[len(report.DailyStatuses)-1].Status)

	// Services from other organizations are invisible through this slug.
	other, _ := registerUser(t, "other")
	otherOrg := createOrg(t, other, "Uptime Other Org")
	foreign := createService(t, other, otherOrg.ID, "Foreign DB")

	resp, err = anon.GET("/public/" + org.Slug + "/services/" + foreign.ID + "/uptime")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

func TestPublicSubscription(t *testing.T) {
	owner, _ := registerUser(t, "owner")
	org := createOrg(t, owner, "Subscribe Org")

	anon := testutil.NewClient(baseClient.BaseURL)
	resp, err := anon.POST("/public/"+org.Slug+"/subscribe", map[string]string{"email": "watcher@example.com"})
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var sub domain.Subscriber
	testutil.DecodeJSON(t, resp, &sub)
	assert.Equal(t, "watcher@example.com", sub.Email)

	// Subscribing twice conflicts.
	resp, err = anon.POST("/public/"+org.Slug+"/subscribe", map[string]string{"email": "watcher@example.com"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	_ = resp.Body.Close()

	resp, err = anon.POST("/public/"+org.Slug+"/subscribe", map[string]string{"email": "not-an-email"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	_ = resp.Body.Close()

	// Unsubscribe succeeds whether or not the address was subscribed.
	for _, email := range []string{"watcher@example.com", "never-signed-up@example.com"} {
		resp, err = anon.POST("/public/"+org.Slug+"/unsubscribe", map[string]string{"email": email})
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		_ = resp.Body.Close()
	}

	// Unknown slugs answer 200 as well; a 404 here would reveal which
	// organizations exist.
	resp, err = anon.POST("/public/no-such-page/unsubscribe", map[string]string{"email": "watcher@example.com"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()
}
