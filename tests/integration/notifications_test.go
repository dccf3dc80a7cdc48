//go:build integration

package integration

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statustrack/statustrack/internal/app"
	"github.com/statustrack/statustrack/internal/config"
	"github.com/statustrack/statustrack/internal/testutil"
)

// TestStatusChangeEmailsSubscribers runs a second app instance with the email
// pipeline enabled against the shared database and a Mailpit SMTP server,
// then drives a status change through the API and inspects what arrived.
func TestStatusChangeEmailsSubscribers(t *testing.T) {
	ctx := context.Background()

	mailpit, err := testutil.NewMailpitContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mailpit.Terminate(ctx); err != nil {
			t.Logf("terminate mailpit: %v", err)
		}
	})

	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:           "127.0.0.1",
			Port:           "0",
			MetricsPort:    "0",
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			RequestTimeout: 30 * time.Second,
		},
		Database: config.DatabaseConfig{
			URL:             databaseURL,
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
			ConnectTimeout:  30 * time.Second,
			ConnectAttempts: 3,
		},
		Log: config.LogConfig{
			Level:  "error",
			Format: "text",
		},
		JWT: config.JWTConfig{
			SecretKey:            "test-secret-key",
			AccessTokenDuration:  15 * time.Minute,
			RefreshTokenDuration: 24 * time.Hour,
		},
		Notifications: config.NotificationsConfig{
			Enabled: true,
			Email: config.EmailConfig{
				Enabled:     true,
				SMTPHost:    mailpit.SMTPHost,
				SMTPPort:    mailpit.SMTPPort,
				FromAddress: "status@example.com",
				BatchSize:   50,
			},
			Worker: config.WorkerConfig{
				BatchSize:    10,
				PollInterval: 100 * time.Millisecond,
				NumWorkers:   1,
			},
			Retry: config.RetryConfig{
				MaxAttempts:       3,
				InitialBackoff:    100 * time.Millisecond,
				MaxBackoff:        time.Second,
				BackoffMultiplier: 2,
			},
		},
		Public: config.PublicConfig{
			SubscribeRateLimit: 100,
			SubscribeBurst:     100,
			UptimeWindowDays:   90,
		},
	}

	a, err := app.New(cfg)
	require.NoError(t, err)

	server := httptest.NewServer(a.Router())
	t.Cleanup(func() {
		server.Close()
		shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		_ = a.Shutdown(shutdownCtx)
	})

	client := testutil.NewClient(server.URL)
	owner := client.Register(t, "mail-owner@example.com", "Mail Owner", "password123")
	org := createOrg(t, owner, "Mail Org")
	svc := createService(t, owner, org.ID, "Queue")

	anon := testutil.NewClient(server.URL)
	subscribers := []string{"alice@example.com", "bob@example.com"}
	for _, email := range subscribers {
		resp, err := anon.POST("/public/"+org.Slug+"/subscribe", map[string]string{"email": email})
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		_ = resp.Body.Close()
	}

	resp, err := owner.PATCH("/api/v1/services/"+svc.ID, map[string]string{"status": "major_outage"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	// Two subscribe confirmations plus the status change broadcast.
	mp := newMailpitClient(mailpit.APIHost, mailpit.APIPort)
	msgs, err := mp.waitForMessages(3, 15*time.Second)
	require.NoError(t, err)

	var statusMail *mailpitMessage
	for i := range msgs {
		if msgs[i].Subject == "[Mail Org] Queue status changed" {
			statusMail = &msgs[i]
		}
	}
	require.NotNil(t, statusMail, "expected a status change email, got %+v", msgs)

	// Both subscribers got it, neither on a visible header.
	got := statusMail.recipients()
	for _, email := range subscribers {
		assert.Contains(t, got, email)
	}
	assert.Empty(t, statusMail.To)
	assert.Empty(t, statusMail.Cc)
}
