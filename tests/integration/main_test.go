//go:build integration

package integration

import (
	"context"
	"log"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/statustrack/statustrack/internal/app"
	"github.com/statustrack/statustrack/internal/config"
	"github.com/statustrack/statustrack/internal/testutil"
)

var (
	testServer  *httptest.Server
	baseClient  *testutil.Client
	databaseURL string
)

func TestMain(m *testing.M) {
	ctx := context.Background()

	pgContainer, err := testutil.NewPostgresContainer(ctx)
	if err != nil {
		log.Fatalf("start postgres: %v", err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			log.Printf("terminate postgres: %v", err)
		}
	}()

	databaseURL = pgContainer.ConnectionString

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
			URL:             pgContainer.ConnectionString,
			MaxOpenConns:    5,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
			ConnectTimeout:  30 * time.Second,
			ConnectAttempts: 3,
			Migrate:         true,
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
		// Notifications disabled: queue rows are written but nothing sends.
		Public: config.PublicConfig{
			SubscribeRateLimit: 100,
			SubscribeBurst:     100,
			UptimeWindowDays:   90,
		},
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("initialize app: %v", err)
	}

	testServer = httptest.NewServer(a.Router())
	baseClient = testutil.NewClient(testServer.URL)

	code := m.Run()

	testServer.Close()
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	_ = a.Shutdown(shutdownCtx)
	cancel()

	os.Exit(code)
}
