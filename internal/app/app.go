// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/statustrack/statustrack/internal/catalog"
	catalogpostgres "github.com/statustrack/statustrack/internal/catalog/postgres"
	"github.com/statustrack/statustrack/internal/config"
	"github.com/statustrack/statustrack/internal/identity"
	identitypostgres "github.com/statustrack/statustrack/internal/identity/postgres"
	"github.com/statustrack/statustrack/internal/incidents"
	incidentspostgres "github.com/statustrack/statustrack/internal/incidents/postgres"
	"github.com/statustrack/statustrack/internal/notifications"
	"github.com/statustrack/statustrack/internal/notifications/email"
	notificationspostgres "github.com/statustrack/statustrack/internal/notifications/postgres"
	"github.com/statustrack/statustrack/internal/orgs"
	orgspostgres "github.com/statustrack/statustrack/internal/orgs/postgres"
	"github.com/statustrack/statustrack/internal/pkg/ctxlog"
	"github.com/statustrack/statustrack/internal/pkg/httputil"
	"github.com/statustrack/statustrack/internal/pkg/metrics"
	"github.com/statustrack/statustrack/internal/pkg/postgres"
	"github.com/statustrack/statustrack/internal/realtime"
	"github.com/statustrack/statustrack/internal/statuspage"
	statuspagepostgres "github.com/statustrack/statustrack/internal/statuspage/postgres"
	"github.com/statustrack/statustrack/internal/teams"
	teamspostgres "github.com/statustrack/statustrack/internal/teams/postgres"
	"github.com/statustrack/statustrack/internal/version"
	"github.com/statustrack/statustrack/migrations"
)

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	db            *pgxpool.Pool
	server        *http.Server
	metricsServer *http.Server

	backgroundCancel   context.CancelFunc
	notificationWorker *notifications.Worker
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)
	slog.SetDefault(logger)

	if cfg.Database.Migrate {
		if err := postgres.Migrate(cfg.Database.URL, migrations.FS); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}

	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer connectCancel()

	db, err := postgres.Connect(connectCtx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	backgroundCtx, backgroundCancel := context.WithCancel(context.Background())

	app := &App{
		config:           cfg,
		logger:           logger,
		db:               db,
		backgroundCancel: backgroundCancel,
	}

	go app.collectDBMetrics(backgroundCtx)

	router, err := app.setupRouter(backgroundCtx)
	if err != nil {
		db.Close()
		backgroundCancel()
		return nil, fmt.Errorf("setup router: %w", err)
	}

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Run starts the HTTP servers.
func (a *App) Run() error {
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
	)

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	a.backgroundCancel()
	if a.notificationWorker != nil {
		a.notificationWorker.Wait()
	}

	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := a.server.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
			mu.Unlock()
		}
	}()

	go func() {
		defer wg.Done()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			mu.Unlock()
		}
	}()

	wg.Wait()

	a.db.Close()

	return errors.Join(errs...)
}

func (a *App) collectDBMetrics(ctx context.Context) {
	metrics.RecordDBPoolMetrics(a.db)

	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metrics.RecordDBPoolMetrics(a.db)
		case <-ctx.Done():
			return
		}
	}
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

func (a *App) setupRouter(ctx context.Context) (*chi.Mux, error) {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	hub := realtime.NewHub()
	realtimeHandler := realtime.NewHandler(hub)

	notificationsRepo := notificationspostgres.NewRepository(a.db)
	notificationsService := notifications.NewService(notificationsRepo)

	var emailSender *email.Sender
	if a.config.Notifications.Email.Enabled {
		emailSender = email.NewSender(email.Config{
			Host:      a.config.Notifications.Email.SMTPHost,
			Port:      a.config.Notifications.Email.SMTPPort,
			Username:  a.config.Notifications.Email.SMTPUser,
			Password:  a.config.Notifications.Email.SMTPPassword,
			From:      a.config.Notifications.Email.FromAddress,
			BatchSize: a.config.Notifications.Email.BatchSize,
		})
	} else {
		slog.Warn("email sender is disabled: subscriber emails will not be sent")
	}

	var notifier catalog.Notifier
	if a.config.Notifications.Enabled {
		notifier = notificationsService

		if emailSender != nil {
			a.notificationWorker = notifications.NewWorker(notificationsRepo, emailSender, notifications.WorkerConfig{
				BatchSize:         a.config.Notifications.Worker.BatchSize,
				PollInterval:      a.config.Notifications.Worker.PollInterval,
				NumWorkers:        a.config.Notifications.Worker.NumWorkers,
				MaxAttempts:       a.config.Notifications.Retry.MaxAttempts,
				InitialBackoff:    a.config.Notifications.Retry.InitialBackoff,
				MaxBackoff:        a.config.Notifications.Retry.MaxBackoff,
				BackoffMultiplier: a.config.Notifications.Retry.BackoffMultiplier,
			}, a.logger)
			a.notificationWorker.Start(ctx)
		}
	}

	identityRepo := identitypostgres.NewRepository(a.db)
	authenticator := identity.NewAuthenticator(identity.AuthenticatorConfig{
		SecretKey:            a.config.JWT.SecretKey,
		AccessTokenDuration:  a.config.JWT.AccessTokenDuration,
		RefreshTokenDuration: a.config.JWT.RefreshTokenDuration,
	})

	var external identity.ExternalTokenVerifier
	if a.config.Auth.ExternalEnabled {
		keys := identity.NewKeyCache(a.config.Auth.JWKSURL, a.config.Auth.JWKSTimeout)
		external = identity.NewExternalVerifier(a.config.Auth.Issuer, a.config.Auth.Audience, keys)
	}
	identityService := identity.NewService(identityRepo, authenticator, external)
	identityHandler := identity.NewHandler(identityService)

	orgsRepo := orgspostgres.NewRepository(a.db)
	orgsService := orgs.NewService(orgsRepo)
	orgsHandler := orgs.NewHandler(orgsService)

	teamsRepo := teamspostgres.NewRepository(a.db)
	teamsService := teams.NewService(teamsRepo, orgsRepo)
	teamsHandler := teams.NewHandler(teamsService)

	catalogRepo := catalogpostgres.NewRepository(a.db)
	catalogService := catalog.NewService(catalogRepo, orgsRepo, hub, notifier)
	catalogHandler := catalog.NewHandler(catalogService)

	incidentsRepo := incidentspostgres.NewRepository(a.db)
	incidentsService := incidents.NewService(incidentsRepo, orgsRepo, catalogRepo, hub, notifier)
	incidentsHandler := incidents.NewHandler(incidentsService)

	statuspageRepo := statuspagepostgres.NewRepository(a.db)
	uptimeWindow := time.Duration(a.config.Public.UptimeWindowDays) * 24 * time.Hour
	var confirmationSender statuspage.EmailSender
	if emailSender != nil {
		confirmationSender = emailSender
	}
	statuspageService := statuspage.NewService(
		statuspageRepo, orgsRepo, catalogRepo, incidentsRepo, confirmationSender, uptimeWindow,
	)
	statuspageHandler := statuspage.NewHandler(
		statuspageService,
		a.config.Public.SubscribeRateLimit,
		a.config.Public.SubscribeBurst,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(a.config.Server.RequestTimeout))

		identityHandler.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(httputil.AuthMiddleware(identityService))

			identityHandler.RegisterProtectedRoutes(r)
			orgsHandler.RegisterRoutes(r)
			teamsHandler.RegisterRoutes(r)
			catalogHandler.RegisterRoutes(r)
			incidentsHandler.RegisterRoutes(r)
		})
	})

	// Public status pages; no auth, no request timeout on the event stream.
	realtimeHandler.RegisterRoutes(r)
	r.Route("/public", func(r chi.Router) {
		r.Use(middleware.Timeout(a.config.Server.RequestTimeout))
		statuspageHandler.RegisterRoutes(r)
	})

	return r, nil
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"commit":     version.GitCommit,
		"build_date": version.BuildDate,
	})
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
