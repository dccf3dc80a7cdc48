// Package config loads application configuration from an optional YAML file
// and STATUSTRACK_ environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config is the root application configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Log           LogConfig           `koanf:"log"`
	CORS          CORSConfig          `koanf:"cors"`
	JWT           JWTConfig           `koanf:"jwt"`
	Auth          AuthConfig          `koanf:"auth"`
	Cookie        CookieConfig        `koanf:"cookie"`
	Notifications NotificationsConfig `koanf:"notifications"`
	Public        PublicConfig        `koanf:"public"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port"`
	MetricsPort       string        `koanf:"metrics_port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	RequestTimeout    time.Duration `koanf:"request_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig contains PostgreSQL settings.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	ConnectAttempts int           `koanf:"connect_attempts"`
	Migrate         bool          `koanf:"migrate"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `koanf:"level"`  // debug, info, warn, error
	Format string `koanf:"format"` // json, text
}

// CORSConfig contains CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// JWTConfig contains settings for locally issued tokens.
type JWTConfig struct {
	SecretKey            string        `koanf:"secret_key"`
	AccessTokenDuration  time.Duration `koanf:"access_token_duration"`
	RefreshTokenDuration time.Duration `koanf:"refresh_token_duration"`
}

// AuthConfig contains settings for verifying externally issued tokens.
type AuthConfig struct {
	ExternalEnabled bool          `koanf:"external_enabled"`
	Issuer          string        `koanf:"issuer"`
	Audience        string        `koanf:"audience"`
	JWKSURL         string        `koanf:"jwks_url"`
	JWKSTimeout     time.Duration `koanf:"jwks_timeout"`
}

// CookieConfig contains auth cookie settings.
type CookieConfig struct {
	Secure bool   `koanf:"secure"`
	Domain string `koanf:"domain"`
}

// NotificationsConfig contains notification pipeline settings.
type NotificationsConfig struct {
	Enabled bool         `koanf:"enabled"`
	Email   EmailConfig  `koanf:"email"`
	Worker  WorkerConfig `koanf:"worker"`
	Retry   RetryConfig  `koanf:"retry"`
}

// EmailConfig contains SMTP sender settings.
type EmailConfig struct {
	Enabled      bool   `koanf:"enabled"`
	SMTPHost     string `koanf:"smtp_host"`
	SMTPPort     int    `koanf:"smtp_port"`
	SMTPUser     string `koanf:"smtp_user"`
	SMTPPassword string `koanf:"smtp_password"`
	FromAddress  string `koanf:"from_address"`
	BatchSize    int    `koanf:"batch_size"`
}

// WorkerConfig contains queue worker settings.
type WorkerConfig struct {
	BatchSize    int           `koanf:"batch_size"`
	PollInterval time.Duration `koanf:"poll_interval"`
	NumWorkers   int           `koanf:"num_workers"`
}

// RetryConfig contains retry/backoff settings for queued notifications.
type RetryConfig struct {
	MaxAttempts       int           `koanf:"max_attempts"`
	InitialBackoff    time.Duration `koanf:"initial_backoff"`
	MaxBackoff        time.Duration `koanf:"max_backoff"`
	BackoffMultiplier float64       `koanf:"backoff_multiplier"`
}

// PublicConfig contains settings for the unauthenticated status endpoints.
type PublicConfig struct {
	SubscribeRateLimit float64 `koanf:"subscribe_rate_limit"` // requests per second per client
	SubscribeBurst     int     `koanf:"subscribe_burst"`
	UptimeWindowDays   int     `koanf:"uptime_window_days"`
}

// envPrefix is stripped from environment variables; the remainder maps onto
// config keys with "_" replaced by "." at the section boundary, e.g.
// STATUSTRACK_SERVER__PORT -> server.port.
const envPrefix = "STATUSTRACK_"

// Load reads configuration from path (optional, may be empty or missing)
// and applies environment overrides on top of defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ToLower(s)
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database.url is required")
	}
	return &cfg, nil
}

var defaults = map[string]interface{}{
	"server.host":                             "0.0.0.0",
	"server.port":                             "8080",
	"server.metrics_port":                     "9090",
	"server.read_timeout":                     "15s",
	"server.read_header_timeout":              "5s",
	"server.write_timeout":                    "15s",
	"server.idle_timeout":                     "60s",
	"server.request_timeout":                  "30s",
	"server.shutdown_timeout":                 "10s",
	"database.max_open_conns":                 25,
	"database.max_idle_conns":                 5,
	"database.conn_max_lifetime":              "5m",
	"database.connect_timeout":                "30s",
	"database.connect_attempts":               5,
	"database.migrate":                        true,
	"log.level":                               "info",
	"log.format":                              "json",
	"cors.allowed_origins":                    []string{"*"},
	"jwt.access_token_duration":               "15m",
	"jwt.refresh_token_duration":              "168h",
	"auth.jwks_timeout":                       "10s",
	"notifications.enabled":                   true,
	"notifications.email.enabled":             false,
	"notifications.email.smtp_port":           587,
	"notifications.email.batch_size":          50,
	"notifications.worker.batch_size":         10,
	"notifications.worker.poll_interval":      "10s",
	"notifications.worker.num_workers":        2,
	"notifications.retry.max_attempts":        5,
	"notifications.retry.initial_backoff":     "30s",
	"notifications.retry.max_backoff":         "10m",
	"notifications.retry.backoff_multiplier":  2.0,
	"public.subscribe_rate_limit":             1.0,
	"public.subscribe_burst":                  5,
	"public.uptime_window_days":               90,
}
