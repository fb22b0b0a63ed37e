// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package config

import (
	"time"
)

// Config holds all service configuration loaded from defaults, an optional
// YAML config file, and environment variables.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in values for every optional setting
//  2. Config File: optional YAML file (config.yaml) for persistent settings
//  3. Environment Variables: NOTIVE_-prefixed overrides for any setting
//
// Configuration Categories:
//
//  1. Provider:
//     - GoogleFit: OAuth client credentials, aggregation endpoint, scopes
//
//  2. Infrastructure:
//     - Store: Badger key-value store (path, in-memory mode, GC interval)
//     - Sync: background synchronization cadence and backfill bounds
//     - Server: HTTP server settings (host, port, timeouts)
//
//  3. Security:
//     - Security: JWT verification secret, token vault master secret,
//       rate limiting, CORS origins
//
//  4. Observability:
//     - Logging: log level and output format
//
// Validation:
// Load() validates the assembled configuration and refuses to start when
// secrets are missing, too short, or still set to placeholder values, or
// when Google Fit is enabled without complete OAuth credentials.
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent reads.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Store     StoreConfig     `koanf:"store"`
	Security  SecurityConfig  `koanf:"security"`
	GoogleFit GoogleFitConfig `koanf:"googlefit"`
	Frontend  FrontendConfig  `koanf:"frontend"`
	Sync      SyncConfig      `koanf:"sync"`
	Insights  InsightsConfig  `koanf:"insights"`
}

// ServerConfig holds HTTP server settings.
//
// Environment Variables:
//   - NOTIVE_HTTP_HOST: Bind address (default: 0.0.0.0)
//   - NOTIVE_HTTP_PORT: Listen port (default: 8080)
//   - NOTIVE_SERVER__READ_TIMEOUT: Request read timeout (default: 15s)
//   - NOTIVE_SERVER__WRITE_TIMEOUT: Response write timeout (default: 30s)
//   - NOTIVE_SERVER__SHUTDOWN_TIMEOUT: Graceful shutdown budget (default: 10s)
//   - NOTIVE_ENVIRONMENT: development or production (default: development)
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal disabled"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// StoreConfig holds Badger key-value store settings.
// InMemory mode keeps all data in RAM and is intended for tests.
type StoreConfig struct {
	Path       string        `koanf:"path"`
	InMemory   bool          `koanf:"in_memory"`
	GCInterval time.Duration `koanf:"gc_interval"`
}

// SecurityConfig holds authentication, encryption, and API protection settings.
//
// JWTSecret verifies the bearer tokens minted by the main Notive backend.
// EncryptionSecret is the token vault master secret; it is fed through
// HKDF-SHA256 before use and is never applied as a raw cipher key.
//
// Environment Variables:
//   - NOTIVE_JWT_SECRET: JWT signing secret, 32+ characters (required)
//   - NOTIVE_ENCRYPTION_SECRET: Vault master secret, 32+ characters (required)
//   - NOTIVE_RATE_LIMIT_REQUESTS: Requests per window (default: 120)
//   - NOTIVE_RATE_LIMIT_WINDOW: Rate limit window (default: 1m)
//   - NOTIVE_DISABLE_RATE_LIMIT: Disable rate limiting (default: false)
//   - NOTIVE_CORS_ORIGINS: Comma-separated allowed origins (default: *)
type SecurityConfig struct {
	JWTSecret         string        `koanf:"jwt_secret"`
	EncryptionSecret  string        `koanf:"encryption_secret"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// GoogleFitConfig holds Google Fit OAuth and aggregation API settings.
//
// ClientID, ClientSecret, and RedirectURL come from the Google Cloud
// Console OAuth consent configuration. BaseURL is overridable so tests
// can point the client at an httptest server.
//
// Environment Variables:
//   - NOTIVE_GOOGLEFIT_ENABLED: Enable the integration (default: true)
//   - NOTIVE_GOOGLEFIT_CLIENT_ID: OAuth client ID (required when enabled)
//   - NOTIVE_GOOGLEFIT_CLIENT_SECRET: OAuth client secret (required when enabled)
//   - NOTIVE_GOOGLEFIT_REDIRECT_URL: OAuth callback URL (required when enabled)
//   - NOTIVE_GOOGLEFIT__BASE_URL: Fitness API base URL
//   - NOTIVE_GOOGLEFIT__REQUEST_TIMEOUT: Per-request timeout (default: 30s)
//   - NOTIVE_GOOGLEFIT__SCOPES: Comma-separated OAuth scopes
type GoogleFitConfig struct {
	Enabled        bool          `koanf:"enabled"`
	ClientID       string        `koanf:"client_id"`
	ClientSecret   string        `koanf:"client_secret"`
	RedirectURL    string        `koanf:"redirect_url"`
	BaseURL        string        `koanf:"base_url" validate:"omitempty,url"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
	Scopes         []string      `koanf:"scopes"`
}

// FrontendConfig holds the web client location. OAuth callbacks redirect
// the browser back to the frontend's integration settings page.
type FrontendConfig struct {
	BaseURL string `koanf:"base_url" validate:"omitempty,url"`
}

// SyncConfig holds background synchronization settings.
//
// Timezone selects the location used to resolve "today" for day-boundary
// calculations. Empty means process-local time.
//
// Environment Variables:
//   - NOTIVE_SYNC_INTERVAL: Full sync cadence (default: 6h)
//   - NOTIVE_SYNC__USER_DELAY: Pause between users in a batch (default: 2s)
//   - NOTIVE_BACKFILL_MAX_DAYS: Upper bound for backfill requests (default: 90)
//   - NOTIVE_SYNC__TIMEZONE: IANA timezone name (default: process local)
type SyncConfig struct {
	Interval        time.Duration `koanf:"interval"`
	UserDelay       time.Duration `koanf:"user_delay"`
	BackfillMaxDays int           `koanf:"backfill_max_days"`
	Timezone        string        `koanf:"timezone" validate:"omitempty,timezone"`
}

// InsightsConfig holds insight generation settings.
//
// The weekly job fires on WeeklyDay; CheckInterval controls how often the
// scheduler checks whether the weekly run is due. MinDays is the minimum
// number of days with data required before correlations are computed.
type InsightsConfig struct {
	CheckInterval time.Duration `koanf:"check_interval"`
	WeeklyDay     string        `koanf:"weekly_day" validate:"omitempty,oneof=Sunday Monday Tuesday Wednesday Thursday Friday Saturday"`
	MinDays       int           `koanf:"min_days"`
	WindowDays    int           `koanf:"window_days"`
}
