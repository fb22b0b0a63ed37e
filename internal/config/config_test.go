// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// Test secrets: 32+ characters, no placeholder patterns.
const (
	testJWTSecret        = "0123456789abcdef0123456789abcdef"
	testEncryptionSecret = "fedcba9876543210fedcba9876543210"
)

// setRequiredEnv sets the minimum environment for Load to pass validation.
// Google Fit is disabled so tests don't need OAuth credentials.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("NOTIVE_JWT_SECRET", testJWTSecret)
	t.Setenv("NOTIVE_ENCRYPTION_SECRET", testEncryptionSecret)
	t.Setenv("NOTIVE_GOOGLEFIT_ENABLED", "false")
}

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	// Server defaults
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("Server.Host = %q, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 15s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.ShutdownTimeout != 10*time.Second {
		t.Errorf("Server.ShutdownTimeout = %v, want 10s", cfg.Server.ShutdownTimeout)
	}

	// Store defaults
	if cfg.Store.Path != "./data/notive.db" {
		t.Errorf("Store.Path = %q, want ./data/notive.db", cfg.Store.Path)
	}
	if cfg.Store.InMemory {
		t.Error("Store.InMemory should be false by default")
	}
	if cfg.Store.GCInterval != 30*time.Minute {
		t.Errorf("Store.GCInterval = %v, want 30m", cfg.Store.GCInterval)
	}

	// Security defaults (secrets empty - required fields)
	if cfg.Security.JWTSecret != "" {
		t.Errorf("Security.JWTSecret should be empty by default, got %q", cfg.Security.JWTSecret)
	}
	if cfg.Security.RateLimitReqs != 120 {
		t.Errorf("Security.RateLimitReqs = %d, want 120", cfg.Security.RateLimitReqs)
	}
	if len(cfg.Security.CORSOrigins) != 1 || cfg.Security.CORSOrigins[0] != "*" {
		t.Errorf("Security.CORSOrigins = %v, want [*]", cfg.Security.CORSOrigins)
	}

	// Google Fit defaults (enabled, credentials empty)
	if !cfg.GoogleFit.Enabled {
		t.Error("GoogleFit.Enabled should be true by default")
	}
	if cfg.GoogleFit.BaseURL != "https://www.googleapis.com/fitness/v1" {
		t.Errorf("GoogleFit.BaseURL = %q, want fitness v1 endpoint", cfg.GoogleFit.BaseURL)
	}
	if cfg.GoogleFit.RequestTimeout != 30*time.Second {
		t.Errorf("GoogleFit.RequestTimeout = %v, want 30s", cfg.GoogleFit.RequestTimeout)
	}
	if len(cfg.GoogleFit.Scopes) != 3 {
		t.Errorf("GoogleFit.Scopes has %d entries, want 3", len(cfg.GoogleFit.Scopes))
	}

	// Frontend defaults
	if cfg.Frontend.BaseURL != "http://localhost:3000" {
		t.Errorf("Frontend.BaseURL = %q, want http://localhost:3000", cfg.Frontend.BaseURL)
	}

	// Sync defaults
	if cfg.Sync.Interval != 6*time.Hour {
		t.Errorf("Sync.Interval = %v, want 6h", cfg.Sync.Interval)
	}
	if cfg.Sync.UserDelay != 2*time.Second {
		t.Errorf("Sync.UserDelay = %v, want 2s", cfg.Sync.UserDelay)
	}
	if cfg.Sync.BackfillMaxDays != 90 {
		t.Errorf("Sync.BackfillMaxDays = %d, want 90", cfg.Sync.BackfillMaxDays)
	}

	// Insights defaults
	if cfg.Insights.WeeklyDay != "Sunday" {
		t.Errorf("Insights.WeeklyDay = %q, want Sunday", cfg.Insights.WeeklyDay)
	}
	if cfg.Insights.MinDays != 3 {
		t.Errorf("Insights.MinDays = %d, want 3", cfg.Insights.MinDays)
	}
	if cfg.Insights.WindowDays != 30 {
		t.Errorf("Insights.WindowDays = %d, want 30", cfg.Insights.WindowDays)
	}

	// Logging defaults
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want json", cfg.Logging.Format)
	}
}

// TestEnvTransformFunc verifies environment variable name transformations
func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// Aliases
		{"NOTIVE_HTTP_PORT", "server.port"},
		{"NOTIVE_HTTP_HOST", "server.host"},
		{"NOTIVE_ENVIRONMENT", "server.environment"},
		{"NOTIVE_LOG_LEVEL", "logging.level"},
		{"NOTIVE_STORE_PATH", "store.path"},
		{"NOTIVE_JWT_SECRET", "security.jwt_secret"},
		{"NOTIVE_ENCRYPTION_SECRET", "security.encryption_secret"},
		{"NOTIVE_CORS_ORIGINS", "security.cors_origins"},
		{"NOTIVE_GOOGLEFIT_ENABLED", "googlefit.enabled"},
		{"NOTIVE_GOOGLEFIT_CLIENT_ID", "googlefit.client_id"},
		{"NOTIVE_GOOGLEFIT_REDIRECT_URL", "googlefit.redirect_url"},
		{"NOTIVE_FRONTEND_BASE_URL", "frontend.base_url"},
		{"NOTIVE_SYNC_INTERVAL", "sync.interval"},
		{"NOTIVE_BACKFILL_MAX_DAYS", "sync.backfill_max_days"},

		// Mechanical double-underscore mapping
		{"NOTIVE_SERVER__READ_TIMEOUT", "server.read_timeout"},
		{"NOTIVE_GOOGLEFIT__BASE_URL", "googlefit.base_url"},
		{"NOTIVE_GOOGLEFIT__REQUEST_TIMEOUT", "googlefit.request_timeout"},
		{"NOTIVE_SYNC__USER_DELAY", "sync.user_delay"},
		{"NOTIVE_INSIGHTS__WINDOW_DAYS", "insights.window_days"},
		{"NOTIVE_STORE__GC_INTERVAL", "store.gc_interval"},

		// Unmapped single-segment keys are skipped
		{"NOTIVE_CONFIG", ""},
		{"NOTIVE_RANDOM_THING", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := envTransformFunc(tt.input); got != tt.expected {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoad_DefaultsWithRequiredEnv(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Security.JWTSecret != testJWTSecret {
		t.Errorf("JWTSecret = %q, want env value", cfg.Security.JWTSecret)
	}
	if cfg.GoogleFit.Enabled {
		t.Error("GoogleFit.Enabled should be false from env")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("NOTIVE_HTTP_PORT", "9191")
	t.Setenv("NOTIVE_LOG_LEVEL", "debug")
	t.Setenv("NOTIVE_SYNC_INTERVAL", "2h")
	t.Setenv("NOTIVE_SYNC__USER_DELAY", "500ms")
	t.Setenv("NOTIVE_GOOGLEFIT__SCOPES", "scope-a, scope-b,scope-c")
	t.Setenv("NOTIVE_CORS_ORIGINS", "https://app.notive.io,https://staging.notive.io")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9191 {
		t.Errorf("Server.Port = %d, want 9191", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Sync.Interval != 2*time.Hour {
		t.Errorf("Sync.Interval = %v, want 2h", cfg.Sync.Interval)
	}
	if cfg.Sync.UserDelay != 500*time.Millisecond {
		t.Errorf("Sync.UserDelay = %v, want 500ms", cfg.Sync.UserDelay)
	}

	wantScopes := []string{"scope-a", "scope-b", "scope-c"}
	if len(cfg.GoogleFit.Scopes) != len(wantScopes) {
		t.Fatalf("Scopes = %v, want %v", cfg.GoogleFit.Scopes, wantScopes)
	}
	for i, s := range wantScopes {
		if cfg.GoogleFit.Scopes[i] != s {
			t.Errorf("Scopes[%d] = %q, want %q", i, cfg.GoogleFit.Scopes[i], s)
		}
	}

	if len(cfg.Security.CORSOrigins) != 2 {
		t.Errorf("CORSOrigins = %v, want 2 origins", cfg.Security.CORSOrigins)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	setRequiredEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
logging:
  level: warn
  format: console
sync:
  backfill_max_days: 30
insights:
  weekly_day: Monday
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090 from file", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "console" {
		t.Errorf("Logging.Format = %q, want console", cfg.Logging.Format)
	}
	if cfg.Sync.BackfillMaxDays != 30 {
		t.Errorf("Sync.BackfillMaxDays = %d, want 30", cfg.Sync.BackfillMaxDays)
	}
	if cfg.Insights.WeeklyDay != "Monday" {
		t.Errorf("Insights.WeeklyDay = %q, want Monday", cfg.Insights.WeeklyDay)
	}
}

func TestLoad_EnvBeatsFile(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("NOTIVE_HTTP_PORT", "7777")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("Server.Port = %d, want env override 7777", cfg.Server.Port)
	}
}

func TestLoad_ValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantMsg string
	}{
		{
			"missing jwt secret",
			map[string]string{
				"NOTIVE_ENCRYPTION_SECRET": testEncryptionSecret,
				"NOTIVE_GOOGLEFIT_ENABLED": "false",
			},
			"NOTIVE_JWT_SECRET is required",
		},
		{
			"short jwt secret",
			map[string]string{
				"NOTIVE_JWT_SECRET":        "too-short",
				"NOTIVE_ENCRYPTION_SECRET": testEncryptionSecret,
				"NOTIVE_GOOGLEFIT_ENABLED": "false",
			},
			"at least 32 characters",
		},
		{
			"placeholder encryption secret",
			map[string]string{
				"NOTIVE_JWT_SECRET":        testJWTSecret,
				"NOTIVE_ENCRYPTION_SECRET": "CHANGEME_CHANGEME_CHANGEME_CHANGEME",
				"NOTIVE_GOOGLEFIT_ENABLED": "false",
			},
			"placeholder value",
		},
		{
			"google fit enabled without credentials",
			map[string]string{
				"NOTIVE_JWT_SECRET":        testJWTSecret,
				"NOTIVE_ENCRYPTION_SECRET": testEncryptionSecret,
			},
			"NOTIVE_GOOGLEFIT_CLIENT_ID is required",
		},
		{
			"bad redirect URL scheme",
			map[string]string{
				"NOTIVE_JWT_SECRET":              testJWTSecret,
				"NOTIVE_ENCRYPTION_SECRET":       testEncryptionSecret,
				"NOTIVE_GOOGLEFIT_CLIENT_ID":     "client-id",
				"NOTIVE_GOOGLEFIT_CLIENT_SECRET": "client-secret",
				"NOTIVE_GOOGLEFIT_REDIRECT_URL":  "ftp://callback.notive.io/cb",
			},
			"scheme must be http or https",
		},
		{
			"backfill days out of range",
			map[string]string{
				"NOTIVE_JWT_SECRET":        testJWTSecret,
				"NOTIVE_ENCRYPTION_SECRET": testEncryptionSecret,
				"NOTIVE_GOOGLEFIT_ENABLED": "false",
				"NOTIVE_BACKFILL_MAX_DAYS": "0",
			},
			"NOTIVE_BACKFILL_MAX_DAYS must be between",
		},
		{
			"wildcard CORS in production",
			map[string]string{
				"NOTIVE_JWT_SECRET":        testJWTSecret,
				"NOTIVE_ENCRYPTION_SECRET": testEncryptionSecret,
				"NOTIVE_GOOGLEFIT_ENABLED": "false",
				"NOTIVE_ENVIRONMENT":       "production",
			},
			"wildcard",
		},
		{
			"invalid log level",
			map[string]string{
				"NOTIVE_JWT_SECRET":        testJWTSecret,
				"NOTIVE_ENCRYPTION_SECRET": testEncryptionSecret,
				"NOTIVE_GOOGLEFIT_ENABLED": "false",
				"NOTIVE_LOG_LEVEL":         "loud",
			},
			"must be one of",
		},
		{
			"invalid timezone",
			map[string]string{
				"NOTIVE_JWT_SECRET":        testJWTSecret,
				"NOTIVE_ENCRYPTION_SECRET": testEncryptionSecret,
				"NOTIVE_GOOGLEFIT_ENABLED": "false",
				"NOTIVE_SYNC__TIMEZONE":    "Nowhere/Fake",
			},
			"timezone",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load("")
			if err == nil {
				t.Fatal("Load() = nil error, want validation failure")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestIsProduction(t *testing.T) {
	tests := []struct {
		environment string
		want        bool
	}{
		{"production", true},
		{"prod", true},
		{"PRODUCTION", true},
		{"development", false},
		{"dev", false},
		{"", false},
		{"staging", false},
	}

	for _, tt := range tests {
		t.Run("env="+tt.environment, func(t *testing.T) {
			cfg := &Config{Server: ServerConfig{Environment: tt.environment}}
			if got := cfg.IsProduction(); got != tt.want {
				t.Errorf("IsProduction() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContainsPlaceholder(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"CHANGEME-to-something-secret", true},
		{"your_secret_value_here_please", true},
		{"replace-this-with-a-real-key!", true},
		{testJWTSecret, false},
		{"a-perfectly-reasonable-secret-value", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			if got := containsPlaceholder(tt.value); got != tt.want {
				t.Errorf("containsPlaceholder(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestValidateHTTPURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"https with path", "https://www.googleapis.com/fitness/v1", false},
		{"http localhost with port", "http://localhost:8080/api/v1/health/google-fit/callback", false},
		{"missing scheme", "www.googleapis.com/fitness/v1", true},
		{"wrong scheme", "nats://localhost:4222", true},
		{"empty host", "https://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateHTTPURL(tt.url, "TEST_URL")
			if (err != nil) != tt.wantErr {
				t.Errorf("validateHTTPURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}
