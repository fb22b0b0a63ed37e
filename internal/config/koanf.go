// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths is the config file search order; the first hit wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/notive/config.yaml",
	"/etc/notive/config.yml",
}

const (
	// ConfigPathEnvVar overrides the config file search.
	ConfigPathEnvVar = "NOTIVE_CONFIG"

	// envPrefix namespaces every configuration environment variable.
	envPrefix = "NOTIVE_"
)

// defaultConfig is the base layer every load starts from. File and
// environment values override these.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			Environment:     "development", // NOTIVE_ENVIRONMENT=production enables production checks
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Store: StoreConfig{
			Path:       "./data/notive.db",
			InMemory:   false, // in-memory mode is for tests
			GCInterval: 30 * time.Minute,
		},
		Security: SecurityConfig{
			JWTSecret:         "",
			EncryptionSecret:  "",
			RateLimitReqs:     120,
			RateLimitWindow:   1 * time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		GoogleFit: GoogleFitConfig{
			Enabled:        true,
			ClientID:       "",
			ClientSecret:   "",
			RedirectURL:    "",
			BaseURL:        "https://www.googleapis.com/fitness/v1",
			RequestTimeout: 30 * time.Second,
			Scopes: []string{
				"https://www.googleapis.com/auth/fitness.activity.read",
				"https://www.googleapis.com/auth/fitness.sleep.read",
				"https://www.googleapis.com/auth/fitness.heart_rate.read",
			},
		},
		Frontend: FrontendConfig{
			BaseURL: "http://localhost:3000",
		},
		Sync: SyncConfig{
			Interval:        6 * time.Hour,
			UserDelay:       2 * time.Second,
			BackfillMaxDays: 90,
			Timezone:        "", // empty = process-local time
		},
		Insights: InsightsConfig{
			CheckInterval: 24 * time.Hour,
			WeeklyDay:     "Sunday",
			MinDays:       3,
			WindowDays:    30,
		},
	}
}

// Load assembles the configuration from three layers, lowest priority
// first: built-in defaults, an optional YAML file, then NOTIVE_*
// environment variables. An explicit path argument beats NOTIVE_CONFIG and
// the search paths. The result is validated before it is returned.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	// Environment values arrive as plain strings; split the known slice
	// fields on commas before unmarshaling.
	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first existing candidate: the NOTIVE_CONFIG
// path if set, then the default search paths.
func findConfigFile() string {
	candidates := DefaultConfigPaths
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		candidates = append([]string{envPath}, candidates...)
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are the fields accepted as comma-separated strings from
// the environment.
var sliceConfigPaths = []string{
	"security.cors_origins",
	"googlefit.scopes",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		// YAML-sourced values are already slices and fail the assertion.
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}

		var items []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		if len(items) == 0 {
			continue
		}
		if err := k.Set(path, items); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

// envAliases maps the flat variable names operators actually set to their
// config paths. Anything not aliased here can still be reached with the
// mechanical NOTIVE_SECTION__SOME_KEY form.
var envAliases = map[string]string{
	"http_port":   "server.port",
	"http_host":   "server.host",
	"environment": "server.environment",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"store_path": "store.path",

	"jwt_secret":          "security.jwt_secret",
	"encryption_secret":   "security.encryption_secret",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",

	"googlefit_enabled":       "googlefit.enabled",
	"googlefit_client_id":     "googlefit.client_id",
	"googlefit_client_secret": "googlefit.client_secret",
	"googlefit_redirect_url":  "googlefit.redirect_url",
	"googlefit_scopes":        "googlefit.scopes",

	"frontend_base_url": "frontend.base_url",

	"sync_interval":     "sync.interval",
	"backfill_max_days": "sync.backfill_max_days",

	"insights_weekly_day": "insights.weekly_day",
}

// envTransformFunc turns an environment variable name into a koanf path:
//
//	NOTIVE_JWT_SECRET                 -> security.jwt_secret   (alias)
//	NOTIVE_GOOGLEFIT__REQUEST_TIMEOUT -> googlefit.request_timeout
//	NOTIVE_SOMETHING_ELSE             -> (skipped)
//
// Unmapped single-segment names return "" so unrelated NOTIVE_* variables
// cannot pollute the config tree.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))

	if path, ok := envAliases[key]; ok {
		return path
	}
	if strings.Contains(key, "__") {
		return strings.ReplaceAll(key, "__", ".")
	}
	return ""
}
