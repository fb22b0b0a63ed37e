// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/abbasaisolutions/notive-health/internal/validation"
)

// Bounds enforced by hand beyond the struct tags.
const (
	// Secrets shorter than this do not carry enough entropy for HMAC or
	// key derivation.
	minSecretLength = 32

	minRateLimitReqs   = 1
	maxRateLimitReqs   = 100000
	minRateLimitWindow = time.Second
	maxRateLimitWindow = time.Hour

	minRequestTimeout = time.Second
	maxRequestTimeout = 2 * time.Minute

	minSyncInterval = time.Minute
	maxBackfillDays = 365
)

// Validate checks that required configuration is present and consistent.
// The declarative struct-tag pass runs first; the remaining checks cover
// cross-field rules tags cannot express.
func (c *Config) Validate() error {
	checks := []func() error{
		c.validateTags,
		c.validateServer,
		c.validateSecurity,
		c.validateGoogleFit,
		c.validateStore,
		c.validateSync,
		c.validateInsights,
	}
	for _, check := range checks {
		if err := check(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateTags() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return fmt.Errorf("invalid configuration: %w", verr)
	}
	return nil
}

func (c *Config) validateServer() error {
	timeouts := []struct {
		name  string
		value time.Duration
	}{
		{"read_timeout", c.Server.ReadTimeout},
		{"write_timeout", c.Server.WriteTimeout},
		{"shutdown_timeout", c.Server.ShutdownTimeout},
	}
	for _, t := range timeouts {
		if t.value <= 0 {
			return fmt.Errorf("server %s must be positive", t.name)
		}
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if err := validateSecret("NOTIVE_JWT_SECRET", c.Security.JWTSecret); err != nil {
		return err
	}
	if err := validateSecret("NOTIVE_ENCRYPTION_SECRET", c.Security.EncryptionSecret); err != nil {
		return err
	}
	if err := c.validateCORS(); err != nil {
		return err
	}
	return c.validateRateLimits()
}

// validateSecret applies the shared policy for both master secrets: set,
// long enough, and not an obvious template leftover.
func validateSecret(name, value string) error {
	switch {
	case value == "":
		return fmt.Errorf("%s is required", name)
	case len(value) < minSecretLength:
		return fmt.Errorf("%s must be at least %d characters for security", name, minSecretLength)
	case containsPlaceholder(value):
		return fmt.Errorf("%s contains a placeholder value - generate a secure secret with: openssl rand -base64 32", name)
	}
	return nil
}

// validateCORS rejects wildcard origins in production. The API always
// requires authentication, so a wildcard would let any site replay stolen
// credentials against protected resources.
func (c *Config) validateCORS() error {
	if !c.IsProduction() {
		return nil
	}
	for _, origin := range c.Security.CORSOrigins {
		if origin == "*" {
			return fmt.Errorf("NOTIVE_CORS_ORIGINS=* (wildcard) is not allowed in production. " +
				"Set specific origins: NOTIVE_CORS_ORIGINS=https://app.notive.io " +
				"or use NOTIVE_ENVIRONMENT=development for testing purposes")
		}
	}
	return nil
}

func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < minRateLimitReqs || c.Security.RateLimitReqs > maxRateLimitReqs {
		return fmt.Errorf("NOTIVE_RATE_LIMIT_REQUESTS must be between %d and %d", minRateLimitReqs, maxRateLimitReqs)
	}
	if c.Security.RateLimitWindow < minRateLimitWindow || c.Security.RateLimitWindow > maxRateLimitWindow {
		return fmt.Errorf("NOTIVE_RATE_LIMIT_WINDOW must be between %v and %v", minRateLimitWindow, maxRateLimitWindow)
	}
	return nil
}

// validateGoogleFit only applies when the integration is on; a disabled
// integration needs no credentials.
func (c *Config) validateGoogleFit() error {
	if !c.GoogleFit.Enabled {
		return nil
	}

	required := []struct{ name, value string }{
		{"NOTIVE_GOOGLEFIT_CLIENT_ID", c.GoogleFit.ClientID},
		{"NOTIVE_GOOGLEFIT_CLIENT_SECRET", c.GoogleFit.ClientSecret},
		{"NOTIVE_GOOGLEFIT_REDIRECT_URL", c.GoogleFit.RedirectURL},
	}
	for _, f := range required {
		if f.value == "" {
			return fmt.Errorf("%s is required when NOTIVE_GOOGLEFIT_ENABLED=true", f.name)
		}
	}

	if err := validateHTTPURL(c.GoogleFit.RedirectURL, "NOTIVE_GOOGLEFIT_REDIRECT_URL"); err != nil {
		return err
	}
	if err := validateHTTPURL(c.GoogleFit.BaseURL, "NOTIVE_GOOGLEFIT__BASE_URL"); err != nil {
		return err
	}
	if c.GoogleFit.RequestTimeout < minRequestTimeout || c.GoogleFit.RequestTimeout > maxRequestTimeout {
		return fmt.Errorf("NOTIVE_GOOGLEFIT__REQUEST_TIMEOUT must be between %v and %v", minRequestTimeout, maxRequestTimeout)
	}
	if len(c.GoogleFit.Scopes) == 0 {
		return fmt.Errorf("NOTIVE_GOOGLEFIT__SCOPES must list at least one OAuth scope")
	}
	return nil
}

func (c *Config) validateStore() error {
	if !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("NOTIVE_STORE_PATH is required unless store.in_memory=true")
	}
	if c.Store.GCInterval < time.Minute {
		return fmt.Errorf("store gc_interval must be at least 1m")
	}
	return nil
}

func (c *Config) validateSync() error {
	switch {
	case c.Sync.Interval < minSyncInterval:
		return fmt.Errorf("NOTIVE_SYNC_INTERVAL must be at least %v", minSyncInterval)
	case c.Sync.UserDelay < 0:
		return fmt.Errorf("sync user_delay must not be negative")
	case c.Sync.BackfillMaxDays < 1 || c.Sync.BackfillMaxDays > maxBackfillDays:
		return fmt.Errorf("NOTIVE_BACKFILL_MAX_DAYS must be between 1 and %d", maxBackfillDays)
	}
	return nil
}

func (c *Config) validateInsights() error {
	switch {
	case c.Insights.CheckInterval < time.Minute:
		return fmt.Errorf("insights check_interval must be at least 1m")
	case c.Insights.MinDays < 1 || c.Insights.MinDays > 7:
		return fmt.Errorf("insights min_days must be between 1 and 7")
	case c.Insights.WindowDays < 7 || c.Insights.WindowDays > 365:
		return fmt.Errorf("insights window_days must be between 7 and 365")
	}
	return nil
}

// IsProduction reports whether NOTIVE_ENVIRONMENT names a production
// deployment. The production-only checks key off this.
func (c *Config) IsProduction() bool {
	switch strings.ToLower(c.Server.Environment) {
	case "production", "prod":
		return true
	default:
		return false
	}
}

// validateHTTPURL accepts absolute http(s) URLs. Paths are fine: the
// Google Fit base URL and the OAuth redirect URL both carry one.
func validateHTTPURL(rawURL, fieldName string) error {
	u, err := url.Parse(rawURL)
	switch {
	case err != nil:
		return fmt.Errorf("%s failed to parse URL: %w", fieldName, err)
	case u.Scheme != "http" && u.Scheme != "https":
		return fmt.Errorf("%s scheme must be http or https, got: %s", fieldName, u.Scheme)
	case u.Host == "":
		return fmt.Errorf("%s host is required", fieldName)
	}
	return nil
}

// placeholderPatterns catch template leftovers so a copy-pasted example
// config cannot reach production with its dummy secrets intact.
var placeholderPatterns = []string{
	"REPLACE", "CHANGEME", "CHANGE_ME",
	"YOUR_SECRET", "YOUR_PASSWORD", "PLACEHOLDER",
	"TODO", "FIXME", "XXX", "EXAMPLE",
}

func containsPlaceholder(value string) bool {
	upper := strings.ToUpper(value)
	for _, pattern := range placeholderPatterns {
		if strings.Contains(upper, pattern) {
			return true
		}
	}
	return false
}
