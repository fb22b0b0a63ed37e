// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package logging

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Credential-shaped strings never reach a log sink intact. The sanitizers
// below keep just enough of a value to correlate log lines with support
// requests without exposing the value itself.

// maskEnds keeps the first and last four characters of s. Values at or
// below the floor are fully masked because the kept ends would reveal
// most of the string.
func maskEnds(s string, floor int) string {
	if s == "" {
		return ""
	}
	if len(s) <= floor {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// SanitizeToken masks an OAuth token or authorization code.
// "ya29.a0AfH6SMBx..." becomes "ya29...SMBx".
func SanitizeToken(token string) string {
	return maskEnds(token, 12)
}

// SanitizeUserID masks a user identifier for log privacy.
// "user-12345678" becomes "user...5678".
func SanitizeUserID(userID string) string {
	return maskEnds(userID, 8)
}

// SanitizeEmail keeps two characters of the local part and the full
// domain. "john.doe@example.com" becomes "jo***@example.com".
func SanitizeEmail(email string) string {
	if email == "" {
		return ""
	}
	at := strings.Index(email, "@")
	if at <= 0 {
		return "***"
	}
	if local := email[:at]; len(local) > 2 {
		return local[:2] + "***" + email[at:]
	}
	return "***" + email[at:]
}

// credentialWords are substrings whose presence in an error message means
// the whole message may embed a secret (provider errors sometimes quote
// the offending header or parameter).
var credentialWords = []string{
	"password",
	"secret",
	"token",
	"key",
	"bearer",
	"authorization",
	"cookie",
}

// SanitizeError replaces errors that mention credential material with a
// generic message, and truncates the rest.
func SanitizeError(err string) string {
	lower := strings.ToLower(err)
	for _, w := range credentialWords {
		if strings.Contains(lower, w) {
			return "authorization error"
		}
	}
	const maxLen = 200
	if len(err) > maxLen {
		return err[:maxLen] + "..."
	}
	return err
}

// isSensitiveKey reports whether a detail key names credential material.
// code and state count because OAuth callback parameters grant access
// when replayed within their window.
func isSensitiveKey(key string) bool {
	switch strings.ToLower(key) {
	case "access_token", "refresh_token", "id_token", "token", "code", "state":
		return true
	case "password", "secret", "api_key", "apikey":
		return true
	case "authorization", "bearer", "cookie":
		return true
	}
	return false
}

// SanitizeValue masks a detail value when its key names a credential, and
// masks email-shaped values regardless of key.
func SanitizeValue(key, value string) string {
	if isSensitiveKey(key) {
		return SanitizeToken(value)
	}
	looksLikeEmail := strings.Contains(value, "@") && strings.Contains(value, ".")
	if looksLikeEmail {
		return SanitizeEmail(value)
	}
	return value
}

// SecurityEvent is one auditable moment in a connection's life: an OAuth
// grant, a token refresh, a rejected callback, a data purge.
type SecurityEvent struct {
	Event     string
	UserID    string
	Provider  string
	IPAddress string
	Success   bool
	Error     string
	Details   map[string]string
}

// SecurityLogger writes connection-lifecycle audit events. Every field
// passes through a sanitizer before it is emitted, so callers can hand it
// raw values.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger returns a SecurityLogger on the process-wide backend.
func NewSecurityLogger() *SecurityLogger {
	return NewSecurityLoggerWithLogger(Logger())
}

// NewSecurityLoggerWithLogger returns a SecurityLogger writing through the
// given logger. Tests use this to capture output.
//
//nolint:gocritic // hugeParam: zerolog loggers are value types
func NewSecurityLoggerWithLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{
		logger: logger.With().Str("component", "security").Logger(),
	}
}

// LogEvent emits one audit event with all fields sanitized. Empty fields
// are left out of the log line entirely.
func (l *SecurityLogger) LogEvent(event *SecurityEvent) {
	status := "failed"
	if event.Success {
		status = "success"
	}
	e := l.logger.Info().Str("event", event.Event).Str("status", status)

	fields := []struct{ key, value string }{
		{"user_id", SanitizeUserID(event.UserID)},
		{"provider", event.Provider},
		{"ip", event.IPAddress},
	}
	for _, f := range fields {
		if f.value != "" {
			e = e.Str(f.key, f.value)
		}
	}
	if !event.Success && event.Error != "" {
		e = e.Str("error", SanitizeError(event.Error))
	}
	for k, v := range event.Details {
		e = e.Str(k, SanitizeValue(k, v))
	}
	e.Send()
}

// LogConnected records a completed OAuth grant.
func (l *SecurityLogger) LogConnected(userID, provider string, scopes []string) {
	l.LogEvent(&SecurityEvent{
		Event:    "provider_connected",
		UserID:   userID,
		Provider: provider,
		Success:  true,
		Details:  map[string]string{"scopes": strings.Join(scopes, " ")},
	})
}

// LogDisconnected records a user disconnecting a provider; revoked says
// whether the provider acknowledged the revocation.
func (l *SecurityLogger) LogDisconnected(userID, provider string, revoked bool) {
	l.LogEvent(&SecurityEvent{
		Event:    "provider_disconnected",
		UserID:   userID,
		Provider: provider,
		Success:  true,
		Details:  map[string]string{"revoked": strconv.FormatBool(revoked)},
	})
}

// LogTokenRefresh records a token refresh attempt and its outcome.
func (l *SecurityLogger) LogTokenRefresh(userID, provider string, success bool, errMsg string) {
	l.LogEvent(&SecurityEvent{
		Event:    "token_refresh",
		UserID:   userID,
		Provider: provider,
		Success:  success,
		Error:    errMsg,
	})
}

// LogCallbackRejected records an OAuth callback turned away at the
// boundary: bad or expired state, provider-reported error, missing code.
func (l *SecurityLogger) LogCallbackRejected(provider, ip, reason string) {
	l.LogEvent(&SecurityEvent{
		Event:     "callback_rejected",
		Provider:  provider,
		IPAddress: ip,
		Success:   false,
		Error:     reason,
	})
}

// LogDataPurged records a user-initiated deletion of stored health data.
func (l *SecurityLogger) LogDataPurged(userID string, records int) {
	l.LogEvent(&SecurityEvent{
		Event:   "health_data_purged",
		UserID:  userID,
		Success: true,
		Details: map[string]string{"records": strconv.Itoa(records)},
	})
}
