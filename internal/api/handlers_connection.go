// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package api

import (
	"net/http"
	"strings"

	"github.com/abbasaisolutions/notive-health/internal/logging"
	"github.com/abbasaisolutions/notive-health/internal/metrics"
	"github.com/abbasaisolutions/notive-health/internal/models"
)

// Callback redirect outcomes, query-encoded for the frontend settings
// page.
const (
	outcomeConnected = "connected"
	outcomeError     = "error"
)

// ConnectionStatus handles GET /api/v1/health/google-fit/status.
func (h *Handler) ConnectionStatus(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	status, err := h.connections.Status(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).
			Str("user_id", logging.SanitizeUserID(userID)).
			Msg("Connection status lookup failed")
		NewResponseWriter(w, r).InternalError("Failed to load connection status")
		return
	}

	NewResponseWriter(w, r).Success(status)
}

// Connect handles GET /api/v1/health/google-fit/connect. It returns the
// provider authorization URL the frontend sends the browser to.
func (h *Handler) Connect(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	authURL, err := h.connections.AuthURL(userID)
	if err != nil {
		h.logger.Error().Err(err).
			Str("user_id", logging.SanitizeUserID(userID)).
			Msg("Failed to build authorization URL")
		NewResponseWriter(w, r).InternalError("Failed to start Google Fit authorization")
		return
	}

	metrics.RecordOAuthOperation("authorize", true)
	NewResponseWriter(w, r).Success(map[string]string{"authUrl": authURL})
}

// Callback handles GET /api/v1/health/google-fit/callback. This is the
// browser redirect from Google, so it is public: the signed state
// parameter stands in for authentication, and the response is always a
// redirect back to the frontend settings page with a query-encoded
// outcome, never a JSON body.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if providerErr := q.Get("error"); providerErr != "" {
		h.security.LogCallbackRejected(models.ProviderGoogleFit, r.RemoteAddr, "provider error: "+providerErr)
		metrics.RecordOAuthOperation("callback", false)
		h.redirectToFrontend(w, r, outcomeError)
		return
	}

	state := h.connections.ParseState(q.Get("state"))
	if state == nil {
		h.security.LogCallbackRejected(models.ProviderGoogleFit, r.RemoteAddr, "invalid or expired state")
		metrics.RecordOAuthOperation("callback", false)
		h.redirectToFrontend(w, r, outcomeError)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.security.LogCallbackRejected(models.ProviderGoogleFit, r.RemoteAddr, "missing authorization code")
		metrics.RecordOAuthOperation("callback", false)
		h.redirectToFrontend(w, r, outcomeError)
		return
	}

	tok, err := h.connections.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Warn().Err(err).
			Str("user_id", logging.SanitizeUserID(state.UserID)).
			Msg("OAuth code exchange failed")
		metrics.RecordOAuthOperation("callback", false)
		h.redirectToFrontend(w, r, outcomeError)
		return
	}

	if err := h.connections.StoreTokens(r.Context(), state.UserID, tok, h.cfg.GoogleFit.Scopes); err != nil {
		h.logger.Error().Err(err).
			Str("user_id", logging.SanitizeUserID(state.UserID)).
			Msg("Failed to store OAuth tokens")
		metrics.RecordOAuthOperation("callback", false)
		h.redirectToFrontend(w, r, outcomeError)
		return
	}

	metrics.RecordOAuthOperation("callback", true)
	h.redirectToFrontend(w, r, outcomeConnected)
}

// Disconnect handles POST /api/v1/health/google-fit/disconnect.
// Revocation is best-effort; the connection is deleted regardless.
// Health records are retained.
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	if err := h.connections.Disconnect(r.Context(), userID); err != nil {
		h.logger.Error().Err(err).
			Str("user_id", logging.SanitizeUserID(userID)).
			Msg("Disconnect failed")
		NewResponseWriter(w, r).InternalError("Failed to disconnect Google Fit")
		return
	}

	NewResponseWriter(w, r).Success(map[string]interface{}{
		"message":   "Google Fit disconnected",
		"connected": false,
	})
}

func (h *Handler) redirectToFrontend(w http.ResponseWriter, r *http.Request, outcome string) {
	base := strings.TrimSuffix(h.cfg.Frontend.BaseURL, "/")
	http.Redirect(w, r, base+"/settings/integrations?googlefit="+outcome, http.StatusFound)
}
