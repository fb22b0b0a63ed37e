// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/abbasaisolutions/notive-health/internal/insights"
	"github.com/abbasaisolutions/notive-health/internal/logging"
	"github.com/abbasaisolutions/notive-health/internal/metrics"
	"github.com/abbasaisolutions/notive-health/internal/store"
	"github.com/abbasaisolutions/notive-health/internal/validation"
)

const (
	// maxRangeDays bounds GET /health/context/range. A year plus the
	// leap day is the largest window the frontend charts.
	maxRangeDays = 366

	// maxWindowDays bounds the stats and insights trailing windows.
	maxWindowDays = 365

	defaultStatsDays = 30
)

// errManualSyncFailed marks failed manual runs in the sync metrics.
var errManualSyncFailed = errors.New("manual sync failed")

// BackfillRequest is the body of POST /api/v1/health/backfill.
type BackfillRequest struct {
	Days int `json:"days" validate:"required,min=1"`
}

// HealthContext handles GET /api/v1/health/context/{date}. The date is
// an ISO date or the literal "today", which resolves to yesterday's
// record (the most recent completed day).
func (h *Handler) HealthContext(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	date := chi.URLParam(r, "date")

	hc, err := h.sync.ContextForDate(r.Context(), userID, date)
	if err != nil {
		var parseErr *time.ParseError
		switch {
		case errors.As(err, &parseErr):
			NewResponseWriter(w, r).ValidationError("Date must be YYYY-MM-DD or \"today\"")
		case errors.Is(err, store.ErrNotFound):
			NewResponseWriter(w, r).NotFound("No health data recorded for that date")
		default:
			h.logger.Error().Err(err).
				Str("user_id", logging.SanitizeUserID(userID)).
				Msg("Context lookup failed")
			NewResponseWriter(w, r).InternalError("Failed to load health context")
		}
		return
	}

	NewResponseWriter(w, r).Success(map[string]interface{}{
		"date":    hc.Date,
		"context": hc,
	})
}

// HealthContextRange handles GET /api/v1/health/context/range?start&end.
func (h *Handler) HealthContextRange(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	q := r.URL.Query()

	start, err := time.Parse(time.DateOnly, q.Get("start"))
	if err != nil {
		NewResponseWriter(w, r).ValidationError("start must be YYYY-MM-DD")
		return
	}
	end, err := time.Parse(time.DateOnly, q.Get("end"))
	if err != nil {
		NewResponseWriter(w, r).ValidationError("end must be YYYY-MM-DD")
		return
	}
	if end.Before(start) {
		NewResponseWriter(w, r).ValidationError("start must not be after end")
		return
	}
	if days := int(end.Sub(start).Hours()/24) + 1; days > maxRangeDays {
		NewResponseWriter(w, r).ValidationError("Date range cannot exceed 366 days")
		return
	}

	contexts, err := h.sync.ContextRange(r.Context(), userID,
		start.Format(time.DateOnly), end.Format(time.DateOnly))
	if err != nil {
		h.logger.Error().Err(err).
			Str("user_id", logging.SanitizeUserID(userID)).
			Msg("Context range lookup failed")
		NewResponseWriter(w, r).InternalError("Failed to load health contexts")
		return
	}

	NewResponseWriter(w, r).Success(map[string]interface{}{"contexts": contexts})
}

// HealthStats handles GET /api/v1/health/stats?days=N.
func (h *Handler) HealthStats(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	days, err := queryDays(r, defaultStatsDays)
	if err != nil {
		NewResponseWriter(w, r).ValidationError("days must be a number")
		return
	}

	stats, err := h.sync.Stats(r.Context(), userID, days)
	if err != nil {
		h.logger.Error().Err(err).
			Str("user_id", logging.SanitizeUserID(userID)).
			Msg("Stats computation failed")
		NewResponseWriter(w, r).InternalError("Failed to compute health stats")
		return
	}

	NewResponseWriter(w, r).Success(stats)
}

// Insights handles GET /api/v1/health/insights?days=N. Correlations are
// computed on demand over the trailing window.
func (h *Handler) Insights(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	defaultDays := h.cfg.Insights.WindowDays
	if defaultDays <= 0 {
		defaultDays = defaultStatsDays
	}
	days, err := queryDays(r, defaultDays)
	if err != nil {
		NewResponseWriter(w, r).ValidationError("days must be a number")
		return
	}

	records, err := h.sync.InsightWindow(r.Context(), userID, days)
	if err != nil {
		h.logger.Error().Err(err).
			Str("user_id", logging.SanitizeUserID(userID)).
			Msg("Insight window load failed")
		NewResponseWriter(w, r).InternalError("Failed to compute insights")
		return
	}

	NewResponseWriter(w, r).Success(insights.Generate(records, days))
}

// WeeklySummary handles GET /api/v1/health/weekly-summary. A user who
// has not accumulated a summarized week yet gets available:false, not
// an error.
func (h *Handler) WeeklySummary(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	summary, err := h.sync.LatestWeeklyInsight(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			NewResponseWriter(w, r).Success(map[string]interface{}{"available": false})
			return
		}
		h.logger.Error().Err(err).
			Str("user_id", logging.SanitizeUserID(userID)).
			Msg("Weekly summary lookup failed")
		NewResponseWriter(w, r).InternalError("Failed to load weekly summary")
		return
	}

	NewResponseWriter(w, r).Success(map[string]interface{}{
		"available": true,
		"summary":   summary,
	})
}

// SyncNow handles POST /api/v1/health/sync, an immediate sync for the
// requesting user.
func (h *Handler) SyncNow(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	status, err := h.connections.Status(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).
			Str("user_id", logging.SanitizeUserID(userID)).
			Msg("Connection status lookup failed")
		NewResponseWriter(w, r).InternalError("Failed to load connection status")
		return
	}
	if !status.Connected {
		NewResponseWriter(w, r).NotConnected("Connect Google Fit before syncing")
		return
	}

	started := time.Now()
	synced := h.sync.SyncUser(r.Context(), userID)
	if !synced {
		metrics.RecordSyncRun("manual", time.Since(started), errManualSyncFailed)
		NewResponseWriter(w, r).SyncFailed("Sync failed. Try again later, or reconnect Google Fit if the problem persists.")
		return
	}

	metrics.RecordSyncRun("manual", time.Since(started), nil)
	NewResponseWriter(w, r).Success(map[string]bool{"synced": true})
}

// Backfill handles POST /api/v1/health/backfill. The requested day
// count is validated then clamped to the configured maximum; the
// response reports how many days actually stored data.
func (h *Handler) Backfill(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	var req BackfillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		NewResponseWriter(w, r).ValidationError("Request body must be JSON with a days field")
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		NewResponseWriter(w, r).ValidationFailed(ve)
		return
	}

	status, err := h.connections.Status(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).
			Str("user_id", logging.SanitizeUserID(userID)).
			Msg("Connection status lookup failed")
		NewResponseWriter(w, r).InternalError("Failed to load connection status")
		return
	}
	if !status.Connected {
		NewResponseWriter(w, r).NotConnected("Connect Google Fit before backfilling")
		return
	}

	days := req.Days
	maxDays := h.cfg.Sync.BackfillMaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	if days > maxDays {
		days = maxDays
	}

	processed := h.sync.Backfill(r.Context(), userID, days)
	NewResponseWriter(w, r).Success(map[string]int{"daysBackfilled": processed})
}

// PurgeData handles DELETE /api/v1/health/data: disconnect plus
// deletion of every stored record and insight for the user.
func (h *Handler) PurgeData(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())

	deleted, err := h.sync.PurgeUserData(r.Context(), userID)
	if err != nil {
		h.logger.Error().Err(err).
			Str("user_id", logging.SanitizeUserID(userID)).
			Msg("Health data purge failed")
		NewResponseWriter(w, r).InternalError("Failed to delete health data")
		return
	}

	h.security.LogDataPurged(userID, deleted)
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"message":        "All health data deleted",
		"recordsDeleted": deleted,
	})
}

// queryDays parses the "days" query parameter, clamping to
// [1, maxWindowDays]. An absent parameter means the default.
func queryDays(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return def, nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		n = 1
	}
	if n > maxWindowDays {
		n = maxWindowDays
	}
	return n, nil
}
