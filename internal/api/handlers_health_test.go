// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/abbasaisolutions/notive-health/internal/models"
	"github.com/abbasaisolutions/notive-health/internal/store"
)

func ip(v int) *int { return &v }

// invalidDateErr mirrors the error shape the orchestrator returns for an
// unparseable date parameter.
func invalidDateErr(raw string) error {
	_, err := time.Parse(time.DateOnly, raw)
	return fmt.Errorf("invalid date %q: %w", raw, err)
}

func connectedFake() *fakeConnections {
	return &fakeConnections{status: &models.ConnectionStatus{Connected: true}}
}

func TestHealthContext_Today(t *testing.T) {
	syncer := &fakeSync{
		ctxRecord: &models.HealthContext{
			Date:         "2026-03-09",
			SleepMinutes: ip(420),
			Steps:        ip(9000),
		},
	}
	h := newTestAPI(t, testConfig(), connectedFake(), syncer)

	rec := do(h, authedRequest(t, http.MethodGet, "/api/v1/health/context/today", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if syncer.ctxDate != "today" {
		t.Errorf("orchestrator got date %q, want today", syncer.ctxDate)
	}

	data := dataMap(t, decodeResponse(t, rec))
	if data["date"] != "2026-03-09" {
		t.Errorf("date = %v, want 2026-03-09", data["date"])
	}
	context, ok := data["context"].(map[string]interface{})
	if !ok {
		t.Fatalf("context is %T, want object", data["context"])
	}
	if context["steps"] != float64(9000) {
		t.Errorf("context.steps = %v, want 9000", context["steps"])
	}
}

func TestHealthContext_ExplicitDate(t *testing.T) {
	syncer := &fakeSync{ctxRecord: &models.HealthContext{Date: "2026-03-05"}}
	h := newTestAPI(t, testConfig(), connectedFake(), syncer)

	rec := do(h, authedRequest(t, http.MethodGet, "/api/v1/health/context/2026-03-05", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if syncer.ctxDate != "2026-03-05" {
		t.Errorf("orchestrator got date %q, want 2026-03-05", syncer.ctxDate)
	}
}

func TestHealthContext_InvalidDate(t *testing.T) {
	syncer := &fakeSync{ctxErr: invalidDateErr("yesterday")}
	h := newTestAPI(t, testConfig(), connectedFake(), syncer)

	rec := do(h, authedRequest(t, http.MethodGet, "/api/v1/health/context/yesterday", nil))
	assertErrorCode(t, rec, http.StatusBadRequest, ErrCodeValidation)
}

func TestHealthContext_NotFound(t *testing.T) {
	syncer := &fakeSync{ctxErr: store.ErrNotFound}
	h := newTestAPI(t, testConfig(), connectedFake(), syncer)

	rec := do(h, authedRequest(t, http.MethodGet, "/api/v1/health/context/2026-03-05", nil))
	assertErrorCode(t, rec, http.StatusNotFound, ErrCodeNotFound)
}

func TestHealthContextRange(t *testing.T) {
	syncer := &fakeSync{
		rangeContexts: []*models.HealthContext{
			{Date: "2026-03-01"},
			{Date: "2026-03-02"},
		},
	}
	h := newTestAPI(t, testConfig(), connectedFake(), syncer)

	rec := do(h, authedRequest(t, http.MethodGet,
		"/api/v1/health/context/range?start=2026-03-01&end=2026-03-02", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if syncer.rangeStart != "2026-03-01" || syncer.rangeEnd != "2026-03-02" {
		t.Errorf("range args = %q..%q", syncer.rangeStart, syncer.rangeEnd)
	}

	data := dataMap(t, decodeResponse(t, rec))
	contexts, ok := data["contexts"].([]interface{})
	if !ok || len(contexts) != 2 {
		t.Errorf("contexts = %v, want 2 entries", data["contexts"])
	}
}

func TestHealthContextRange_Validation(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"missing start", "end=2026-03-02"},
		{"missing end", "start=2026-03-01"},
		{"malformed start", "start=March-1&end=2026-03-02"},
		{"start after end", "start=2026-03-05&end=2026-03-01"},
		{"range too wide", "start=2025-01-01&end=2026-01-02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestAPI(t, testConfig(), connectedFake(), &fakeSync{})
			rec := do(h, authedRequest(t, http.MethodGet, "/api/v1/health/context/range?"+tt.query, nil))
			assertErrorCode(t, rec, http.StatusBadRequest, ErrCodeValidation)
		})
	}
}

func TestHealthStats(t *testing.T) {
	avg := 450.0
	syncer := &fakeSync{
		stats: &models.HealthStats{
			Days:            30,
			DaysWithData:    12,
			AvgSleepMinutes: &avg,
			SleepTrend:      models.TrendStable,
			StepsTrend:      models.TrendImproving,
		},
	}
	h := newTestAPI(t, testConfig(), connectedFake(), syncer)

	rec := do(h, authedRequest(t, http.MethodGet, "/api/v1/health/stats", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if syncer.statsDays != 30 {
		t.Errorf("days = %d, want default 30", syncer.statsDays)
	}

	data := dataMap(t, decodeResponse(t, rec))
	if data["days_with_data"] != float64(12) {
		t.Errorf("days_with_data = %v, want 12", data["days_with_data"])
	}
	if data["steps_trend"] != models.TrendImproving {
		t.Errorf("steps_trend = %v, want %s", data["steps_trend"], models.TrendImproving)
	}
}

func TestHealthStats_DaysClamped(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"above maximum", "days=9999", 365},
		{"below minimum", "days=-5", 1},
		{"zero", "days=0", 1},
		{"in range", "days=90", 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syncer := &fakeSync{stats: &models.HealthStats{}}
			h := newTestAPI(t, testConfig(), connectedFake(), syncer)

			rec := do(h, authedRequest(t, http.MethodGet, "/api/v1/health/stats?"+tt.query, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			if syncer.statsDays != tt.want {
				t.Errorf("days = %d, want %d", syncer.statsDays, tt.want)
			}
		})
	}
}

func TestHealthStats_NonNumericDays(t *testing.T) {
	h := newTestAPI(t, testConfig(), connectedFake(), &fakeSync{})

	rec := do(h, authedRequest(t, http.MethodGet, "/api/v1/health/stats?days=month", nil))
	assertErrorCode(t, rec, http.StatusBadRequest, ErrCodeValidation)
}

func TestInsights_EmptyWindow(t *testing.T) {
	syncer := &fakeSync{}
	h := newTestAPI(t, testConfig(), connectedFake(), syncer)

	rec := do(h, authedRequest(t, http.MethodGet, "/api/v1/health/insights", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if syncer.windowDays != 30 {
		t.Errorf("window days = %d, want configured 30", syncer.windowDays)
	}

	data := dataMap(t, decodeResponse(t, rec))
	if data["days"] != float64(30) {
		t.Errorf("days = %v, want 30", data["days"])
	}
	correlations, ok := data["correlations"].([]interface{})
	if !ok || len(correlations) != 0 {
		t.Errorf("correlations = %v, want empty array", data["correlations"])
	}
}

func TestInsights_ComputesCorrelations(t *testing.T) {
	// Six days of perfectly aligned sleep and steps produce one strong
	// positive correlation through the real insights engine.
	records := make([]models.DailyHealthRecord, 6)
	for i := range records {
		records[i] = models.DailyHealthRecord{
			UserID:       testUser,
			Date:         fmt.Sprintf("2026-03-%02d", i+1),
			SleepMinutes: ip(300 + 10*i),
			Steps:        ip(4000 + 500*i),
		}
	}
	syncer := &fakeSync{windowRecords: records}
	h := newTestAPI(t, testConfig(), connectedFake(), syncer)

	rec := do(h, authedRequest(t, http.MethodGet, "/api/v1/health/insights?days=14", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if syncer.windowDays != 14 {
		t.Errorf("window days = %d, want 14", syncer.windowDays)
	}

	data := dataMap(t, decodeResponse(t, rec))
	correlations, ok := data["correlations"].([]interface{})
	if !ok || len(correlations) != 1 {
		t.Fatalf("correlations = %v, want exactly 1", data["correlations"])
	}
	first := correlations[0].(map[string]interface{})
	if first["strength"] != models.CorrelationStrong {
		t.Errorf("strength = %v, want %s", first["strength"], models.CorrelationStrong)
	}
}

func TestWeeklySummary_Available(t *testing.T) {
	syncer := &fakeSync{
		weekly: &models.WeeklyInsight{
			UserID:       testUser,
			WeekStart:    "2026-02-23",
			DaysWithData: 5,
		},
	}
	h := newTestAPI(t, testConfig(), connectedFake(), syncer)

	rec := do(h, authedRequest(t, http.MethodGet, "/api/v1/health/weekly-summary", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	data := dataMap(t, decodeResponse(t, rec))
	if data["available"] != true {
		t.Fatalf("available = %v, want true", data["available"])
	}
	summary, ok := data["summary"].(map[string]interface{})
	if !ok {
		t.Fatalf("summary is %T, want object", data["summary"])
	}
	if summary["week_start"] != "2026-02-23" {
		t.Errorf("week_start = %v, want 2026-02-23", summary["week_start"])
	}
}

func TestWeeklySummary_NotAvailable(t *testing.T) {
	syncer := &fakeSync{weeklyErr: store.ErrNotFound}
	h := newTestAPI(t, testConfig(), connectedFake(), syncer)

	rec := do(h, authedRequest(t, http.MethodGet, "/api/v1/health/weekly-summary", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	data := dataMap(t, decodeResponse(t, rec))
	if data["available"] != false {
		t.Errorf("available = %v, want false", data["available"])
	}
	if _, present := data["summary"]; present {
		t.Error("summary should be omitted when unavailable")
	}
}

func TestSyncNow(t *testing.T) {
	syncer := &fakeSync{syncResult: true}
	h := newTestAPI(t, testConfig(), connectedFake(), syncer)

	rec := do(h, authedRequest(t, http.MethodPost, "/api/v1/health/sync", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	data := dataMap(t, decodeResponse(t, rec))
	if data["synced"] != true {
		t.Errorf("synced = %v, want true", data["synced"])
	}
	if len(syncer.syncUsers) != 1 || syncer.syncUsers[0] != testUser {
		t.Errorf("synced users = %v, want [%s]", syncer.syncUsers, testUser)
	}
}

func TestSyncNow_NotConnected(t *testing.T) {
	syncer := &fakeSync{syncResult: true}
	h := newTestAPI(t, testConfig(), &fakeConnections{}, syncer)

	rec := do(h, authedRequest(t, http.MethodPost, "/api/v1/health/sync", nil))
	assertErrorCode(t, rec, http.StatusBadRequest, ErrCodeNotConnected)

	if len(syncer.syncUsers) != 0 {
		t.Error("sync should not run without a connection")
	}
}

func TestSyncNow_Failure(t *testing.T) {
	syncer := &fakeSync{syncResult: false}
	h := newTestAPI(t, testConfig(), connectedFake(), syncer)

	rec := do(h, authedRequest(t, http.MethodPost, "/api/v1/health/sync", nil))
	assertErrorCode(t, rec, http.StatusBadGateway, ErrCodeSyncFailed)
}

func TestBackfill(t *testing.T) {
	syncer := &fakeSync{backfillResult: 7}
	h := newTestAPI(t, testConfig(), connectedFake(), syncer)

	rec := do(h, authedRequest(t, http.MethodPost, "/api/v1/health/backfill",
		strings.NewReader(`{"days": 7}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if syncer.backfillDays != 7 {
		t.Errorf("backfill days = %d, want 7", syncer.backfillDays)
	}

	data := dataMap(t, decodeResponse(t, rec))
	if data["daysBackfilled"] != float64(7) {
		t.Errorf("daysBackfilled = %v, want 7", data["daysBackfilled"])
	}
}

func TestBackfill_ClampedToMax(t *testing.T) {
	syncer := &fakeSync{backfillResult: 90}
	h := newTestAPI(t, testConfig(), connectedFake(), syncer)

	rec := do(h, authedRequest(t, http.MethodPost, "/api/v1/health/backfill",
		strings.NewReader(`{"days": 500}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if syncer.backfillDays != 90 {
		t.Errorf("backfill days = %d, want clamp to 90", syncer.backfillDays)
	}
}

func TestBackfill_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero days", `{"days": 0}`},
		{"negative days", `{"days": -3}`},
		{"not json", `days=7`},
		{"empty body", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syncer := &fakeSync{}
			h := newTestAPI(t, testConfig(), connectedFake(), syncer)

			rec := do(h, authedRequest(t, http.MethodPost, "/api/v1/health/backfill",
				strings.NewReader(tt.body)))
			assertErrorCode(t, rec, http.StatusBadRequest, ErrCodeValidation)
			if syncer.backfillDays != 0 {
				t.Error("backfill should not run on invalid input")
			}
		})
	}
}

func TestBackfill_NotConnected(t *testing.T) {
	h := newTestAPI(t, testConfig(), &fakeConnections{}, &fakeSync{})

	rec := do(h, authedRequest(t, http.MethodPost, "/api/v1/health/backfill",
		strings.NewReader(`{"days": 7}`)))
	assertErrorCode(t, rec, http.StatusBadRequest, ErrCodeNotConnected)
}

func TestPurgeData(t *testing.T) {
	syncer := &fakeSync{purgeCount: 42}
	h := newTestAPI(t, testConfig(), connectedFake(), syncer)

	rec := do(h, authedRequest(t, http.MethodDelete, "/api/v1/health/data", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	data := dataMap(t, decodeResponse(t, rec))
	if data["recordsDeleted"] != float64(42) {
		t.Errorf("recordsDeleted = %v, want 42", data["recordsDeleted"])
	}
	if data["message"] == nil {
		t.Error("message missing")
	}
}

func TestPurgeData_Error(t *testing.T) {
	syncer := &fakeSync{purgeErr: errors.New("store offline")}
	h := newTestAPI(t, testConfig(), connectedFake(), syncer)

	rec := do(h, authedRequest(t, http.MethodDelete, "/api/v1/health/data", nil))
	assertErrorCode(t, rec, http.StatusInternalServerError, ErrCodeInternal)
}
