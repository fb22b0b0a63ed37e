// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/health/stats", "200"))

	RecordAPIRequest("GET", "/api/v1/health/stats", 200, 25*time.Millisecond)

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/api/v1/health/stats", "200"))
	if after != before+1 {
		t.Errorf("counter = %v, want %v", after, before+1)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPInFlight)

	done := TrackActiveRequest()
	during := testutil.ToFloat64(HTTPInFlight)
	if during != before+1 {
		t.Errorf("gauge during request = %v, want %v", during, before+1)
	}

	done()
	after := testutil.ToFloat64(HTTPInFlight)
	if after != before {
		t.Errorf("gauge after request = %v, want %v", after, before)
	}
}

func TestRecordSyncRun(t *testing.T) {
	tests := []struct {
		name    string
		trigger string
		err     error
		result  string
	}{
		{"scheduled success", "scheduled", nil, "success"},
		{"manual failure", "manual", errors.New("boom"), "failure"},
		{"backfill success", "backfill", nil, "success"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := testutil.ToFloat64(SyncRunsTotal.WithLabelValues(tt.trigger, tt.result))

			RecordSyncRun(tt.trigger, time.Second, tt.err)

			after := testutil.ToFloat64(SyncRunsTotal.WithLabelValues(tt.trigger, tt.result))
			if after != before+1 {
				t.Errorf("counter = %v, want %v", after, before+1)
			}
		})
	}
}

func TestRecordFitRequest(t *testing.T) {
	before := testutil.ToFloat64(FitRequestsTotal.WithLabelValues("steps", "ok"))

	RecordFitRequest("steps", "ok", 120*time.Millisecond)

	after := testutil.ToFloat64(FitRequestsTotal.WithLabelValues("steps", "ok"))
	if after != before+1 {
		t.Errorf("counter = %v, want %v", after, before+1)
	}
}

func TestRecordOAuthOperation(t *testing.T) {
	successBefore := testutil.ToFloat64(OAuthOperationsTotal.WithLabelValues("exchange", "success"))
	failureBefore := testutil.ToFloat64(OAuthOperationsTotal.WithLabelValues("refresh", "failure"))

	RecordOAuthOperation("exchange", true)
	RecordOAuthOperation("refresh", false)

	if got := testutil.ToFloat64(OAuthOperationsTotal.WithLabelValues("exchange", "success")); got != successBefore+1 {
		t.Errorf("exchange success counter = %v, want %v", got, successBefore+1)
	}
	if got := testutil.ToFloat64(OAuthOperationsTotal.WithLabelValues("refresh", "failure")); got != failureBefore+1 {
		t.Errorf("refresh failure counter = %v, want %v", got, failureBefore+1)
	}
}

func TestRecordTokenRefresh(t *testing.T) {
	before := testutil.ToFloat64(TokensRefreshedTotal.WithLabelValues("success"))

	RecordTokenRefresh(true)

	if got := testutil.ToFloat64(TokensRefreshedTotal.WithLabelValues("success")); got != before+1 {
		t.Errorf("counter = %v, want %v", got, before+1)
	}
}

func TestRecordSchedulerJob(t *testing.T) {
	before := testutil.ToFloat64(SchedulerJobRunsTotal.WithLabelValues("sync", "failure"))

	RecordSchedulerJob("sync", 2*time.Second, errors.New("provider down"))

	if got := testutil.ToFloat64(SchedulerJobRunsTotal.WithLabelValues("sync", "failure")); got != before+1 {
		t.Errorf("counter = %v, want %v", got, before+1)
	}
}

func TestSetBreakerState(t *testing.T) {
	SetBreakerState("googlefit", 2)
	if got := testutil.ToFloat64(BreakerState.WithLabelValues("googlefit")); got != 2 {
		t.Errorf("gauge = %v, want 2", got)
	}

	SetBreakerState("googlefit", 0)
	if got := testutil.ToFloat64(BreakerState.WithLabelValues("googlefit")); got != 0 {
		t.Errorf("gauge = %v, want 0", got)
	}
}

// TestMetricGathering verifies all registered metrics pass promlint.
func TestMetricGathering(t *testing.T) {
	// Touch a few metrics so the gatherer has samples to lint
	RecordAPIRequest("GET", "/healthz", 200, time.Millisecond)
	RecordSyncUser("success")
	RecordBackfill(30)
	RecordBreakerRequest("googlefit", "success")
	RecordRateLimitHit("/api/v1/health/sync")

	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Fatalf("GatherAndLint() error = %v", err)
	}
	for _, p := range problems {
		t.Errorf("metric %s: %s", p.Metric, p.Text)
	}
}
