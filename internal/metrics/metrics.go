// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

// Package metrics registers the service's Prometheus collectors and the
// small recording helpers the rest of the codebase calls. Everything is
// registered at init via promauto under the "notive" namespace and served
// from the /metrics endpoint.
//
// Counters that track an operation outcome share the result label values
// "success" and "failure"; fetch-level counters add finer-grained results
// such as "permission_denied" or "insufficient_data".
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// namespace prefixes every metric exported by this service.
const namespace = "notive"

var (
	// HTTP API

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "HTTP requests served, by method, route, and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Latency of served HTTP requests",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "api_active_requests",
			Help:      "HTTP requests currently being served",
		},
	)

	RateLimitRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_rate_limit_hits_total",
			Help:      "Requests rejected by the per-client rate limiter",
		},
		[]string{"route"},
	)

	// Sync engine

	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Sync runs, by trigger and outcome",
		},
		[]string{"trigger", "result"}, // trigger: "scheduled", "manual", "backfill"
	)

	SyncRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Wall-clock duration of sync runs",
			Buckets:   []float64{0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		},
	)

	SyncUsersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_users_total",
			Help:      "Per-user sync attempts, by outcome",
		},
		[]string{"result"}, // "success", "skipped", "failure"
	)

	SyncLastSuccessAt = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sync_last_success_timestamp",
			Help:      "Unix time of the most recent fully successful sync run",
		},
	)

	BackfillWindow = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backfill_window",
			Help:      "Days of history requested per backfill",
			Buckets:   []float64{1, 7, 14, 30, 60, 90},
		},
	)

	// Google Fit client

	FitRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fit_requests_total",
			Help:      "Google Fit aggregate requests, by metric and result",
		},
		[]string{"metric", "result"}, // metric: "steps", "sleep", "heart_rate", "activity"
	)

	FitRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fit_request_duration_seconds",
			Help:      "Latency of Google Fit aggregate requests",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"metric"},
	)

	// OAuth

	OAuthOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "oauth_operations_total",
			Help:      "OAuth flows performed, by operation and outcome",
		},
		[]string{"operation", "result"}, // operation: "exchange", "refresh", "revoke"
	)

	TokensRefreshedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_refreshed_total",
			Help:      "Access token refreshes, by outcome",
		},
		[]string{"result"},
	)

	// Scheduler

	SchedulerJobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_job_runs_total",
			Help:      "Scheduler job executions, by job and outcome",
		},
		[]string{"job", "result"},
	)

	SchedulerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scheduler_job_duration_seconds",
			Help:      "Wall-clock duration of scheduler job executions",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
		[]string{"job"},
	)

	// Circuit breaker

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	BreakerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "breaker_requests_total",
			Help:      "Requests passed through a circuit breaker, by outcome",
		},
		[]string{"name", "result"}, // "success", "failure", "rejected"
	)
)

// outcome maps an error to the shared result label.
func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordAPIRequest records a completed API request.
func RecordAPIRequest(method, route string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// TrackActiveRequest bumps the in-flight gauge and returns the function
// that releases it when the request completes.
func TrackActiveRequest() func() {
	HTTPInFlight.Inc()
	return HTTPInFlight.Dec
}

// RecordRateLimitHit records a request the limiter turned away.
func RecordRateLimitHit(route string) {
	RateLimitRejections.WithLabelValues(route).Inc()
}

// RecordSyncRun records a completed sync run. A nil err also advances the
// last-success timestamp.
func RecordSyncRun(trigger string, elapsed time.Duration, err error) {
	SyncRunsTotal.WithLabelValues(trigger, outcome(err)).Inc()
	SyncRunDuration.Observe(elapsed.Seconds())
	if err == nil {
		SyncLastSuccessAt.SetToCurrentTime()
	}
}

// RecordSyncUser records the outcome of a single user's sync.
func RecordSyncUser(result string) {
	SyncUsersTotal.WithLabelValues(result).Inc()
}

// RecordBackfill records the day count of a backfill request.
func RecordBackfill(days int) {
	BackfillWindow.Observe(float64(days))
}

// RecordFitRequest records the outcome of one Google Fit aggregate request.
func RecordFitRequest(metric, result string, elapsed time.Duration) {
	FitRequestsTotal.WithLabelValues(metric, result).Inc()
	FitRequestDuration.WithLabelValues(metric).Observe(elapsed.Seconds())
}

// RecordOAuthOperation records an OAuth operation outcome.
func RecordOAuthOperation(operation string, ok bool) {
	if ok {
		OAuthOperationsTotal.WithLabelValues(operation, "success").Inc()
		return
	}
	OAuthOperationsTotal.WithLabelValues(operation, "failure").Inc()
}

// RecordTokenRefresh records an access token refresh outcome.
func RecordTokenRefresh(ok bool) {
	if ok {
		TokensRefreshedTotal.WithLabelValues("success").Inc()
		return
	}
	TokensRefreshedTotal.WithLabelValues("failure").Inc()
}

// RecordSchedulerJob records a scheduler job execution.
func RecordSchedulerJob(job string, elapsed time.Duration, err error) {
	SchedulerJobRunsTotal.WithLabelValues(job, outcome(err)).Inc()
	SchedulerJobDuration.WithLabelValues(job).Observe(elapsed.Seconds())
}

// SetBreakerState updates the breaker state gauge.
// State values: 0=closed, 1=half-open, 2=open.
func SetBreakerState(name string, state int) {
	BreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordBreakerRequest records a request travelling through the breaker.
func RecordBreakerRequest(name, result string) {
	BreakerRequestsTotal.WithLabelValues(name, result).Inc()
}
