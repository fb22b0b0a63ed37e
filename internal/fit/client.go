// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

// Package fit fetches and normalizes daily health data from the Google
// Fit aggregation API. One public call, FetchDailyData, fans out to four
// metric queries (steps, sleep, heart rate, activity) and assembles a
// DailyHealthRecord; per-metric failures are isolated and surface as nil
// fields, never as a failed day.
package fit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	gosync "sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/abbasaisolutions/notive-health/internal/config"
	"github.com/abbasaisolutions/notive-health/internal/logging"
	"github.com/abbasaisolutions/notive-health/internal/models"
)

// ErrPermissionDenied marks an HTTP 403 from the provider: the user's
// grant does not cover the requested data type. Expected per user, never
// logged as an error.
var ErrPermissionDenied = errors.New("fit: permission denied for requested data type")

const (
	aggregatePath = "/users/me/dataset:aggregate"

	// maxErrorBodySize bounds how much of an error response body is read
	// for diagnostics.
	maxErrorBodySize = 64 * 1024
)

// Client queries the Google Fit aggregation endpoint. All requests run
// behind a shared circuit breaker; HTTP 429 responses are retried with
// exponential backoff honoring Retry-After.
//
// Thread safety: safe for concurrent use. Each request builds its own
// http.Request; the breaker serializes its own state internally.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	maxRetries     int
	retryBaseDelay time.Duration
	breaker        *gobreaker.CircuitBreaker[*aggregateResponse]
	logger         zerolog.Logger
}

// NewClient builds a Google Fit client from config. The request timeout
// bounds each HTTP attempt; backoff waits remain cancellable through the
// caller's context.
func NewClient(cfg config.GoogleFitConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		maxRetries:     5,
		retryBaseDelay: time.Second,
		breaker:        newBreaker(),
		logger:         logging.WithComponent("fit"),
	}
}

// aggregate performs one breaker-guarded aggregate query.
func (c *Client) aggregate(ctx context.Context, accessToken string, req *aggregateRequest) (*aggregateResponse, error) {
	resp, err := c.breaker.Execute(func() (*aggregateResponse, error) {
		return c.doAggregate(ctx, accessToken, req)
	})
	if err != nil && breakerRejected(err) {
		return nil, fmt.Errorf("provider circuit open: %w", err)
	}
	return resp, err
}

// doAggregate POSTs the aggregate request, retrying rate-limited attempts
// with exponential backoff (1s, 2s, 4s, 8s, 16s) and honoring Retry-After.
func (c *Client) doAggregate(ctx context.Context, accessToken string, aggReq *aggregateRequest) (*aggregateResponse, error) {
	body, err := json.Marshal(aggReq)
	if err != nil {
		return nil, fmt.Errorf("failed to encode aggregate request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+aggregatePath, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+accessToken)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("aggregate request failed: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return c.decodeAggregate(resp)
		}

		retryAfter := resp.Header.Get("Retry-After")
		_ = resp.Body.Close()

		if attempt == c.maxRetries {
			lastErr = fmt.Errorf("rate limit exceeded after %d retries", c.maxRetries)
			break
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter != "" {
			if parsed, err := time.ParseDuration(retryAfter + "s"); err == nil {
				delay = parsed
			}
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// decodeAggregate consumes a non-429 response: 403 maps to
// ErrPermissionDenied, other non-2xx statuses to an error carrying a
// bounded read of the body.
func (c *Client) decodeAggregate(resp *http.Response) (*aggregateResponse, error) {
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, ErrPermissionDenied
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("aggregate request failed with status %d: %s", resp.StatusCode, errorSnippet(resp.Body))
	}

	var out aggregateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode aggregate response: %w", err)
	}
	return &out, nil
}

// errorSnippet reads at most maxErrorBodySize bytes of a failed response
// for inclusion in the error message.
func errorSnippet(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	switch {
	case err != nil:
		return "(unreadable body)"
	case len(body) == maxErrorBodySize:
		return string(body) + "..."
	}
	return string(body)
}

// FetchDailyData fetches all four metrics for the calendar day containing
// date (in date's location) and assembles a normalized record. The four
// queries run in parallel; a metric failure leaves its fields nil. The
// error return fires only when ctx is already done before any work starts.
//
// The returned record carries Date but not UserID or SyncedAt; callers
// stamp those at persistence time.
func (c *Client) FetchDailyData(ctx context.Context, accessToken string, date time.Time) (*models.DailyHealthRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var (
		wg       gosync.WaitGroup
		steps    stepsResult
		sleep    sleepResult
		heart    heartResult
		activity activityResult
	)

	wg.Add(4)
	go func() { defer wg.Done(); steps = c.fetchSteps(ctx, accessToken, dayStart, dayEnd) }()
	go func() { defer wg.Done(); sleep = c.fetchSleep(ctx, accessToken, dayStart, dayEnd) }()
	go func() { defer wg.Done(); heart = c.fetchHeartRate(ctx, accessToken, dayStart, dayEnd) }()
	go func() { defer wg.Done(); activity = c.fetchActivity(ctx, accessToken, dayStart, dayEnd) }()
	wg.Wait()

	record := &models.DailyHealthRecord{
		Date: dayStart.Format(time.DateOnly),
	}

	if steps.status == fetchOK {
		v := steps.steps
		record.Steps = &v
	}

	if sleep.status == fetchOK {
		total := sleep.totalMinutes
		stages := sleep.stages
		record.SleepMinutes = &total
		record.SleepStages = &stages

		score := SleepQualityScore(total, stages.DeepMinutes, stages.RemMinutes, stages.AwakeMinutes)
		quality := SleepQualityBucket(score)
		record.SleepQuality = &quality
	}

	if heart.status == fetchOK {
		avg := heart.avg
		resting := heart.resting
		record.AvgHeartRate = &avg
		record.RestingHeartRate = &resting
	}

	if activity.status == fetchOK {
		am := activity.activeMinutes
		record.ActiveMinutes = &am
		if activity.hasCalories {
			cal := activity.calories
			record.Calories = &cal
		}
	}

	return record, nil
}
