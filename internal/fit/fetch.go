// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package fit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/abbasaisolutions/notive-health/internal/metrics"
	"github.com/abbasaisolutions/notive-health/internal/models"
)

const (
	// sleepLookback widens the sleep query window: a night's segments
	// routinely start before local midnight.
	sleepLookback = 12 * time.Hour

	// minSleepMinutes is the floor below which a day's sleep segments are
	// treated as no meaningful sleep data rather than a short night.
	minSleepMinutes = 30
)

// fetchStatus tags a per-metric fetch outcome so the assembler can tell
// "403, stay silent" from "transient failure, already logged" from "data
// present but below the usefulness threshold".
type fetchStatus int

const (
	fetchOK fetchStatus = iota
	fetchPermissionDenied
	fetchUnavailable
	fetchInsufficient
)

type stepsResult struct {
	status fetchStatus
	steps  int
}

type sleepResult struct {
	status       fetchStatus
	totalMinutes int
	stages       models.SleepStages
}

type heartResult struct {
	status  fetchStatus
	avg     float64
	resting float64
}

type activityResult struct {
	status        fetchStatus
	activeMinutes int
	calories      float64
	hasCalories   bool
}

// failed classifies a fetch error, records metrics, and logs transient
// failures. Permission denials are an expected per-user condition and
// stay out of the logs.
func (c *Client) failed(metric string, started time.Time, err error) fetchStatus {
	if errors.Is(err, ErrPermissionDenied) {
		metrics.RecordFitRequest(metric, "permission_denied", time.Since(started))
		return fetchPermissionDenied
	}

	metrics.RecordFitRequest(metric, "error", time.Since(started))
	c.logger.Warn().Err(err).Str("metric", metric).Msg("Aggregate query failed, metric omitted for the day")
	return fetchUnavailable
}

// forEachPoint visits every data point in the response.
func forEachPoint(resp *aggregateResponse, fn func(p *dataPoint)) {
	for i := range resp.Bucket {
		for j := range resp.Bucket[i].Dataset {
			points := resp.Bucket[i].Dataset[j].Point
			for k := range points {
				fn(&points[k])
			}
		}
	}
}

func (c *Client) fetchSteps(ctx context.Context, accessToken string, dayStart, dayEnd time.Time) stepsResult {
	started := time.Now()

	resp, err := c.aggregate(ctx, accessToken, &aggregateRequest{
		AggregateBy:    []aggregateBy{{DataTypeName: dataTypeSteps}},
		BucketByTime:   bucketByTime{DurationMillis: dayEnd.Sub(dayStart).Milliseconds()},
		StartTimeNanos: nanos(dayStart),
		EndTimeNanos:   nanos(dayEnd),
	})
	if err != nil {
		return stepsResult{status: c.failed("steps", started, err)}
	}

	total := 0
	forEachPoint(resp, func(p *dataPoint) {
		total += int(p.firstInt())
	})

	metrics.RecordFitRequest("steps", "success", time.Since(started))
	return stepsResult{status: fetchOK, steps: total}
}

func (c *Client) fetchSleep(ctx context.Context, accessToken string, dayStart, dayEnd time.Time) sleepResult {
	started := time.Now()
	windowStart := dayStart.Add(-sleepLookback)

	resp, err := c.aggregate(ctx, accessToken, &aggregateRequest{
		AggregateBy:    []aggregateBy{{DataTypeName: dataTypeSleep}},
		BucketByTime:   bucketByTime{DurationMillis: dayEnd.Sub(windowStart).Milliseconds()},
		StartTimeNanos: nanos(windowStart),
		EndTimeNanos:   nanos(dayEnd),
	})
	if err != nil {
		return sleepResult{status: c.failed("sleep", started, err)}
	}

	var stages models.SleepStages
	forEachPoint(resp, func(p *dataPoint) {
		mins := p.durationMinutes()
		if mins == 0 {
			return
		}
		switch p.firstInt() {
		case sleepStageAwake:
			stages.AwakeMinutes += mins
		case sleepStageSleeping, sleepStageLight:
			stages.LightMinutes += mins
		case sleepStageDeep:
			stages.DeepMinutes += mins
		case sleepStageRem:
			stages.RemMinutes += mins
		}
		// sleepStageOutOfBed and unrecognized codes are ignored
	})

	total := stages.LightMinutes + stages.DeepMinutes + stages.RemMinutes
	if total < minSleepMinutes {
		metrics.RecordFitRequest("sleep", "insufficient_data", time.Since(started))
		c.logger.Debug().Int("total_minutes", total).Msg("Sleep segments below threshold, treating day as no sleep data")
		return sleepResult{status: fetchInsufficient}
	}

	metrics.RecordFitRequest("sleep", "success", time.Since(started))
	return sleepResult{status: fetchOK, totalMinutes: total, stages: stages}
}

func (c *Client) fetchHeartRate(ctx context.Context, accessToken string, dayStart, dayEnd time.Time) heartResult {
	started := time.Now()

	resp, err := c.aggregate(ctx, accessToken, &aggregateRequest{
		AggregateBy:    []aggregateBy{{DataTypeName: dataTypeHeartRate}},
		BucketByTime:   bucketByTime{DurationMillis: dayEnd.Sub(dayStart).Milliseconds()},
		StartTimeNanos: nanos(dayStart),
		EndTimeNanos:   nanos(dayEnd),
	})
	if err != nil {
		return heartResult{status: c.failed("heart_rate", started, err)}
	}

	var samples []float64
	forEachPoint(resp, func(p *dataPoint) {
		if v, ok := p.firstFloat(); ok && v > 0 {
			samples = append(samples, v)
		}
	})
	if len(samples) == 0 {
		metrics.RecordFitRequest("heart_rate", "insufficient_data", time.Since(started))
		return heartResult{status: fetchInsufficient}
	}

	var sum float64
	for _, v := range samples {
		sum += v
	}

	metrics.RecordFitRequest("heart_rate", "success", time.Since(started))
	return heartResult{
		status:  fetchOK,
		avg:     sum / float64(len(samples)),
		resting: restingFromSamples(samples),
	}
}

// fetchActivity queries activity segments and expended calories in a
// single aggregate call. Active minutes sum the durations of allow-listed
// segment types only.
func (c *Client) fetchActivity(ctx context.Context, accessToken string, dayStart, dayEnd time.Time) activityResult {
	started := time.Now()

	resp, err := c.aggregate(ctx, accessToken, &aggregateRequest{
		AggregateBy: []aggregateBy{
			{DataTypeName: dataTypeActivity},
			{DataTypeName: dataTypeCalories},
		},
		BucketByTime:   bucketByTime{DurationMillis: dayEnd.Sub(dayStart).Milliseconds()},
		StartTimeNanos: nanos(dayStart),
		EndTimeNanos:   nanos(dayEnd),
	})
	if err != nil {
		return activityResult{status: c.failed("activity", started, err)}
	}

	res := activityResult{status: fetchOK}
	forEachPoint(resp, func(p *dataPoint) {
		// The provider renames aggregated data types (segment -> summary),
		// so match on the stable fragment.
		switch {
		case strings.Contains(p.DataTypeName, "activity"):
			if activityAllowList[p.firstInt()] {
				res.activeMinutes += p.durationMinutes()
			}
		case strings.Contains(p.DataTypeName, "calories"):
			if v, ok := p.firstFloat(); ok {
				res.calories += v
				res.hasCalories = true
			}
		}
	})

	metrics.RecordFitRequest("activity", "success", time.Since(started))
	return res
}
