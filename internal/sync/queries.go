// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package sync

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/abbasaisolutions/notive-health/internal/fit"
	"github.com/abbasaisolutions/notive-health/internal/models"
)

// ContextForDate returns the stored record for one date shaped for
// journaling prompts. The literal "today" resolves to yesterday, the last
// complete day. Missing days surface store.ErrNotFound.
func (o *Orchestrator) ContextForDate(ctx context.Context, userID, date string) (*models.HealthContext, error) {
	if date == "today" {
		date = o.yesterday().Format(time.DateOnly)
	} else if _, err := time.Parse(time.DateOnly, date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	rec, err := o.store.GetDailyRecord(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	return toContext(rec), nil
}

// TodayContext is the prompt-time shortcut for yesterday's record.
func (o *Orchestrator) TodayContext(ctx context.Context, userID string) (*models.HealthContext, error) {
	return o.ContextForDate(ctx, userID, "today")
}

// ContextRange returns contexts for the inclusive date range, oldest first.
func (o *Orchestrator) ContextRange(ctx context.Context, userID, start, end string) ([]*models.HealthContext, error) {
	records, err := o.store.GetDailyRecordRange(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	contexts := make([]*models.HealthContext, 0, len(records))
	for _, rec := range records {
		contexts = append(contexts, toContext(rec))
	}
	return contexts, nil
}

// InsightWindow loads the trailing window of records ending yesterday
// that feeds the insights engine.
func (o *Orchestrator) InsightWindow(ctx context.Context, userID string, days int) ([]models.DailyHealthRecord, error) {
	end := o.yesterday()
	start := end.AddDate(0, 0, -(days - 1))

	records, err := o.store.GetDailyRecordRange(ctx, userID,
		start.Format(time.DateOnly), end.Format(time.DateOnly))
	if err != nil {
		return nil, err
	}
	return derefRecords(records), nil
}

// LatestWeeklyInsight returns the most recent stored weekly summary.
func (o *Orchestrator) LatestWeeklyInsight(ctx context.Context, userID string) (*models.WeeklyInsight, error) {
	return o.store.LatestWeeklyInsight(ctx, userID)
}

// Stats aggregates the trailing window of `days` days ending yesterday:
// per-metric averages over the days carrying the metric, plus sleep and
// steps trends from an index split of the date-ordered series.
func (o *Orchestrator) Stats(ctx context.Context, userID string, days int) (*models.HealthStats, error) {
	end := o.yesterday()
	start := end.AddDate(0, 0, -(days - 1))

	records, err := o.store.GetDailyRecordRange(ctx, userID,
		start.Format(time.DateOnly), end.Format(time.DateOnly))
	if err != nil {
		return nil, err
	}

	stats := &models.HealthStats{Days: days}
	var sleepSeries, stepsSeries []float64
	for _, rec := range records {
		if rec.HasAnyMetric() {
			stats.DaysWithData++
		}
		if rec.SleepMinutes != nil {
			sleepSeries = append(sleepSeries, float64(*rec.SleepMinutes))
		}
		if rec.Steps != nil {
			stepsSeries = append(stepsSeries, float64(*rec.Steps))
		}
	}

	stats.AvgSleepMinutes = avgIntMetric(records, func(r *models.DailyHealthRecord) *int { return r.SleepMinutes })
	stats.AvgSteps = avgIntMetric(records, func(r *models.DailyHealthRecord) *int { return r.Steps })
	stats.AvgActiveMinutes = avgIntMetric(records, func(r *models.DailyHealthRecord) *int { return r.ActiveMinutes })
	stats.AvgCalories = avgFloatMetric(records, func(r *models.DailyHealthRecord) *float64 { return r.Calories })
	stats.AvgHeartRate = avgFloatMetric(records, func(r *models.DailyHealthRecord) *float64 { return r.AvgHeartRate })
	stats.AvgRestingHeartRate = avgFloatMetric(records, func(r *models.DailyHealthRecord) *float64 { return r.RestingHeartRate })
	stats.SleepTrend = trendOf(sleepSeries)
	stats.StepsTrend = trendOf(stepsSeries)
	return stats, nil
}

// toContext projects a record into its presentation shape, deriving the
// activity level from steps and active minutes.
func toContext(rec *models.DailyHealthRecord) *models.HealthContext {
	return &models.HealthContext{
		Date:             rec.Date,
		SleepMinutes:     rec.SleepMinutes,
		SleepQuality:     rec.SleepQuality,
		SleepStages:      rec.SleepStages,
		Steps:            rec.Steps,
		ActiveMinutes:    rec.ActiveMinutes,
		Calories:         rec.Calories,
		AvgHeartRate:     rec.AvgHeartRate,
		RestingHeartRate: rec.RestingHeartRate,
		ActivityLevel:    fit.ActivityLevel(rec.Steps, rec.ActiveMinutes),
		SyncedAt:         rec.SyncedAt,
	}
}

// trendOf classifies a date-ordered series by comparing the means of its
// index-split halves: above +10% improving, below -10% declining,
// otherwise stable. Series too short to split are stable, as is a
// zero first-half mean.
func trendOf(series []float64) string {
	if len(series) < 2 {
		return models.TrendStable
	}

	mid := len(series) / 2
	first := mean(series[:mid])
	second := mean(series[mid:])
	if first == 0 {
		return models.TrendStable
	}

	change := (second - first) / first * 100
	switch {
	case change > 10:
		return models.TrendImproving
	case change < -10:
		return models.TrendDeclining
	default:
		return models.TrendStable
	}
}

func mean(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s {
		sum += v
	}
	return sum / float64(len(s))
}

func avgIntMetric(records []*models.DailyHealthRecord, f func(*models.DailyHealthRecord) *int) *float64 {
	var sum float64
	n := 0
	for _, r := range records {
		if v := f(r); v != nil {
			sum += float64(*v)
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := math.Round(sum/float64(n)*10) / 10
	return &avg
}

func avgFloatMetric(records []*models.DailyHealthRecord, f func(*models.DailyHealthRecord) *float64) *float64 {
	var sum float64
	n := 0
	for _, r := range records {
		if v := f(r); v != nil {
			sum += *v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := math.Round(sum/float64(n)*10) / 10
	return &avg
}

func derefRecords(records []*models.DailyHealthRecord) []models.DailyHealthRecord {
	out := make([]models.DailyHealthRecord, 0, len(records))
	for _, r := range records {
		out = append(out, *r)
	}
	return out
}
