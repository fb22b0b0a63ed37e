// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

// Package insights derives correlations and weekly summaries from stored
// health records. Everything here is a pure function over record slices;
// callers load the windows and persist the results.
package insights

import (
	"fmt"
	"math"
	"time"

	"github.com/abbasaisolutions/notive-health/internal/fit"
	"github.com/abbasaisolutions/notive-health/internal/models"
)

// minOverlap is the smallest number of overlapping days worth
// correlating; below it the pair is omitted rather than reported with a
// meaningless coefficient.
const minOverlap = 5

// extractor pulls one metric from a record, reporting presence.
type extractor func(r *models.DailyHealthRecord) (float64, bool)

func sleepMinutes(r *models.DailyHealthRecord) (float64, bool) {
	if r.SleepMinutes == nil {
		return 0, false
	}
	return float64(*r.SleepMinutes), true
}

func steps(r *models.DailyHealthRecord) (float64, bool) {
	if r.Steps == nil {
		return 0, false
	}
	return float64(*r.Steps), true
}

func activeMinutes(r *models.DailyHealthRecord) (float64, bool) {
	if r.ActiveMinutes == nil {
		return 0, false
	}
	return float64(*r.ActiveMinutes), true
}

func restingHeartRate(r *models.DailyHealthRecord) (float64, bool) {
	if r.RestingHeartRate == nil {
		return 0, false
	}
	return *r.RestingHeartRate, true
}

// sleepQualityScore recomputes the numeric 0-100 score from stored stage
// minutes; the record itself only persists the categorical bucket.
func sleepQualityScore(r *models.DailyHealthRecord) (float64, bool) {
	if r.SleepMinutes == nil || r.SleepStages == nil {
		return 0, false
	}
	score := fit.SleepQualityScore(*r.SleepMinutes,
		r.SleepStages.DeepMinutes, r.SleepStages.RemMinutes, r.SleepStages.AwakeMinutes)
	return float64(score), true
}

// metricLabels render metric keys for highlight strings.
var metricLabels = map[string]string{
	"sleep_minutes":       "sleep duration",
	"steps":               "step count",
	"active_minutes":      "active minutes",
	"resting_heart_rate":  "resting heart rate",
	"sleep_quality_score": "sleep quality",
}

// correlationPairs is the fixed set of metric pairs surfaced to users.
var correlationPairs = []struct {
	x, y string
	fx   extractor
	fy   extractor
}{
	{"sleep_minutes", "steps", sleepMinutes, steps},
	{"sleep_minutes", "active_minutes", sleepMinutes, activeMinutes},
	{"steps", "resting_heart_rate", steps, restingHeartRate},
	{"sleep_quality_score", "steps", sleepQualityScore, steps},
}

// Generate computes the correlation bundle for the insights endpoint.
// Each pair correlates over the days where both metrics are present;
// pairs with fewer than five overlapping days are omitted.
func Generate(records []models.DailyHealthRecord, days int) *models.InsightBundle {
	bundle := &models.InsightBundle{
		Days:         days,
		DaysWithData: countWithData(records),
		Correlations: []models.Correlation{},
		Highlights:   []string{},
		GeneratedAt:  time.Now().UTC(),
	}

	for _, pair := range correlationPairs {
		xs, ys := overlap(records, pair.fx, pair.fy)
		if len(xs) < minOverlap {
			continue
		}

		r := pearson(xs, ys)
		corr := models.Correlation{
			MetricX:     pair.x,
			MetricY:     pair.y,
			Coefficient: math.Round(r*1000) / 1000,
			Strength:    strengthOf(r),
			Direction:   directionOf(r),
			Samples:     len(xs),
		}
		bundle.Correlations = append(bundle.Correlations, corr)

		if corr.Strength != models.CorrelationWeak {
			bundle.Highlights = append(bundle.Highlights, highlightFor(corr))
		}
	}

	if len(bundle.Correlations) == 0 {
		bundle.Highlights = append(bundle.Highlights,
			"Not enough overlapping days to compute correlations yet.")
	}

	return bundle
}

// overlap collects paired values for the days where both metrics exist.
func overlap(records []models.DailyHealthRecord, fx, fy extractor) (xs, ys []float64) {
	for i := range records {
		x, okX := fx(&records[i])
		y, okY := fy(&records[i])
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	return xs, ys
}

// pearson computes the Pearson correlation coefficient of two equal-length
// series. Zero variance in either series yields 0.
func pearson(x, y []float64) float64 {
	n := float64(len(x))
	if n == 0 {
		return 0
	}

	var sumX, sumY float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for i := range x {
		dx, dy := x[i]-meanX, y[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}

func strengthOf(r float64) string {
	abs := math.Abs(r)
	switch {
	case abs >= 0.7:
		return models.CorrelationStrong
	case abs >= 0.4:
		return models.CorrelationModerate
	default:
		return models.CorrelationWeak
	}
}

func directionOf(r float64) string {
	if r < 0 {
		return models.DirectionNegative
	}
	return models.DirectionPositive
}

func highlightFor(c models.Correlation) string {
	relation := "tend to rise together"
	if c.Direction == models.DirectionNegative {
		relation = "tend to move in opposite directions"
	}
	return fmt.Sprintf("Your %s and %s %s (%s correlation over %d days).",
		metricLabels[c.MetricX], metricLabels[c.MetricY], relation, c.Strength, c.Samples)
}

// countWithData counts records carrying at least one metric.
func countWithData(records []models.DailyHealthRecord) int {
	n := 0
	for i := range records {
		if records[i].HasAnyMetric() {
			n++
		}
	}
	return n
}

// avgOf averages a metric over the days where it is present; nil when no
// day carries it.
func avgOf(records []models.DailyHealthRecord, f extractor) *float64 {
	var sum float64
	var n int
	for i := range records {
		if v, ok := f(&records[i]); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}
