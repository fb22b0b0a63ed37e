// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package models

import "time"

// Correlation strength and direction labels.
const (
	CorrelationWeak     = "weak"     // |r| < 0.4
	CorrelationModerate = "moderate" // 0.4 <= |r| < 0.7
	CorrelationStrong   = "strong"   // |r| >= 0.7

	DirectionPositive = "positive"
	DirectionNegative = "negative"
)

// Correlation describes the Pearson correlation between two health metrics
// over the days where both were present.
type Correlation struct {
	MetricX     string  `json:"metric_x"`
	MetricY     string  `json:"metric_y"`
	Coefficient float64 `json:"coefficient"` // [-1, 1]
	Strength    string  `json:"strength"`    // weak/moderate/strong
	Direction   string  `json:"direction"`   // positive/negative
	Samples     int     `json:"samples"`     // overlapping days
}

// InsightBundle is the correlation/insight payload for the insights endpoint.
type InsightBundle struct {
	Days         int           `json:"days"`
	DaysWithData int           `json:"days_with_data"`
	Correlations []Correlation `json:"correlations"`
	Highlights   []string      `json:"highlights"`
	GeneratedAt  time.Time     `json:"generated_at"`
}

// MetricDelta captures the week-over-week change of one metric.
type MetricDelta struct {
	Metric         string   `json:"metric"`
	CurrentAvg     float64  `json:"current_avg"`
	PreviousAvg    *float64 `json:"previous_avg,omitempty"`
	PercentChange  *float64 `json:"percent_change,omitempty"` // nil when no previous data
	Classification string   `json:"classification"`           // improving/declining/stable
}

// WeeklyInsight is the persisted weekly summary for one user and week.
// WeekStart is the Monday of the summarized (completed) week.
type WeeklyInsight struct {
	UserID           string        `json:"user_id"`
	WeekStart        string        `json:"week_start"` // YYYY-MM-DD, Monday
	GeneratedAt      time.Time     `json:"generated_at"`
	DaysWithData     int           `json:"days_with_data"`
	AvgSleepMinutes  *float64      `json:"avg_sleep_minutes,omitempty"`
	AvgSteps         *float64      `json:"avg_steps,omitempty"`
	AvgActiveMinutes *float64      `json:"avg_active_minutes,omitempty"`
	BestSleepDate    string        `json:"best_sleep_date,omitempty"`
	WorstSleepDate   string        `json:"worst_sleep_date,omitempty"`
	Deltas           []MetricDelta `json:"deltas,omitempty"`
	Highlights       []string      `json:"highlights,omitempty"`
}
