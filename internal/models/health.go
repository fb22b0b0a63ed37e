// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package models

import "time"

// ProviderGoogleFit is the provider identifier for Google Fit connections.
const ProviderGoogleFit = "google_fit"

// Sleep quality buckets derived from the 0-100 quality score.
const (
	SleepQualityPoor      = "poor"      // score < 40
	SleepQualityFair      = "fair"      // 40 <= score < 60
	SleepQualityGood      = "good"      // 60 <= score < 80
	SleepQualityExcellent = "excellent" // score >= 80
)

// Activity levels derived from steps and active minutes.
const (
	ActivityLow      = "low"
	ActivityModerate = "moderate"
	ActivityHigh     = "high"
)

// Trend classifications for windowed health stats.
const (
	TrendImproving = "improving" // second-half mean > +10% vs first half
	TrendDeclining = "declining" // second-half mean < -10% vs first half
	TrendStable    = "stable"
)

// Connection represents a user's link to an external health data provider.
// At most one active Connection exists per (user, provider); reconnecting
// upserts in place. Tokens are stored encrypted (vault format), never raw.
type Connection struct {
	UserID       string     `json:"user_id"`
	Provider     string     `json:"provider"`
	AccessToken  string     `json:"access_token"`  // encrypted
	RefreshToken string     `json:"refresh_token"` // encrypted
	Expiry       time.Time  `json:"expiry"`        // access token expiry
	Scopes       []string   `json:"scopes"`
	ConnectedAt  time.Time  `json:"connected_at"`
	LastSyncAt   *time.Time `json:"last_sync_at,omitempty"`
}

// SleepStages holds the per-stage breakdown of a night's sleep in minutes.
// Awake minutes are tracked but excluded from total sleep duration.
type SleepStages struct {
	LightMinutes int `json:"light_minutes"`
	DeepMinutes  int `json:"deep_minutes"`
	RemMinutes   int `json:"rem_minutes"`
	AwakeMinutes int `json:"awake_minutes"`
}

// DailyHealthRecord is the normalized health snapshot for one calendar date.
// Unique per (user, date); a later sync overwrites earlier values for the
// same date. Nil fields mean the metric was unavailable for that day.
type DailyHealthRecord struct {
	UserID           string       `json:"user_id"`
	Date             string       `json:"date"` // YYYY-MM-DD
	SleepMinutes     *int         `json:"sleep_minutes,omitempty"`
	SleepQuality     *string      `json:"sleep_quality,omitempty"` // poor/fair/good/excellent
	SleepStages      *SleepStages `json:"sleep_stages,omitempty"`
	Steps            *int         `json:"steps,omitempty"`
	ActiveMinutes    *int         `json:"active_minutes,omitempty"`
	Calories         *float64     `json:"calories,omitempty"`
	AvgHeartRate     *float64     `json:"avg_heart_rate,omitempty"`
	RestingHeartRate *float64     `json:"resting_heart_rate,omitempty"`
	SyncedAt         time.Time    `json:"synced_at"`
}

// HasAnyMetric reports whether at least one metric was captured for the day.
func (r *DailyHealthRecord) HasAnyMetric() bool {
	return r.SleepMinutes != nil || r.Steps != nil || r.ActiveMinutes != nil ||
		r.Calories != nil || r.AvgHeartRate != nil || r.RestingHeartRate != nil
}

// HealthContext is the per-day presentation form of a record: the stored
// metrics plus the derived activity level. ActivityLevel is nil (not "low")
// when both steps and active minutes are missing.
type HealthContext struct {
	Date             string       `json:"date"`
	SleepMinutes     *int         `json:"sleep_minutes,omitempty"`
	SleepQuality     *string      `json:"sleep_quality,omitempty"`
	SleepStages      *SleepStages `json:"sleep_stages,omitempty"`
	Steps            *int         `json:"steps,omitempty"`
	ActiveMinutes    *int         `json:"active_minutes,omitempty"`
	Calories         *float64     `json:"calories,omitempty"`
	AvgHeartRate     *float64     `json:"avg_heart_rate,omitempty"`
	RestingHeartRate *float64     `json:"resting_heart_rate,omitempty"`
	ActivityLevel    *string      `json:"activity_level,omitempty"` // low/moderate/high
	SyncedAt         time.Time    `json:"synced_at"`
}

// HealthStats summarizes a user's health metrics over a trailing window.
// Averages are computed over days where the metric is present; nil means no
// day in the window carried the metric.
type HealthStats struct {
	Days                int      `json:"days"` // requested window size
	DaysWithData        int      `json:"days_with_data"`
	AvgSleepMinutes     *float64 `json:"avg_sleep_minutes,omitempty"`
	AvgSteps            *float64 `json:"avg_steps,omitempty"`
	AvgActiveMinutes    *float64 `json:"avg_active_minutes,omitempty"`
	AvgCalories         *float64 `json:"avg_calories,omitempty"`
	AvgHeartRate        *float64 `json:"avg_heart_rate,omitempty"`
	AvgRestingHeartRate *float64 `json:"avg_resting_heart_rate,omitempty"`
	SleepTrend          string   `json:"sleep_trend"` // improving/declining/stable
	StepsTrend          string   `json:"steps_trend"`
}

// ConnectionStatus is the connection summary surfaced to the frontend.
type ConnectionStatus struct {
	Connected   bool       `json:"connected"`
	ConnectedAt *time.Time `json:"connected_at,omitempty"`
	LastSyncAt  *time.Time `json:"last_sync_at,omitempty"`
	Scopes      []string   `json:"scopes,omitempty"`
}

// SyncSummary reports the outcome of an all-user sync batch.
type SyncSummary struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}
