// Notive Health Sync - Google Fit Integration Service
// Copyright 2026 Abbas AI Solutions
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/abbasaisolutions/notive-health

package fit

import (
	"strconv"
	"time"
)

// Google Fit data type names queried by this service. All scopes are
// read-only; the aggregate endpoint buckets each type over the requested
// window.
const (
	dataTypeSteps     = "com.google.step_count.delta"
	dataTypeSleep     = "com.google.sleep.segment"
	dataTypeHeartRate = "com.google.heart_rate.bpm"
	dataTypeActivity  = "com.google.activity.segment"
	dataTypeCalories  = "com.google.calories.expended"
)

// Sleep stage codes as reported in sleep segment point values.
const (
	sleepStageAwake    = 1
	sleepStageSleeping = 2 // generic sleep, counted as light
	sleepStageOutOfBed = 3 // ignored entirely
	sleepStageLight    = 4
	sleepStageDeep     = 5
	sleepStageRem      = 6
)

// activityAllowList holds the activity-segment type codes that count
// toward active minutes. Sedentary codes (0 in_vehicle, 3 still, 5
// tilting) are deliberately absent: time spent motionless is not
// activity even though the provider enumerates it.
var activityAllowList = map[int64]bool{
	1:  true, // biking
	7:  true, // walking
	8:  true, // running
	9:  true, // aerobics
	10: true, // badminton
	11: true, // baseball
	12: true, // basketball
	17: true, // spinning
	18: true, // stationary biking
	21: true, // calisthenics
	22: true, // circuit training
	24: true, // dancing
	25: true, // elliptical
	29: true, // soccer
	32: true, // golf
	35: true, // hiking
	39: true, // jump rope
	41: true, // kettlebell
	44: true, // martial arts
	49: true, // pilates
	52: true, // rock climbing
	53: true, // rowing
	54: true, // rowing machine
	58: true, // treadmill running
	82: true, // swimming
}

// aggregateRequest is the body of a dataset:aggregate call. The provider
// carries 64-bit nanosecond epochs as JSON strings, so the time bounds
// are preformatted.
type aggregateRequest struct {
	AggregateBy    []aggregateBy `json:"aggregateBy"`
	BucketByTime   bucketByTime  `json:"bucketByTime"`
	StartTimeNanos string        `json:"startTimeNanos"`
	EndTimeNanos   string        `json:"endTimeNanos"`
}

type aggregateBy struct {
	DataTypeName string `json:"dataTypeName"`
}

type bucketByTime struct {
	DurationMillis int64 `json:"durationMillis"`
}

type aggregateResponse struct {
	Bucket []aggregateBucket `json:"bucket"`
}

type aggregateBucket struct {
	StartTimeMillis string    `json:"startTimeMillis"`
	EndTimeMillis   string    `json:"endTimeMillis"`
	Dataset         []dataset `json:"dataset"`
}

type dataset struct {
	DataSourceID string      `json:"dataSourceId"`
	Point        []dataPoint `json:"point"`
}

type dataPoint struct {
	StartTimeNanos string       `json:"startTimeNanos"`
	EndTimeNanos   string       `json:"endTimeNanos"`
	DataTypeName   string       `json:"dataTypeName"`
	Value          []pointValue `json:"value"`
}

type pointValue struct {
	IntVal int64   `json:"intVal"`
	FpVal  float64 `json:"fpVal"`
}

// durationMinutes computes a point's span in whole minutes from its
// nanosecond bounds. Unparseable or inverted bounds yield 0.
func (p *dataPoint) durationMinutes() int {
	start, err := strconv.ParseInt(p.StartTimeNanos, 10, 64)
	if err != nil {
		return 0
	}
	end, err := strconv.ParseInt(p.EndTimeNanos, 10, 64)
	if err != nil || end <= start {
		return 0
	}
	return int((end - start) / int64(60e9))
}

// firstInt returns the point's leading integer value, or 0.
func (p *dataPoint) firstInt() int64 {
	if len(p.Value) == 0 {
		return 0
	}
	return p.Value[0].IntVal
}

// firstFloat returns the point's leading float value and whether one exists.
func (p *dataPoint) firstFloat() (float64, bool) {
	if len(p.Value) == 0 {
		return 0, false
	}
	return p.Value[0].FpVal, true
}

// nanos formats a time as the provider's string-wrapped nanosecond epoch.
func nanos(t time.Time) string {
	return strconv.FormatInt(t.UnixNano(), 10)
}
