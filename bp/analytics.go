/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package bp

import (
	"sort"
	"time"
)

// Sample is the subset of a stored reading needed for analysis.
type Sample struct {
	ID         string
	Systolic   int
	Diastolic  int
	Pulse      int
	MeasuredAt time.Time
	IsAbnormal bool
	Category   Category
}

// Trend is the direction of systolic pressure over a window.
type Trend string

const (
	TrendInsufficient Trend = "insufficient data"
	TrendImproving    Trend = "improving"
	TrendWorsening    Trend = "worsening"
	TrendStable       Trend = "stable"
)

// trendWindow is the number of readings averaged at each end of the series.
const trendWindow = 3

// Summary holds aggregate statistics over a set of readings.
type Summary struct {
	AvgSystolic   float64
	AvgDiastolic  float64
	MinSystolic   int
	MaxSystolic   int
	MinDiastolic  int
	MaxDiastolic  int
	ReadingCount  int
	AbnormalCount int
	Trend         Trend
	TrendDetails  string
}

// Summarize computes summary statistics and the trend for samples.
func Summarize(samples []Sample) (Summary, error) {
	if len(samples) == 0 {
		return Summary{}, ErrNoReadings
	}

	s := Summary{
		MinSystolic:  samples[0].Systolic,
		MaxSystolic:  samples[0].Systolic,
		MinDiastolic: samples[0].Diastolic,
		MaxDiastolic: samples[0].Diastolic,
		ReadingCount: len(samples),
	}

	var sysTotal, diaTotal int
	for _, sample := range samples {
		sysTotal += sample.Systolic
		diaTotal += sample.Diastolic

		s.MinSystolic = min(s.MinSystolic, sample.Systolic)
		s.MaxSystolic = max(s.MaxSystolic, sample.Systolic)
		s.MinDiastolic = min(s.MinDiastolic, sample.Diastolic)
		s.MaxDiastolic = max(s.MaxDiastolic, sample.Diastolic)

		if sample.IsAbnormal {
			s.AbnormalCount++
		}
	}

	s.AvgSystolic = float64(sysTotal) / float64(len(samples))
	s.AvgDiastolic = float64(diaTotal) / float64(len(samples))
	s.Trend = TrendOf(samples)
	s.TrendDetails = TrendDetails(s.Trend, s.AvgSystolic, s.AvgDiastolic)

	return s, nil
}

// TrendOf compares the mean systolic value of the earliest three readings
// with the latest three. A difference of more than 5 mmHg is a trend.
func TrendOf(samples []Sample) Trend {
	if len(samples) < trendWindow {
		return TrendInsufficient
	}

	sorted := SortByTime(samples)

	first := meanSystolic(sorted[:trendWindow])
	last := meanSystolic(sorted[len(sorted)-trendWindow:])

	switch {
	case last < first-5:
		return TrendImproving
	case last > first+5:
		return TrendWorsening
	default:
		return TrendStable
	}
}

// TrendDetails returns advice text for a trend.
func TrendDetails(trend Trend, avgSystolic, avgDiastolic float64) string {
	if trend == TrendInsufficient {
		return "Not enough readings to determine trend."
	}

	details := "Blood pressure trend is " + string(trend) + ". "

	switch trend {
	case TrendImproving:
		details += "Continue current treatment and lifestyle changes."
	case TrendWorsening:
		details += "Consider consulting healthcare provider for treatment adjustment."
	case TrendStable:
		if avgSystolic >= 130 || avgDiastolic >= 80 {
			details += "BP is stable but elevated. Consider lifestyle modifications."
		} else {
			details += "BP is stable and within normal range."
		}
	}

	return details
}

// SortByTime returns a copy of samples ordered oldest first.
func SortByTime(samples []Sample) []Sample {
	sorted := make([]Sample, len(samples))
	copy(sorted, samples)

	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MeasuredAt.Before(sorted[j].MeasuredAt)
	})

	return sorted
}

func meanSystolic(samples []Sample) float64 {
	total := 0
	for _, s := range samples {
		total += s.Systolic
	}

	return float64(total) / float64(len(samples))
}
