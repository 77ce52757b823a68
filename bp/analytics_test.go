// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package bp

import (
	"errors"
	"testing"
	"time"
)

func series(start time.Time, systolic ...int) []Sample {
	samples := make([]Sample, len(systolic))
	for i, s := range systolic {
		samples[i] = Sample{
			Systolic:   s,
			Diastolic:  s - 40,
			MeasuredAt: start.Add(time.Duration(i) * time.Hour),
		}
	}

	return samples
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	samples := series(start, 120, 130, 140, 150)
	samples[2].IsAbnormal = true
	samples[3].IsAbnormal = true

	summary, err := Summarize(samples)
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}

	if summary.AvgSystolic != 135 || summary.AvgDiastolic != 95 {
		t.Fatalf("unexpected averages %v/%v", summary.AvgSystolic, summary.AvgDiastolic)
	}
	if summary.MinSystolic != 120 || summary.MaxSystolic != 150 {
		t.Fatalf("unexpected systolic range %d-%d", summary.MinSystolic, summary.MaxSystolic)
	}
	if summary.MinDiastolic != 80 || summary.MaxDiastolic != 110 {
		t.Fatalf("unexpected diastolic range %d-%d", summary.MinDiastolic, summary.MaxDiastolic)
	}
	if summary.ReadingCount != 4 || summary.AbnormalCount != 2 {
		t.Fatalf("unexpected counts %d/%d", summary.ReadingCount, summary.AbnormalCount)
	}
	if summary.Trend != TrendWorsening {
		t.Fatalf("expected worsening trend, got %q", summary.Trend)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	t.Parallel()

	if _, err := Summarize(nil); !errors.Is(err, ErrNoReadings) {
		t.Fatalf("expected ErrNoReadings, got %v", err)
	}
}

func TestTrendOf(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		samples []Sample
		want    Trend
	}{
		{name: "two readings", samples: series(start, 120, 150), want: TrendInsufficient},
		{name: "improving", samples: series(start, 150, 150, 150, 140, 140, 140), want: TrendImproving},
		{name: "worsening", samples: series(start, 120, 120, 120, 130, 130, 130), want: TrendWorsening},
		{name: "exactly five is stable", samples: series(start, 120, 120, 120, 125, 125, 125), want: TrendStable},
		{name: "three readings compare with themselves", samples: series(start, 110, 160, 130), want: TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := TrendOf(tt.samples); got != tt.want {
				t.Fatalf("TrendOf = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTrendOfSortsByTime(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	samples := series(start, 150, 150, 150, 130, 130, 130)

	// Reverse the slice; the trend must follow measurement time.
	for i, j := 0, len(samples)-1; i < j; i, j = i+1, j-1 {
		samples[i], samples[j] = samples[j], samples[i]
	}

	if got := TrendOf(samples); got != TrendImproving {
		t.Fatalf("expected improving trend, got %q", got)
	}
}

func TestTrendDetails(t *testing.T) {
	t.Parallel()

	tests := []struct {
		trend Trend
		sys   float64
		dia   float64
		want  string
	}{
		{TrendInsufficient, 0, 0, "Not enough readings to determine trend."},
		{TrendImproving, 140, 90, "Blood pressure trend is improving. Continue current treatment and lifestyle changes."},
		{TrendWorsening, 140, 90, "Blood pressure trend is worsening. Consider consulting healthcare provider for treatment adjustment."},
		{TrendStable, 132, 70, "Blood pressure trend is stable. BP is stable but elevated. Consider lifestyle modifications."},
		{TrendStable, 118, 76, "Blood pressure trend is stable. BP is stable and within normal range."},
	}

	for _, tt := range tests {
		if got := TrendDetails(tt.trend, tt.sys, tt.dia); got != tt.want {
			t.Fatalf("TrendDetails(%q) = %q, want %q", tt.trend, got, tt.want)
		}
	}
}
