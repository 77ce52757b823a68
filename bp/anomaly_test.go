// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package bp

import (
	"errors"
	"testing"
	"time"
)

func TestDetectAnomaliesFlagsOutlier(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	var samples []Sample
	for i := range 20 {
		samples = append(samples, Sample{
			ID:         "normal",
			Systolic:   118 + i%5,
			Diastolic:  76 + i%4,
			MeasuredAt: start.AddDate(0, 0, i),
		})
	}
	samples = append(samples, Sample{
		ID:         "outlier",
		Systolic:   210,
		Diastolic:  135,
		MeasuredAt: start.AddDate(0, 0, 20),
	})

	anomalies, err := DetectAnomalies(samples, DefaultAnomalyOptions())
	if err != nil {
		t.Fatalf("DetectAnomalies returned error: %v", err)
	}

	if len(anomalies) == 0 {
		t.Fatal("expected at least one anomaly")
	}
	if anomalies[0].Sample.ID != "outlier" {
		t.Fatalf("expected outlier to be the most anomalous, got %+v", anomalies[0])
	}
	if anomalies[0].Score >= 0 {
		t.Fatalf("expected negative anomaly score, got %v", anomalies[0].Score)
	}
	if len(anomalies) > len(samples)/5 {
		t.Fatalf("too many anomalies flagged: %d", len(anomalies))
	}
}

func TestDetectAnomaliesIsDeterministic(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	var samples []Sample
	for i := range 15 {
		samples = append(samples, Sample{
			Systolic:   110 + (i*7)%30,
			Diastolic:  70 + (i*3)%15,
			MeasuredAt: start.AddDate(0, 0, i),
		})
	}

	first, err := DetectAnomalies(samples, DefaultAnomalyOptions())
	if err != nil {
		t.Fatalf("DetectAnomalies returned error: %v", err)
	}

	second, err := DetectAnomalies(samples, DefaultAnomalyOptions())
	if err != nil {
		t.Fatalf("DetectAnomalies returned error: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("expected identical results, got %d and %d anomalies", len(first), len(second))
	}
	for i := range first {
		if first[i].Score != second[i].Score {
			t.Fatalf("score %d differs: %v vs %v", i, first[i].Score, second[i].Score)
		}
	}
}

func TestDetectAnomaliesIdenticalReadings(t *testing.T) {
	t.Parallel()

	samples := make([]Sample, 12)
	for i := range samples {
		samples[i] = Sample{Systolic: 120, Diastolic: 80}
	}

	anomalies, err := DetectAnomalies(samples, DefaultAnomalyOptions())
	if err != nil {
		t.Fatalf("DetectAnomalies returned error: %v", err)
	}

	if len(anomalies) != 0 {
		t.Fatalf("expected no anomalies in a flat series, got %d", len(anomalies))
	}
}

func TestDetectAnomaliesNeedsTenReadings(t *testing.T) {
	t.Parallel()

	samples := make([]Sample, MinAnomalySamples-1)
	if _, err := DetectAnomalies(samples, DefaultAnomalyOptions()); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}
