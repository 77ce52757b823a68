// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"errors"
	"testing"
	"time"

	"github.com/humaidq/hypertrack/bp"
)

func TestReadingsAndAnalytics(t *testing.T) {
	resetDatabase(t)
	ctx := testContext()

	user := mustCreateUser(t, "gina")
	uid := user.ID.String()
	now := time.Now().UTC().Truncate(time.Second)

	if _, err := CreateReading(ctx, uid, NewReading{Systolic: 90, Diastolic: 100, MeasuredAt: now}); !errors.Is(err, bp.ErrDiastolicAboveSystolic) {
		t.Fatalf("expected validation error, got %v", err)
	}

	values := [][2]int{{150, 95}, {145, 92}, {140, 90}, {125, 78}, {120, 76}}
	for i, v := range values {
		reading, err := CreateReading(ctx, uid, NewReading{
			Systolic:   v[0],
			Diastolic:  v[1],
			MeasuredAt: now.Add(time.Duration(i-len(values)) * time.Hour),
			Source:     SourceCSV,
		})
		if err != nil {
			t.Fatalf("CreateReading failed: %v", err)
		}

		if i == 0 && (!reading.IsAbnormal || reading.Category != bp.CategoryStage2 || reading.AbnormalityDetails == nil) {
			t.Fatalf("expected stage 2 abnormal reading, got %+v", reading)
		}
	}

	readings, err := ListReadings(ctx, uid, ReadingFilter{Limit: 3})
	if err != nil {
		t.Fatalf("ListReadings failed: %v", err)
	}
	if len(readings) != 3 || readings[0].Systolic != 120 {
		t.Fatalf("expected newest first with limit, got %+v", readings)
	}

	analytics, err := RefreshAnalytics(ctx, uid, 30, now)
	if err != nil {
		t.Fatalf("RefreshAnalytics failed: %v", err)
	}
	if analytics.ReadingCount != 5 || analytics.AbnormalReadingCount != 3 || analytics.Trend != bp.TrendImproving {
		t.Fatalf("unexpected analytics %+v", analytics)
	}

	again, err := RefreshAnalytics(ctx, uid, 30, now)
	if err != nil {
		t.Fatalf("RefreshAnalytics failed: %v", err)
	}
	if again.ID != analytics.ID {
		t.Fatalf("expected analytics upsert per window")
	}

	if err := SetLatestReportPath(ctx, uid, "reports/r.csv"); err != nil {
		t.Fatalf("SetLatestReportPath failed: %v", err)
	}

	latest, err := GetLatestAnalytics(ctx, uid)
	if err != nil {
		t.Fatalf("GetLatestAnalytics failed: %v", err)
	}
	if latest.ReportPath == nil || *latest.ReportPath != "reports/r.csv" {
		t.Fatalf("expected report path, got %v", latest.ReportPath)
	}

	if err := MarkReadingsAnomalous(ctx, uid, []string{readings[0].ID.String()}); err != nil {
		t.Fatalf("MarkReadingsAnomalous failed: %v", err)
	}

	flagged, err := ListReadings(ctx, uid, ReadingFilter{Limit: 1})
	if err != nil {
		t.Fatalf("ListReadings failed: %v", err)
	}
	if !flagged[0].IsAbnormal || *flagged[0].AbnormalityDetails != AnomalyDetails {
		t.Fatalf("expected anomaly flag, got %+v", flagged[0])
	}

	if _, err := RefreshAnalytics(ctx, uid, 30, now.AddDate(-1, 0, 0)); !errors.Is(err, bp.ErrNoReadings) {
		t.Fatalf("expected ErrNoReadings, got %v", err)
	}
}
