// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package bp

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseCSV(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 4, 10, 12, 0, 0, 0, time.UTC)
	input := strings.Join([]string{
		"systolic,diastolic,pulse,date,time,notes",
		"120,80,70,2025-04-01,07:30,after breakfast",
		"300,80,,2025-04-02,,",
		"abc,80,,,,",
		"135,85,,,morning,",
		"128,82,72,04/03/2025,,",
	}, "\n")

	result, err := ParseCSV(strings.NewReader(input), now)
	if err != nil {
		t.Fatalf("ParseCSV returned error: %v", err)
	}

	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 valid entries, got %d", len(result.Entries))
	}
	if len(result.Errors) != 3 {
		t.Fatalf("expected 3 row errors, got %d: %v", len(result.Errors), result.Errors)
	}

	first := result.Entries[0]
	if first.Systolic != 120 || first.Diastolic != 80 {
		t.Fatalf("unexpected first entry %+v", first)
	}
	if first.Pulse == nil || *first.Pulse != 70 {
		t.Fatalf("expected pulse 70, got %v", first.Pulse)
	}
	wantTime := time.Date(2025, 4, 1, 7, 30, 0, 0, time.UTC)
	if !first.MeasuredAt.Equal(wantTime) {
		t.Fatalf("expected measured at %v, got %v", wantTime, first.MeasuredAt)
	}
	if first.Notes != "after breakfast" || first.MeasurementTime != "07:30" {
		t.Fatalf("unexpected notes/time %q %q", first.Notes, first.MeasurementTime)
	}

	second := result.Entries[1]
	if !second.MeasuredAt.Equal(now) {
		t.Fatalf("row without date should use now, got %v", second.MeasuredAt)
	}
	if second.Pulse != nil {
		t.Fatalf("expected nil pulse, got %v", *second.Pulse)
	}

	if !strings.Contains(result.Errors[0], "300/80") {
		t.Fatalf("expected invalid values error, got %q", result.Errors[0])
	}
}

func TestParseCSVRequiresColumns(t *testing.T) {
	t.Parallel()

	_, err := ParseCSV(strings.NewReader("sys,dia\n120,80\n"), time.Now())
	if !errors.Is(err, ErrMissingCSVColumn) {
		t.Fatalf("expected ErrMissingCSVColumn, got %v", err)
	}

	_, err = ParseCSV(strings.NewReader(""), time.Now())
	if !errors.Is(err, ErrMissingCSVColumn) {
		t.Fatalf("expected ErrMissingCSVColumn for empty file, got %v", err)
	}
}

func TestParseCSVHeaderCaseAndOrder(t *testing.T) {
	t.Parallel()

	input := "Notes,Diastolic,Systolic\nevening,78,118\n"

	result, err := ParseCSV(strings.NewReader(input), time.Now())
	if err != nil {
		t.Fatalf("ParseCSV returned error: %v", err)
	}

	if len(result.Entries) != 1 || result.Entries[0].Systolic != 118 || result.Entries[0].Diastolic != 78 {
		t.Fatalf("unexpected entries %+v", result.Entries)
	}
}
