/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package bp

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Entry is one reading ready to be classified and stored.
type Entry struct {
	Systolic        int
	Diastolic       int
	Pulse           *int
	MeasuredAt      time.Time
	MeasurementTime string
	Notes           string
}

// ImportResult collects the valid rows of a CSV file and a message for
// every row that could not be used.
type ImportResult struct {
	Entries []Entry
	Errors  []string
}

var clockLayouts = []string{"15:04", "15:04:05", "3:04 PM", "3:04PM"}

// ParseCSV reads readings with the columns systolic, diastolic, pulse, date
// (YYYY-MM-DD), time and notes. Only systolic and diastolic are required.
// Rows without a date are stamped with now. Bad rows are reported in the
// result and never abort the import.
func ParseCSV(r io.Reader, now time.Time) (ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return ImportResult{}, fmt.Errorf("%w: systolic", ErrMissingCSVColumn)
		}

		return ImportResult{}, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		columns[name] = i
	}

	for _, required := range []string{"systolic", "diastolic"} {
		if _, ok := columns[required]; !ok {
			return ImportResult{}, fmt.Errorf("%w: %s", ErrMissingCSVColumn, required)
		}
	}

	field := func(record []string, name string) string {
		idx, ok := columns[name]
		if !ok || idx >= len(record) {
			return ""
		}

		return strings.TrimSpace(record[idx])
	}

	var result ImportResult

	row := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		row++

		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Error processing row %d: %v", row, err))
			continue
		}

		entry, err := parseRecord(record, field, now)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Error processing row %d: %v", row, err))
			continue
		}

		if err := Validate(entry.Systolic, entry.Diastolic); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Invalid BP values in row %d: %d/%d", row, entry.Systolic, entry.Diastolic))
			continue
		}

		result.Entries = append(result.Entries, entry)
	}

	return result, nil
}

func parseRecord(record []string, field func([]string, string) string, now time.Time) (Entry, error) {
	var entry Entry

	systolic, err := strconv.Atoi(field(record, "systolic"))
	if err != nil {
		return entry, fmt.Errorf("invalid systolic value %q", field(record, "systolic"))
	}

	diastolic, err := strconv.Atoi(field(record, "diastolic"))
	if err != nil {
		return entry, fmt.Errorf("invalid diastolic value %q", field(record, "diastolic"))
	}

	entry.Systolic = systolic
	entry.Diastolic = diastolic
	entry.MeasurementTime = field(record, "time")
	entry.Notes = field(record, "notes")

	if raw := field(record, "pulse"); raw != "" {
		pulse, err := strconv.Atoi(raw)
		if err != nil {
			return entry, fmt.Errorf("invalid pulse value %q", raw)
		}

		entry.Pulse = &pulse
	}

	entry.MeasuredAt = now
	if raw := field(record, "date"); raw != "" {
		date, err := time.ParseInLocation(time.DateOnly, raw, now.Location())
		if err != nil {
			return entry, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", raw)
		}

		entry.MeasuredAt = withClock(date, entry.MeasurementTime)
	}

	return entry, nil
}

// withClock moves date to the time of day in clock when it is a recognised
// wall clock value. Labels such as "morning" leave the date at midnight.
func withClock(date time.Time, clock string) time.Time {
	if clock == "" {
		return date
	}

	for _, layout := range clockLayouts {
		t, err := time.Parse(layout, strings.ToUpper(clock))
		if err != nil {
			continue
		}

		return time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), t.Second(), 0, date.Location())
	}

	return date
}
