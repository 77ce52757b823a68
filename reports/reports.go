/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package reports exports blood pressure readings as Excel, CSV and HTML.
package reports

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/humaidq/hypertrack/db"
)

// Type selects the report format.
type Type string

const (
	TypeExcel Type = "excel"
	TypeCSV   Type = "csv"
	TypeHTML  Type = "html"
)

// MaxReadings caps how many readings go into one report.
const MaxReadings = 1000

const filePrefix = "bp_report_"

// ParseType validates a report type name. An empty name selects Excel.
func ParseType(name string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(name))); t {
	case "":
		return TypeExcel, nil
	case TypeExcel, TypeCSV, TypeHTML:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
}

// Extension returns the file extension for t, without the dot.
func (t Type) Extension() string {
	if t == TypeExcel {
		return "xlsx"
	}

	return string(t)
}

// Filename names a report for userID generated at now.
func Filename(userID string, t Type, now time.Time) string {
	return fmt.Sprintf("%s%s_%s.%s", filePrefix, userID, now.UTC().Format("20060102150405"), t.Extension())
}

// ContentType returns the MIME type served for a report file.
func ContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case ".csv":
		return "text/csv; charset=utf-8"
	case ".html":
		return "text/html; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// Row is one reading formatted for export.
type Row struct {
	Date       string
	Time       string
	Systolic   int
	Diastolic  int
	Pulse      string
	Category   string
	IsAbnormal string
	Notes      string
}

// Header lists the export column titles in order.
var Header = []string{"Date", "Time", "Systolic", "Diastolic", "Pulse", "Category", "Is Abnormal", "Notes"}

// Rows formats readings oldest first.
func Rows(readings []db.BPReading) []Row {
	sorted := make([]db.BPReading, len(readings))
	copy(sorted, readings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].MeasuredAt.Before(sorted[j].MeasuredAt)
	})

	rows := make([]Row, len(sorted))
	for i, r := range sorted {
		row := Row{
			Date:       r.MeasuredAt.Format("2006-01-02"),
			Time:       r.MeasuredAt.Format("15:04"),
			Systolic:   r.Systolic,
			Diastolic:  r.Diastolic,
			Category:   string(r.Category),
			IsAbnormal: "No",
		}

		if r.MeasurementTime != nil && *r.MeasurementTime != "" {
			row.Time = *r.MeasurementTime
		}
		if r.Pulse != nil {
			row.Pulse = strconv.Itoa(*r.Pulse)
		}
		if r.IsAbnormal {
			row.IsAbnormal = "Yes"
		}
		if r.Notes != nil {
			row.Notes = *r.Notes
		}

		rows[i] = row
	}

	return rows
}

func (r Row) values() []string {
	return []string{
		r.Date, r.Time, strconv.Itoa(r.Systolic), strconv.Itoa(r.Diastolic),
		r.Pulse, r.Category, r.IsAbnormal, r.Notes,
	}
}

// Write renders readings in format t.
func Write(w io.Writer, t Type, readings []db.BPReading, now time.Time) error {
	if len(readings) == 0 {
		return ErrNoData
	}

	switch t {
	case TypeExcel:
		return WriteExcel(w, readings)
	case TypeCSV:
		return WriteCSV(w, readings)
	case TypeHTML:
		return WriteHTML(w, readings, now)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownType, t)
	}
}

// Generate writes a report file into dir and returns its path.
func Generate(dir, userID string, t Type, readings []db.BPReading, now time.Time) (string, error) {
	if len(readings) == 0 {
		return "", ErrNoData
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create report directory: %w", err)
	}

	path := filepath.Join(dir, Filename(userID, t, now))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}

	err = Write(f, t, readings, now)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	return path, nil
}

// ResolveDownload checks that requested names a report owned by userID
// directly inside dir and returns its cleaned path.
func ResolveDownload(dir, userID, requested string) (string, error) {
	if strings.TrimSpace(requested) == "" || userID == "" {
		return "", ErrForbiddenPath
	}

	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve report directory: %w", err)
	}

	absPath, err := filepath.Abs(requested)
	if err != nil {
		return "", ErrForbiddenPath
	}

	rel, err := filepath.Rel(absDir, absPath)
	if err != nil || rel != filepath.Base(absPath) {
		return "", ErrForbiddenPath
	}

	if !strings.HasPrefix(rel, filePrefix+userID+"_") {
		return "", ErrForbiddenPath
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrReportNotFound
		}

		return "", fmt.Errorf("failed to stat report: %w", err)
	}

	if info.IsDir() {
		return "", ErrReportNotFound
	}

	return absPath, nil
}
