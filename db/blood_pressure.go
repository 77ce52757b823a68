/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/humaidq/hypertrack/bp"
)

const readingColumns = `
	id, user_id, systolic, diastolic, pulse, measured_at, measurement_time, notes,
	source, source_filename, category, is_abnormal, abnormality_details, created_at`

// AnomalyDetails is stored on readings flagged by the anomaly detector.
const AnomalyDetails = "Detected as anomaly by machine learning model."

// NewReading describes a validated measurement to store.
type NewReading struct {
	Systolic        int
	Diastolic       int
	Pulse           *int
	MeasuredAt      time.Time
	MeasurementTime *string
	Notes           *string
	Source          ReadingSource
	SourceFilename  *string
}

// ReadingFilter narrows a reading listing. Zero times are open bounds.
type ReadingFilter struct {
	Start time.Time
	End   time.Time
	Limit int
}

func scanReading(row pgx.Row) (*BPReading, error) {
	var r BPReading
	if err := row.Scan(
		&r.ID, &r.UserID, &r.Systolic, &r.Diastolic, &r.Pulse, &r.MeasuredAt, &r.MeasurementTime, &r.Notes,
		&r.Source, &r.SourceFilename, &r.Category, &r.IsAbnormal, &r.AbnormalityDetails, &r.CreatedAt,
	); err != nil {
		return nil, err
	}

	return &r, nil
}

// CreateReading validates, classifies and stores a reading.
func CreateReading(ctx context.Context, userID string, in NewReading) (*BPReading, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	if err := bp.Validate(in.Systolic, in.Diastolic); err != nil {
		return nil, err
	}

	if in.Source == "" {
		in.Source = SourceManual
	}

	class := bp.Classify(in.Systolic, in.Diastolic)

	var details *string
	if class.IsAbnormal {
		details = &class.Details
	}

	query := `
		INSERT INTO blood_pressure_readings (
			user_id, systolic, diastolic, pulse, measured_at, measurement_time, notes,
			source, source_filename, category, is_abnormal, abnormality_details
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING ` + readingColumns

	r, err := scanReading(pool.QueryRow(ctx, query,
		userID, in.Systolic, in.Diastolic, in.Pulse, in.MeasuredAt, in.MeasurementTime, in.Notes,
		in.Source, in.SourceFilename, class.Category, class.IsAbnormal, details,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create reading: %w", err)
	}

	return r, nil
}

// ListReadings returns readings for userID, newest first.
func ListReadings(ctx context.Context, userID string, filter ReadingFilter) ([]BPReading, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	conditions := []string{"user_id = $1"}
	args := []any{userID}

	if !filter.Start.IsZero() {
		args = append(args, filter.Start)
		conditions = append(conditions, fmt.Sprintf("measured_at >= $%d", len(args)))
	}

	if !filter.End.IsZero() {
		args = append(args, filter.End)
		conditions = append(conditions, fmt.Sprintf("measured_at <= $%d", len(args)))
	}

	query := `SELECT ` + readingColumns + ` FROM blood_pressure_readings WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY measured_at DESC`

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}
	defer rows.Close()

	readings := []BPReading{}

	for rows.Next() {
		r, err := scanReading(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}

		readings = append(readings, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating readings: %w", err)
	}

	return readings, nil
}

// MarkReadingsAnomalous flags readings owned by userID as abnormal with the
// anomaly detector's details.
func MarkReadingsAnomalous(ctx context.Context, userID string, ids []string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	if len(ids) == 0 {
		return nil
	}

	_, err := pool.Exec(ctx, `
		UPDATE blood_pressure_readings
		SET is_abnormal = true, abnormality_details = $3
		WHERE user_id = $1 AND id = ANY($2::uuid[])
	`, userID, ids, AnomalyDetails)
	if err != nil {
		return fmt.Errorf("failed to flag anomalies: %w", err)
	}

	return nil
}

// UpsertAnalytics stores the summary for userID over a window ending at
// end, replacing any earlier summary of the same window size.
func UpsertAnalytics(ctx context.Context, userID string, days int, end time.Time, s bp.Summary) (*BPAnalytics, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	var a BPAnalytics

	err := pool.QueryRow(ctx, `
		INSERT INTO bp_analytics (
			user_id, window_days, start_date, end_date, avg_systolic, avg_diastolic,
			min_systolic, max_systolic, min_diastolic, max_diastolic,
			reading_count, abnormal_reading_count, trend, trend_details
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (user_id, window_days) DO UPDATE SET
			start_date = EXCLUDED.start_date,
			end_date = EXCLUDED.end_date,
			avg_systolic = EXCLUDED.avg_systolic,
			avg_diastolic = EXCLUDED.avg_diastolic,
			min_systolic = EXCLUDED.min_systolic,
			max_systolic = EXCLUDED.max_systolic,
			min_diastolic = EXCLUDED.min_diastolic,
			max_diastolic = EXCLUDED.max_diastolic,
			reading_count = EXCLUDED.reading_count,
			abnormal_reading_count = EXCLUDED.abnormal_reading_count,
			trend = EXCLUDED.trend,
			trend_details = EXCLUDED.trend_details,
			updated_at = NOW()
		RETURNING id, user_id, window_days, start_date, end_date, avg_systolic, avg_diastolic,
			min_systolic, max_systolic, min_diastolic, max_diastolic, reading_count,
			abnormal_reading_count, trend, trend_details, report_path, updated_at
	`,
		userID, days, end.AddDate(0, 0, -days), end, s.AvgSystolic, s.AvgDiastolic,
		s.MinSystolic, s.MaxSystolic, s.MinDiastolic, s.MaxDiastolic,
		s.ReadingCount, s.AbnormalCount, s.Trend, s.TrendDetails,
	).Scan(
		&a.ID, &a.UserID, &a.WindowDays, &a.StartDate, &a.EndDate, &a.AvgSystolic, &a.AvgDiastolic,
		&a.MinSystolic, &a.MaxSystolic, &a.MinDiastolic, &a.MaxDiastolic, &a.ReadingCount,
		&a.AbnormalReadingCount, &a.Trend, &a.TrendDetails, &a.ReportPath, &a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to store analytics: %w", err)
	}

	return &a, nil
}

// RefreshAnalytics recomputes the summary for the given window from stored
// readings. A window with no readings leaves the stored summary untouched
// and returns bp.ErrNoReadings.
func RefreshAnalytics(ctx context.Context, userID string, days int, now time.Time) (*BPAnalytics, error) {
	readings, err := ListReadings(ctx, userID, ReadingFilter{Start: now.AddDate(0, 0, -days), End: now})
	if err != nil {
		return nil, err
	}

	summary, err := bp.Summarize(Samples(readings))
	if err != nil {
		return nil, err
	}

	return UpsertAnalytics(ctx, userID, days, now, summary)
}

// SetLatestReportPath records a generated report on the user's most
// recently updated analytics row.
func SetLatestReportPath(ctx context.Context, userID, path string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	command, err := pool.Exec(ctx, `
		UPDATE bp_analytics SET report_path = $2
		WHERE id = (
			SELECT id FROM bp_analytics WHERE user_id = $1 ORDER BY updated_at DESC LIMIT 1
		)
	`, userID, path)
	if err != nil {
		return fmt.Errorf("failed to record report path: %w", err)
	}

	if command.RowsAffected() == 0 {
		return ErrAnalyticsNotFound
	}

	return nil
}

// GetLatestAnalytics returns the most recently updated summary for userID.
func GetLatestAnalytics(ctx context.Context, userID string) (*BPAnalytics, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	var a BPAnalytics

	err := pool.QueryRow(ctx, `
		SELECT id, user_id, window_days, start_date, end_date, avg_systolic, avg_diastolic,
			min_systolic, max_systolic, min_diastolic, max_diastolic, reading_count,
			abnormal_reading_count, trend, trend_details, report_path, updated_at
		FROM bp_analytics
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`, userID).Scan(
		&a.ID, &a.UserID, &a.WindowDays, &a.StartDate, &a.EndDate, &a.AvgSystolic, &a.AvgDiastolic,
		&a.MinSystolic, &a.MaxSystolic, &a.MinDiastolic, &a.MaxDiastolic, &a.ReadingCount,
		&a.AbnormalReadingCount, &a.Trend, &a.TrendDetails, &a.ReportPath, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAnalyticsNotFound
		}

		return nil, fmt.Errorf("failed to get analytics: %w", err)
	}

	return &a, nil
}
