/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// MissedNote is attached to logs created by the missed reminder sweep.
const MissedNote = "Automatically marked as missed"

// DefaultReminderLifetime bounds a reminder with no later dose scheduled.
const DefaultReminderLifetime = 24 * time.Hour

const medicationColumns = `id, user_id, name, dosage, frequency, time_of_day, start_date, end_date, notes, created_at, updated_at`

const reminderColumns = `id, medication_id, reminder_time, phone_number, channel, verification_code, is_sent, sent_at, expires_at, created_at`

// MedicationInput carries medication fields. Nil fields are left unchanged
// on update.
type MedicationInput struct {
	Name      *string
	Dosage    *string
	Frequency *string
	TimeOfDay *string
	StartDate *time.Time
	EndDate   *time.Time
	Notes     *string
}

// ReminderInput describes a reminder to schedule.
type ReminderInput struct {
	ReminderTime time.Time
	PhoneNumber  string
	Channel      Channel
}

// Confirmation is the result of verifying a reminder code.
type Confirmation struct {
	Log            MedicationLog
	MedicationName string
}

// AdherenceFigures counts logged outcomes over a period.
type AdherenceFigures struct {
	TotalReminders int     `json:"total_reminders"`
	TakenCount     int     `json:"taken_count"`
	MissedCount    int     `json:"missed_count"`
	AdherenceRate  float64 `json:"adherence_rate"`
}

// MedicationAdherence is the adherence of one medication.
type MedicationAdherence struct {
	MedicationID   uuid.UUID `json:"medication_id"`
	MedicationName string    `json:"medication_name"`
	AdherenceFigures
}

// AdherenceReport summarises adherence for a user over a period.
type AdherenceReport struct {
	Overall     AdherenceFigures      `json:"overall"`
	Medications []MedicationAdherence `json:"medications"`
}

// AdherenceRate returns taken as a percentage of total, rounded to two
// decimals. No logs means a rate of zero.
func AdherenceRate(taken, total int) float64 {
	if total == 0 {
		return 0
	}

	return math.Round(float64(taken)/float64(total)*10000) / 100
}

// NewVerificationCode returns a uniformly random six digit code.
func NewVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}

	return fmt.Sprintf("%06d", n.Int64()), nil
}

func scanMedication(row pgx.Row) (*Medication, error) {
	var m Medication
	if err := row.Scan(
		&m.ID, &m.UserID, &m.Name, &m.Dosage, &m.Frequency, &m.TimeOfDay,
		&m.StartDate, &m.EndDate, &m.Notes, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &m, nil
}

func scanReminder(row pgx.Row) (*Reminder, error) {
	var r Reminder
	if err := row.Scan(
		&r.ID, &r.MedicationID, &r.ReminderTime, &r.PhoneNumber, &r.Channel,
		&r.VerificationCode, &r.IsSent, &r.SentAt, &r.ExpiresAt, &r.CreatedAt,
	); err != nil {
		return nil, err
	}

	return &r, nil
}

func checkDates(start time.Time, end *time.Time) error {
	if end != nil && end.Before(start) {
		return ErrInvalidDateRange
	}

	return nil
}

// CreateMedication stores a medication for userID. Name, dosage, frequency,
// time of day and start date must be set.
func CreateMedication(ctx context.Context, userID string, in MedicationInput) (*Medication, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	if in.Name == nil || in.Dosage == nil || in.Frequency == nil || in.TimeOfDay == nil || in.StartDate == nil {
		return nil, ErrMissingMedicationField
	}

	if err := checkDates(*in.StartDate, in.EndDate); err != nil {
		return nil, err
	}

	m, err := scanMedication(pool.QueryRow(ctx, `
		INSERT INTO medications (user_id, name, dosage, frequency, time_of_day, start_date, end_date, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+medicationColumns,
		userID, *in.Name, *in.Dosage, *in.Frequency, *in.TimeOfDay, *in.StartDate, in.EndDate, in.Notes,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create medication: %w", err)
	}

	return m, nil
}

// ListMedications returns userID's medications ordered by name.
func ListMedications(ctx context.Context, userID string) ([]Medication, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx,
		`SELECT `+medicationColumns+` FROM medications WHERE user_id = $1 ORDER BY name ASC, created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}
	defer rows.Close()

	meds := []Medication{}

	for rows.Next() {
		m, err := scanMedication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan medication: %w", err)
		}

		meds = append(meds, *m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating medications: %w", err)
	}

	return meds, nil
}

// GetMedication returns a medication owned by userID.
func GetMedication(ctx context.Context, userID, medicationID string) (*Medication, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	if _, err := uuid.Parse(medicationID); err != nil {
		return nil, ErrMedicationNotFound
	}

	m, err := scanMedication(pool.QueryRow(ctx,
		`SELECT `+medicationColumns+` FROM medications WHERE id = $1 AND user_id = $2`, medicationID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMedicationNotFound
		}

		return nil, fmt.Errorf("failed to get medication: %w", err)
	}

	return m, nil
}

// UpdateMedication applies a partial update to a medication owned by userID.
func UpdateMedication(ctx context.Context, userID, medicationID string, in MedicationInput) (*Medication, error) {
	current, err := GetMedication(ctx, userID, medicationID)
	if err != nil {
		return nil, err
	}

	start := current.StartDate
	if in.StartDate != nil {
		start = *in.StartDate
	}

	end := coalesce(in.EndDate, current.EndDate)
	if err := checkDates(start, end); err != nil {
		return nil, err
	}

	m, err := scanMedication(pool.QueryRow(ctx, `
		UPDATE medications
		SET name = COALESCE($3, name),
			dosage = COALESCE($4, dosage),
			frequency = COALESCE($5, frequency),
			time_of_day = COALESCE($6, time_of_day),
			start_date = $7,
			end_date = $8,
			notes = COALESCE($9, notes),
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING `+medicationColumns,
		medicationID, userID, in.Name, in.Dosage, in.Frequency, in.TimeOfDay, start, end, in.Notes,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMedicationNotFound
		}

		return nil, fmt.Errorf("failed to update medication: %w", err)
	}

	return m, nil
}

// DeleteMedication removes a medication with its reminders and logs.
func DeleteMedication(ctx context.Context, userID, medicationID string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	if _, err := uuid.Parse(medicationID); err != nil {
		return ErrMedicationNotFound
	}

	command, err := pool.Exec(ctx, `DELETE FROM medications WHERE id = $1 AND user_id = $2`, medicationID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete medication: %w", err)
	}

	if command.RowsAffected() == 0 {
		return ErrMedicationNotFound
	}

	return nil
}

// CreateReminder schedules a reminder with a fresh verification code for a
// medication owned by userID.
func CreateReminder(ctx context.Context, userID, medicationID string, in ReminderInput) (*Reminder, error) {
	if _, err := GetMedication(ctx, userID, medicationID); err != nil {
		return nil, err
	}

	if in.Channel == "" {
		in.Channel = ChannelSMS
	}

	code, err := NewVerificationCode()
	if err != nil {
		return nil, err
	}

	r, err := scanReminder(pool.QueryRow(ctx, `
		INSERT INTO medication_reminders (medication_id, reminder_time, phone_number, channel, verification_code)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+reminderColumns,
		medicationID, in.ReminderTime, in.PhoneNumber, in.Channel, code,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder: %w", err)
	}

	return r, nil
}

// ListReminders returns the reminders of a medication owned by userID.
func ListReminders(ctx context.Context, userID, medicationID string) ([]Reminder, error) {
	if _, err := GetMedication(ctx, userID, medicationID); err != nil {
		return nil, err
	}

	rows, err := pool.Query(ctx,
		`SELECT `+reminderColumns+` FROM medication_reminders WHERE medication_id = $1 ORDER BY reminder_time ASC`,
		medicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	reminders := []Reminder{}

	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}

		reminders = append(reminders, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminders: %w", err)
	}

	return reminders, nil
}

// ListRecentLogs returns the newest logs of a medication.
func ListRecentLogs(ctx context.Context, medicationID string, limit int) ([]MedicationLog, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `
		SELECT id, medication_id, reminder_id, status, taken_at, scheduled_time, notes, created_at
		FROM medication_logs
		WHERE medication_id = $1
		ORDER BY scheduled_time DESC
		LIMIT $2
	`, medicationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}
	defer rows.Close()

	logs := []MedicationLog{}

	for rows.Next() {
		var l MedicationLog
		if err := rows.Scan(
			&l.ID, &l.MedicationID, &l.ReminderID, &l.Status, &l.TakenAt, &l.ScheduledTime, &l.Notes, &l.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan log: %w", err)
		}

		logs = append(logs, l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating logs: %w", err)
	}

	return logs, nil
}

// VerifyReminder confirms the dose behind a verification code. The code
// must belong to one of userID's medications, must not have expired and
// must not already be logged.
func VerifyReminder(ctx context.Context, userID, code string, notes *string, now time.Time) (*Confirmation, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer rollback(ctx, tx)

	var (
		reminderID   uuid.UUID
		medicationID uuid.UUID
		scheduled    time.Time
		expiresAt    *time.Time
		logged       bool
		name         string
	)

	err = tx.QueryRow(ctx, `
		SELECT r.id, r.medication_id, r.reminder_time, r.expires_at, m.name,
			EXISTS(SELECT 1 FROM medication_logs l WHERE l.reminder_id = r.id) AS logged
		FROM medication_reminders r
		JOIN medications m ON m.id = r.medication_id
		WHERE r.verification_code = $1 AND m.user_id = $2
		ORDER BY logged ASC, r.reminder_time DESC
		LIMIT 1
		FOR UPDATE OF r
	`, code, userID).Scan(&reminderID, &medicationID, &scheduled, &expiresAt, &name, &logged)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrReminderNotFound
		}

		return nil, fmt.Errorf("failed to find reminder: %w", err)
	}

	// A swept reminder carries a missed log, so expiry is checked first.
	if expiresAt != nil && now.After(*expiresAt) {
		return nil, ErrReminderExpired
	}

	if logged {
		return nil, ErrReminderConfirmed
	}

	var l MedicationLog

	err = tx.QueryRow(ctx, `
		INSERT INTO medication_logs (medication_id, reminder_id, status, taken_at, scheduled_time, verification_code, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, medication_id, reminder_id, status, taken_at, scheduled_time, notes, created_at
	`, medicationID, reminderID, LogTaken, now, scheduled, code, notes).Scan(
		&l.ID, &l.MedicationID, &l.ReminderID, &l.Status, &l.TakenAt, &l.ScheduledTime, &l.Notes, &l.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrReminderConfirmed
		}

		return nil, fmt.Errorf("failed to record dose: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit dose: %w", err)
	}

	return &Confirmation{Log: l, MedicationName: name}, nil
}

// GetAdherence reports logged outcomes for userID with scheduled times in
// [start, end).
func GetAdherence(ctx context.Context, userID string, start, end time.Time) (*AdherenceReport, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `
		SELECT m.id, m.name,
			COUNT(l.id),
			COUNT(l.id) FILTER (WHERE l.status = 'taken'),
			COUNT(l.id) FILTER (WHERE l.status = 'missed')
		FROM medications m
		LEFT JOIN medication_logs l
			ON l.medication_id = m.id AND l.scheduled_time >= $2 AND l.scheduled_time < $3
		WHERE m.user_id = $1
		GROUP BY m.id, m.name
		ORDER BY m.name ASC
	`, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query adherence: %w", err)
	}
	defer rows.Close()

	report := &AdherenceReport{Medications: []MedicationAdherence{}}

	for rows.Next() {
		var m MedicationAdherence
		if err := rows.Scan(&m.MedicationID, &m.MedicationName, &m.TotalReminders, &m.TakenCount, &m.MissedCount); err != nil {
			return nil, fmt.Errorf("failed to scan adherence: %w", err)
		}

		m.AdherenceRate = AdherenceRate(m.TakenCount, m.TotalReminders)
		report.Medications = append(report.Medications, m)

		report.Overall.TotalReminders += m.TotalReminders
		report.Overall.TakenCount += m.TakenCount
		report.Overall.MissedCount += m.MissedCount
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating adherence: %w", err)
	}

	report.Overall.AdherenceRate = AdherenceRate(report.Overall.TakenCount, report.Overall.TotalReminders)

	return report, nil
}

// ListDueReminders returns unsent reminders scheduled within [from, to].
func ListDueReminders(ctx context.Context, from, to time.Time) ([]DueReminder, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `
		SELECT r.id, r.medication_id, r.reminder_time, r.phone_number, r.channel, r.verification_code,
			r.is_sent, r.sent_at, r.expires_at, r.created_at, m.name, m.user_id
		FROM medication_reminders r
		JOIN medications m ON m.id = r.medication_id
		WHERE NOT r.is_sent AND r.reminder_time BETWEEN $1 AND $2
		ORDER BY r.reminder_time ASC
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list due reminders: %w", err)
	}
	defer rows.Close()

	var due []DueReminder

	for rows.Next() {
		var d DueReminder
		if err := rows.Scan(
			&d.ID, &d.MedicationID, &d.ReminderTime, &d.PhoneNumber, &d.Channel, &d.VerificationCode,
			&d.IsSent, &d.SentAt, &d.ExpiresAt, &d.CreatedAt, &d.MedicationName, &d.UserID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan due reminder: %w", err)
		}

		due = append(due, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due reminders: %w", err)
	}

	return due, nil
}

// MarkReminderSent records delivery at sentAt. The reminder expires when the
// next dose of the same medication is due, or a day after sending when no
// later dose is scheduled.
func MarkReminderSent(ctx context.Context, reminderID string, sentAt time.Time) (time.Time, error) {
	if pool == nil {
		return time.Time{}, ErrDatabaseConnectionNotInitialized
	}

	var expiresAt time.Time

	err := pool.QueryRow(ctx, `
		UPDATE medication_reminders r
		SET is_sent = true,
			sent_at = $2,
			expires_at = COALESCE((
				SELECT MIN(n.reminder_time)
				FROM medication_reminders n
				WHERE n.medication_id = r.medication_id AND n.reminder_time > r.reminder_time
			), $3)
		WHERE r.id = $1
		RETURNING r.expires_at
	`, reminderID, sentAt, sentAt.Add(DefaultReminderLifetime)).Scan(&expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, ErrReminderNotFound
		}

		return time.Time{}, fmt.Errorf("failed to mark reminder sent: %w", err)
	}

	return expiresAt, nil
}

// SweepMissedReminders logs every expired, unconfirmed reminder as missed
// and returns how many were logged.
func SweepMissedReminders(ctx context.Context, now time.Time) (int, error) {
	if pool == nil {
		return 0, ErrDatabaseConnectionNotInitialized
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer rollback(ctx, tx)

	command, err := tx.Exec(ctx, `
		INSERT INTO medication_logs (medication_id, reminder_id, status, scheduled_time, verification_code, notes)
		SELECT r.medication_id, r.id, $2::text, r.reminder_time, r.verification_code, $3::text
		FROM medication_reminders r
		WHERE r.expires_at < $1
			AND NOT EXISTS (SELECT 1 FROM medication_logs l WHERE l.reminder_id = r.id)
		ON CONFLICT (reminder_id) DO NOTHING
	`, now, LogMissed, MissedNote)
	if err != nil {
		return 0, fmt.Errorf("failed to log missed reminders: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit missed reminders: %w", err)
	}

	return int(command.RowsAffected()), nil
}

// ListOpenRemindersByCode returns sent, unconfirmed reminders carrying code.
// Inbound replies use it to find which user and phone a code was sent to.
func ListOpenRemindersByCode(ctx context.Context, code string) ([]DueReminder, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `
		SELECT r.id, r.medication_id, r.reminder_time, r.phone_number, r.channel, r.verification_code,
			r.is_sent, r.sent_at, r.expires_at, r.created_at, m.name, m.user_id
		FROM medication_reminders r
		JOIN medications m ON m.id = r.medication_id
		WHERE r.verification_code = $1 AND r.is_sent
			AND NOT EXISTS (SELECT 1 FROM medication_logs l WHERE l.reminder_id = r.id)
		ORDER BY r.reminder_time DESC
	`, code)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders by code: %w", err)
	}
	defer rows.Close()

	var open []DueReminder

	for rows.Next() {
		var d DueReminder
		if err := rows.Scan(
			&d.ID, &d.MedicationID, &d.ReminderTime, &d.PhoneNumber, &d.Channel, &d.VerificationCode,
			&d.IsSent, &d.SentAt, &d.ExpiresAt, &d.CreatedAt, &d.MedicationName, &d.UserID,
		); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}

		open = append(open, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reminders: %w", err)
	}

	return open, nil
}
