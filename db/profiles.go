/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const profileColumns = `id, user_id, age, gender, weight, height, bmi, contact_email, emergency_contact, created_at, updated_at`

// ProfileInput carries profile fields. Nil fields are left unchanged on
// update and stored as NULL on create.
type ProfileInput struct {
	Age              *int
	Gender           *string
	Weight           *float64
	Height           *float64
	ContactEmail     *string
	EmergencyContact *string
}

// Empty reports whether no field is set.
func (in ProfileInput) Empty() bool {
	return in.Age == nil && in.Gender == nil && in.Weight == nil && in.Height == nil &&
		in.ContactEmail == nil && in.EmergencyContact == nil
}

// ComputeBMI returns weight(kg) / height(m)^2 rounded to two decimals, or
// nil when either value is missing or not positive.
func ComputeBMI(weight, height *float64) *float64 {
	if weight == nil || height == nil || *weight <= 0 || *height <= 0 {
		return nil
	}

	meters := *height / 100
	bmi := math.RoundToEven(*weight/(meters*meters)*100) / 100

	return &bmi
}

func scanProfile(row pgx.Row) (*UserProfile, error) {
	var p UserProfile
	if err := row.Scan(
		&p.ID, &p.UserID, &p.Age, &p.Gender, &p.Weight, &p.Height, &p.BMI,
		&p.ContactEmail, &p.EmergencyContact, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &p, nil
}

// GetProfile returns the profile owned by userID.
func GetProfile(ctx context.Context, userID string) (*UserProfile, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	p, err := scanProfile(pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM user_profiles WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}

		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	return p, nil
}

// CreateProfile creates the single profile for userID.
func CreateProfile(ctx context.Context, userID string, in ProfileInput) (*UserProfile, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	query := `
		INSERT INTO user_profiles (user_id, age, gender, weight, height, bmi, contact_email, emergency_contact)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + profileColumns

	p, err := scanProfile(pool.QueryRow(ctx, query,
		userID, in.Age, in.Gender, in.Weight, in.Height, ComputeBMI(in.Weight, in.Height),
		in.ContactEmail, in.EmergencyContact,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrProfileExists
		}

		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	return p, nil
}

// UpdateProfile applies a partial update and recomputes BMI.
func UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*UserProfile, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer rollback(ctx, tx)

	current, err := scanProfile(tx.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM user_profiles WHERE user_id = $1 FOR UPDATE`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}

		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	weight := coalesce(in.Weight, current.Weight)
	height := coalesce(in.Height, current.Height)

	query := `
		UPDATE user_profiles
		SET age = $2, gender = $3, weight = $4, height = $5, bmi = $6,
			contact_email = $7, emergency_contact = $8, updated_at = NOW()
		WHERE user_id = $1
		RETURNING ` + profileColumns

	p, err := scanProfile(tx.QueryRow(ctx, query,
		userID,
		coalesce(in.Age, current.Age),
		coalesce(in.Gender, current.Gender),
		weight, height, ComputeBMI(weight, height),
		coalesce(in.ContactEmail, current.ContactEmail),
		coalesce(in.EmergencyContact, current.EmergencyContact),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit profile: %w", err)
	}

	return p, nil
}

// DeleteProfile removes the profile owned by userID.
func DeleteProfile(ctx context.Context, userID string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	command, err := pool.Exec(ctx, `DELETE FROM user_profiles WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}

	if command.RowsAffected() == 0 {
		return ErrProfileNotFound
	}

	return nil
}

func coalesce[T any](values ...*T) *T {
	for _, v := range values {
		if v != nil {
			return v
		}
	}

	return nil
}

func rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		logger.Warn("Failed to roll back transaction", "error", err)
	}
}
