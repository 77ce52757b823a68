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

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const userColumns = `id, username, email, password_hash, role, last_login_at, created_at, updated_at`

// CreateUserInput defines data for creating a user.
type CreateUserInput struct {
	Username     string
	Email        string
	PasswordHash string
	Role         Role
}

func scanUser(row pgx.Row) (*User, error) {
	var user User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.LastLoginAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &user, nil
}

// userConflict maps a unique violation on users to the matching sentinel.
func userConflict(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return nil
	}

	switch {
	case strings.Contains(pgErr.ConstraintName, "username"):
		return ErrUsernameTaken
	case strings.Contains(pgErr.ConstraintName, "email"):
		return ErrEmailTaken
	default:
		return nil
	}
}

// CreateUser creates a user record.
func CreateUser(ctx context.Context, input CreateUserInput) (*User, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	if input.Role == "" {
		input.Role = RoleUser
	}

	query := `
		INSERT INTO users (username, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	user, err := scanUser(pool.QueryRow(ctx, query, input.Username, input.Email, input.PasswordHash, input.Role))
	if err != nil {
		if conflict := userConflict(err); conflict != nil {
			return nil, conflict
		}

		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// UsernameExists reports whether the username is taken.
func UsernameExists(ctx context.Context, username string) (bool, error) {
	return exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username)
}

// EmailExists reports whether the email is taken.
func EmailExists(ctx context.Context, email string) (bool, error) {
	return exists(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE lower(email) = lower($1))`, email)
}

func exists(ctx context.Context, query string, args ...any) (bool, error) {
	if pool == nil {
		return false, ErrDatabaseConnectionNotInitialized
	}

	var found bool
	if err := pool.QueryRow(ctx, query, args...).Scan(&found); err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}

	return found, nil
}

// GetUserByID returns a user by ID.
func GetUserByID(ctx context.Context, id string) (*User, error) {
	return getUser(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetUserByUsername returns a user by username.
func GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return getUser(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func getUser(ctx context.Context, query string, arg string) (*User, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	user, err := scanUser(pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}

		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// TouchLastLogin records a successful login.
func TouchLastLogin(ctx context.Context, userID string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	if _, err := pool.Exec(ctx, `UPDATE users SET last_login_at = NOW() WHERE id = $1`, userID); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return nil
}

// UpdateUserAccount changes a user's email and/or password hash. Nil
// values are left unchanged.
func UpdateUserAccount(ctx context.Context, userID string, email, passwordHash *string) (*User, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	query := `
		UPDATE users
		SET email = COALESCE($2, email),
			password_hash = COALESCE($3, password_hash),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	user, err := scanUser(pool.QueryRow(ctx, query, userID, email, passwordHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}

		if conflict := userConflict(err); conflict != nil {
			return nil, conflict
		}

		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// ListUsers returns a page of users ordered by creation time along with the
// total number of users.
func ListUsers(ctx context.Context, skip, limit int) ([]User, int, error) {
	if pool == nil {
		return nil, 0, ErrDatabaseConnectionNotInitialized
	}

	var total int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	rows, err := pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		ORDER BY created_at ASC
		OFFSET $1 LIMIT $2
	`, skip, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []User{}

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}

		users = append(users, *user)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating users: %w", err)
	}

	return users, total, nil
}

// PromoteToAdmin grants the admin role to an existing user.
func PromoteToAdmin(ctx context.Context, username string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	command, err := pool.Exec(ctx,
		`UPDATE users SET role = $2, updated_at = NOW() WHERE username = $1 AND role <> $2`,
		username, RoleAdmin,
	)
	if err != nil {
		return fmt.Errorf("failed to promote user: %w", err)
	}

	if command.RowsAffected() > 0 {
		logger.Info("Promoted user to admin", "username", username)
	}

	return nil
}
