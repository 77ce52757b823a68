/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/flamego/session"
	"github.com/jackc/pgx/v5"
)

// Session keys written by the auth handlers.
const (
	SessionKeyAuthenticated = "authenticated"
	SessionKeyUserID        = "user_id"
	SessionKeyRole          = "role"
)

// ErrInvalidSessionConfig is returned when the initer receives an unexpected
// argument.
var ErrInvalidSessionConfig = errors.New("invalid PostgresSessionConfig")

// PostgresSessionConfig contains options for the PostgreSQL session store
type PostgresSessionConfig struct {
	// Lifetime is the idle duration after which a session is recycled.
	// Default is 30 days.
	Lifetime time.Duration
	// Encoder defaults to session.GobEncoder.
	Encoder session.Encoder
	// Decoder defaults to session.GobDecoder.
	Decoder session.Decoder
}

// PostgresSessionStore implements session.Store on the flamego_sessions table.
type PostgresSessionStore struct {
	lifetime time.Duration
	encoder  session.Encoder
	decoder  session.Decoder
}

// PostgresSessionIniter returns the Initer for the PostgreSQL session store
func PostgresSessionIniter() session.Initer {
	return func(_ context.Context, args ...interface{}) (session.Store, error) {
		var config PostgresSessionConfig
		if len(args) > 0 {
			var ok bool

			config, ok = args[0].(PostgresSessionConfig)
			if !ok {
				return nil, ErrInvalidSessionConfig
			}
		}

		if config.Lifetime == 0 {
			config.Lifetime = 30 * 24 * time.Hour
		}

		if config.Encoder == nil {
			config.Encoder = session.GobEncoder
		}

		if config.Decoder == nil {
			config.Decoder = session.GobDecoder
		}

		return &PostgresSessionStore{
			lifetime: config.Lifetime,
			encoder:  config.Encoder,
			decoder:  config.Decoder,
		}, nil
	}
}

// Exist returns true if the session with given ID exists and hasn't expired
func (s *PostgresSessionStore) Exist(ctx context.Context, sid string) bool {
	if pool == nil {
		return false
	}

	var found bool

	err := pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM flamego_sessions WHERE id = $1 AND expires_at > NOW())`,
		sid,
	).Scan(&found)

	return err == nil && found
}

// Read returns the session with given ID, or a fresh session carrying that
// ID when none is stored.
func (s *PostgresSessionStore) Read(ctx context.Context, sid string) (session.Session, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	// The flamego middleware writes the cookie itself.
	idWriter := func(http.ResponseWriter, *http.Request, string) {}

	var data []byte

	err := pool.QueryRow(ctx,
		`SELECT data FROM flamego_sessions WHERE id = $1 AND expires_at > NOW()`,
		sid,
	).Scan(&data)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	if len(data) == 0 {
		return session.NewBaseSession(sid, s.encoder, idWriter), nil
	}

	values, err := s.decoder(data)
	if err != nil {
		logger.Warn("Discarding undecodable session", "error", err)
		return session.NewBaseSession(sid, s.encoder, idWriter), nil
	}

	return session.NewBaseSessionWithData(sid, s.encoder, idWriter, values), nil
}

// Destroy deletes session with given ID from the session store completely
func (s *PostgresSessionStore) Destroy(ctx context.Context, sid string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	if _, err := pool.Exec(ctx, `DELETE FROM flamego_sessions WHERE id = $1`, sid); err != nil {
		return fmt.Errorf("failed to destroy session: %w", err)
	}

	return nil
}

// Touch updates the expiry time of the session with given ID
func (s *PostgresSessionStore) Touch(ctx context.Context, sid string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	_, err := pool.Exec(ctx,
		`UPDATE flamego_sessions SET expires_at = $1 WHERE id = $2`,
		time.Now().Add(s.lifetime), sid,
	)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}

	return nil
}

// Save persists session data to the session store
func (s *PostgresSessionStore) Save(ctx context.Context, sess session.Session) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	data, err := sess.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO flamego_sessions (id, data, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			data = EXCLUDED.data,
			expires_at = EXCLUDED.expires_at`,
		sess.ID(), data, time.Now().Add(s.lifetime),
	)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

// GC performs a garbage collection operation on the session store
func (s *PostgresSessionStore) GC(ctx context.Context) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	if _, err := pool.Exec(ctx, `DELETE FROM flamego_sessions WHERE expires_at < NOW()`); err != nil {
		return fmt.Errorf("failed to collect sessions: %w", err)
	}

	return nil
}

// DestroyUserSessions removes every live session authenticated as userID
// except keepID, and returns how many were removed.
func (s *PostgresSessionStore) DestroyUserSessions(ctx context.Context, userID, keepID string) (int, error) {
	if pool == nil {
		return 0, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `SELECT id, data FROM flamego_sessions WHERE expires_at > NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	var targets []string

	for rows.Next() {
		var (
			id   string
			data []byte
		)

		if err := rows.Scan(&id, &data); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan session: %w", err)
		}

		if id == keepID {
			continue
		}

		values, err := s.decoder(data)
		if err != nil {
			continue
		}

		if owner, _ := values[SessionKeyUserID].(string); owner == userID {
			targets = append(targets, id)
		}
	}

	rows.Close()

	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating sessions: %w", err)
	}

	if len(targets) == 0 {
		return 0, nil
	}

	command, err := pool.Exec(ctx, `DELETE FROM flamego_sessions WHERE id = ANY($1)`, targets)
	if err != nil {
		return 0, fmt.Errorf("failed to destroy sessions: %w", err)
	}

	return int(command.RowsAffected()), nil
}
