/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	maxPoolConns = 20
	minPoolConns = 2

	// duplicateDatabase is raised when a concurrent CREATE DATABASE wins.
	duplicateDatabase = "42P04"
)

var pool *pgxpool.Pool

// Init opens the pool for DATABASE_URL, creating the database first when
// the server does not have it yet.
func Init(ctx context.Context) error {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return ErrDatabaseURLEnvVarNotSet
	}

	if err := createDatabase(ctx, databaseURL); err != nil {
		return err
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	cfg.MaxConns = maxPoolConns
	cfg.MinConns = minPoolConns

	p, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := p.Ping(ctx); err != nil {
		p.Close()

		return fmt.Errorf("failed to ping database: %w", err)
	}

	pool = p

	logger.Info("Database pool ready", "database", cfg.ConnConfig.Database, "max_conns", cfg.MaxConns)

	return nil
}

// GetPool returns the shared pool, or nil before Init.
func GetPool() *pgxpool.Pool {
	return pool
}

// Close releases the pool.
func Close() {
	if pool != nil {
		pool.Close()
		pool = nil
	}
}

func createDatabase(ctx context.Context, databaseURL string) error {
	cfg, err := pgx.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	name := cfg.Database
	if name == "" {
		return ErrDatabaseNameNotSpecified
	}

	cfg.Database = "postgres"

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres database: %w", err)
	}

	defer func() {
		if err := conn.Close(ctx); err != nil {
			logger.Warn("Failed to close bootstrap connection", "error", err)
		}
	}()

	var exists bool
	if err := conn.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM pg_database WHERE datname = $1)`, name).Scan(&exists); err != nil {
		return fmt.Errorf("failed to look up database: %w", err)
	}

	if exists {
		return nil
	}

	// Identifiers cannot be bound as parameters.
	if _, err := conn.Exec(ctx, "CREATE DATABASE "+pgx.Identifier{name}.Sanitize()); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == duplicateDatabase {
			return nil
		}

		return fmt.Errorf("failed to create database: %w", err)
	}

	logger.Info("Created database", "database", name)

	return nil
}
