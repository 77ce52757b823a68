// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"errors"
	"testing"
	"time"
)

func TestPostgresSessionIniterDefaults(t *testing.T) {
	t.Parallel()

	store, err := PostgresSessionIniter()(testContext())
	if err != nil {
		t.Fatalf("PostgresSessionIniter failed: %v", err)
	}

	pgStore, ok := store.(*PostgresSessionStore)
	if !ok {
		t.Fatalf("expected PostgresSessionStore")
	}
	if pgStore.lifetime != 30*24*time.Hour {
		t.Fatalf("expected default lifetime, got %v", pgStore.lifetime)
	}
	if pgStore.encoder == nil || pgStore.decoder == nil {
		t.Fatalf("expected encoder and decoder to be set")
	}
}

func TestPostgresSessionIniterInvalidConfig(t *testing.T) {
	t.Parallel()

	if _, err := PostgresSessionIniter()(testContext(), "invalid"); !errors.Is(err, ErrInvalidSessionConfig) {
		t.Fatalf("expected ErrInvalidSessionConfig, got %v", err)
	}
}
