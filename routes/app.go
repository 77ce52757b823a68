/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"errors"
	"sync"
	"time"

	"github.com/humaidq/hypertrack/auth"
	"github.com/humaidq/hypertrack/db"
	"github.com/humaidq/hypertrack/ocr"
	"github.com/humaidq/hypertrack/risk"
)

// DefaultMaxUploadBytes caps request bodies when no limit is configured.
const DefaultMaxUploadBytes = 10 << 20

// App carries the services handlers depend on. It is mapped into the
// flamego injector once at start-up.
type App struct {
	Tokens         *auth.Issuer
	Models         *ModelStore
	OCR            ocr.Engine
	UploadDir      string
	ReportDir      string
	MaxUploadBytes int64
	DefaultChannel db.Channel
	Now            func() time.Time
}

func (a *App) now() time.Time {
	if a.Now == nil {
		return time.Now().UTC()
	}

	return a.Now()
}

func (a *App) maxBytes() int64 {
	if a.MaxUploadBytes <= 0 {
		return DefaultMaxUploadBytes
	}

	return a.MaxUploadBytes
}

// ModelStore holds the risk model. The artefact is loaded lazily so that
// training a model does not require a restart.
type ModelStore struct {
	path  string
	mu    sync.RWMutex
	model *risk.Model
}

// NewModelStore returns a store reading the artefact at path.
func NewModelStore(path string) *ModelStore {
	return &ModelStore{path: path}
}

// NewStaticModelStore wraps an already loaded model.
func NewStaticModelStore(m *risk.Model) *ModelStore {
	return &ModelStore{model: m}
}

// Get returns the loaded model, loading it on first use.
func (s *ModelStore) Get() (*risk.Model, error) {
	s.mu.RLock()
	m := s.model
	s.mu.RUnlock()

	if m != nil {
		return m, nil
	}

	return s.Reload()
}

// Reload reads the artefact from disk again.
func (s *ModelStore) Reload() (*risk.Model, error) {
	if s.path == "" {
		return nil, risk.ErrModelNotLoaded
	}

	m, err := risk.LoadModel(s.path)
	if err != nil {
		if !errors.Is(err, risk.ErrModelNotLoaded) {
			predictionLogger.Error("Failed to load risk model", "path", s.path, "error", err)
		}

		return nil, err
	}

	s.mu.Lock()
	s.model = m
	s.mu.Unlock()

	predictionLogger.Info("Risk model loaded", "path", s.path, "version", m.Version, "trained_at", m.TrainedAt)

	return m, nil
}
