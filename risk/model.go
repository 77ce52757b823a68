/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package risk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/mat"
)

// ModelVersion is written into every artefact produced by Train.
const ModelVersion = 1

// Model is a trained logistic classifier together with the scaler and text
// vectorizer it was fitted with.
type Model struct {
	Version      int         `json:"version"`
	TrainedAt    time.Time   `json:"trained_at"`
	FeatureNames []string    `json:"feature_names"`
	Means        []float64   `json:"means"`
	Scales       []float64   `json:"scales"`
	Coefficients []float64   `json:"coefficients"`
	Intercept    float64     `json:"intercept"`
	Vectorizer   *Vectorizer `json:"vectorizer"`
	Metrics      *Metrics    `json:"metrics,omitempty"`
}

// Validate checks that the model's parameter vectors agree in length.
func (m *Model) Validate() error {
	if m == nil {
		return ErrModelNotLoaded
	}

	if len(m.Coefficients) != FeatureCount {
		return fmt.Errorf("%w: %d coefficients, want %d", ErrInvalidModel, len(m.Coefficients), FeatureCount)
	}

	if len(m.Means) != FeatureCount || len(m.Scales) != FeatureCount {
		return fmt.Errorf("%w: scaler has %d means and %d scales", ErrInvalidModel, len(m.Means), len(m.Scales))
	}

	for i, s := range m.Scales {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: scale %d is %v", ErrInvalidModel, i, s)
		}
	}

	return nil
}

// LoadModel reads a model artefact from path. A missing file yields
// ErrModelNotLoaded.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from operator configuration
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrModelNotLoaded
		}

		return nil, fmt.Errorf("failed to read model: %w", err)
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidModel, err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Save writes the model to path, creating parent directories.
func (m *Model) Save(path string) error {
	if err := m.Validate(); err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create model directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write model: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace model: %w", err)
	}

	return nil
}

// Features builds the full feature vector for p.
func (m *Model) Features(p Patient) []float64 {
	x := make([]float64, 0, FeatureCount)
	x = append(x, StructuredFeatures(p)...)

	var v *Vectorizer
	if m != nil {
		v = m.Vectorizer
	}

	return append(x, TextFeatures(p, v)...)
}

// PredictProba returns the probability of hypertension for a raw feature
// vector.
func (m *Model) PredictProba(x []float64) (float64, error) {
	if m == nil {
		return 0, ErrModelNotLoaded
	}

	if len(x) != len(m.Coefficients) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureCountMismatch, len(x), len(m.Coefficients))
	}

	z := m.standardize(mat.NewVecDense(len(x), append([]float64(nil), x...)))
	w := mat.NewVecDense(len(m.Coefficients), m.Coefficients)

	return sigmoid(mat.Dot(w, z) + m.Intercept), nil
}

func (m *Model) standardize(x *mat.VecDense) *mat.VecDense {
	out := mat.NewVecDense(x.Len(), nil)
	for i := range x.Len() {
		scale := m.Scales[i]
		if scale == 0 {
			scale = 1
		}

		out.SetVec(i, (x.AtVec(i)-m.Means[i])/scale)
	}

	return out
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
