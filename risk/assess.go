/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package risk

import (
	"fmt"
	"math"
)

// Assessment is the outcome of scoring one patient.
type Assessment struct {
	Probability     float64  `json:"probability"`
	BaseScore       int      `json:"base_score"`
	Score           int      `json:"prediction_score"`
	Level           string   `json:"risk_level"`
	KeyFactors      []string `json:"key_factors"`
	Recommendations []string `json:"recommendations"`
	ModelVersion    int      `json:"model_version"`
}

// Assess runs the classifier on p and overlays the medical rules.
func (m *Model) Assess(p Patient) (Assessment, error) {
	if m == nil {
		return Assessment{}, ErrModelNotLoaded
	}

	prob, err := m.PredictProba(m.Features(p))
	if err != nil {
		return Assessment{}, fmt.Errorf("failed to score patient: %w", err)
	}

	base := int(math.RoundToEven(prob * 100))
	score := ApplyMedicalRules(base, p)
	factors := KeyFactors(p)

	return Assessment{
		Probability:     prob,
		BaseScore:       base,
		Score:           score,
		Level:           LevelFor(score),
		KeyFactors:      factors,
		Recommendations: Recommendations(factors),
		ModelVersion:    m.Version,
	}, nil
}
