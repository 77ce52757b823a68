/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package risk

import (
	"fmt"
	"strings"
)

// Patient is the clinical and lifestyle input to a risk assessment. Zero
// numeric values mean the measurement is unknown.
type Patient struct {
	Age           int
	Gender        string
	CurrentSmoker bool
	CigsPerDay    int
	BPMeds        bool
	Diabetes      bool
	TotalChol     float64
	SysBP         float64
	DiaBP         float64
	BMI           float64
	HeartRate     int
	Glucose       float64

	DietDescription string
	MedicalHistory  string

	PhysicalActivity string
	KidneyDisease    bool
	HeartDisease     bool
	FamilyHistory    bool
	Alcohol          string
	SaltIntake       string
	StressLevel      string
	SleepHours       float64
}

// Level vocabularies accepted for the categorical lifestyle fields.
var (
	ActivityLevels = []string{"low", "moderate", "high"}
	AlcoholLevels  = []string{"none", "light", "moderate", "heavy"}
	SaltLevels     = []string{"low", "moderate", "high"}
	StressLevels   = []string{"low", "moderate", "high"}
)

// NormalizeLevel lower-cases a categorical value and checks it against the
// allowed set. An empty value is accepted and stays empty.
func NormalizeLevel(value string, allowed []string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return "", nil
	}

	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}

	return "", fmt.Errorf("%w %q, expected one of %s", ErrUnknownLevel, value, strings.Join(allowed, ", "))
}

func isLevel(value, want string) bool {
	return strings.EqualFold(strings.TrimSpace(value), want)
}
