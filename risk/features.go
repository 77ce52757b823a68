/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package risk

import "strings"

// Feature block sizes. The classifier sees the structured block followed by
// the text block.
const (
	StructuredFeatureCount = 20
	TextFeatureCount       = 7
	FeatureCount           = StructuredFeatureCount + TextFeatureCount
)

// StructuredFeatureNames lists the structured features in vector order.
var StructuredFeatureNames = []string{
	"male", "current_smoker", "cigs_per_day", "bp_meds", "diabetes",
	"total_chol", "sys_bp", "dia_bp", "bmi", "heart_rate", "glucose", "age",
	"kidney_disease", "heart_disease", "family_history_htn",
	"physical_activity", "alcohol", "salt_intake", "stress", "sleep_hours",
}

// FeatureNames returns the full 27 feature names, text slots included.
func FeatureNames() []string {
	names := make([]string, 0, FeatureCount)
	names = append(names, StructuredFeatureNames...)

	for i := range TextFeatureCount {
		names = append(names, "text_"+string(rune('0'+i)))
	}

	return names
}

// StructuredFeatures encodes p into the fixed-order structured block.
func StructuredFeatures(p Patient) []float64 {
	return []float64{
		boolFeature(strings.EqualFold(strings.TrimSpace(p.Gender), "male")),
		boolFeature(p.CurrentSmoker),
		float64(p.CigsPerDay),
		boolFeature(p.BPMeds),
		boolFeature(p.Diabetes),
		p.TotalChol,
		p.SysBP,
		p.DiaBP,
		p.BMI,
		float64(p.HeartRate),
		p.Glucose,
		float64(p.Age),
		boolFeature(p.KidneyDisease),
		boolFeature(p.HeartDisease),
		boolFeature(p.FamilyHistory),
		encode(p.PhysicalActivity, ActivityLevels, 0),
		encode(p.Alcohol, AlcoholLevels, 0),
		encode(p.SaltIntake, SaltLevels, 1),
		encode(p.StressLevel, StressLevels, 1),
		p.SleepHours,
	}
}

// encode maps a level to its ordinal position, falling back to def for
// missing or unknown values.
func encode(value string, levels []string, def int) float64 {
	for i, level := range levels {
		if isLevel(value, level) {
			return float64(i)
		}
	}

	return float64(def)
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}

	return 0
}

// PatientText joins the free-text fields in the form the vectorizer was
// fitted on.
func PatientText(p Patient) string {
	var b strings.Builder

	if p.DietDescription != "" {
		b.WriteString(" Diet: ")
		b.WriteString(p.DietDescription)
	}

	if p.MedicalHistory != "" {
		b.WriteString(" History: ")
		b.WriteString(p.MedicalHistory)
	}

	return b.String()
}

// TextFeatures vectorises the patient's free text and fits it to the fixed
// text block, truncating or zero padding as needed.
func TextFeatures(p Patient, v *Vectorizer) []float64 {
	out := make([]float64, TextFeatureCount)

	text := PatientText(p)
	if v == nil || strings.TrimSpace(text) == "" {
		return out
	}

	copy(out, v.Transform(ExtractTokens(text)))

	return out
}
