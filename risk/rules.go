/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package risk

import (
	"math"
	"sort"
	"strings"
)

// MaxScore caps the adjusted risk score.
const MaxScore = 95

// Risk levels reported alongside the score.
const (
	LevelLow      = "Low"
	LevelModerate = "Moderate"
	LevelHigh     = "High"
	LevelVeryHigh = "Very High"
)

type ruleFactor struct {
	present bool
	weight  float64
}

// ApplyMedicalRules adjusts the classifier's base score using established
// clinical risk factors. Scores move up only, never past MaxScore.
func ApplyMedicalRules(base int, p Patient) int {
	factors := []ruleFactor{
		{p.KidneyDisease, 20},
		{p.HeartDisease, 20},
		{p.Diabetes, 15},
		{p.SysBP > 140 || p.DiaBP > 90, 15},
		{(p.SysBP >= 130 && p.SysBP < 140) || (p.DiaBP >= 80 && p.DiaBP < 90), 10},
		{p.CurrentSmoker, 10},
		{p.BMI > 30, 10},
		{p.BMI >= 25 && p.BMI <= 30, 5},
		{p.FamilyHistory, 10},
		{p.TotalChol > 240, 10},
		{p.TotalChol >= 200 && p.TotalChol <= 240, 5},
		{isLevel(p.PhysicalActivity, "low"), 7},
		{isLevel(p.SaltIntake, "high"), 7},
		{isLevel(p.StressLevel, "high"), 5},
		{isLevel(p.Alcohol, "heavy"), 7},
	}

	var add float64
	majors := 0

	for _, f := range factors {
		if !f.present {
			continue
		}

		add += f.weight
		if f.weight >= 15 {
			majors++
		}
	}

	switch {
	case p.Age >= 65:
		add += 10
	case p.Age >= 55:
		add += 7
	case p.Age >= 45:
		add += 5
	case p.Age >= 35:
		add += 3
	}

	score := float64(base)

	switch {
	case majors >= 2:
		score = math.Max(score, 65)
	case majors == 1:
		score = math.Max(score, 45)
	}

	if score < MaxScore {
		score += (MaxScore - score) * math.Min(add/100, 0.8)
	}

	if majors >= 3 && score < 75 {
		score = 75
	}

	return min(int(math.RoundToEven(score)), MaxScore)
}

// LevelFor maps a score to its risk level.
func LevelFor(score int) string {
	switch {
	case score < 20:
		return LevelLow
	case score < 50:
		return LevelModerate
	case score < 80:
		return LevelHigh
	default:
		return LevelVeryHigh
	}
}

// Factor names produced by KeyFactors.
const (
	FactorDiabetes      = "Diabetes"
	FactorKidney        = "Kidney disease"
	FactorHeart         = "Heart disease"
	FactorSmoking       = "Smoking"
	FactorObesity       = "Obesity"
	FactorOverweight    = "Overweight"
	FactorFamilyHistory = "Family history of hypertension"
	FactorLowActivity   = "Low physical activity"
	FactorHighSalt      = "High salt intake"
	FactorHighStress    = "High stress level"
	FactorHeavyAlcohol  = "Heavy alcohol consumption"
	FactorNone          = "No major risk factors identified"
	FactorAgeOver40     = "Age over 40"
)

const (
	maxKeyFactors      = 5
	maxRecommendations = 5
	minRecommendations = 3
)

type keyFactor struct {
	name     string
	severity int
}

// KeyFactors lists up to five risk factors present for p, most severe
// first.
func KeyFactors(p Patient) []string {
	var found []keyFactor

	add := func(ok bool, name string, severity int) {
		if ok {
			found = append(found, keyFactor{name, severity})
		}
	}

	add(p.Diabetes, FactorDiabetes, 3)
	add(p.KidneyDisease, FactorKidney, 3)
	add(p.HeartDisease, FactorHeart, 3)

	switch {
	case p.SysBP >= 140:
		add(true, "Elevated systolic blood pressure", 3)
	case p.SysBP >= 130:
		add(true, "Borderline systolic blood pressure", 2)
	}

	switch {
	case p.DiaBP >= 90:
		add(true, "Elevated diastolic blood pressure", 3)
	case p.DiaBP >= 80:
		add(true, "Borderline diastolic blood pressure", 2)
	}

	add(p.CurrentSmoker, FactorSmoking, 2)

	switch {
	case p.BMI >= 30:
		add(true, FactorObesity, 2)
	case p.BMI >= 25:
		add(true, FactorOverweight, 1)
	}

	switch {
	case p.TotalChol >= 240:
		add(true, "High cholesterol", 2)
	case p.TotalChol >= 200:
		add(true, "Borderline cholesterol", 1)
	}

	add(p.FamilyHistory, FactorFamilyHistory, 2)

	switch {
	case p.Age >= 65:
		add(true, "Age over 65", 2)
	case p.Age >= 55:
		add(true, "Age over 55", 1)
	}

	add(isLevel(p.PhysicalActivity, "low"), FactorLowActivity, 1)
	add(isLevel(p.SaltIntake, "high"), FactorHighSalt, 1)
	add(isLevel(p.StressLevel, "high"), FactorHighStress, 1)
	add(isLevel(p.Alcohol, "heavy"), FactorHeavyAlcohol, 1)

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].severity > found[j].severity
	})

	names := make([]string, 0, maxKeyFactors)
	for i := 0; i < len(found) && i < maxKeyFactors; i++ {
		names = append(names, found[i].name)
	}

	if len(names) == 0 {
		if p.Age > 40 {
			return []string{FactorAgeOver40}
		}

		return []string{FactorNone}
	}

	return names
}

var factorAdvice = []struct {
	match  func(string) bool
	advice []string
}{
	{
		match: func(f string) bool { return strings.Contains(strings.ToLower(f), "blood pressure") },
		advice: []string{
			"Consult with your healthcare provider about blood pressure management",
			"Consider the DASH diet (rich in fruits, vegetables, and low-fat dairy)",
			"Limit sodium intake to less than 2,300 mg per day",
		},
	},
	{
		match: func(f string) bool { return f == FactorObesity || f == FactorOverweight },
		advice: []string{
			"Work with a healthcare provider to develop a weight management plan",
			"Aim for 150 minutes of moderate exercise per week",
			"Focus on portion control and whole foods in your diet",
		},
	},
	{
		match: func(f string) bool { return f == FactorSmoking },
		advice: []string{
			"Quit smoking - talk to your doctor about cessation programs and resources",
			"Avoid secondhand smoke exposure",
		},
	},
	{
		match: func(f string) bool { return f == FactorDiabetes },
		advice: []string{
			"Maintain regular blood glucose monitoring",
			"Follow your diabetes management plan as prescribed by your doctor",
			"Consider consulting with a registered dietitian for meal planning",
		},
	},
	{
		match: func(f string) bool { return f == FactorKidney || f == FactorHeart },
		advice: []string{
			"Follow up regularly with your specialist for ongoing management",
			"Take all prescribed medications as directed",
			"Monitor and track your symptoms and report changes to your healthcare provider",
		},
	},
	{
		match: func(f string) bool { return f == FactorLowActivity },
		advice: []string{
			"Gradually increase physical activity to at least 30 minutes daily",
			"Find activities you enjoy to make exercise sustainable",
		},
	},
	{
		match: func(f string) bool { return f == FactorHighSalt },
		advice: []string{
			"Read food labels to identify hidden sodium sources",
			"Cook at home more often to control salt content in meals",
		},
	},
	{
		match: func(f string) bool { return f == FactorHighStress },
		advice: []string{
			"Practice stress reduction techniques like meditation, deep breathing, or yoga",
			"Consider counseling or therapy if stress is overwhelming",
		},
	},
	{
		match: func(f string) bool { return f == FactorHeavyAlcohol },
		advice: []string{
			"Reduce alcohol consumption (limit to 1 drink per day for women, 2 for men)",
			"Consider speaking with a healthcare provider about resources for reducing alcohol intake",
		},
	},
}

var generalAdvice = []string{
	"Maintain a balanced diet rich in fruits, vegetables, and whole grains",
	"Limit alcohol consumption",
	"Manage stress through relaxation techniques or mindfulness",
}

// Recommendations turns key factors into at most five distinct pieces of
// advice.
func Recommendations(factors []string) []string {
	recs := []string{"Monitor your blood pressure regularly"}

	for _, group := range factorAdvice {
		for _, f := range factors {
			if group.match(f) {
				recs = append(recs, group.advice...)
				break
			}
		}
	}

	if len(recs) < minRecommendations {
		recs = append(recs, generalAdvice...)
	}

	seen := make(map[string]bool, len(recs))
	out := make([]string, 0, maxRecommendations)

	for _, r := range recs {
		if seen[r] {
			continue
		}

		seen[r] = true

		out = append(out, r)
		if len(out) == maxRecommendations {
			break
		}
	}

	return out
}
