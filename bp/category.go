/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package bp

import "fmt"

// Category is the clinical classification of a single reading.
type Category string

const (
	CategoryNormal   Category = "Normal"
	CategoryElevated Category = "Elevated"
	CategoryStage1   Category = "Hypertension Stage 1"
	CategoryStage2   Category = "Hypertension Stage 2"
	CategoryCrisis   Category = "Hypertensive Crisis"
)

// Accepted measurement ranges in mmHg.
const (
	MinSystolic  = 70
	MaxSystolic  = 250
	MinDiastolic = 40
	MaxDiastolic = 150
)

// Validate reports whether a systolic/diastolic pair is a plausible reading.
func Validate(systolic, diastolic int) error {
	if systolic == 0 || diastolic == 0 {
		return ErrMissingValue
	}

	if systolic < MinSystolic || systolic > MaxSystolic {
		return fmt.Errorf("%w: %d", ErrSystolicOutOfRange, systolic)
	}

	if diastolic < MinDiastolic || diastolic > MaxDiastolic {
		return fmt.Errorf("%w: %d", ErrDiastolicOutOfRange, diastolic)
	}

	if diastolic > systolic {
		return ErrDiastolicAboveSystolic
	}

	return nil
}

// Categorize classifies a reading. Categories are checked from the most
// severe downwards so that a crisis reading is never reported as stage 1.
func Categorize(systolic, diastolic int) Category {
	switch {
	case systolic > 180 || diastolic > 120:
		return CategoryCrisis
	case systolic >= 140 || diastolic >= 90:
		return CategoryStage2
	case systolic >= 130 || diastolic >= 80:
		return CategoryStage1
	case systolic >= 120:
		return CategoryElevated
	default:
		return CategoryNormal
	}
}

// IsAbnormal reports whether the category is stage 1 hypertension or worse.
func (c Category) IsAbnormal() bool {
	switch c {
	case CategoryStage1, CategoryStage2, CategoryCrisis:
		return true
	default:
		return false
	}
}

// Classification bundles the derived fields stored alongside a reading.
type Classification struct {
	Category   Category
	IsAbnormal bool
	Details    string
}

// Classify derives category, abnormal flag and the human readable details.
func Classify(systolic, diastolic int) Classification {
	category := Categorize(systolic, diastolic)

	c := Classification{
		Category:   category,
		IsAbnormal: category.IsAbnormal(),
	}

	if c.IsAbnormal {
		c.Details = AbnormalityDetails(systolic, diastolic, category)
	}

	return c
}

// AbnormalityDetails explains an abnormal reading.
func AbnormalityDetails(systolic, diastolic int, category Category) string {
	details := fmt.Sprintf("Blood pressure reading of %d/%d ", systolic, diastolic)

	switch category {
	case CategoryStage1:
		details += "indicates Stage 1 Hypertension. Lifestyle changes recommended."
	case CategoryStage2:
		details += "indicates Stage 2 Hypertension. Consult with healthcare provider."
	case CategoryCrisis:
		details += "indicates Hypertensive Crisis. Seek immediate medical attention!"
	}

	return details
}
