/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package bp

import "errors"

var (
	ErrMissingValue           = errors.New("systolic and diastolic values are required")
	ErrSystolicOutOfRange     = errors.New("systolic value out of range")
	ErrDiastolicOutOfRange    = errors.New("diastolic value out of range")
	ErrDiastolicAboveSystolic = errors.New("diastolic value exceeds systolic value")
	ErrNoReadings             = errors.New("no readings found in date range")
	ErrInsufficientData       = errors.New("insufficient data")
	ErrMissingCSVColumn       = errors.New("csv is missing a required column")
	ErrInvalidHorizon         = errors.New("forecast horizon must be positive")
)
