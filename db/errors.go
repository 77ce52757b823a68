/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import "errors"

var (
	ErrDatabaseConnectionNotInitialized = errors.New("database connection not initialized")
	ErrDatabaseURLEnvVarNotSet          = errors.New("DATABASE_URL environment variable is not set")
	ErrDatabaseNameNotSpecified         = errors.New("database name not specified in DATABASE_URL")

	ErrUserNotFound        = errors.New("user not found")
	ErrUsernameTaken       = errors.New("username already exists")
	ErrEmailTaken          = errors.New("email already exists")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrProfileExists       = errors.New("profile already exists")
	ErrPatientDataNotFound = errors.New("patient data not found")
	ErrPredictionNotFound  = errors.New("prediction not found")
	ErrAnalyticsNotFound   = errors.New("analytics not found")
	ErrMedicationNotFound  = errors.New("medication not found")
	ErrReminderNotFound    = errors.New("reminder not found")
	ErrReminderConfirmed   = errors.New("reminder already confirmed")
	ErrReminderExpired     = errors.New("verification code has expired")
	ErrInvalidDateRange    = errors.New("end date is before start date")

	ErrMissingMedicationField = errors.New("required medication field missing")
)
