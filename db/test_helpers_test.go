// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"context"
	"testing"
	"time"
)

func testContext() context.Context {
	return context.Background()
}

func stringPtr(value string) *string {
	return &value
}

func floatPtr(value float64) *float64 {
	return &value
}

func intPtr(value int) *int {
	return &value
}

func mustCreateUser(t *testing.T, username string) *User {
	t.Helper()

	user, err := CreateUser(testContext(), CreateUserInput{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
	})
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

func mustCreateMedication(t *testing.T, userID, name string) *Medication {
	t.Helper()

	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	med, err := CreateMedication(testContext(), userID, MedicationInput{
		Name:      stringPtr(name),
		Dosage:    stringPtr("10mg"),
		Frequency: stringPtr("daily"),
		TimeOfDay: stringPtr("morning"),
		StartDate: &start,
	})
	if err != nil {
		t.Fatalf("failed to create medication: %v", err)
	}

	return med
}
