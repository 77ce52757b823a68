// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package routes

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/humaidq/hypertrack/db"
)

const testMedicationID = "0b5a3f8e-6d1e-4b8a-9f0c-3e2d1c4b5a69"

//nolint:paralleltest // Overrides package-level DB function variables.
func TestCreateMedication(t *testing.T) {
	originalCreate := medCreateFn

	t.Cleanup(func() {
		medCreateFn = originalCreate
	})

	var got db.MedicationInput

	medCreateFn = func(_ context.Context, _ string, in db.MedicationInput) (*db.Medication, error) {
		got = in
		return &db.Medication{ID: uuid.MustParse(testMedicationID)}, nil
	}

	app := newTestApp(t)
	f := newTestServer(app, newTestSession(), &testStore{})
	token := bearer(t, app, testUserID, db.RoleUser)

	tests := []struct {
		name        string
		body        string
		wantMessage string
	}{
		{"missing name", `{"dosage":"5mg","frequency":"daily","time_of_day":"morning","start_date":"2026-03-01"}`, "Missing required field: name"},
		{"blank dosage", `{"name":"Amlodipine","dosage":"  ","frequency":"daily","time_of_day":"morning","start_date":"2026-03-01"}`, "Missing required field: dosage"},
		{"missing start", `{"name":"Amlodipine","dosage":"5mg","frequency":"daily","time_of_day":"morning"}`, "Missing required field: start_date"},
		{"bad date", `{"name":"Amlodipine","dosage":"5mg","frequency":"daily","time_of_day":"morning","start_date":"01/03/2026"}`, "Invalid date format. Use YYYY-MM-DD"},
	}

	for _, tt := range tests {
		rec := serve(f, http.MethodPost, "/api/medications", tt.body, token)
		assertError(t, rec, http.StatusBadRequest, tt.wantMessage)
	}

	rec := serve(f, http.MethodPost, "/api/medications",
		`{"name":" Amlodipine ","dosage":"5mg","frequency":"daily","time_of_day":"morning","start_date":"2026-03-01","end_date":"2026-06-01"}`,
		token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if body := decodeResponse(t, rec); body["id"] != testMedicationID {
		t.Fatalf("unexpected body %v", body)
	}

	if got.Name == nil || *got.Name != "Amlodipine" {
		t.Fatalf("expected trimmed name, got %v", got.Name)
	}

	if got.EndDate == nil || !got.EndDate.Equal(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected end date %v", got.EndDate)
	}
}

//nolint:paralleltest // Overrides package-level DB function variables.
func TestMedicationErrorMapping(t *testing.T) {
	originalGet := medGetFn
	originalUpdate := medUpdateFn
	originalDelete := medDeleteFn

	t.Cleanup(func() {
		medGetFn = originalGet
		medUpdateFn = originalUpdate
		medDeleteFn = originalDelete
	})

	medGetFn = func(context.Context, string, string) (*db.Medication, error) {
		return nil, db.ErrMedicationNotFound
	}
	medUpdateFn = func(context.Context, string, string, db.MedicationInput) (*db.Medication, error) {
		return nil, db.ErrInvalidDateRange
	}
	medDeleteFn = func(context.Context, string, string) error {
		return errors.New("connection reset")
	}

	app := newTestApp(t)
	f := newTestServer(app, newTestSession(), &testStore{})
	token := bearer(t, app, testUserID, db.RoleUser)

	rec := serve(f, http.MethodGet, "/api/medications/"+testMedicationID, "", token)
	assertError(t, rec, http.StatusNotFound, "Medication not found")

	rec = serve(f, http.MethodPut, "/api/medications/"+testMedicationID, `{"end_date":"2020-01-01"}`, token)
	assertError(t, rec, http.StatusBadRequest, "End date must not be before start date")

	rec = serve(f, http.MethodPut, "/api/medications/"+testMedicationID, `{"name":"   "}`, token)
	assertError(t, rec, http.StatusBadRequest, "Medication fields cannot be empty")

	rec = serve(f, http.MethodDelete, "/api/medications/"+testMedicationID, "", token)
	assertError(t, rec, http.StatusInternalServerError, "Medication operation failed")
}

//nolint:paralleltest // Overrides package-level DB function variables.
func TestCreateReminder(t *testing.T) {
	originalCreate := medCreateReminderFn

	t.Cleanup(func() {
		medCreateReminderFn = originalCreate
	})

	var got db.ReminderInput

	medCreateReminderFn = func(_ context.Context, _, medicationID string, in db.ReminderInput) (*db.Reminder, error) {
		if medicationID != testMedicationID {
			t.Fatalf("unexpected medication id %q", medicationID)
		}

		got = in

		return &db.Reminder{ID: uuid.New(), ReminderTime: in.ReminderTime, Channel: in.Channel}, nil
	}

	app := newTestApp(t)
	app.DefaultChannel = db.ChannelWhatsApp
	f := newTestServer(app, newTestSession(), &testStore{})
	token := bearer(t, app, testUserID, db.RoleUser)
	path := "/api/medications/" + testMedicationID + "/reminders"

	tests := []struct {
		name        string
		body        string
		wantMessage string
	}{
		{"missing time", `{"phone_number":"+971501234567"}`, "Missing required field: reminder_time"},
		{"missing phone", `{"reminder_time":"2026-03-11T08:00:00"}`, "Missing required field: phone_number"},
		{"bad time", `{"reminder_time":"tomorrow","phone_number":"+971501234567"}`, "Invalid date format"},
		{"short phone", `{"reminder_time":"2026-03-11T08:00:00","phone_number":"12-34"}`, "Invalid phone number"},
		{"bad channel", `{"reminder_time":"2026-03-11T08:00:00","phone_number":"+971501234567","channel":"pager"}`, "Invalid channel. Use sms or whatsapp"},
	}

	for _, tt := range tests {
		rec := serve(f, http.MethodPost, path, tt.body, token)
		assertError(t, rec, http.StatusBadRequest, tt.wantMessage)
	}

	rec := serve(f, http.MethodPost, path, `{"reminder_time":"2026-03-11T08:00:00","phone_number":" +971501234567 "}`, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	if got.Channel != db.ChannelWhatsApp {
		t.Fatalf("expected default channel, got %q", got.Channel)
	}

	if got.PhoneNumber != "+971501234567" {
		t.Fatalf("expected trimmed phone, got %q", got.PhoneNumber)
	}

	if !got.ReminderTime.Equal(time.Date(2026, 3, 11, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected reminder time %v", got.ReminderTime)
	}

	rec = serve(f, http.MethodPost, path, `{"reminder_time":"2026-03-11T08:00:00","phone_number":"+971501234567","channel":"SMS"}`, token)
	if rec.Code != http.StatusCreated || got.Channel != db.ChannelSMS {
		t.Fatalf("expected explicit sms channel, got %d %q", rec.Code, got.Channel)
	}
}

//nolint:paralleltest // Overrides package-level DB function variables.
func TestVerifyMedication(t *testing.T) {
	originalVerify := medVerifyFn

	t.Cleanup(func() {
		medVerifyFn = originalVerify
	})

	medVerifyFn = func(_ context.Context, userID, code string, _ *string, now time.Time) (*db.Confirmation, error) {
		if userID != testUserID || !now.Equal(testNow) {
			t.Fatalf("unexpected verify call for %q at %v", userID, now)
		}

		switch code {
		case "111111":
			return &db.Confirmation{MedicationName: "Amlodipine"}, nil
		case "222222":
			return nil, db.ErrReminderExpired
		case "333333":
			return nil, db.ErrReminderConfirmed
		default:
			return nil, db.ErrReminderNotFound
		}
	}

	app := newTestApp(t)
	f := newTestServer(app, newTestSession(), &testStore{})
	token := bearer(t, app, testUserID, db.RoleUser)

	tests := []struct {
		body        string
		wantMessage string
	}{
		{`{"notes":"after breakfast"}`, "Missing required field: verification_code"},
		{`{"verification_code":"999999"}`, "Invalid verification code"},
		{`{"verification_code":"222222"}`, "Verification code has expired"},
		{`{"verification_code":"333333"}`, "Reminder already confirmed"},
	}

	for _, tt := range tests {
		rec := serve(f, http.MethodPost, "/api/medications/verify", tt.body, token)
		assertError(t, rec, http.StatusBadRequest, tt.wantMessage)
	}

	rec := serve(f, http.MethodPost, "/api/medications/verify", `{"verification_code":" 111111 "}`, token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if body := decodeResponse(t, rec); body["medication_name"] != "Amlodipine" {
		t.Fatalf("unexpected body %v", body)
	}
}

//nolint:paralleltest // Overrides package-level DB function variables.
func TestMedicationAdherenceRange(t *testing.T) {
	originalAdherence := medAdherenceFn

	t.Cleanup(func() {
		medAdherenceFn = originalAdherence
	})

	var gotStart, gotEnd time.Time

	medAdherenceFn = func(_ context.Context, _ string, start, end time.Time) (*db.AdherenceReport, error) {
		gotStart, gotEnd = start, end

		return &db.AdherenceReport{Overall: db.AdherenceFigures{TotalReminders: 4, TakenCount: 3, MissedCount: 1, AdherenceRate: 75}}, nil
	}

	app := newTestApp(t)
	f := newTestServer(app, newTestSession(), &testStore{})
	token := bearer(t, app, testUserID, db.RoleUser)

	rec := serve(f, http.MethodGet, "/api/medications/analytics", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	if !gotStart.Equal(today.AddDate(0, 0, -30)) || !gotEnd.Equal(today.AddDate(0, 0, 1)) {
		t.Fatalf("unexpected default range %v - %v", gotStart, gotEnd)
	}

	rec = serve(f, http.MethodGet, "/api/medications/analytics?start_date=2026-02-01&end_date=2026-02-28", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if !gotEnd.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected inclusive end date, got %v", gotEnd)
	}

	body := decodeResponse(t, rec)
	if body["start_date"] != "2026-02-01" || body["end_date"] != "2026-02-28" {
		t.Fatalf("unexpected range in body %v", body)
	}

	rec = serve(f, http.MethodGet, "/api/medications/analytics?start_date=2026-03-01&end_date=2026-02-01", "", token)
	assertError(t, rec, http.StatusBadRequest, "End date must not be before start date")
}
