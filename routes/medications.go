/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/flamego/flamego"

	"github.com/humaidq/hypertrack/db"
	"github.com/humaidq/hypertrack/whatsapp"
)

const (
	recentLogLimit         = 10
	defaultAdherenceWindow = 30
	minReminderPhoneDigits = 7
)

var (
	medCreateFn         = db.CreateMedication
	medListFn           = db.ListMedications
	medGetFn            = db.GetMedication
	medUpdateFn         = db.UpdateMedication
	medDeleteFn         = db.DeleteMedication
	medCreateReminderFn = db.CreateReminder
	medListRemindersFn  = db.ListReminders
	medRecentLogsFn     = db.ListRecentLogs
	medVerifyFn         = db.VerifyReminder
	medAdherenceFn      = db.GetAdherence
)

type medicationRequest struct {
	Name      *string `json:"name"`
	Dosage    *string `json:"dosage"`
	Frequency *string `json:"frequency"`
	TimeOfDay *string `json:"time_of_day"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
	Notes     *string `json:"notes"`
}

// input converts the request. Date strings must be YYYY-MM-DD.
func (r medicationRequest) input() (db.MedicationInput, error) {
	in := db.MedicationInput{
		Name:      trimmed(r.Name),
		Dosage:    trimmed(r.Dosage),
		Frequency: trimmed(r.Frequency),
		TimeOfDay: trimmed(r.TimeOfDay),
		Notes:     r.Notes,
	}

	if !blank(r.StartDate) {
		t, err := parseDate(*r.StartDate)
		if err != nil {
			return in, err
		}

		in.StartDate = &t
	}

	if !blank(r.EndDate) {
		t, err := parseDate(*r.EndDate)
		if err != nil {
			return in, err
		}

		in.EndDate = &t
	}

	return in, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}

	v := strings.TrimSpace(*s)

	return &v
}

type reminderRequest struct {
	ReminderTime *string `json:"reminder_time"`
	PhoneNumber  *string `json:"phone_number"`
	Channel      *string `json:"channel"`
}

type verifyRequest struct {
	VerificationCode *string `json:"verification_code"`
	Notes            *string `json:"notes"`
}

// CreateMedication adds a medication for the caller.
func CreateMedication(c flamego.Context, app *App, id *Identity) {
	var req medicationRequest

	if _, err := decodeBody(c, app.maxBytes(), &req); err != nil {
		writeDecodeError(c, err)
		return
	}

	for _, f := range []struct {
		name  string
		value *string
	}{
		{"name", req.Name},
		{"dosage", req.Dosage},
		{"frequency", req.Frequency},
		{"time_of_day", req.TimeOfDay},
		{"start_date", req.StartDate},
	} {
		if blank(f.value) {
			missingField(c, f.name)
			return
		}
	}

	in, err := req.input()
	if err != nil {
		writeError(c, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
		return
	}

	m, err := medCreateFn(c.Request().Context(), id.UserID, in)
	if err != nil {
		writeMedicationError(c, id, err)
		return
	}

	writeJSON(c, http.StatusCreated, map[string]any{
		"id":      m.ID,
		"message": "Medication added successfully",
	})
}

// ListMedications returns the caller's medications.
func ListMedications(c flamego.Context, id *Identity) {
	meds, err := medListFn(c.Request().Context(), id.UserID)
	if err != nil {
		writeMedicationError(c, id, err)
		return
	}

	writeJSON(c, http.StatusOK, map[string]any{"medications": meds})
}

// GetMedication returns a medication with its reminders and recent logs.
func GetMedication(c flamego.Context, id *Identity) {
	ctx := c.Request().Context()
	medID := c.Param("id")

	m, err := medGetFn(ctx, id.UserID, medID)
	if err != nil {
		writeMedicationError(c, id, err)
		return
	}

	reminders, err := medListRemindersFn(ctx, id.UserID, medID)
	if err != nil {
		writeMedicationError(c, id, err)
		return
	}

	logs, err := medRecentLogsFn(ctx, medID, recentLogLimit)
	if err != nil {
		writeMedicationError(c, id, err)
		return
	}

	writeJSON(c, http.StatusOK, map[string]any{
		"medication":  m,
		"reminders":   reminders,
		"recent_logs": logs,
	})
}

// UpdateMedication applies the fields present in the body.
func UpdateMedication(c flamego.Context, app *App, id *Identity) {
	var req medicationRequest

	if _, err := decodeBody(c, app.maxBytes(), &req); err != nil {
		writeDecodeError(c, err)
		return
	}

	in, err := req.input()
	if err != nil {
		writeError(c, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
		return
	}

	for _, v := range []*string{in.Name, in.Dosage, in.Frequency, in.TimeOfDay} {
		if v != nil && *v == "" {
			writeError(c, http.StatusBadRequest, "Medication fields cannot be empty")
			return
		}
	}

	m, err := medUpdateFn(c.Request().Context(), id.UserID, c.Param("id"), in)
	if err != nil {
		writeMedicationError(c, id, err)
		return
	}

	writeJSON(c, http.StatusOK, map[string]any{
		"message":    "Medication updated successfully",
		"medication": m,
	})
}

// DeleteMedication removes a medication with its reminders and logs.
func DeleteMedication(c flamego.Context, id *Identity) {
	if err := medDeleteFn(c.Request().Context(), id.UserID, c.Param("id")); err != nil {
		writeMedicationError(c, id, err)
		return
	}

	writeJSON(c, http.StatusOK, map[string]any{"message": "Medication deleted successfully"})
}

// CreateReminder schedules a dose reminder for a medication.
func CreateReminder(c flamego.Context, app *App, id *Identity) {
	var req reminderRequest

	if _, err := decodeBody(c, app.maxBytes(), &req); err != nil {
		writeDecodeError(c, err)
		return
	}

	if blank(req.ReminderTime) {
		missingField(c, "reminder_time")
		return
	}

	if blank(req.PhoneNumber) {
		missingField(c, "phone_number")
		return
	}

	at, err := parseDateTime(*req.ReminderTime)
	if err != nil {
		writeError(c, http.StatusBadRequest, "Invalid date format")
		return
	}

	phone := strings.TrimSpace(*req.PhoneNumber)
	if len(whatsapp.NormalizePhone(phone)) < minReminderPhoneDigits {
		writeError(c, http.StatusBadRequest, "Invalid phone number")
		return
	}

	channel := app.DefaultChannel
	if !blank(req.Channel) {
		channel = db.Channel(strings.ToLower(strings.TrimSpace(*req.Channel)))
	}

	switch channel {
	case "":
		channel = db.ChannelSMS
	case db.ChannelSMS, db.ChannelWhatsApp:
	default:
		writeError(c, http.StatusBadRequest, "Invalid channel. Use sms or whatsapp")
		return
	}

	r, err := medCreateReminderFn(c.Request().Context(), id.UserID, c.Param("id"), db.ReminderInput{
		ReminderTime: at,
		PhoneNumber:  phone,
		Channel:      channel,
	})
	if err != nil {
		writeMedicationError(c, id, err)
		return
	}

	writeJSON(c, http.StatusCreated, map[string]any{
		"id":            r.ID,
		"reminder_time": r.ReminderTime,
		"channel":       r.Channel,
		"message":       "Reminder created successfully",
	})
}

// ListReminders returns a medication's reminders.
func ListReminders(c flamego.Context, id *Identity) {
	reminders, err := medListRemindersFn(c.Request().Context(), id.UserID, c.Param("id"))
	if err != nil {
		writeMedicationError(c, id, err)
		return
	}

	writeJSON(c, http.StatusOK, map[string]any{"reminders": reminders})
}

// VerifyMedication confirms a dose with the code sent in its reminder.
func VerifyMedication(c flamego.Context, app *App, id *Identity) {
	var req verifyRequest

	if _, err := decodeBody(c, app.maxBytes(), &req); err != nil {
		writeDecodeError(c, err)
		return
	}

	if blank(req.VerificationCode) {
		missingField(c, "verification_code")
		return
	}

	code := strings.TrimSpace(*req.VerificationCode)

	confirmation, err := medVerifyFn(c.Request().Context(), id.UserID, code, req.Notes, app.now())
	if err != nil {
		switch {
		case errors.Is(err, db.ErrReminderNotFound):
			writeError(c, http.StatusBadRequest, "Invalid verification code")
		case errors.Is(err, db.ErrReminderExpired):
			writeError(c, http.StatusBadRequest, "Verification code has expired")
		case errors.Is(err, db.ErrReminderConfirmed):
			writeError(c, http.StatusBadRequest, "Reminder already confirmed")
		default:
			logger.Error("Failed to verify reminder", "user_id", id.UserID, "error", err)
			writeError(c, http.StatusInternalServerError, "Failed to verify medication")
		}

		return
	}

	writeJSON(c, http.StatusOK, map[string]any{
		"message":         "Medication intake verified successfully",
		"medication_name": confirmation.MedicationName,
	})
}

// MedicationAdherence reports taken and missed doses over a date range.
// The end date is inclusive.
func MedicationAdherence(c flamego.Context, app *App, id *Identity) {
	today := app.now().Truncate(24 * time.Hour)
	start := today.AddDate(0, 0, -defaultAdherenceWindow)
	end := today

	if raw := c.Query("start_date"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
			return
		}

		start = t
	}

	if raw := c.Query("end_date"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			writeError(c, http.StatusBadRequest, "Invalid date format. Use YYYY-MM-DD")
			return
		}

		end = t
	}

	if end.Before(start) {
		writeError(c, http.StatusBadRequest, "End date must not be before start date")
		return
	}

	report, err := medAdherenceFn(c.Request().Context(), id.UserID, start, end.AddDate(0, 0, 1))
	if err != nil {
		logger.Error("Failed to compute adherence", "user_id", id.UserID, "error", err)
		writeError(c, http.StatusInternalServerError, "Failed to compute adherence")

		return
	}

	writeJSON(c, http.StatusOK, map[string]any{
		"start_date":  start.Format(dateLayout),
		"end_date":    end.Format(dateLayout),
		"overall":     report.Overall,
		"medications": report.Medications,
	})
}

func writeMedicationError(c flamego.Context, id *Identity, err error) {
	switch {
	case errors.Is(err, db.ErrMedicationNotFound):
		writeError(c, http.StatusNotFound, "Medication not found")
	case errors.Is(err, db.ErrInvalidDateRange):
		writeError(c, http.StatusBadRequest, "End date must not be before start date")
	case errors.Is(err, db.ErrMissingMedicationField):
		writeError(c, http.StatusBadRequest, "Missing required medication field")
	default:
		logger.Error("Medication operation failed", "user_id", id.UserID, "error", err)
		writeError(c, http.StatusInternalServerError, "Medication operation failed")
	}
}
