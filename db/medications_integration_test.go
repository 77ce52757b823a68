// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package db

import (
	"errors"
	"testing"
	"time"
)

func TestMedicationLifecycle(t *testing.T) {
	resetDatabase(t)
	ctx := testContext()

	owner := mustCreateUser(t, "hana")
	other := mustCreateUser(t, "ivan")
	med := mustCreateMedication(t, owner.ID.String(), "Lisinopril")

	if _, err := GetMedication(ctx, other.ID.String(), med.ID.String()); !errors.Is(err, ErrMedicationNotFound) {
		t.Fatalf("expected ErrMedicationNotFound for other user, got %v", err)
	}

	if _, err := GetMedication(ctx, owner.ID.String(), "not-a-uuid"); !errors.Is(err, ErrMedicationNotFound) {
		t.Fatalf("expected ErrMedicationNotFound for bad id, got %v", err)
	}

	before := med.StartDate.AddDate(0, 0, -1)
	if _, err := UpdateMedication(ctx, owner.ID.String(), med.ID.String(), MedicationInput{EndDate: &before}); !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}

	updated, err := UpdateMedication(ctx, owner.ID.String(), med.ID.String(), MedicationInput{Dosage: stringPtr("20mg")})
	if err != nil {
		t.Fatalf("UpdateMedication failed: %v", err)
	}
	if updated.Dosage != "20mg" || updated.Name != "Lisinopril" {
		t.Fatalf("unexpected update %+v", updated)
	}

	meds, err := ListMedications(ctx, owner.ID.String())
	if err != nil {
		t.Fatalf("ListMedications failed: %v", err)
	}
	if len(meds) != 1 {
		t.Fatalf("expected 1 medication, got %d", len(meds))
	}

	if err := DeleteMedication(ctx, other.ID.String(), med.ID.String()); !errors.Is(err, ErrMedicationNotFound) {
		t.Fatalf("expected ErrMedicationNotFound, got %v", err)
	}

	if err := DeleteMedication(ctx, owner.ID.String(), med.ID.String()); err != nil {
		t.Fatalf("DeleteMedication failed: %v", err)
	}
}

func TestReminderDispatchVerifyAndSweep(t *testing.T) {
	resetDatabase(t)
	ctx := testContext()

	owner := mustCreateUser(t, "jane")
	uid := owner.ID.String()
	med := mustCreateMedication(t, uid, "Amlodipine")
	now := time.Now().UTC().Truncate(time.Second)

	first, err := CreateReminder(ctx, uid, med.ID.String(), ReminderInput{ReminderTime: now, PhoneNumber: "+15550001111"})
	if err != nil {
		t.Fatalf("CreateReminder failed: %v", err)
	}
	if first.Channel != ChannelSMS || len(first.VerificationCode) != 6 {
		t.Fatalf("unexpected reminder %+v", first)
	}

	second, err := CreateReminder(ctx, uid, med.ID.String(), ReminderInput{
		ReminderTime: now.Add(12 * time.Hour),
		PhoneNumber:  "+15550001111",
		Channel:      ChannelWhatsApp,
	})
	if err != nil {
		t.Fatalf("CreateReminder failed: %v", err)
	}

	due, err := ListDueReminders(ctx, now.Add(-time.Minute), now.Add(time.Minute))
	if err != nil {
		t.Fatalf("ListDueReminders failed: %v", err)
	}
	if len(due) != 1 || due[0].ID != first.ID || due[0].MedicationName != "Amlodipine" {
		t.Fatalf("unexpected due reminders %+v", due)
	}

	expires, err := MarkReminderSent(ctx, first.ID.String(), now)
	if err != nil {
		t.Fatalf("MarkReminderSent failed: %v", err)
	}
	if !expires.Equal(second.ReminderTime) {
		t.Fatalf("expected expiry at next dose %v, got %v", second.ReminderTime, expires)
	}

	lastExpiry, err := MarkReminderSent(ctx, second.ID.String(), now)
	if err != nil {
		t.Fatalf("MarkReminderSent failed: %v", err)
	}
	if !lastExpiry.Equal(now.Add(DefaultReminderLifetime)) {
		t.Fatalf("expected default lifetime, got %v", lastExpiry)
	}

	open, err := ListOpenRemindersByCode(ctx, first.VerificationCode)
	if err != nil {
		t.Fatalf("ListOpenRemindersByCode failed: %v", err)
	}
	found := false
	for _, r := range open {
		if r.ID == first.ID && r.UserID == owner.ID && r.PhoneNumber == "+15550001111" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected sent reminder in open list, got %+v", open)
	}

	if _, err := VerifyReminder(ctx, uid, "000000x", nil, now); !errors.Is(err, ErrReminderNotFound) {
		t.Fatalf("expected ErrReminderNotFound, got %v", err)
	}

	confirmation, err := VerifyReminder(ctx, uid, first.VerificationCode, stringPtr("with food"), now.Add(time.Hour))
	if err != nil {
		t.Fatalf("VerifyReminder failed: %v", err)
	}
	if confirmation.MedicationName != "Amlodipine" || confirmation.Log.Status != LogTaken {
		t.Fatalf("unexpected confirmation %+v", confirmation)
	}

	if _, err := VerifyReminder(ctx, uid, first.VerificationCode, nil, now.Add(time.Hour)); !errors.Is(err, ErrReminderConfirmed) {
		t.Fatalf("expected ErrReminderConfirmed, got %v", err)
	}

	if second.VerificationCode != first.VerificationCode {
		if _, err := VerifyReminder(ctx, uid, second.VerificationCode, nil, now.Add(48*time.Hour)); !errors.Is(err, ErrReminderExpired) {
			t.Fatalf("expected ErrReminderExpired, got %v", err)
		}
	}

	missed, err := SweepMissedReminders(ctx, now.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("SweepMissedReminders failed: %v", err)
	}
	if missed != 1 {
		t.Fatalf("expected one missed reminder, got %d", missed)
	}

	again, err := SweepMissedReminders(ctx, now.Add(48*time.Hour))
	if err != nil {
		t.Fatalf("SweepMissedReminders failed: %v", err)
	}
	if again != 0 {
		t.Fatalf("expected sweep to be idempotent, got %d", again)
	}

	if second.VerificationCode != first.VerificationCode {
		if _, err := VerifyReminder(ctx, uid, second.VerificationCode, nil, now.Add(49*time.Hour)); !errors.Is(err, ErrReminderExpired) {
			t.Fatalf("expected ErrReminderExpired after sweep, got %v", err)
		}
	}

	report, err := GetAdherence(ctx, uid, now.Add(-24*time.Hour), now.Add(72*time.Hour))
	if err != nil {
		t.Fatalf("GetAdherence failed: %v", err)
	}
	if report.Overall.TotalReminders != 2 || report.Overall.TakenCount != 1 || report.Overall.MissedCount != 1 {
		t.Fatalf("unexpected adherence %+v", report.Overall)
	}
	if report.Overall.AdherenceRate != 50 {
		t.Fatalf("expected 50%% adherence, got %v", report.Overall.AdherenceRate)
	}

	logs, err := ListRecentLogs(ctx, med.ID.String(), 10)
	if err != nil {
		t.Fatalf("ListRecentLogs failed: %v", err)
	}
	if len(logs) != 2 || logs[0].Status != LogMissed || *logs[0].Notes != MissedNote {
		t.Fatalf("unexpected logs %+v", logs)
	}
}
