/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package notify

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/humaidq/hypertrack/db"
	"github.com/humaidq/hypertrack/logging"
	"github.com/humaidq/hypertrack/whatsapp"
)

var replyCodePattern = regexp.MustCompile(`\b(\d{6})\b`)

// ExtractCode returns the first six digit code found in a reply.
func ExtractCode(text string) (string, bool) {
	m := replyCodePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}

	return m[1], true
}

// ReminderStore is the subset of the database used to confirm replies.
type ReminderStore interface {
	ListOpenRemindersByCode(ctx context.Context, code string) ([]db.DueReminder, error)
	VerifyReminder(ctx context.Context, userID, code string, notes *string, now time.Time) (*db.Confirmation, error)
}

type dbReminderStore struct{}

func (dbReminderStore) ListOpenRemindersByCode(ctx context.Context, code string) ([]db.DueReminder, error) {
	return db.ListOpenRemindersByCode(ctx, code)
}

func (dbReminderStore) VerifyReminder(ctx context.Context, userID, code string, notes *string, now time.Time) (*db.Confirmation, error) {
	return db.VerifyReminder(ctx, userID, code, notes, now)
}

// DatabaseReminders is the ReminderStore backed by the connection pool.
var DatabaseReminders ReminderStore = dbReminderStore{}

const replyNote = "Confirmed by WhatsApp reply"

// ConfirmByReply returns a WhatsApp reply handler that records a dose when
// the sender answers with the code of a reminder sent to their number.
// Messages without a code are ignored.
func ConfirmByReply(store ReminderStore, now func() time.Time) whatsapp.ReplyHandler {
	return func(ctx context.Context, phone, text string) (string, error) {
		code, ok := ExtractCode(text)
		if !ok {
			return "", nil
		}

		open, err := store.ListOpenRemindersByCode(ctx, code)
		if err != nil {
			return "", err
		}

		for _, r := range open {
			if !whatsapp.PhoneMatches(r.PhoneNumber, phone) {
				continue
			}

			note := replyNote
			confirmation, err := store.VerifyReminder(ctx, r.UserID.String(), code, &note, now())
			switch {
			case errors.Is(err, db.ErrReminderExpired):
				return "Verification code has expired.", nil
			case errors.Is(err, db.ErrReminderConfirmed):
				return "This dose is already confirmed.", nil
			case err != nil:
				return "", fmt.Errorf("failed to confirm reminder: %w", err)
			}

			logger.Info("Dose confirmed by reply", "phone", logging.MaskPhone(phone), "medication", confirmation.MedicationName)

			return fmt.Sprintf("Thanks! Your %s dose has been recorded.", confirmation.MedicationName), nil
		}

		return "Invalid verification code.", nil
	}
}
