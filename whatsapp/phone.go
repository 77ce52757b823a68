/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package whatsapp

import (
	"fmt"
	"regexp"
	"strings"

	"go.mau.fi/whatsmeow/types"
)

const minPhoneDigits = 7

var nonDigitRegex = regexp.MustCompile(`[^\d]`)

// NormalizePhone strips every non-digit character.
func NormalizePhone(phone string) string {
	return nonDigitRegex.ReplaceAllString(phone, "")
}

// PhoneJID builds the user JID for a phone number in international format.
func PhoneJID(phone string) (types.JID, error) {
	digits := strings.TrimLeft(NormalizePhone(phone), "0")
	if len(digits) < minPhoneDigits {
		return types.JID{}, fmt.Errorf("%w: %q", ErrInvalidPhone, phone)
	}

	return types.NewJID(digits, types.DefaultUserServer), nil
}

// JIDToPhone extracts the phone number from a WhatsApp JID.
func JIDToPhone(jid string) string {
	user, _, _ := strings.Cut(jid, "@")
	return user
}

// PhoneMatches checks if two phone numbers match. A shorter number matches
// a longer one by suffix so that a missing country code still pairs up.
func PhoneMatches(phone1, phone2 string) bool {
	n1 := NormalizePhone(phone1)
	n2 := NormalizePhone(phone2)

	if n1 == "" || n2 == "" {
		return false
	}

	if n1 == n2 {
		return true
	}

	if min(len(n1), len(n2)) < minPhoneDigits {
		return false
	}

	return strings.HasSuffix(n1, n2) || strings.HasSuffix(n2, n1)
}
