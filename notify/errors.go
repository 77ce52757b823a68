/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package notify

import "errors"

var (
	ErrTwilioNotConfigured  = errors.New("twilio credentials are not configured")
	ErrWhatsAppNotConnected = errors.New("whatsapp is not connected")
	ErrNoSender             = errors.New("no sender registered for channel")
	ErrEmptyRecipient       = errors.New("recipient phone number is empty")
)
