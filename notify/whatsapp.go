/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package notify

import (
	"context"
	"errors"

	"github.com/humaidq/hypertrack/whatsapp"
)

// WhatsAppSender sends through the linked WhatsApp device.
type WhatsAppSender struct {
	client func() *whatsapp.Client
}

// NewWhatsAppSender uses the process-wide WhatsApp client.
func NewWhatsAppSender() *WhatsAppSender {
	return &WhatsAppSender{client: whatsapp.GetClient}
}

// Send fails with ErrWhatsAppNotConnected until a device is paired.
func (s *WhatsAppSender) Send(ctx context.Context, to, body string) (string, error) {
	client := s.client()
	if client == nil || !client.IsConnected() {
		return "", ErrWhatsAppNotConnected
	}

	id, err := client.Send(ctx, to, body)
	if errors.Is(err, whatsapp.ErrNotConnected) {
		return "", ErrWhatsAppNotConnected
	}

	return id, err
}
