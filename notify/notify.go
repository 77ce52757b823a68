/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package notify delivers medication reminders over SMS and WhatsApp.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/humaidq/hypertrack/db"
	"github.com/humaidq/hypertrack/logging"
)

// Sender delivers a text message and returns the provider's message id.
type Sender interface {
	Send(ctx context.Context, to, body string) (string, error)
}

// ReminderMessage is the text sent for a due reminder.
func ReminderMessage(medicationName, code string) string {
	return fmt.Sprintf(
		"REMINDER: Time to take your %s. After taking, respond with verification code: %s to confirm.",
		medicationName, code,
	)
}

// Router picks a Sender by reminder channel.
type Router struct {
	mu       sync.RWMutex
	senders  map[db.Channel]Sender
	fallback Sender
}

// NewRouter returns a router that uses fallback for channels without a
// registered sender. fallback may be nil.
func NewRouter(fallback Sender) *Router {
	return &Router{senders: make(map[db.Channel]Sender), fallback: fallback}
}

// Register sets the sender for a channel.
func (r *Router) Register(channel db.Channel, sender Sender) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.senders[channel] = sender
}

// For returns the sender for channel.
func (r *Router) For(channel db.Channel) (Sender, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if sender, ok := r.senders[channel]; ok {
		return sender, nil
	}

	if r.fallback != nil {
		return r.fallback, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNoSender, channel)
}

// Send delivers body to a phone number over channel.
func (r *Router) Send(ctx context.Context, channel db.Channel, to, body string) (string, error) {
	if strings.TrimSpace(to) == "" {
		return "", ErrEmptyRecipient
	}

	sender, err := r.For(channel)
	if err != nil {
		return "", err
	}

	id, err := sender.Send(ctx, to, body)
	if err != nil {
		return "", fmt.Errorf("failed to send %s message: %w", channel, err)
	}

	logger.Info("Message sent", "channel", channel, "to", logging.MaskPhone(to), "message_id", id)

	return id, nil
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct{}

// Send logs the message with the recipient masked.
func (LogSender) Send(_ context.Context, to, body string) (string, error) {
	logger.Info("Notification (log only)", "to", logging.MaskPhone(to), "body", body)
	return "log-only", nil
}
