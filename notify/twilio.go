/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package notify

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioConfig holds the account credentials and sending number.
type TwilioConfig struct {
	AccountSID  string
	AuthToken   string
	PhoneNumber string
}

// Configured reports whether every credential is set.
func (c TwilioConfig) Configured() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.PhoneNumber != ""
}

type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// TwilioSender sends SMS through the Twilio REST API.
type TwilioSender struct {
	from string
	api  messageCreator
}

// NewTwilioSender builds a sender. Without credentials every Send fails
// with ErrTwilioNotConfigured.
func NewTwilioSender(cfg TwilioConfig) *TwilioSender {
	if !cfg.Configured() {
		logger.Warn("Twilio credentials missing, SMS reminders are disabled")
		return &TwilioSender{}
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})

	return &TwilioSender{from: cfg.PhoneNumber, api: client.Api}
}

// Send posts the SMS and returns the Twilio message SID.
func (s *TwilioSender) Send(ctx context.Context, to, body string) (string, error) {
	if s.api == nil {
		return "", ErrTwilioNotConfigured
	}

	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(s.from)
	params.SetBody(body)

	resp, err := s.api.CreateMessage(params)
	if err != nil {
		return "", fmt.Errorf("failed to create twilio message: %w", err)
	}

	if resp.Sid == nil {
		return "", nil
	}

	return *resp.Sid, nil
}
