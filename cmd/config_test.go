// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"errors"
	"testing"
	"time"

	"github.com/humaidq/hypertrack/db"
	"github.com/humaidq/hypertrack/notify"
)

func validConfig() *config {
	return &config{
		DatabaseURL:   "postgres://localhost/hypertrack",
		Env:           envProduction,
		JWTSecret:     "secret",
		AccessTTL:     time.Hour,
		RefreshTTL:    24 * time.Hour,
		NotifyChannel: string(db.ChannelSMS),
	}
}

func TestParseRuntimeEnv(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    runtimeEnv
		wantErr bool
	}{
		{"", envProduction, false},
		{"prod", envProduction, false},
		{" Production ", envProduction, false},
		{"dev", envDevelopment, false},
		{"DEVELOPMENT", envDevelopment, false},
		{"staging", "", true},
	}

	for _, tt := range tests {
		got, err := parseRuntimeEnv(tt.input)
		if tt.wantErr {
			if !errors.Is(err, errInvalidRuntimeEnv) {
				t.Fatalf("parseRuntimeEnv(%q) error = %v, want errInvalidRuntimeEnv", tt.input, err)
			}

			continue
		}

		if err != nil {
			t.Fatalf("parseRuntimeEnv(%q) unexpected error: %v", tt.input, err)
		}

		if got != tt.want {
			t.Fatalf("parseRuntimeEnv(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config)
		want   error
	}{
		{"valid", func(*config) {}, nil},
		{"missing database url", func(c *config) { c.DatabaseURL = "" }, errDatabaseURLRequired},
		{"missing secret in production", func(c *config) { c.JWTSecret = "" }, errJWTSecretRequired},
		{"zero access ttl", func(c *config) { c.AccessTTL = 0 }, errInvalidTokenTTL},
		{"negative refresh ttl", func(c *config) { c.RefreshTTL = -time.Minute }, errInvalidTokenTTL},
		{"unknown channel", func(c *config) { c.NotifyChannel = "email" }, errInvalidNotifyChannel},
		{"whatsapp disabled", func(c *config) { c.NotifyChannel = string(db.ChannelWhatsApp) }, errWhatsAppDisabled},
		{"whatsapp enabled", func(c *config) {
			c.NotifyChannel = string(db.ChannelWhatsApp)
			c.WhatsApp = true
		}, nil},
		{"log channel", func(c *config) { c.NotifyChannel = ChannelLog }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.validate()
			if !errors.Is(err, tt.want) {
				t.Fatalf("validate() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestConfigValidateDevelopmentSecret(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Env = envDevelopment
	cfg.JWTSecret = ""

	if err := cfg.validate(); err != nil {
		t.Fatalf("validate() unexpected error: %v", err)
	}

	if cfg.JWTSecret != devJWTSecret {
		t.Fatalf("expected development secret, got %q", cfg.JWTSecret)
	}
}

func TestDefaultChannel(t *testing.T) {
	t.Parallel()

	tests := map[string]db.Channel{
		string(db.ChannelSMS):      db.ChannelSMS,
		string(db.ChannelWhatsApp): db.ChannelWhatsApp,
		ChannelLog:                 db.ChannelSMS,
	}

	for channel, want := range tests {
		cfg := &config{NotifyChannel: channel}
		if got := cfg.defaultChannel(); got != want {
			t.Fatalf("defaultChannel() for %q = %q, want %q", channel, got, want)
		}
	}
}

func TestSetDatabaseURLRequiresValue(t *testing.T) {
	t.Parallel()

	if err := setDatabaseURL(""); !errors.Is(err, errDatabaseURLRequired) {
		t.Fatalf("setDatabaseURL(\"\") error = %v, want errDatabaseURLRequired", err)
	}
}

func TestNewNotifyRouter(t *testing.T) {
	t.Parallel()

	logRouter := newNotifyRouter(&config{NotifyChannel: ChannelLog})

	for _, channel := range []db.Channel{db.ChannelSMS, db.ChannelWhatsApp} {
		sender, err := logRouter.For(channel)
		if err != nil {
			t.Fatalf("log router For(%q) unexpected error: %v", channel, err)
		}

		if _, ok := sender.(notify.LogSender); !ok {
			t.Fatalf("log router For(%q) = %T, want notify.LogSender", channel, sender)
		}
	}

	smsRouter := newNotifyRouter(&config{NotifyChannel: string(db.ChannelSMS)})

	sender, err := smsRouter.For(db.ChannelSMS)
	if err != nil {
		t.Fatalf("sms router For(sms) unexpected error: %v", err)
	}

	if _, ok := sender.(*notify.TwilioSender); !ok {
		t.Fatalf("sms router For(sms) = %T, want *notify.TwilioSender", sender)
	}

	if _, err := smsRouter.For(db.ChannelWhatsApp); !errors.Is(err, notify.ErrNoSender) {
		t.Fatalf("sms router For(whatsapp) error = %v, want notify.ErrNoSender", err)
	}
}
