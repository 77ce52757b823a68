/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/hypertrack/db"
	"github.com/humaidq/hypertrack/notify"
	"github.com/humaidq/hypertrack/scheduler"
)

var CmdReminders = &cli.Command{
	Name:  "reminders",
	Usage: "Run a single reminder scheduler pass",
	Flags: []cli.Flag{
		databaseURLFlag(),
		&cli.StringFlag{
			Name:    "notify-channel",
			Value:   string(db.ChannelSMS),
			Sources: cli.EnvVars("NOTIFY_CHANNEL"),
			Usage:   "sms or log; log prints reminders instead of sending them",
		},
		&cli.StringFlag{
			Name:    "twilio-account-sid",
			Sources: cli.EnvVars("TWILIO_ACCOUNT_SID"),
		},
		&cli.StringFlag{
			Name:    "twilio-auth-token",
			Sources: cli.EnvVars("TWILIO_AUTH_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "twilio-phone-number",
			Sources: cli.EnvVars("TWILIO_PHONE_NUMBER"),
		},
	},
	Commands: []*cli.Command{
		{
			Name:   "dispatch",
			Usage:  "Send reminders due within a minute of now",
			Action: remindersDispatch,
		},
		{
			Name:   "sweep",
			Usage:  "Mark expired, unconfirmed reminders as missed",
			Action: remindersSweep,
		},
	},
}

// withScheduler connects to the database and hands a scheduler to fn. The
// WhatsApp channel needs a paired long-running client, so one-off passes
// only send over SMS or the log.
func withScheduler(ctx context.Context, cmd *cli.Command, fn func(context.Context, *scheduler.Scheduler) error) error {
	if err := setDatabaseURL(cmd.String("database-url")); err != nil {
		return err
	}

	cfg := &config{
		NotifyChannel: cmd.String("notify-channel"),
		Twilio: notify.TwilioConfig{
			AccountSID:  cmd.String("twilio-account-sid"),
			AuthToken:   cmd.String("twilio-auth-token"),
			PhoneNumber: cmd.String("twilio-phone-number"),
		},
	}

	if cfg.NotifyChannel != string(db.ChannelSMS) && cfg.NotifyChannel != ChannelLog {
		return errInvalidNotifyChannel
	}

	if err := db.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	return fn(ctx, scheduler.New(scheduler.DatabaseStore, newNotifyRouter(cfg), scheduler.Options{}))
}

func remindersDispatch(ctx context.Context, cmd *cli.Command) error {
	return withScheduler(ctx, cmd, func(ctx context.Context, s *scheduler.Scheduler) error {
		result, err := s.Dispatch(ctx)
		if err != nil {
			return fmt.Errorf("failed to dispatch reminders: %w", err)
		}

		appLogger.Info("Reminder dispatch finished", "due", result.Due, "sent", result.Sent, "failed", result.Failed)

		return nil
	})
}

func remindersSweep(ctx context.Context, cmd *cli.Command) error {
	return withScheduler(ctx, cmd, func(ctx context.Context, s *scheduler.Scheduler) error {
		missed, err := s.Sweep(ctx)
		if err != nil {
			return fmt.Errorf("failed to sweep reminders: %w", err)
		}

		appLogger.Info("Missed reminder sweep finished", "missed", missed)

		return nil
	})
}
