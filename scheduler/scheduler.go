/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package scheduler sends due medication reminders and marks unconfirmed
// doses as missed.
package scheduler

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/humaidq/hypertrack/db"
	"github.com/humaidq/hypertrack/logging"
	"github.com/humaidq/hypertrack/notify"
)

var logger = logging.Logger(logging.SourceScheduler)

// Default timings.
const (
	DefaultDispatchInterval = time.Minute
	DefaultSweepInterval    = 30 * time.Minute
	DispatchWindow          = time.Minute
)

// Store is the reminder persistence used by the scheduler.
type Store interface {
	ListDueReminders(ctx context.Context, from, to time.Time) ([]db.DueReminder, error)
	MarkReminderSent(ctx context.Context, reminderID string, sentAt time.Time) (time.Time, error)
	SweepMissedReminders(ctx context.Context, now time.Time) (int, error)
}

// Sender delivers a message over a reminder channel.
type Sender interface {
	Send(ctx context.Context, channel db.Channel, to, body string) (string, error)
}

type dbStore struct{}

func (dbStore) ListDueReminders(ctx context.Context, from, to time.Time) ([]db.DueReminder, error) {
	return db.ListDueReminders(ctx, from, to)
}

func (dbStore) MarkReminderSent(ctx context.Context, reminderID string, sentAt time.Time) (time.Time, error) {
	return db.MarkReminderSent(ctx, reminderID, sentAt)
}

func (dbStore) SweepMissedReminders(ctx context.Context, now time.Time) (int, error) {
	return db.SweepMissedReminders(ctx, now)
}

// DatabaseStore is the Store backed by the connection pool.
var DatabaseStore Store = dbStore{}

// Options configures a Scheduler. Zero intervals select the defaults.
type Options struct {
	DispatchInterval time.Duration
	SweepInterval    time.Duration
	Now              func() time.Time
}

// Scheduler runs the dispatch and missed-dose passes.
type Scheduler struct {
	store            Store
	sender           Sender
	dispatchInterval time.Duration
	sweepInterval    time.Duration
	now              func() time.Time
}

// New returns a scheduler.
func New(store Store, sender Sender, opts Options) *Scheduler {
	s := &Scheduler{
		store:            store,
		sender:           sender,
		dispatchInterval: opts.DispatchInterval,
		sweepInterval:    opts.SweepInterval,
		now:              opts.Now,
	}

	if s.dispatchInterval <= 0 {
		s.dispatchInterval = DefaultDispatchInterval
	}
	if s.sweepInterval <= 0 {
		s.sweepInterval = DefaultSweepInterval
	}
	if s.now == nil {
		s.now = time.Now
	}

	return s
}

// DispatchResult counts the outcome of one dispatch pass.
type DispatchResult struct {
	Due    int
	Sent   int
	Failed int
}

// Dispatch sends every unsent reminder scheduled within a minute of now.
// A failed send leaves the reminder unsent so the next pass retries it
// while it is still inside the window.
func (s *Scheduler) Dispatch(ctx context.Context) (DispatchResult, error) {
	now := s.now()

	due, err := s.store.ListDueReminders(ctx, now.Add(-DispatchWindow), now.Add(DispatchWindow))
	if err != nil {
		return DispatchResult{}, err
	}

	result := DispatchResult{Due: len(due)}

	for _, r := range due {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		body := notify.ReminderMessage(r.MedicationName, r.VerificationCode)
		if _, err := s.sender.Send(ctx, r.Channel, r.PhoneNumber, body); err != nil {
			result.Failed++
			logger.Error("Failed to send reminder",
				"reminder_id", r.ID,
				"channel", r.Channel,
				"phone", logging.MaskPhone(r.PhoneNumber),
				"error", err,
			)
			continue
		}

		expiresAt, err := s.store.MarkReminderSent(ctx, r.ID.String(), now)
		if err != nil {
			result.Failed++
			logger.Error("Failed to mark reminder sent", "reminder_id", r.ID, "error", err)
			continue
		}

		result.Sent++
		logger.Info("Reminder sent", "reminder_id", r.ID, "channel", r.Channel, "expires_at", expiresAt)
	}

	return result, nil
}

// Sweep logs expired, unconfirmed reminders as missed.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	missed, err := s.store.SweepMissedReminders(ctx, s.now())
	if err != nil {
		return 0, err
	}

	if missed > 0 {
		logger.Info("Marked reminders as missed", "count", missed)
	}

	return missed, nil
}

// Run executes both passes once and then on every tick until ctx is
// cancelled. Pass errors are logged and do not stop the loops.
func (s *Scheduler) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return s.loop(ctx, "dispatch", s.dispatchInterval, func(ctx context.Context) error {
			_, err := s.Dispatch(ctx)
			return err
		})
	})

	g.Go(func() error {
		return s.loop(ctx, "sweep", s.sweepInterval, func(ctx context.Context) error {
			_, err := s.Sweep(ctx)
			return err
		})
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, pass func(context.Context) error) error {
	logger.Info("Scheduler worker starting", "worker", name, "interval", interval)

	run := func() {
		if err := pass(ctx); err != nil && ctx.Err() == nil {
			logger.Error("Scheduler pass failed", "worker", name, "error", err)
		}
	}

	run()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Scheduler worker shutting down", "worker", name)
			return ctx.Err()
		case <-ticker.C:
			run()
		}
	}
}
