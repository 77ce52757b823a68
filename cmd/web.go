/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/flamego/template"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/humaidq/hypertrack/auth"
	"github.com/humaidq/hypertrack/db"
	"github.com/humaidq/hypertrack/notify"
	"github.com/humaidq/hypertrack/ocr"
	"github.com/humaidq/hypertrack/routes"
	"github.com/humaidq/hypertrack/scheduler"
	"github.com/humaidq/hypertrack/templates"
	"github.com/humaidq/hypertrack/whatsapp"
)

const (
	shutdownTimeout = 10 * time.Second
	sessionLifetime = 30 * 24 * time.Hour
)

var CmdStart = &cli.Command{
	Name:    "start",
	Aliases: []string{"run"},
	Usage:   "Start the API server and the reminder scheduler",
	Flags:   startFlags,
	Action:  start,
}

func start(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := setDatabaseURL(cfg.DatabaseURL); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLogger.Info("Connecting to database")

	if err := db.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	appLogger.Info("Syncing database schema")

	if err := db.SyncSchema(ctx); err != nil {
		return fmt.Errorf("failed to sync schema: %w", err)
	}

	appLogger.Info("Database schema synced successfully")

	if cfg.AdminUsername != "" {
		if err := db.PromoteToAdmin(ctx, cfg.AdminUsername); err != nil {
			return fmt.Errorf("failed to promote admin user: %w", err)
		}
	}

	if cfg.WhatsApp {
		if err := whatsapp.Initialize(ctx, cfg.DatabaseURL, cfg.Env == envDevelopment,
			notify.ConfirmByReply(notify.DatabaseReminders, time.Now)); err != nil {
			whatsappLogger.Error("WhatsApp initialization failed, channel disabled", "error", err)
		}
	}

	app, err := newApp(cfg)
	if err != nil {
		return err
	}

	f, err := newServer(app)
	if err != nil {
		return err
	}

	sched := scheduler.New(scheduler.DatabaseStore, newNotifyRouter(cfg), scheduler.Options{
		DispatchInterval: cfg.ReminderInterval,
		SweepInterval:    cfg.MissedSweepInterval,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           f,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ErrorLog:          requestStdLogger,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		appLogger.Info("Starting web server", "port", cfg.Port, "env", cfg.Env)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("web server failed: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		return sched.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		appLogger.Info("Shutting down web server")

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down web server: %w", err)
		}

		if client := whatsapp.GetClient(); client != nil {
			client.Disconnect()
		}

		return nil
	})

	return g.Wait()
}

func newApp(cfg *config) (*routes.App, error) {
	issuer, err := auth.NewIssuer(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create token issuer: %w", err)
	}

	return &routes.App{
		Tokens:         issuer,
		Models:         routes.NewModelStore(cfg.ModelPath),
		OCR:            ocr.Tesseract{Languages: []string{"eng"}},
		UploadDir:      cfg.UploadDir,
		ReportDir:      cfg.ReportDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
		DefaultChannel: cfg.defaultChannel(),
	}, nil
}

func newServer(app *routes.App) (*flamego.Flame, error) {
	fs, err := template.EmbedFS(templates.Templates, ".", []string{".html"})
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	f := flamego.New()
	f.Map(app)
	f.Use(flamego.Recovery())
	f.Use(session.Sessioner(session.Options{
		Initer: db.PostgresSessionIniter(),
		Config: db.PostgresSessionConfig{Lifetime: sessionLifetime},
		Cookie: session.CookieOptions{
			Name:     "hypertrack_session",
			MaxAge:   int(sessionLifetime.Seconds()),
			HTTPOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	}))
	f.Use(routes.RequestLogger)
	f.Use(template.Templater(template.Options{
		FileSystem: fs,
	}))

	routes.Mount(f)

	return f, nil
}

// newNotifyRouter wires the reminder senders. The log channel sends every
// reminder to the log regardless of its stored channel.
func newNotifyRouter(cfg *config) *notify.Router {
	if cfg.NotifyChannel == ChannelLog {
		return notify.NewRouter(notify.LogSender{})
	}

	router := notify.NewRouter(nil)
	router.Register(db.ChannelSMS, notify.NewTwilioSender(cfg.Twilio))

	if cfg.WhatsApp {
		router.Register(db.ChannelWhatsApp, notify.NewWhatsAppSender())
	}

	return router
}
