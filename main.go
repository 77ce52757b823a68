/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/hypertrack/cmd"
	"github.com/humaidq/hypertrack/logging"
)

func main() {
	logger := logging.Logger(logging.SourceApp)

	if err := cmd.LoadDotEnv(); err != nil {
		logger.Fatal("Startup failed", "error", err)
	}

	app := &cli.Command{
		Name:  "hypertrack",
		Usage: "HyperTrack - Hypertension Tracking Backend",
		Commands: []*cli.Command{
			cmd.CmdStart,
			cmd.CmdMigrate,
			cmd.CmdReminders,
			cmd.CmdModel,
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatal("Command failed", "error", err)
	}
}
