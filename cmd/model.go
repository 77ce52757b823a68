/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/humaidq/hypertrack/risk"
)

const syntheticRows = 1000

var CmdModel = &cli.Command{
	Name:  "model",
	Usage: "Manage the hypertension risk model",
	Commands: []*cli.Command{
		{
			Name:  "train",
			Usage: "Train the risk model and write it as JSON",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "dataset",
					Usage: "labelled patient CSV; a synthetic dataset is generated when empty",
				},
				&cli.StringFlag{
					Name:    "out",
					Sources: cli.EnvVars("MODEL_PATH"),
					Usage:   "output path for the model artefact",
				},
				&cli.IntFlag{
					Name:  "epochs",
					Value: risk.DefaultTrainOptions().Epochs,
				},
				&cli.FloatFlag{
					Name:  "learning-rate",
					Value: risk.DefaultTrainOptions().LearningRate,
				},
				&cli.Uint64Flag{
					Name:  "seed",
					Value: risk.DefaultTrainOptions().Seed,
				},
			},
			Action: modelTrain,
		},
	},
}

func modelTrain(_ context.Context, cmd *cli.Command) error {
	out := cmd.String("out")
	if out == "" {
		return errOutputRequired
	}

	opts := risk.DefaultTrainOptions()
	opts.Epochs = cmd.Int("epochs")
	opts.LearningRate = cmd.Float("learning-rate")
	opts.Seed = cmd.Uint64("seed")

	examples, err := loadExamples(cmd.String("dataset"), opts.Seed)
	if err != nil {
		return err
	}

	appLogger.Info("Training risk model", "rows", len(examples), "epochs", opts.Epochs)

	model, err := risk.Train(examples, opts)
	if err != nil {
		return fmt.Errorf("failed to train model: %w", err)
	}

	if err := model.Save(out); err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}

	appLogger.Info("Model saved",
		"path", out,
		"train_rows", model.Metrics.TrainRows,
		"test_rows", model.Metrics.TestRows,
		"train_accuracy", fmt.Sprintf("%.3f", model.Metrics.TrainAccuracy),
		"test_accuracy", fmt.Sprintf("%.3f", model.Metrics.TestAccuracy),
	)

	return nil
}

func loadExamples(path string, seed uint64) ([]risk.Example, error) {
	if path == "" {
		appLogger.Warn("No dataset given, generating synthetic patients", "rows", syntheticRows)

		return risk.SyntheticDataset(syntheticRows, seed), nil
	}

	f, err := os.Open(path) //nolint:gosec // operator-supplied dataset path
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	examples, err := risk.ReadDataset(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	return examples, nil
}
