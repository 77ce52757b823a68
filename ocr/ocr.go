/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */

// Package ocr reads blood pressure values from photos of monitor displays
// and printed logs.
package ocr

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/humaidq/hypertrack/bp"
	"github.com/humaidq/hypertrack/logging"
	"github.com/otiai10/gosseract/v2"
)

var logger = logging.Logger(logging.SourceOCR)

// ImageExtensions lists the accepted upload extensions.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tiff"}

// IsSupportedImage reports whether a file name carries an accepted extension.
func IsSupportedImage(name string) bool {
	return slices.Contains(ImageExtensions, strings.ToLower(filepath.Ext(name)))
}

// Engine turns an image file into text.
type Engine interface {
	Text(ctx context.Context, path string) (string, error)
}

// Tesseract runs the Tesseract engine in-process.
type Tesseract struct {
	Languages []string
}

// Text recognises the text in the image at path.
func (t Tesseract) Text(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close tesseract client", "error", err)
		}
	}()

	if len(t.Languages) > 0 {
		if err := client.SetLanguage(t.Languages...); err != nil {
			return "", fmt.Errorf("failed to set OCR language: %w", err)
		}
	}

	if err := client.SetImage(path); err != nil {
		return "", fmt.Errorf("failed to load image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("failed to recognise text: %w", err)
	}

	return text, nil
}

// ReadPairs runs the engine over an image and returns the valid readings
// found in the recognised text.
func ReadPairs(ctx context.Context, engine Engine, path string) ([]bp.Pair, error) {
	if !IsSupportedImage(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedImage, filepath.Ext(path))
	}

	text, err := engine.Text(ctx, path)
	if err != nil {
		return nil, err
	}

	pairs := bp.ExtractPairs(text)
	logger.Debug("OCR complete", "file", filepath.Base(path), "chars", len(text), "pairs", len(pairs))

	return pairs, nil
}
