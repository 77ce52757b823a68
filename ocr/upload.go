/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package ocr

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// SaveUpload copies an uploaded image to dir/<userID>/ and returns the
// stored path. The stored name is prefixed with a timestamp so that repeat
// uploads of the same file do not collide.
func SaveUpload(dir, userID, name string, src io.Reader, now time.Time) (string, error) {
	if !IsSupportedImage(name) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedImage, filepath.Ext(name))
	}

	userDir := filepath.Join(dir, userID)
	if err := os.MkdirAll(userDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	base := strings.ReplaceAll(filepath.Base(name), " ", "_")
	path := filepath.Join(userDir, now.UTC().Format("20060102150405")+"_"+base)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o640)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}

	written, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	if written == 0 {
		_ = os.Remove(path)
		return "", ErrEmptyUpload
	}

	return path, nil
}
