/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package ocr

import "errors"

var (
	ErrUnsupportedImage = errors.New("unsupported image type")
	ErrEmptyUpload      = errors.New("uploaded file is empty")
)
