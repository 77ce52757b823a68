/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package risk

import "errors"

var (
	ErrModelNotLoaded       = errors.New("model not trained yet")
	ErrFeatureCountMismatch = errors.New("feature count does not match model")
	ErrInvalidModel         = errors.New("invalid model artefact")
	ErrEmptyDataset         = errors.New("dataset has no rows")
	ErrUnknownLevel         = errors.New("unknown level")
)
