/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package templates

import "embed"

// Templates holds the HTML views served by the report endpoints.
//
//go:embed *.html
var Templates embed.FS
