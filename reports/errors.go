/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package reports

import "errors"

var (
	ErrUnknownType    = errors.New("unknown report type")
	ErrNoData         = errors.New("no data available for report")
	ErrForbiddenPath  = errors.New("report path is not accessible")
	ErrReportNotFound = errors.New("report file not found")
)
