/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package reports

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/humaidq/hypertrack/db"
)

// WriteCSV writes readings with the export header.
func WriteCSV(w io.Writer, readings []db.BPReading) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}

	for _, row := range Rows(readings) {
		if err := cw.Write(row.values()); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	cw.Flush()

	return cw.Error()
}
