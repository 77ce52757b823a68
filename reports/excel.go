/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package reports

import (
	"fmt"
	"io"

	"github.com/humaidq/hypertrack/db"
	"github.com/xuri/excelize/v2"
)

const excelSheet = "BP Readings"

// WriteExcel writes readings as an xlsx workbook with a bold header row.
func WriteExcel(w io.Writer, readings []db.BPReading) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	if err := f.SetSheetName("Sheet1", excelSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]interface{}, len(Header))
	for i, h := range Header {
		header[i] = h
	}

	if err := f.SetSheetRow(excelSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	last, err := excelize.CoordinatesToCellName(len(Header), 1)
	if err != nil {
		return err
	}

	if err := f.SetCellStyle(excelSheet, "A1", last, bold); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, row := range Rows(readings) {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}

		values := []interface{}{
			row.Date, row.Time, row.Systolic, row.Diastolic,
			row.Pulse, row.Category, row.IsAbnormal, row.Notes,
		}
		if err := f.SetSheetRow(excelSheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetColWidth(excelSheet, "A", "H", 16); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	return nil
}
