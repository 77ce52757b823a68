/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package reports

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"io"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/humaidq/hypertrack/bp"
	"github.com/humaidq/hypertrack/db"
	"github.com/humaidq/hypertrack/templates"
)

// TemplateName is the template used for both the saved and inline report.
const TemplateName = "report"

// View is the data rendered by the report template.
type View struct {
	Title       string
	GeneratedAt string
	Chart       htmltemplate.HTML
	Summary     *bp.Summary
	Rows        []Row
}

// Chart renders a systolic and diastolic line chart.
func Chart(rows []Row) (string, error) {
	xAxis := make([]string, 0, len(rows))
	systolic := make([]opts.LineData, 0, len(rows))
	diastolic := make([]opts.LineData, 0, len(rows))

	for _, r := range rows {
		xAxis = append(xAxis, r.Date+" "+r.Time)
		systolic = append(systolic, opts.LineData{Value: r.Systolic})
		diastolic = append(diastolic, opts.LineData{Value: r.Diastolic})
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Blood Pressure Readings",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(true),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "mmHg",
		}),
	)

	line.SetXAxis(xAxis).
		AddSeries("Systolic", systolic).
		AddSeries("Diastolic", diastolic).
		SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{
				Smooth:     opts.Bool(true),
				ShowSymbol: opts.Bool(true),
			}),
			charts.WithMarkLineNameTypeItemOpts(
				opts.MarkLineNameTypeItem{Name: "Average", Type: "average"},
			),
		)

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render chart: %w", err)
	}

	return buf.String(), nil
}

// BuildView prepares the template data for readings.
func BuildView(readings []db.BPReading, now time.Time) (*View, error) {
	if len(readings) == 0 {
		return nil, ErrNoData
	}

	rows := Rows(readings)

	chart, err := Chart(rows)
	if err != nil {
		return nil, err
	}

	view := &View{
		Title:       "Blood Pressure Report",
		GeneratedAt: now.UTC().Format("2006-01-02 15:04 MST"),
		Chart:       htmltemplate.HTML(chart), //nolint:gosec // Chart markup comes from go-echarts, not user input.
		Rows:        rows,
	}

	if summary, err := bp.Summarize(db.Samples(readings)); err == nil {
		view.Summary = &summary
	}

	return view, nil
}

var reportTemplate = htmltemplate.Must(htmltemplate.ParseFS(templates.Templates, TemplateName+".html"))

// WriteHTML writes a standalone HTML report.
func WriteHTML(w io.Writer, readings []db.BPReading, now time.Time) error {
	view, err := BuildView(readings, now)
	if err != nil {
		return err
	}

	if err := reportTemplate.Execute(w, map[string]interface{}{"Report": view}); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	return nil
}
