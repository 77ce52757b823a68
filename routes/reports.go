/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/flamego/flamego"
	"github.com/flamego/template"

	"github.com/humaidq/hypertrack/db"
	"github.com/humaidq/hypertrack/reports"
)

var bpSetReportPathFn = db.SetLatestReportPath

func reportReadings(c flamego.Context, id *Identity) ([]db.BPReading, bool) {
	start, end, err := dateRange(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, "Invalid date format")
		return nil, false
	}

	readings, err := bpListReadingsFn(c.Request().Context(), id.UserID, db.ReadingFilter{
		Start: start,
		End:   end,
		Limit: reports.MaxReadings,
	})
	if err != nil {
		logger.Error("Failed to list readings for report", "user_id", id.UserID, "error", err)
		writeError(c, http.StatusInternalServerError, "Failed to generate report")

		return nil, false
	}

	if len(readings) == 0 {
		writeError(c, http.StatusNotFound, "No data available for report")
		return nil, false
	}

	return readings, true
}

// GenerateReport writes a report file for the caller and returns its path.
func GenerateReport(c flamego.Context, app *App, id *Identity) {
	typ, err := reports.ParseType(c.Query("type"))
	if err != nil {
		writeError(c, http.StatusBadRequest, "Invalid report type. Use excel, csv or html")
		return
	}

	readings, ok := reportReadings(c, id)
	if !ok {
		return
	}

	path, err := reports.Generate(app.ReportDir, id.UserID, typ, readings, app.now())
	if err != nil {
		logger.Error("Failed to generate report", "user_id", id.UserID, "type", typ, "error", err)
		writeError(c, http.StatusInternalServerError, "Failed to generate report")

		return
	}

	if err := bpSetReportPathFn(c.Request().Context(), id.UserID, path); err != nil && !errors.Is(err, db.ErrAnalyticsNotFound) {
		logger.Warn("Failed to record report path", "user_id", id.UserID, "error", err)
	}

	logger.Info("Report generated", "user_id", id.UserID, "type", typ, "readings", len(readings))

	writeJSON(c, http.StatusOK, map[string]any{
		"message":     "Report generated successfully",
		"report_path": path,
	})
}

// ViewReport renders the HTML report inline.
func ViewReport(c flamego.Context, app *App, id *Identity, t template.Template, data template.Data) {
	readings, ok := reportReadings(c, id)
	if !ok {
		return
	}

	view, err := reports.BuildView(readings, app.now())
	if err != nil {
		logger.Error("Failed to build report view", "user_id", id.UserID, "error", err)
		writeError(c, http.StatusInternalServerError, "Failed to generate report")

		return
	}

	data["Report"] = view
	t.HTML(http.StatusOK, reports.TemplateName)
}

// DownloadReport streams a previously generated report owned by the
// caller.
func DownloadReport(c flamego.Context, app *App, id *Identity) {
	path, err := reports.ResolveDownload(app.ReportDir, id.UserID, c.Query("path"))
	if err != nil {
		switch {
		case errors.Is(err, reports.ErrForbiddenPath):
			writeError(c, http.StatusForbidden, "Access denied")
		case errors.Is(err, reports.ErrReportNotFound):
			writeError(c, http.StatusNotFound, "Report not found")
		default:
			logger.Error("Failed to resolve report", "user_id", id.UserID, "error", err)
			writeError(c, http.StatusInternalServerError, "Failed to download report")
		}

		return
	}

	f, err := os.Open(path) //nolint:gosec // path is confined to the report directory by ResolveDownload.
	if err != nil {
		writeError(c, http.StatusNotFound, "Report not found")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeError(c, http.StatusNotFound, "Report not found")
		return
	}

	name := filepath.Base(path)
	header := c.ResponseWriter().Header()
	header.Set("Content-Type", reports.ContentType(path))
	header.Set("Content-Disposition", `attachment; filename="`+sanitizeFilenameForHeader(name)+`"`)

	http.ServeContent(c.ResponseWriter(), c.Request().Request, name, info.ModTime(), f)
}

func sanitizeFilenameForHeader(name string) string {
	name = strings.NewReplacer("\r", "", "\n", "").Replace(name)
	return strings.ReplaceAll(name, `"`, `\"`)
}
