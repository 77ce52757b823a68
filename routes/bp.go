/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/flamego/flamego"

	"github.com/humaidq/hypertrack/bp"
	"github.com/humaidq/hypertrack/db"
	"github.com/humaidq/hypertrack/ocr"
)

const (
	defaultReadingLimit    = 100
	defaultAnalyticsWindow = 30
)

var (
	bpCreateReadingFn    = db.CreateReading
	bpListReadingsFn     = db.ListReadings
	bpRefreshAnalyticsFn = db.RefreshAnalytics
)

type readingRequest struct {
	Systolic        *int    `json:"systolic"`
	Diastolic       *int    `json:"diastolic"`
	Pulse           *int    `json:"pulse"`
	MeasurementDate *string `json:"measurement_date"`
	MeasurementTime *string `json:"measurement_time"`
	Notes           *string `json:"notes"`
}

// readingView is the response shape of a stored reading.
type readingView struct {
	ID         string      `json:"reading_id"`
	Systolic   int         `json:"systolic"`
	Diastolic  int         `json:"diastolic"`
	Pulse      *int        `json:"pulse,omitempty"`
	MeasuredAt time.Time   `json:"measurement_date"`
	Category   bp.Category `json:"category"`
	IsAbnormal bool        `json:"is_abnormal"`
}

func newReadingView(r *db.BPReading) readingView {
	return readingView{
		ID:         r.ID.String(),
		Systolic:   r.Systolic,
		Diastolic:  r.Diastolic,
		Pulse:      r.Pulse,
		MeasuredAt: r.MeasuredAt,
		Category:   r.Category,
		IsAbnormal: r.IsAbnormal,
	}
}

// AddReading stores a manually entered reading.
func AddReading(c flamego.Context, app *App, id *Identity) {
	var req readingRequest

	if _, err := decodeBody(c, app.maxBytes(), &req); err != nil {
		writeDecodeError(c, err)
		return
	}

	if req.Systolic == nil {
		missingField(c, "systolic")
		return
	}

	if req.Diastolic == nil {
		missingField(c, "diastolic")
		return
	}

	now := app.now()
	measuredAt := now

	if !blank(req.MeasurementDate) {
		t, err := parseDateTime(*req.MeasurementDate)
		if err != nil {
			writeError(c, http.StatusBadRequest, "Invalid date format")
			return
		}

		measuredAt = t
	}

	if err := bp.Validate(*req.Systolic, *req.Diastolic); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid blood pressure values")
		return
	}

	ctx := c.Request().Context()

	reading, err := bpCreateReadingFn(ctx, id.UserID, db.NewReading{
		Systolic:        *req.Systolic,
		Diastolic:       *req.Diastolic,
		Pulse:           req.Pulse,
		MeasuredAt:      measuredAt,
		MeasurementTime: req.MeasurementTime,
		Notes:           req.Notes,
		Source:          db.SourceManual,
	})
	if err != nil {
		logger.Error("Failed to store reading", "user_id", id.UserID, "error", err)
		writeError(c, http.StatusInternalServerError, "Failed to add reading")

		return
	}

	refreshAnalytics(ctx, id.UserID, now)

	writeJSON(c, http.StatusCreated, map[string]any{
		"message":     "Blood pressure reading added successfully",
		"reading_id":  reading.ID,
		"is_abnormal": reading.IsAbnormal,
		"category":    reading.Category,
	})
}

// ListReadings returns the caller's readings newest first.
func ListReadings(c flamego.Context, id *Identity) {
	start, end, err := dateRange(c)
	if err != nil {
		writeError(c, http.StatusBadRequest, "Invalid date format")
		return
	}

	limit, ok := queryInt(c, "limit", defaultReadingLimit, 1, 1000)
	if !ok {
		writeError(c, http.StatusBadRequest, "Invalid limit value")
		return
	}

	readings, err := bpListReadingsFn(c.Request().Context(), id.UserID, db.ReadingFilter{
		Start: start,
		End:   end,
		Limit: limit,
	})
	if err != nil {
		logger.Error("Failed to list readings", "user_id", id.UserID, "error", err)
		writeError(c, http.StatusInternalServerError, "Failed to load readings")

		return
	}

	writeJSON(c, http.StatusOK, map[string]any{
		"readings": readings,
		"count":    len(readings),
	})
}

// UploadCSV imports readings from a CSV file. Rows are stored one by one
// and failures are reported without aborting the import.
func UploadCSV(c flamego.Context, app *App, id *Identity) {
	file, header, ok := formFile(c, app)
	if !ok {
		return
	}
	defer file.Close()

	if !strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		writeError(c, http.StatusBadRequest, "File must be a CSV")
		return
	}

	now := app.now()

	result, err := bp.ParseCSV(file, now)
	if err != nil {
		if errors.Is(err, bp.ErrMissingCSVColumn) {
			writeError(c, http.StatusBadRequest, err.Error())
			return
		}

		writeError(c, http.StatusBadRequest, "Failed to read CSV file")

		return
	}

	ctx := c.Request().Context()
	filename := filepath.Base(header.Filename)
	rowErrors := append([]string{}, result.Errors...)
	added := 0

	for _, entry := range result.Entries {
		in := db.NewReading{
			Systolic:       entry.Systolic,
			Diastolic:      entry.Diastolic,
			Pulse:          entry.Pulse,
			MeasuredAt:     entry.MeasuredAt,
			Source:         db.SourceCSV,
			SourceFilename: &filename,
		}
		if entry.MeasurementTime != "" {
			in.MeasurementTime = &entry.MeasurementTime
		}
		if entry.Notes != "" {
			in.Notes = &entry.Notes
		}

		if _, err := bpCreateReadingFn(ctx, id.UserID, in); err != nil {
			rowErrors = append(rowErrors, fmt.Sprintf("Reading %d/%d: %v", entry.Systolic, entry.Diastolic, err))
			continue
		}

		added++
	}

	if added > 0 {
		refreshAnalytics(ctx, id.UserID, now)
	}

	logger.Info("CSV import finished", "user_id", id.UserID, "added", added, "errors", len(rowErrors))

	writeJSON(c, http.StatusOK, map[string]any{
		"message":        fmt.Sprintf("Added %d readings", added),
		"readings_added": added,
		"errors":         rowErrors,
	})
}

// UploadImage stores an image of a BP monitor or log sheet, reads it with
// OCR and saves every reading found.
func UploadImage(c flamego.Context, app *App, id *Identity) {
	file, header, ok := formFile(c, app)
	if !ok {
		return
	}
	defer file.Close()

	if !ocr.IsSupportedImage(header.Filename) {
		writeError(c, http.StatusBadRequest, "Unsupported file type. Allowed: "+strings.Join(ocr.ImageExtensions, ", "))
		return
	}

	if app.OCR == nil {
		writeError(c, http.StatusServiceUnavailable, "Image processing is not available")
		return
	}

	now := app.now()

	path, err := ocr.SaveUpload(app.UploadDir, id.UserID, header.Filename, file, now)
	if err != nil {
		if errors.Is(err, ocr.ErrEmptyUpload) {
			writeError(c, http.StatusBadRequest, "Uploaded file is empty")
			return
		}

		logger.Error("Failed to save upload", "user_id", id.UserID, "error", err)
		writeError(c, http.StatusInternalServerError, "Failed to save image")

		return
	}

	ctx := c.Request().Context()

	pairs, err := ocr.ReadPairs(ctx, app.OCR, path)
	if err != nil {
		logger.Error("Failed to read image", "user_id", id.UserID, "error", err)
		writeError(c, http.StatusInternalServerError, "Failed to process image")

		return
	}

	filename := filepath.Base(path)
	views := []readingView{}

	for _, pair := range pairs {
		reading, err := bpCreateReadingFn(ctx, id.UserID, db.NewReading{
			Systolic:       pair.Systolic,
			Diastolic:      pair.Diastolic,
			MeasuredAt:     now,
			Source:         db.SourceImage,
			SourceFilename: &filename,
		})
		if err != nil {
			logger.Warn("Failed to store OCR reading", "user_id", id.UserID, "error", err)
			continue
		}

		views = append(views, newReadingView(reading))
	}

	if len(views) > 0 {
		refreshAnalytics(ctx, id.UserID, now)
	}

	writeJSON(c, http.StatusOK, map[string]any{
		"message":        fmt.Sprintf("Added %d readings from image", len(views)),
		"readings_added": len(views),
		"readings":       views,
	})
}

func formFile(c flamego.Context, app *App) (multipart.File, *multipart.FileHeader, bool) {
	r := c.Request().Request
	r.Body = http.MaxBytesReader(c.ResponseWriter(), r.Body, app.maxBytes())

	if err := r.ParseMultipartForm(app.maxBytes()); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(c, http.StatusRequestEntityTooLarge, "File too large")
			return nil, nil, false
		}

		writeError(c, http.StatusBadRequest, "No file provided")

		return nil, nil, false
	}

	file, header, err := r.FormFile("file")
	if err != nil || header.Filename == "" {
		if file != nil {
			_ = file.Close()
		}

		writeError(c, http.StatusBadRequest, "No file provided")

		return nil, nil, false
	}

	return file, header, true
}

// refreshAnalytics regenerates the default window summary after new
// readings arrive. Failures are logged only.
func refreshAnalytics(ctx context.Context, userID string, now time.Time) {
	if _, err := bpRefreshAnalyticsFn(ctx, userID, defaultAnalyticsWindow, now); err != nil && !errors.Is(err, bp.ErrNoReadings) {
		logger.Warn("Failed to refresh analytics", "user_id", userID, "error", err)
	}
}
