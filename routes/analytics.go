/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"errors"
	"fmt"
	"math"
	"net/http"

	"github.com/flamego/flamego"

	"github.com/humaidq/hypertrack/bp"
	"github.com/humaidq/hypertrack/db"
)

const (
	defaultAnomalyWindow  = 90
	defaultForecastWindow = 30
	defaultForecastDays   = 7
	maxWindowDays         = 3650
)

var bpMarkAnomalousFn = db.MarkReadingsAnomalous

type anomalyView struct {
	ReadingID string      `json:"reading_id"`
	Date      string      `json:"date"`
	Systolic  int         `json:"systolic"`
	Diastolic int         `json:"diastolic"`
	Score     float64     `json:"anomaly_score"`
	Category  bp.Category `json:"category"`
}

// Analytics recomputes and returns the summary for the last days days.
func Analytics(c flamego.Context, app *App, id *Identity) {
	days, ok := queryInt(c, "days", defaultAnalyticsWindow, 1, maxWindowDays)
	if !ok {
		writeError(c, http.StatusBadRequest, "Invalid days value")
		return
	}

	analytics, err := bpRefreshAnalyticsFn(c.Request().Context(), id.UserID, days, app.now())
	if err != nil {
		if errors.Is(err, bp.ErrNoReadings) {
			writeError(c, http.StatusNotFound, "No readings found in date range")
			return
		}

		logger.Error("Failed to compute analytics", "user_id", id.UserID, "error", err)
		writeError(c, http.StatusInternalServerError, "Failed to compute analytics")

		return
	}

	writeJSON(c, http.StatusOK, map[string]any{"analytics": analytics})
}

// Anomalies runs the isolation forest over the window and flags outliers
// on the stored readings.
func Anomalies(c flamego.Context, app *App, id *Identity) {
	days, ok := queryInt(c, "days", defaultAnomalyWindow, 1, maxWindowDays)
	if !ok {
		writeError(c, http.StatusBadRequest, "Invalid days value")
		return
	}

	ctx := c.Request().Context()
	now := app.now()

	readings, err := bpListReadingsFn(ctx, id.UserID, db.ReadingFilter{Start: now.AddDate(0, 0, -days), End: now})
	if err != nil {
		logger.Error("Failed to list readings", "user_id", id.UserID, "error", err)
		writeError(c, http.StatusInternalServerError, "Failed to detect anomalies")

		return
	}

	anomalies, err := bp.DetectAnomalies(db.Samples(readings), bp.DefaultAnomalyOptions())
	if err != nil {
		if errors.Is(err, bp.ErrInsufficientData) {
			writeError(c, http.StatusBadRequest,
				fmt.Sprintf("Insufficient data for anomaly detection. Need at least %d readings.", bp.MinAnomalySamples))

			return
		}

		logger.Error("Anomaly detection failed", "user_id", id.UserID, "error", err)
		writeError(c, http.StatusInternalServerError, "Failed to detect anomalies")

		return
	}

	views := make([]anomalyView, 0, len(anomalies))
	ids := make([]string, 0, len(anomalies))

	for _, a := range anomalies {
		ids = append(ids, a.Sample.ID)
		views = append(views, anomalyView{
			ReadingID: a.Sample.ID,
			Date:      a.Sample.MeasuredAt.Format(dateLayout),
			Systolic:  a.Sample.Systolic,
			Diastolic: a.Sample.Diastolic,
			Score:     math.Round(a.Score*10000) / 10000,
			Category:  a.Sample.Category,
		})
	}

	if len(ids) > 0 {
		if err := bpMarkAnomalousFn(ctx, id.UserID, ids); err != nil {
			logger.Error("Failed to flag anomalies", "user_id", id.UserID, "error", err)
			writeError(c, http.StatusInternalServerError, "Failed to detect anomalies")

			return
		}
	}

	message := "No anomalies detected"
	if len(views) > 0 {
		message = fmt.Sprintf("Found %d anomalies in %d readings", len(views), len(readings))
	}

	writeJSON(c, http.StatusOK, map[string]any{
		"anomalies_found": len(views) > 0,
		"anomaly_count":   len(views),
		"anomalies":       views,
		"message":         message,
	})
}

// Forecast extrapolates the window's readings horizon days ahead.
func Forecast(c flamego.Context, app *App, id *Identity) {
	days, ok := queryInt(c, "days", defaultForecastWindow, 1, maxWindowDays)
	if !ok {
		writeError(c, http.StatusBadRequest, "Invalid days value")
		return
	}

	horizon, ok := queryInt(c, "horizon", defaultForecastDays, 1, 90)
	if !ok {
		writeError(c, http.StatusBadRequest, "Invalid horizon value")
		return
	}

	now := app.now()

	readings, err := bpListReadingsFn(c.Request().Context(), id.UserID, db.ReadingFilter{Start: now.AddDate(0, 0, -days), End: now})
	if err != nil {
		logger.Error("Failed to list readings", "user_id", id.UserID, "error", err)
		writeError(c, http.StatusInternalServerError, "Failed to forecast")

		return
	}

	points, err := bp.Forecast(db.Samples(readings), horizon)
	if err != nil {
		if errors.Is(err, bp.ErrInsufficientData) {
			writeError(c, http.StatusBadRequest,
				fmt.Sprintf("Insufficient data for forecasting. Need at least %d readings.", bp.MinForecastSamples))

			return
		}

		logger.Error("Forecast failed", "user_id", id.UserID, "error", err)
		writeError(c, http.StatusInternalServerError, "Failed to forecast")

		return
	}

	writeJSON(c, http.StatusOK, map[string]any{
		"forecast":          points,
		"horizon":           horizon,
		"based_on_readings": len(readings),
	})
}
