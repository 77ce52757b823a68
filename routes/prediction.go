/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"errors"
	"net/http"

	"github.com/flamego/flamego"

	"github.com/humaidq/hypertrack/db"
	"github.com/humaidq/hypertrack/risk"
)

const defaultHistoryLimit = 20

var (
	patientDataGetFn    = db.GetPatientData
	patientDataUpsertFn = db.UpsertPatientData
	predictionSaveFn    = db.SavePrediction
	predictionListFn    = db.ListPredictions
)

// SavePatientData creates or updates the caller's medical history. Fields
// absent from the body keep their stored value.
func SavePatientData(c flamego.Context, app *App, id *Identity) {
	var in db.PatientDataInput

	if _, err := decodeBody(c, app.maxBytes(), &in); err != nil {
		writeDecodeError(c, err)
		return
	}

	if in.Age == nil {
		missingField(c, "age")
		return
	}

	if blank(in.Gender) {
		missingField(c, "gender")
		return
	}

	if *in.Age < 0 || *in.Age > 150 {
		writeError(c, http.StatusBadRequest, "Invalid age")
		return
	}

	if err := in.NormalizeLevels(); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid value for "+err.Error())
		return
	}

	saved, err := patientDataUpsertFn(c.Request().Context(), id.UserID, in)
	if err != nil {
		predictionLogger.Error("Failed to save patient data", "user_id", id.UserID, "error", err)
		writeError(c, http.StatusInternalServerError, "Failed to save patient data")

		return
	}

	writeJSON(c, http.StatusOK, map[string]any{
		"message":         "Patient data saved successfully",
		"patient_data_id": saved.ID,
	})
}

// GetPatientData returns the caller's medical history.
func GetPatientData(c flamego.Context, id *Identity) {
	p, err := patientDataGetFn(c.Request().Context(), id.UserID)
	if err != nil {
		if errors.Is(err, db.ErrPatientDataNotFound) {
			writeError(c, http.StatusNotFound, "No patient data found for this user")
			return
		}

		predictionLogger.Error("Failed to load patient data", "user_id", id.UserID, "error", err)
		writeError(c, http.StatusInternalServerError, "Failed to load patient data")

		return
	}

	writeJSON(c, http.StatusOK, map[string]any{"patient_data": p})
}

// Predict scores the caller's stored medical history and records the
// result.
func Predict(c flamego.Context, app *App, id *Identity) {
	ctx := c.Request().Context()

	p, err := patientDataGetFn(ctx, id.UserID)
	if err != nil {
		if errors.Is(err, db.ErrPatientDataNotFound) {
			writeError(c, http.StatusNotFound, "No patient data found. Please add patient data first.")
			return
		}

		predictionLogger.Error("Failed to load patient data", "user_id", id.UserID, "error", err)
		writeError(c, http.StatusInternalServerError, "Prediction failed")

		return
	}

	model, err := app.Models.Get()
	if err != nil {
		if errors.Is(err, risk.ErrModelNotLoaded) {
			writeError(c, http.StatusServiceUnavailable, "Model not trained yet")
			return
		}

		writeError(c, http.StatusInternalServerError, "Prediction model is unavailable")

		return
	}

	assessment, err := model.Assess(p.Patient())
	if err != nil {
		predictionLogger.Error("Failed to score patient", "user_id", id.UserID, "error", err)
		writeError(c, http.StatusInternalServerError, "Prediction failed")

		return
	}

	rec, err := predictionSaveFn(ctx, id.UserID, assessment, app.now())
	if err != nil {
		predictionLogger.Error("Failed to store prediction", "user_id", id.UserID, "error", err)
		writeError(c, http.StatusInternalServerError, "Prediction failed")

		return
	}

	predictionLogger.Info("Risk prediction made",
		"user_id", id.UserID,
		"probability", assessment.Probability,
		"base_score", assessment.BaseScore,
		"score", assessment.Score,
		"risk_level", assessment.Level,
	)

	writeJSON(c, http.StatusOK, map[string]any{
		"prediction_score": assessment.Score,
		"prediction_date":  rec.CreatedAt,
		"risk_level":       assessment.Level,
		"key_factors":      assessment.KeyFactors,
		"recommendations":  assessment.Recommendations,
	})
}

// PredictionHistory returns the latest prediction, with key factors taken
// from the current medical history, and the stored history newest first.
func PredictionHistory(c flamego.Context, id *Identity) {
	limit, ok := queryInt(c, "limit", defaultHistoryLimit, 1, 100)
	if !ok {
		writeError(c, http.StatusBadRequest, "Invalid limit value")
		return
	}

	ctx := c.Request().Context()

	p, err := patientDataGetFn(ctx, id.UserID)
	if err != nil && !errors.Is(err, db.ErrPatientDataNotFound) {
		predictionLogger.Error("Failed to load patient data", "user_id", id.UserID, "error", err)
		writeError(c, http.StatusInternalServerError, "Failed to load prediction history")

		return
	}

	if p == nil || p.PredictionScore == nil {
		writeError(c, http.StatusNotFound, "No prediction found. Please make a prediction first.")
		return
	}

	history, err := predictionListFn(ctx, id.UserID, limit)
	if err != nil {
		predictionLogger.Error("Failed to list predictions", "user_id", id.UserID, "error", err)
		writeError(c, http.StatusInternalServerError, "Failed to load prediction history")

		return
	}

	score := *p.PredictionScore

	writeJSON(c, http.StatusOK, map[string]any{
		"prediction_score": score,
		"prediction_date":  p.PredictionDate,
		"risk_level":       risk.LevelFor(score),
		"key_factors":      risk.KeyFactors(p.Patient()),
		"history":          history,
	})
}
