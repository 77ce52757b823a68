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
)

var (
	profileGetFn    = db.GetProfile
	profileCreateFn = db.CreateProfile
	profileUpdateFn = db.UpdateProfile
	profileDeleteFn = db.DeleteProfile
)

type profileRequest struct {
	Age              *int     `json:"age"`
	Gender           *string  `json:"gender"`
	Weight           *float64 `json:"weight"`
	Height           *float64 `json:"height"`
	ContactEmail     *string  `json:"contact_email"`
	EmergencyContact *string  `json:"emergency_contact"`
}

func (r profileRequest) input() db.ProfileInput {
	return db.ProfileInput{
		Age:              r.Age,
		Gender:           r.Gender,
		Weight:           r.Weight,
		Height:           r.Height,
		ContactEmail:     r.ContactEmail,
		EmergencyContact: r.EmergencyContact,
	}
}

func (r profileRequest) validate() string {
	switch {
	case r.Age != nil && (*r.Age < 0 || *r.Age > 150):
		return "Invalid age"
	case r.Weight != nil && *r.Weight < 0:
		return "Invalid weight"
	case r.Height != nil && *r.Height < 0:
		return "Invalid height"
	default:
		return ""
	}
}

// GetProfile returns the caller's profile.
func GetProfile(c flamego.Context, id *Identity) {
	profile, err := profileGetFn(c.Request().Context(), id.UserID)
	if err != nil {
		writeProfileError(c, id, err)
		return
	}

	writeJSON(c, http.StatusOK, map[string]any{"profile": profile})
}

// CreateProfile stores a new profile for the caller.
func CreateProfile(c flamego.Context, app *App, id *Identity) {
	var req profileRequest

	if _, err := decodeBody(c, app.maxBytes(), &req); err != nil {
		writeDecodeError(c, err)
		return
	}

	if msg := req.validate(); msg != "" {
		writeError(c, http.StatusBadRequest, msg)
		return
	}

	profile, err := profileCreateFn(c.Request().Context(), id.UserID, req.input())
	if err != nil {
		if errors.Is(err, db.ErrProfileExists) {
			writeError(c, http.StatusBadRequest, "Profile already exists for this user. Please update instead.")
			return
		}

		writeProfileError(c, id, err)

		return
	}

	writeJSON(c, http.StatusCreated, map[string]any{
		"message": "Profile created successfully",
		"profile": profile,
	})
}

// UpdateProfile applies the fields present in the body.
func UpdateProfile(c flamego.Context, app *App, id *Identity) {
	var req profileRequest

	if _, err := decodeBody(c, app.maxBytes(), &req); err != nil {
		writeDecodeError(c, err)
		return
	}

	if msg := req.validate(); msg != "" {
		writeError(c, http.StatusBadRequest, msg)
		return
	}

	in := req.input()
	if in.Empty() {
		writeError(c, http.StatusBadRequest, "No data provided")
		return
	}

	profile, err := profileUpdateFn(c.Request().Context(), id.UserID, in)
	if err != nil {
		writeProfileError(c, id, err)
		return
	}

	writeJSON(c, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"profile": profile,
	})
}

// DeleteProfile removes the caller's profile.
func DeleteProfile(c flamego.Context, id *Identity) {
	if err := profileDeleteFn(c.Request().Context(), id.UserID); err != nil {
		writeProfileError(c, id, err)
		return
	}

	writeJSON(c, http.StatusOK, map[string]any{"message": "Profile deleted successfully"})
}

func writeProfileError(c flamego.Context, id *Identity, err error) {
	if errors.Is(err, db.ErrProfileNotFound) {
		writeError(c, http.StatusNotFound, "No profile found for this user")
		return
	}

	logger.Error("Profile operation failed", "user_id", id.UserID, "error", err)
	writeError(c, http.StatusInternalServerError, "Profile operation failed")
}
