/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/flamego/flamego"
	"github.com/flamego/session"

	"github.com/humaidq/hypertrack/auth"
	"github.com/humaidq/hypertrack/db"
)

const defaultUserPageSize = 10

var (
	usersUpdateAccountFn = db.UpdateUserAccount
	usersListFn          = db.ListUsers
)

type accountUpdateRequest struct {
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

// GetCurrentUser returns the caller's full account record.
func GetCurrentUser(c flamego.Context, id *Identity) {
	user, ok := loadCurrentUser(c, id)
	if !ok {
		return
	}

	writeJSON(c, http.StatusOK, map[string]any{"user": user})
}

// UpdateCurrentUser changes the caller's email or password. Changing the
// password signs out the caller's other cookie sessions.
func UpdateCurrentUser(c flamego.Context, app *App, id *Identity, s session.Session, store session.Store) {
	var req accountUpdateRequest

	fields, err := decodeBody(c, app.maxBytes(), &req)
	if err != nil {
		writeDecodeError(c, err)
		return
	}

	if _, ok := fields["username"]; ok {
		writeError(c, http.StatusBadRequest, "Username cannot be changed")
		return
	}

	if _, ok := fields["role"]; ok {
		writeError(c, http.StatusBadRequest, "Role cannot be changed")
		return
	}

	var email, hash *string

	if req.Email != nil {
		trimmed := strings.TrimSpace(*req.Email)
		if trimmed == "" {
			writeError(c, http.StatusBadRequest, "Email cannot be empty")
			return
		}

		email = &trimmed
	}

	if req.Password != nil {
		h, err := auth.HashPassword(*req.Password)
		if err != nil {
			if errors.Is(err, auth.ErrPasswordTooShort) {
				writeError(c, http.StatusBadRequest, fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength))
				return
			}

			logger.Error("Failed to hash password", "error", err)
			writeError(c, http.StatusInternalServerError, "Failed to update user")

			return
		}

		hash = &h
	}

	if email == nil && hash == nil {
		writeError(c, http.StatusBadRequest, "No data provided")
		return
	}

	user, err := usersUpdateAccountFn(c.Request().Context(), id.UserID, email, hash)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrUserNotFound):
			writeError(c, http.StatusNotFound, "User not found")
		case errors.Is(err, db.ErrEmailTaken):
			writeError(c, http.StatusBadRequest, "Email already exists")
		default:
			logger.Error("Failed to update user", "user_id", id.UserID, "error", err)
			writeError(c, http.StatusInternalServerError, "Failed to update user")
		}

		return
	}

	if hash != nil {
		signOutOtherSessions(c, id, s, store)
	}

	writeJSON(c, http.StatusOK, map[string]any{
		"message": "User updated successfully",
		"user":    user,
	})
}

func signOutOtherSessions(c flamego.Context, id *Identity, s session.Session, store session.Store) {
	pgStore, ok := store.(*db.PostgresSessionStore)
	if !ok {
		return
	}

	keep := ""
	if s != nil {
		keep = s.ID()
	}

	removed, err := pgStore.DestroyUserSessions(c.Request().Context(), id.UserID, keep)
	if err != nil {
		logger.Warn("Failed to sign out other sessions", "user_id", id.UserID, "error", err)
		return
	}

	if removed > 0 {
		logger.Info("Signed out other sessions after password change", "user_id", id.UserID, "count", removed)
	}
}

// ListUsers returns a page of accounts. Admin only.
func ListUsers(c flamego.Context) {
	skip, ok := queryInt(c, "skip", 0, 0, 1<<30)
	if !ok {
		writeError(c, http.StatusBadRequest, "Invalid skip value")
		return
	}

	limit, ok := queryInt(c, "limit", defaultUserPageSize, 1, 100)
	if !ok {
		writeError(c, http.StatusBadRequest, "Invalid limit value")
		return
	}

	users, total, err := usersListFn(c.Request().Context(), skip, limit)
	if err != nil {
		logger.Error("Failed to list users", "error", err)
		writeError(c, http.StatusInternalServerError, "Failed to list users")

		return
	}

	writeJSON(c, http.StatusOK, map[string]any{
		"users": users,
		"total": total,
		"skip":  skip,
		"limit": limit,
	})
}
