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

var (
	authGetUserByUsernameFn = db.GetUserByUsername
	authGetUserByIDFn       = db.GetUserByID
	authCreateUserFn        = db.CreateUser
	authUsernameExistsFn    = db.UsernameExists
	authEmailExistsFn       = db.EmailExists
	authTouchLastLoginFn    = db.TouchLastLogin
)

type registerRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RequireAuth accepts a bearer access token, or else an authenticated
// cookie session, and maps the caller's *Identity for later handlers.
func RequireAuth(c flamego.Context, app *App, s session.Session) {
	if raw, ok := bearerToken(c); ok {
		claims, err := app.Tokens.Parse(raw, auth.TokenAccess)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				logAccessDenied(c, s, "token_expired", http.StatusUnauthorized)
				writeError(c, http.StatusUnauthorized, "Token has expired")

				return
			}

			logAccessDenied(c, s, "invalid_token", http.StatusUnauthorized, "error", err)
			writeError(c, http.StatusUnauthorized, "Invalid token")

			return
		}

		c.Map(&Identity{UserID: claims.Subject, Role: db.Role(claims.Role), Via: "token"})
		c.Next()

		return
	}

	id, ok := sessionIdentity(s)
	if !ok {
		logAccessDenied(c, s, "unauthenticated", http.StatusUnauthorized)
		writeError(c, http.StatusUnauthorized, "Authentication required")

		return
	}

	c.Map(id)
	c.Next()
}

// RequireAdmin blocks callers without the admin role. It must run after
// RequireAuth.
func RequireAdmin(c flamego.Context, id *Identity, s session.Session) {
	if !id.IsAdmin() {
		logAccessDenied(c, s, "not_admin", http.StatusForbidden)
		writeError(c, http.StatusForbidden, "Admin access required")

		return
	}

	c.Next()
}

// Register creates a user account.
func Register(c flamego.Context, app *App) {
	var req registerRequest

	if _, err := decodeBody(c, app.maxBytes(), &req); err != nil {
		writeDecodeError(c, err)
		return
	}

	for _, f := range []struct {
		name  string
		value *string
	}{
		{"username", req.Username},
		{"email", req.Email},
		{"password", req.Password},
	} {
		if blank(f.value) {
			missingField(c, f.name)
			return
		}
	}

	username := strings.TrimSpace(*req.Username)
	email := strings.TrimSpace(*req.Email)

	if req.Role != nil && *req.Role != "" && db.Role(*req.Role) != db.RoleUser {
		writeError(c, http.StatusForbidden, "Only the user role can be registered")
		return
	}

	ctx := c.Request().Context()

	if taken, err := authUsernameExistsFn(ctx, username); err != nil {
		logger.Error("Failed to check username", "error", err)
		writeError(c, http.StatusInternalServerError, "Registration failed")

		return
	} else if taken {
		writeError(c, http.StatusBadRequest, "Username already exists")
		return
	}

	if taken, err := authEmailExistsFn(ctx, email); err != nil {
		logger.Error("Failed to check email", "error", err)
		writeError(c, http.StatusInternalServerError, "Registration failed")

		return
	} else if taken {
		writeError(c, http.StatusBadRequest, "Email already exists")
		return
	}

	hash, err := auth.HashPassword(*req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooShort) {
			writeError(c, http.StatusBadRequest, fmt.Sprintf("Password must be at least %d characters", auth.MinPasswordLength))
			return
		}

		logger.Error("Failed to hash password", "error", err)
		writeError(c, http.StatusInternalServerError, "Registration failed")

		return
	}

	user, err := authCreateUserFn(ctx, db.CreateUserInput{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         db.RoleUser,
	})
	if err != nil {
		switch {
		case errors.Is(err, db.ErrUsernameTaken):
			writeError(c, http.StatusBadRequest, "Username already exists")
		case errors.Is(err, db.ErrEmailTaken):
			writeError(c, http.StatusBadRequest, "Email already exists")
		default:
			logger.Error("Failed to create user", "error", err)
			writeError(c, http.StatusInternalServerError, "Registration failed")
		}

		return
	}

	logger.Info("User registered", "user_id", user.ID, "username", user.Username)

	writeJSON(c, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"user_id": user.ID,
	})
}

// Login checks credentials, issues a token pair and marks the cookie
// session authenticated.
func Login(c flamego.Context, app *App, s session.Session, store session.Store) {
	var req loginRequest

	if _, err := decodeBody(c, app.maxBytes(), &req); err != nil && !errors.Is(err, errNoData) {
		writeDecodeError(c, err)
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(c, http.StatusBadRequest, "Username and password required")
		return
	}

	ctx := c.Request().Context()

	user, err := authGetUserByUsernameFn(ctx, req.Username)
	if err != nil && !errors.Is(err, db.ErrUserNotFound) {
		logger.Error("Failed to load user for login", "error", err)
		writeError(c, http.StatusInternalServerError, "Login failed")

		return
	}

	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		logAccessDenied(c, s, "bad_credentials", http.StatusUnauthorized, "username", req.Username)
		writeError(c, http.StatusUnauthorized, "Invalid username or password")

		return
	}

	pair, err := app.Tokens.IssuePair(user.ID.String(), string(user.Role))
	if err != nil {
		logger.Error("Failed to issue tokens", "user_id", user.ID, "error", err)
		writeError(c, http.StatusInternalServerError, "Login failed")

		return
	}

	if err := authTouchLastLoginFn(ctx, user.ID.String()); err != nil {
		logger.Warn("Failed to record last login", "user_id", user.ID, "error", err)
	}

	if err := rotateSessionID(c, s, store); err != nil {
		logger.Warn("Failed to rotate session id", "user_id", user.ID, "error", err)
	}

	setSessionIdentity(s, user)

	writeJSON(c, http.StatusOK, map[string]any{
		"access_token":  pair.AccessToken,
		"refresh_token": pair.RefreshToken,
		"user_id":       user.ID,
		"username":      user.Username,
		"role":          user.Role,
	})
}

// Refresh exchanges a refresh token for a new access token.
func Refresh(c flamego.Context, app *App, s session.Session) {
	raw, ok := bearerToken(c)
	if !ok {
		logAccessDenied(c, s, "missing_refresh_token", http.StatusUnauthorized)
		writeError(c, http.StatusUnauthorized, "Invalid token")

		return
	}

	claims, err := app.Tokens.Parse(raw, auth.TokenRefresh)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			writeError(c, http.StatusUnauthorized, "Token has expired")
			return
		}

		logAccessDenied(c, s, "invalid_refresh_token", http.StatusUnauthorized, "error", err)
		writeError(c, http.StatusUnauthorized, "Invalid token")

		return
	}

	// The role is read again so that a promotion applies on refresh.
	user, err := authGetUserByIDFn(c.Request().Context(), claims.Subject)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			writeError(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		logger.Error("Failed to load user for refresh", "error", err)
		writeError(c, http.StatusInternalServerError, "Token refresh failed")

		return
	}

	access, err := app.Tokens.Issue(user.ID.String(), string(user.Role), auth.TokenAccess)
	if err != nil {
		logger.Error("Failed to issue access token", "user_id", user.ID, "error", err)
		writeError(c, http.StatusInternalServerError, "Token refresh failed")

		return
	}

	writeJSON(c, http.StatusOK, map[string]any{"access_token": access})
}

// Me returns the caller's account summary.
func Me(c flamego.Context, id *Identity) {
	user, ok := loadCurrentUser(c, id)
	if !ok {
		return
	}

	writeJSON(c, http.StatusOK, map[string]any{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
		"role":     user.Role,
	})
}

// Logout clears the cookie session. Bearer tokens stay valid until they
// expire.
func Logout(c flamego.Context, s session.Session) {
	clearSessionIdentity(s)

	writeJSON(c, http.StatusOK, map[string]any{"message": "Logged out successfully"})
}

func loadCurrentUser(c flamego.Context, id *Identity) (*db.User, bool) {
	user, err := authGetUserByIDFn(c.Request().Context(), id.UserID)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			writeError(c, http.StatusNotFound, "User not found")
			return nil, false
		}

		logger.Error("Failed to load user", "user_id", id.UserID, "error", err)
		writeError(c, http.StatusInternalServerError, "Failed to load user")

		return nil, false
	}

	return user, true
}

func rotateSessionID(c flamego.Context, s session.Session, store session.Store) error {
	oldSessionID := s.ID()
	if err := s.RegenerateID(c.ResponseWriter(), c.Request().Request); err != nil {
		return fmt.Errorf("regenerate session ID: %w", err)
	}

	if store == nil || oldSessionID == "" || oldSessionID == s.ID() {
		return nil
	}

	if err := store.Destroy(c.Request().Context(), oldSessionID); err != nil {
		logger.Warn("Failed to destroy old session after ID rotation", "error", err)
	}

	return nil
}
