/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/flamego/flamego"
	"github.com/flamego/session"
	"github.com/google/uuid"

	"github.com/humaidq/hypertrack/logging"
)

var requestLogger = logging.Logger(logging.SourceWebRequest)

const requestIDHeader = "X-Request-ID"

// RequestLogger logs request metadata and timing for each HTTP request. An
// incoming X-Request-ID is kept, otherwise one is generated and echoed back.
func RequestLogger(c flamego.Context, s session.Session) {
	start := time.Now()

	requestID := strings.TrimSpace(c.Request().Header.Get(requestIDHeader))
	if requestID == "" || len(requestID) > 64 {
		requestID = uuid.NewString()
	}

	c.ResponseWriter().Header().Set(requestIDHeader, requestID)

	c.Next()

	status := c.ResponseWriter().Status()
	if status == 0 {
		status = http.StatusOK
	}

	fields := []interface{}{
		"event", "request",
		"request_id", requestID,
		"status", status,
		"duration_ms", time.Since(start).Milliseconds(),
	}
	fields = append(fields, baseRequestFields(c, s)...)

	requestLogger.Info("request", fields...)
}

func logAccessDenied(c flamego.Context, s session.Session, reason string, status int, extra ...interface{}) {
	fields := []interface{}{
		"event", "access_denied",
		"reason", reason,
		"status", status,
	}

	fields = append(fields, baseRequestFields(c, s)...)
	fields = append(fields, extra...)

	requestLogger.Warn("access denied", fields...)
}

func baseRequestFields(c flamego.Context, s session.Session) []interface{} {
	authenticated, userID := requestAuthInfo(c, s)

	fields := []interface{}{
		"method", c.Request().Method,
		"path", c.Request().URL.Path,
		"ip", clientIP(c),
		"user_agent", c.Request().UserAgent(),
		"authenticated", authenticated,
	}
	if userID != "" {
		fields = append(fields, "user_id", userID)
	}

	return fields
}

// requestAuthInfo prefers the identity resolved by RequireAuth and falls
// back to the cookie session for routes outside the auth group.
func requestAuthInfo(c flamego.Context, s session.Session) (bool, string) {
	if id := requestIdentity(c); id != nil {
		return true, id.UserID
	}

	if id, ok := sessionIdentity(s); ok {
		return true, id.UserID
	}

	return false, ""
}

func clientIP(c flamego.Context) string {
	forwardedFor := c.Request().Header.Get("X-Forwarded-For")
	if forwardedFor != "" {
		if idx := strings.Index(forwardedFor, ","); idx != -1 {
			forwardedFor = forwardedFor[:idx]
		}

		if ip := strings.TrimSpace(forwardedFor); ip != "" {
			return ip
		}
	}

	return c.RemoteAddr()
}
