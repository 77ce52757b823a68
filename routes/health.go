/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/flamego/flamego"

	"github.com/humaidq/hypertrack/db"
)

const readinessTimeout = 2 * time.Second

var healthPingFn = db.Ping

// Healthz reports that the process is serving.
func Healthz(c flamego.Context) {
	writeJSON(c, http.StatusOK, map[string]any{"status": "ok"})
}

// Readyz reports whether the database is reachable.
func Readyz(c flamego.Context) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readinessTimeout)
	defer cancel()

	if err := healthPingFn(ctx); err != nil {
		logger.Warn("Readiness check failed", "error", err)
		writeError(c, http.StatusServiceUnavailable, "Database unavailable")

		return
	}

	writeJSON(c, http.StatusOK, map[string]any{"status": "ready"})
}

// NotFound answers unmatched routes with the JSON error envelope.
func NotFound(c flamego.Context) {
	writeError(c, http.StatusNotFound, "Not found")
}
