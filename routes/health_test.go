// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package routes

import (
	"context"
	"errors"
	"net/http"
	"testing"
)

//nolint:paralleltest // Overrides package-level DB function variables.
func TestHealthEndpoints(t *testing.T) {
	app := newTestApp(t)
	f := newTestServer(app, newTestSession(), &testStore{})

	rec := serve(f, http.MethodGet, "/healthz", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected /healthz 200, got %d", rec.Code)
	}

	original := healthPingFn
	t.Cleanup(func() { healthPingFn = original })

	healthPingFn = func(context.Context) error { return nil }

	rec = serve(f, http.MethodGet, "/readyz", "", "")
	if body := decodeResponse(t, rec); rec.Code != http.StatusOK || body["status"] != "ready" {
		t.Fatalf("expected ready, got %d %v", rec.Code, body)
	}

	healthPingFn = func(context.Context) error { return errors.New("connection refused") }

	rec = serve(f, http.MethodGet, "/readyz", "", "")
	assertError(t, rec, http.StatusServiceUnavailable, "Database unavailable")
}

func TestUnknownRouteReturnsJSON(t *testing.T) {
	t.Parallel()

	f := newTestServer(newTestApp(t), newTestSession(), &testStore{})

	rec := serve(f, http.MethodGet, "/api/does-not-exist", "", "")
	assertError(t, rec, http.StatusNotFound, "Not found")
}
