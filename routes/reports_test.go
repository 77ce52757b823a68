// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package routes

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/humaidq/hypertrack/bp"
	"github.com/humaidq/hypertrack/db"
	"github.com/humaidq/hypertrack/reports"
)

func stubReportStore(t *testing.T, readings []db.BPReading) *string {
	t.Helper()

	originalList := bpListReadingsFn
	originalSetPath := bpSetReportPathFn

	t.Cleanup(func() {
		bpListReadingsFn = originalList
		bpSetReportPathFn = originalSetPath
	})

	bpListReadingsFn = func(_ context.Context, _ string, filter db.ReadingFilter) ([]db.BPReading, error) {
		if filter.Limit != reports.MaxReadings {
			t.Fatalf("expected report limit %d, got %d", reports.MaxReadings, filter.Limit)
		}

		return readings, nil
	}

	var recorded string

	bpSetReportPathFn = func(_ context.Context, _ string, path string) error {
		recorded = path
		return db.ErrAnalyticsNotFound
	}

	return &recorded
}

func sampleReadings() []db.BPReading {
	return []db.BPReading{
		{
			ID:         uuid.New(),
			Systolic:   142,
			Diastolic:  91,
			MeasuredAt: time.Date(2026, 3, 8, 7, 0, 0, 0, time.UTC),
			Category:   bp.CategoryStage2,
			IsAbnormal: true,
		},
		{
			ID:         uuid.New(),
			Systolic:   118,
			Diastolic:  76,
			MeasuredAt: time.Date(2026, 3, 9, 7, 0, 0, 0, time.UTC),
			Category:   bp.CategoryNormal,
		},
	}
}

//nolint:paralleltest // Overrides package-level DB function variables.
func TestGenerateAndDownloadReport(t *testing.T) {
	recorded := stubReportStore(t, sampleReadings())

	app := newTestApp(t)
	f := newTestServer(app, newTestSession(), &testStore{})
	token := bearer(t, app, testUserID, db.RoleUser)

	rec := serve(f, http.MethodGet, "/api/bp/report?type=pdf", "", token)
	assertError(t, rec, http.StatusBadRequest, "Invalid report type. Use excel, csv or html")

	rec = serve(f, http.MethodGet, "/api/bp/report?type=csv", "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	path, _ := decodeResponse(t, rec)["report_path"].(string)
	if filepath.Dir(path) != app.ReportDir || !strings.HasSuffix(path, ".csv") {
		t.Fatalf("unexpected report path %q", path)
	}

	if *recorded != path {
		t.Fatalf("expected report path to be recorded, got %q", *recorded)
	}

	rec = serve(f, http.MethodGet, "/api/bp/report/download?path="+url.QueryEscape(path), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if got := rec.Header().Get("Content-Type"); got != "text/csv; charset=utf-8" {
		t.Fatalf("unexpected content type %q", got)
	}

	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, filepath.Base(path)) {
		t.Fatalf("unexpected content disposition %q", got)
	}

	if !strings.Contains(rec.Body.String(), "142") {
		t.Fatalf("expected report body to contain readings, got %q", rec.Body.String())
	}
}

//nolint:paralleltest // Overrides package-level DB function variables.
func TestGenerateReportWithoutReadings(t *testing.T) {
	stubReportStore(t, nil)

	app := newTestApp(t)
	f := newTestServer(app, newTestSession(), &testStore{})

	rec := serve(f, http.MethodGet, "/api/bp/report?type=excel", "", bearer(t, app, testUserID, db.RoleUser))
	assertError(t, rec, http.StatusNotFound, "No data available for report")
}

func TestDownloadReportRejectsForeignPaths(t *testing.T) {
	t.Parallel()

	app := newTestApp(t)
	f := newTestServer(app, newTestSession(), &testStore{})
	token := bearer(t, app, testUserID, db.RoleUser)

	otherUser := filepath.Join(app.ReportDir, reports.Filename(uuid.NewString(), reports.TypeCSV, testNow))
	if err := os.WriteFile(otherUser, []byte("Date\n"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	outside := filepath.Join(t.TempDir(), reports.Filename(testUserID, reports.TypeCSV, testNow))
	if err := os.WriteFile(outside, []byte("Date\n"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	missing := filepath.Join(app.ReportDir, reports.Filename(testUserID, reports.TypeHTML, testNow))

	tests := []struct {
		name        string
		path        string
		wantStatus  int
		wantMessage string
	}{
		{"empty", "", http.StatusForbidden, "Access denied"},
		{"other user", otherUser, http.StatusForbidden, "Access denied"},
		{"outside report dir", outside, http.StatusForbidden, "Access denied"},
		{"traversal", filepath.Join(app.ReportDir, "..", filepath.Base(outside)), http.StatusForbidden, "Access denied"},
		{"missing", missing, http.StatusNotFound, "Report not found"},
	}

	for _, tt := range tests {
		rec := serve(f, http.MethodGet, "/api/bp/report/download?path="+url.QueryEscape(tt.path), "", token)
		assertError(t, rec, tt.wantStatus, tt.wantMessage)
	}
}

func TestSanitizeFilenameForHeader(t *testing.T) {
	t.Parallel()

	if got := sanitizeFilenameForHeader("a\"b\r\nc.csv"); got != `a\"bc.csv` {
		t.Fatalf("unexpected sanitized name %q", got)
	}
}
