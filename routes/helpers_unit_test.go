// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package routes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/flamego/flamego"
	"github.com/flamego/session"

	"github.com/humaidq/hypertrack/auth"
	"github.com/humaidq/hypertrack/db"
)

const testUserID = "6f1c2f9e-3a39-4c8f-9a52-0d7c2b1e4a10"

var testNow = time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)

type testSession struct {
	id    string
	data  map[interface{}]interface{}
	flash interface{}
}

func newTestSession() *testSession {
	return &testSession{
		id:   "test-session",
		data: make(map[interface{}]interface{}),
	}
}

func (s *testSession) ID() string {
	return s.id
}

func (s *testSession) RegenerateID(http.ResponseWriter, *http.Request) error {
	s.id += "-rotated"
	return nil
}

func (s *testSession) Get(key interface{}) interface{} {
	return s.data[key]
}

func (s *testSession) Set(key, val interface{}) {
	s.data[key] = val
}

func (s *testSession) SetFlash(val interface{}) {
	s.flash = val
}

func (s *testSession) Delete(key interface{}) {
	delete(s.data, key)
}

func (s *testSession) Flush() {
	s.data = make(map[interface{}]interface{})
}

func (s *testSession) Encode() ([]byte, error) {
	return nil, nil
}

func (s *testSession) HasChanged() bool {
	return true
}

type testStore struct {
	destroyed []string
}

func (s *testStore) Exist(context.Context, string) bool {
	return false
}

func (s *testStore) Read(context.Context, string) (session.Session, error) {
	return newTestSession(), nil
}

func (s *testStore) Destroy(_ context.Context, sid string) error {
	s.destroyed = append(s.destroyed, sid)
	return nil
}

func (s *testStore) Touch(context.Context, string) error {
	return nil
}

func (s *testStore) Save(context.Context, session.Session) error {
	return nil
}

func (s *testStore) GC(context.Context) error {
	return nil
}

func newTestApp(t *testing.T) *App {
	t.Helper()

	issuer, err := auth.NewIssuer("test-secret", time.Hour, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewIssuer failed: %v", err)
	}

	return &App{
		Tokens:         issuer,
		Models:         NewModelStore(""),
		UploadDir:      t.TempDir(),
		ReportDir:      t.TempDir(),
		DefaultChannel: db.ChannelSMS,
		Now:            func() time.Time { return testNow },
	}
}

func newTestServer(app *App, s session.Session, store session.Store) *flamego.Flame {
	f := flamego.New()
	f.Map(app)
	f.Use(func(c flamego.Context) {
		c.MapTo(s, (*session.Session)(nil))
		c.MapTo(store, (*session.Store)(nil))
		c.Next()
	})
	Mount(f)

	return f
}

func bearer(t *testing.T, app *App, userID string, role db.Role) string {
	t.Helper()

	token, err := app.Tokens.Issue(userID, string(role), auth.TokenAccess)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	return "Bearer " + token
}

func serve(f *flamego.Flame, method, path, body, authorization string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	rec := httptest.NewRecorder()
	f.ServeHTTP(rec, req)

	return rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}

	return out
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, wantStatus int, wantMessage string) {
	t.Helper()

	if rec.Code != wantStatus {
		t.Fatalf("expected status %d, got %d: %s", wantStatus, rec.Code, rec.Body.String())
	}

	body := decodeResponse(t, rec)
	if body["success"] != false {
		t.Fatalf("expected success=false, got %v", body["success"])
	}

	if body["message"] != wantMessage {
		t.Fatalf("expected message %q, got %q", wantMessage, body["message"])
	}
}

func TestNoCacheHeaders(t *testing.T) {
	t.Parallel()

	f := flamego.New()
	f.Use(NoCacheHeaders())
	f.Post("/", func(c flamego.Context) {
		c.ResponseWriter().WriteHeader(http.StatusNoContent)
	})

	rec := serve(f, http.MethodPost, "/", "", "")

	if got := rec.Header().Get("Cache-Control"); got != "no-store, max-age=0" {
		t.Fatalf("unexpected Cache-Control: %q", got)
	}

	if got := rec.Header().Get("Pragma"); got != "no-cache" {
		t.Fatalf("unexpected Pragma: %q", got)
	}
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	var got string

	f := flamego.New()
	f.Get("/", func(c flamego.Context) {
		got = clientIP(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", " 203.0.113.4, 198.51.100.2 ")
	req.RemoteAddr = "10.0.0.1:1234"
	f.ServeHTTP(httptest.NewRecorder(), req)

	if got != "203.0.113.4" {
		t.Fatalf("expected X-Forwarded-For IP, got %q", got)
	}
}

func TestSessionIdentity(t *testing.T) {
	t.Parallel()

	s := newTestSession()
	if _, ok := sessionIdentity(s); ok {
		t.Fatal("expected unauthenticated session")
	}

	s.Set(db.SessionKeyAuthenticated, true)
	if _, ok := sessionIdentity(s); ok {
		t.Fatal("expected session without user id to be rejected")
	}

	s.Set(db.SessionKeyUserID, testUserID)

	id, ok := sessionIdentity(s)
	if !ok || id.UserID != testUserID || id.Role != db.RoleUser || id.Via != "session" {
		t.Fatalf("unexpected identity %+v ok=%v", id, ok)
	}

	clearSessionIdentity(s)

	if _, ok := sessionIdentity(s); ok {
		t.Fatal("expected cleared session to be unauthenticated")
	}
}
