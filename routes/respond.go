/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package routes

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/flamego/flamego"
)

const dateLayout = "2006-01-02"

// dateTimeLayouts are the accepted forms of a timestamp field, tried in
// order. Values without an offset are read as UTC.
var dateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	dateLayout,
}

// writeJSON encodes payload with "success": true added.
func writeJSON(c flamego.Context, status int, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}

	payload["success"] = true

	encode(c, status, payload)
}

func writeError(c flamego.Context, status int, message string) {
	encode(c, status, map[string]any{
		"success": false,
		"message": message,
	})
}

func encode(c flamego.Context, status int, body any) {
	w := c.ResponseWriter()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Error encoding JSON response", "path", c.Request().URL.Path, "error", err)
	}
}

// decodeBody reads a JSON object of at most limit bytes into dst. It
// returns the set of keys present so callers can tell absent fields from
// null ones.
func decodeBody(c flamego.Context, limit int64, dst any) (map[string]json.RawMessage, error) {
	r := c.Request().Request
	r.Body = http.MaxBytesReader(c.ResponseWriter(), r.Body, limit)

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errBodyTooLarge
		}

		return nil, errInvalidJSON
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, errNoData
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, errInvalidJSON
	}

	if len(fields) == 0 {
		return nil, errNoData
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return nil, errInvalidJSON
	}

	return fields, nil
}

// writeDecodeError maps a decodeBody failure to its response.
func writeDecodeError(c flamego.Context, err error) {
	switch {
	case errors.Is(err, errNoData):
		writeError(c, http.StatusBadRequest, "No data provided")
	case errors.Is(err, errBodyTooLarge):
		writeError(c, http.StatusRequestEntityTooLarge, "Request body too large")
	default:
		writeError(c, http.StatusBadRequest, "Invalid JSON body")
	}
}

func missingField(c flamego.Context, name string) {
	writeError(c, http.StatusBadRequest, "Missing required field: "+name)
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

// queryInt returns the integer query parameter name, or def when it is
// absent. Values outside [lo, hi] are rejected.
func queryInt(c flamego.Context, name string, def, lo, hi int) (int, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, true
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < lo || n > hi {
		return 0, false
	}

	return n, true
}

func parseDateTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)

	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, errInvalidDate
}

func parseDate(value string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, errInvalidDate
	}

	return t, nil
}

// dateRange reads start_date and end_date query parameters. A date-only
// end bound covers the whole day. Absent bounds are returned as zero times.
func dateRange(c flamego.Context) (time.Time, time.Time, error) {
	var start, end time.Time

	if raw := c.Query("start_date"); raw != "" {
		t, err := parseDateTime(raw)
		if err != nil {
			return start, end, err
		}

		start = t
	}

	if raw := c.Query("end_date"); raw != "" {
		t, err := parseDateTime(raw)
		if err != nil {
			return start, end, err
		}

		if len(strings.TrimSpace(raw)) == len(dateLayout) {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}

		end = t
	}

	return start, end, nil
}
