// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package logging

import (
	"testing"

	"github.com/charmbracelet/log"
)

func TestLoggerInitializers(t *testing.T) {
	t.Parallel()

	Init()
	if l := Logger(SourceScheduler); l == nil {
		t.Fatal("Logger returned nil")
	}
	if l := StdLogger(SourceWebRequest); l == nil {
		t.Fatal("StdLogger returned nil")
	}
}

func TestMaskPhone(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "e164", input: "+15551234567", want: "+*******4567"},
		{name: "formatted", input: "(555) 123-4567", want: "(***) ***-4567"},
		{name: "short", input: "1234", want: "1234"},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := MaskPhone(tt.input); got != tt.want {
				t.Fatalf("MaskPhone(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]log.Level{
		"":        log.DebugLevel,
		"info":    log.InfoLevel,
		" WARN ":  log.WarnLevel,
		"error":   log.ErrorLevel,
		"verbose": log.DebugLevel,
	}

	for input, want := range tests {
		if got := ParseLevel(input); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}
