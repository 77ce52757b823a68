// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package risk

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestExtractTokens(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want string
	}{
		{name: "empty", text: "", want: ""},
		{
			name: "salt diet",
			text: "Diet: high salt and processed food",
			want: "diet_salt diet_processed high_salt_diet",
		},
		{
			name: "family history",
			text: "History: Parent with hypertension",
			want: "medical_hypertension family_history_hypertension",
		},
		{
			name: "sedentary",
			text: "Sedentary job",
			want: "low_physical_activity",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ExtractTokens(tt.text); got != tt.want {
				t.Fatalf("ExtractTokens(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestFitVectorizer(t *testing.T) {
	t.Parallel()

	docs := []string{
		"diet_salt diet_salt medical_heart",
		"medical_heart high_salt_diet",
		"diet_fat",
	}

	v := FitVectorizer(docs, 3)

	wantVocab := map[string]int{"diet_fat": 0, "diet_salt": 1, "medical_heart": 2}
	if diff := cmp.Diff(wantVocab, v.Vocabulary); diff != "" {
		t.Fatalf("vocabulary mismatch (-want +got):\n%s", diff)
	}

	wantIDF := []float64{math.Log(4.0/2.0) + 1, math.Log(4.0/2.0) + 1, math.Log(4.0/3.0) + 1}
	if diff := cmp.Diff(wantIDF, v.IDF); diff != "" {
		t.Fatalf("idf mismatch (-want +got):\n%s", diff)
	}
}

func TestVectorizerTransform(t *testing.T) {
	t.Parallel()

	v := FitVectorizer([]string{"diet_salt medical_heart", "diet_salt"}, 7)

	got := v.Transform("diet_salt")
	if diff := cmp.Diff([]float64{1, 0}, got); diff != "" {
		t.Fatalf("Transform mismatch (-want +got):\n%s", diff)
	}

	var norm float64
	for _, x := range v.Transform("diet_salt medical_heart") {
		norm += x * x
	}

	if math.Abs(norm-1) > 1e-9 {
		t.Fatalf("vector not L2 normalised, |x|^2 = %v", norm)
	}

	if diff := cmp.Diff([]float64{0, 0}, v.Transform("unknown_term")); diff != "" {
		t.Fatalf("unknown terms should be zero (-want +got):\n%s", diff)
	}
}
