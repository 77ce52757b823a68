/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package risk

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var dietKeywords = []string{
	"salt", "sodium", "sugar", "carb", "carbohydrate", "fat", "saturated", "unsaturated",
	"trans", "protein", "cholesterol", "fiber", "fruit", "vegetable", "meat", "fish",
	"dairy", "processed", "junk", "fast food", "alcohol", "wine", "beer", "liquor",
	"vitamin", "mineral", "supplement", "calorie", "portion", "meal", "breakfast",
	"lunch", "dinner", "snack", "dessert",
}

var medicalKeywords = []string{
	"hypertension", "pressure", "heart", "cardiac", "stroke", "kidney", "renal",
	"diabetes", "insulin", "glucose", "cholesterol", "lipid", "triglyceride",
	"medication", "prescription", "surgery", "hospitalization", "emergency",
	"family history", "genetic", "hereditary", "obesity", "overweight",
	"sleep apnea", "stress", "anxiety", "depression", "thyroid", "adrenal",
	"steroid", "inflammation", "infection", "chronic", "acute",
}

var (
	highSaltPattern      = regexp.MustCompile(`high.{1,20}salt`)
	lowActivityPattern   = regexp.MustCompile(`low.{1,20}activity|sedentary`)
	familyHistoryPattern = regexp.MustCompile(`(family|parent).{1,20}hypertension`)
	tokenPattern         = regexp.MustCompile(`\b\w\w+\b`)
)

// ExtractTokens reduces free text to a space separated list of keyword
// tokens such as "diet_salt" and "medical_stroke". Keywords match as
// substrings of the lower-cased text.
func ExtractTokens(text string) string {
	if text == "" {
		return ""
	}

	text = strings.ToLower(text)

	var tokens []string

	for _, kw := range dietKeywords {
		if strings.Contains(text, kw) {
			tokens = append(tokens, "diet_"+kw)
		}
	}

	for _, kw := range medicalKeywords {
		if strings.Contains(text, kw) {
			tokens = append(tokens, "medical_"+kw)
		}
	}

	if highSaltPattern.MatchString(text) {
		tokens = append(tokens, "high_salt_diet")
	}

	if lowActivityPattern.MatchString(text) {
		tokens = append(tokens, "low_physical_activity")
	}

	if familyHistoryPattern.MatchString(text) {
		tokens = append(tokens, "family_history_hypertension")
	}

	return strings.Join(tokens, " ")
}

// Vectorizer is a fitted TF-IDF transform with smoothed idf and L2
// normalisation. Vocabulary maps a term to its column.
type Vectorizer struct {
	Vocabulary map[string]int `json:"vocabulary"`
	IDF        []float64      `json:"idf"`
}

func analyze(doc string) []string {
	return tokenPattern.FindAllString(strings.ToLower(doc), -1)
}

// FitVectorizer learns a vocabulary of at most maxFeatures terms, keeping
// the most frequent terms across docs. Columns are assigned in
// alphabetical order.
func FitVectorizer(docs []string, maxFeatures int) *Vectorizer {
	termFreq := make(map[string]int)
	docFreq := make(map[string]int)

	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, term := range analyze(doc) {
			termFreq[term]++
			if !seen[term] {
				docFreq[term]++
				seen[term] = true
			}
		}
	}

	terms := make([]string, 0, len(termFreq))
	for term := range termFreq {
		terms = append(terms, term)
	}

	sort.Slice(terms, func(i, j int) bool {
		if termFreq[terms[i]] != termFreq[terms[j]] {
			return termFreq[terms[i]] > termFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if maxFeatures > 0 && len(terms) > maxFeatures {
		terms = terms[:maxFeatures]
	}

	sort.Strings(terms)

	n := float64(len(docs))
	v := &Vectorizer{
		Vocabulary: make(map[string]int, len(terms)),
		IDF:        make([]float64, len(terms)),
	}

	for i, term := range terms {
		v.Vocabulary[term] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	return v
}

// Transform returns the L2 normalised tf-idf vector of doc.
func (v *Vectorizer) Transform(doc string) []float64 {
	out := make([]float64, len(v.IDF))

	for _, term := range analyze(doc) {
		if col, ok := v.Vocabulary[term]; ok && col < len(out) {
			out[col]++
		}
	}

	var norm float64
	for i := range out {
		out[i] *= v.IDF[i]
		norm += out[i] * out[i]
	}

	if norm == 0 {
		return out
	}

	norm = math.Sqrt(norm)
	for i := range out {
		out[i] /= norm
	}

	return out
}
