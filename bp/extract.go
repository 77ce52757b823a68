/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package bp

import (
	"strconv"
	"strings"
)

// Pair is a systolic/diastolic value pair recognised in free text.
type Pair struct {
	Systolic  int
	Diastolic int
}

// ExtractPairs scans OCR output line by line for "SYS/DIA" values. The
// systolic value is the last word before the first slash and the diastolic
// value is the first word after it. Pairs that fail validation are dropped.
func ExtractPairs(text string) []Pair {
	var pairs []Pair

	for _, line := range strings.Split(text, "\n") {
		before, after, found := strings.Cut(line, "/")
		if !found {
			continue
		}

		left := strings.Fields(before)
		right := strings.Fields(after)
		if len(left) == 0 || len(right) == 0 {
			continue
		}

		systolic, err := strconv.Atoi(left[len(left)-1])
		if err != nil {
			continue
		}

		// A second slash ends the diastolic token, as in "120/80/72".
		diaToken, _, _ := strings.Cut(right[0], "/")

		diastolic, err := strconv.Atoi(diaToken)
		if err != nil {
			continue
		}

		if Validate(systolic, diastolic) != nil {
			continue
		}

		pairs = append(pairs, Pair{Systolic: systolic, Diastolic: diastolic})
	}

	return pairs
}
