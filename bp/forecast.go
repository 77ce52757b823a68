/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package bp

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
)

// MinForecastSamples is the smallest series a forecast is fitted to.
const MinForecastSamples = 7

// Band is a point prediction with a 95% interval.
type Band struct {
	Predicted  float64 `json:"predicted"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
}

// ForecastPoint is the predicted reading for one future day.
type ForecastPoint struct {
	Date      string `json:"date"`
	Systolic  Band   `json:"systolic"`
	Diastolic Band   `json:"diastolic"`
}

// Forecast fits a least squares line to systolic and diastolic values
// against reading order and extrapolates horizon daily points after the
// latest reading.
func Forecast(samples []Sample, horizon int) ([]ForecastPoint, error) {
	if horizon <= 0 {
		return nil, ErrInvalidHorizon
	}

	if len(samples) < MinForecastSamples {
		return nil, fmt.Errorf("%w: need at least %d readings", ErrInsufficientData, MinForecastSamples)
	}

	sorted := SortByTime(samples)

	index := make([]float64, len(sorted))
	sys := make([]float64, len(sorted))
	dia := make([]float64, len(sorted))
	for i, s := range sorted {
		index[i] = float64(i)
		sys[i] = float64(s.Systolic)
		dia[i] = float64(s.Diastolic)
	}

	sysAlpha, sysBeta := stat.LinearRegression(index, sys, nil, false)
	diaAlpha, diaBeta := stat.LinearRegression(index, dia, nil, false)

	_, sysStd := stat.PopMeanStdDev(sys, nil)
	_, diaStd := stat.PopMeanStdDev(dia, nil)

	last := sorted[len(sorted)-1].MeasuredAt
	n := float64(len(sorted))

	points := make([]ForecastPoint, horizon)
	for i := range horizon {
		x := n + float64(i)

		points[i] = ForecastPoint{
			Date:      last.AddDate(0, 0, i+1).Format(time.DateOnly),
			Systolic:  band(sysAlpha+sysBeta*x, sysStd),
			Diastolic: band(diaAlpha+diaBeta*x, diaStd),
		}
	}

	return points, nil
}

func band(predicted, std float64) Band {
	return Band{
		Predicted:  round1(predicted),
		LowerBound: round1(predicted - 1.96*std),
		UpperBound: round1(predicted + 1.96*std),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
