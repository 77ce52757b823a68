/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package bp

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// MinAnomalySamples is the smallest series the detector will score.
const MinAnomalySamples = 10

// AnomalyOptions configures the isolation forest.
type AnomalyOptions struct {
	Trees         int
	MaxSamples    int
	Contamination float64
	Seed          uint64
}

// DefaultAnomalyOptions mirrors the usual isolation forest defaults.
func DefaultAnomalyOptions() AnomalyOptions {
	return AnomalyOptions{
		Trees:         100,
		MaxSamples:    256,
		Contamination: 0.1,
		Seed:          42,
	}
}

// Anomaly is a reading flagged by the detector. Score is negative for
// anomalies; lower means more isolated.
type Anomaly struct {
	Sample Sample
	Score  float64
}

// DetectAnomalies scores samples with an isolation forest over systolic,
// diastolic, pulse pressure and mean arterial pressure, and returns those
// below the contamination threshold ordered from most to least anomalous.
func DetectAnomalies(samples []Sample, opts AnomalyOptions) ([]Anomaly, error) {
	if len(samples) < MinAnomalySamples {
		return nil, fmt.Errorf("%w: need at least %d readings", ErrInsufficientData, MinAnomalySamples)
	}

	points := standardize(anomalyFeatures(samples))

	forest := newIsolationForest(points, opts)

	scores := make([]float64, len(points))
	for i, p := range points {
		scores[i] = -forest.score(p)
	}

	sorted := make([]float64, len(scores))
	copy(sorted, scores)
	sort.Float64s(sorted)

	offset := stat.Quantile(opts.Contamination, stat.LinInterp, sorted, nil)

	var anomalies []Anomaly
	for i, s := range scores {
		decision := s - offset
		if decision < 0 {
			anomalies = append(anomalies, Anomaly{Sample: samples[i], Score: decision})
		}
	}

	sort.SliceStable(anomalies, func(i, j int) bool {
		return anomalies[i].Score < anomalies[j].Score
	})

	return anomalies, nil
}

func anomalyFeatures(samples []Sample) [][]float64 {
	features := make([][]float64, len(samples))
	for i, s := range samples {
		sys := float64(s.Systolic)
		dia := float64(s.Diastolic)
		pulsePressure := sys - dia
		meanArterial := dia + pulsePressure/3

		features[i] = []float64{sys, dia, pulsePressure, meanArterial}
	}

	return features
}

// standardize scales each column to zero mean and unit population variance.
func standardize(points [][]float64) [][]float64 {
	if len(points) == 0 {
		return points
	}

	dims := len(points[0])
	out := make([][]float64, len(points))
	for i := range out {
		out[i] = make([]float64, dims)
	}

	column := make([]float64, len(points))
	for d := 0; d < dims; d++ {
		for i, p := range points {
			column[i] = p[d]
		}

		mean, std := stat.PopMeanStdDev(column, nil)
		if std == 0 {
			std = 1
		}

		for i, p := range points {
			out[i][d] = (p[d] - mean) / std
		}
	}

	return out
}

type isolationNode struct {
	feature     int
	split       float64
	left, right *isolationNode
	size        int
}

type isolationForest struct {
	trees      []*isolationNode
	sampleSize int
}

func newIsolationForest(points [][]float64, opts AnomalyOptions) *isolationForest {
	trees := opts.Trees
	if trees <= 0 {
		trees = 100
	}

	sampleSize := opts.MaxSamples
	if sampleSize <= 0 || sampleSize > len(points) {
		sampleSize = len(points)
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))
	heightLimit := int(math.Ceil(math.Log2(float64(max(sampleSize, 2)))))

	forest := &isolationForest{sampleSize: sampleSize}

	for range trees {
		idx := rng.Perm(len(points))[:sampleSize]
		subset := make([][]float64, sampleSize)
		for i, j := range idx {
			subset[i] = points[j]
		}

		forest.trees = append(forest.trees, buildIsolationTree(subset, 0, heightLimit, rng))
	}

	return forest
}

func buildIsolationTree(points [][]float64, depth, limit int, rng *rand.Rand) *isolationNode {
	if depth >= limit || len(points) <= 1 {
		return &isolationNode{size: len(points)}
	}

	dims := len(points[0])

	var candidates []int
	lows := make([]float64, dims)
	highs := make([]float64, dims)
	for d := 0; d < dims; d++ {
		lo, hi := points[0][d], points[0][d]
		for _, p := range points[1:] {
			lo = math.Min(lo, p[d])
			hi = math.Max(hi, p[d])
		}

		lows[d], highs[d] = lo, hi
		if hi > lo {
			candidates = append(candidates, d)
		}
	}

	if len(candidates) == 0 {
		return &isolationNode{size: len(points)}
	}

	feature := candidates[rng.IntN(len(candidates))]
	split := lows[feature] + rng.Float64()*(highs[feature]-lows[feature])

	var left, right [][]float64
	for _, p := range points {
		if p[feature] < split {
			left = append(left, p)
		} else {
			right = append(right, p)
		}
	}

	return &isolationNode{
		feature: feature,
		split:   split,
		left:    buildIsolationTree(left, depth+1, limit, rng),
		right:   buildIsolationTree(right, depth+1, limit, rng),
	}
}

// score returns the isolation score in (0, 1]; values near 1 are anomalous.
func (f *isolationForest) score(point []float64) float64 {
	var total float64
	for _, tree := range f.trees {
		total += pathLength(tree, point, 0)
	}

	mean := total / float64(len(f.trees))

	return math.Pow(2, -mean/averagePathLength(f.sampleSize))
}

func pathLength(node *isolationNode, point []float64, depth int) float64 {
	if node.left == nil && node.right == nil {
		return float64(depth) + averagePathLength(node.size)
	}

	if point[node.feature] < node.split {
		return pathLength(node.left, point, depth+1)
	}

	return pathLength(node.right, point, depth+1)
}

// averagePathLength is the expected path length of an unsuccessful search
// in a binary search tree of n nodes.
func averagePathLength(n int) float64 {
	switch {
	case n <= 1:
		return 0
	case n == 2:
		return 1
	default:
		fn := float64(n)
		return 2*(math.Log(fn-1)+0.5772156649) - 2*(fn-1)/fn
	}
}
