/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package risk

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Example is one labelled training row.
type Example struct {
	Patient      Patient
	Hypertensive bool
}

// TrainOptions controls the gradient descent fit.
type TrainOptions struct {
	Epochs       int
	LearningRate float64
	Seed         uint64
	TestFraction float64
}

// DefaultTrainOptions returns the settings used by the model train command.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Epochs:       2000,
		LearningRate: 0.1,
		Seed:         42,
		TestFraction: 0.2,
	}
}

// Metrics reports how well a trained model fits its data.
type Metrics struct {
	TrainRows     int     `json:"train_rows"`
	TestRows      int     `json:"test_rows"`
	TrainAccuracy float64 `json:"train_accuracy"`
	TestAccuracy  float64 `json:"test_accuracy"`
}

// Train fits a logistic model on examples. The text vectorizer and the
// standard scaler are fitted on the training split only.
func Train(examples []Example, opts TrainOptions) (*Model, error) {
	if len(examples) == 0 {
		return nil, ErrEmptyDataset
	}

	if opts.Epochs <= 0 || opts.LearningRate <= 0 {
		return nil, fmt.Errorf("%w: epochs and learning rate must be positive", ErrInvalidModel)
	}

	order := make([]int, len(examples))
	for i := range order {
		order[i] = i
	}

	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed)) //nolint:gosec // reproducible split
	rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })

	testRows := int(math.Round(float64(len(examples)) * opts.TestFraction))
	if testRows >= len(examples) {
		testRows = 0
	}

	train := make([]Example, 0, len(examples)-testRows)
	test := make([]Example, 0, testRows)

	for i, idx := range order {
		if i < testRows {
			test = append(test, examples[idx])
		} else {
			train = append(train, examples[idx])
		}
	}

	docs := make([]string, len(train))
	for i, ex := range train {
		docs[i] = ExtractTokens(PatientText(ex.Patient))
	}

	m := &Model{
		Version:      ModelVersion,
		TrainedAt:    time.Now().UTC(),
		FeatureNames: FeatureNames(),
		Vectorizer:   FitVectorizer(docs, TextFeatureCount),
	}

	x, y := m.design(train)
	m.fitScaler(x)
	m.fitLogistic(x, y, opts)

	m.Metrics = &Metrics{
		TrainRows:     len(train),
		TestRows:      len(test),
		TrainAccuracy: m.accuracy(train),
		TestAccuracy:  m.accuracy(test),
	}

	return m, nil
}

func (m *Model) design(rows []Example) (*mat.Dense, []float64) {
	x := mat.NewDense(len(rows), FeatureCount, nil)
	y := make([]float64, len(rows))

	for i, ex := range rows {
		x.SetRow(i, m.Features(ex.Patient))
		y[i] = boolFeature(ex.Hypertensive)
	}

	return x, y
}

func (m *Model) fitScaler(x *mat.Dense) {
	_, cols := x.Dims()
	m.Means = make([]float64, cols)
	m.Scales = make([]float64, cols)

	for j := range cols {
		mean, std := stat.PopMeanStdDev(mat.Col(nil, j, x), nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}

		m.Means[j] = mean
		m.Scales[j] = std
	}
}

func (m *Model) fitLogistic(x *mat.Dense, y []float64, opts TrainOptions) {
	rows, cols := x.Dims()

	z := mat.NewDense(rows, cols, nil)
	z.Apply(func(_, j int, v float64) float64 {
		return (v - m.Means[j]) / m.Scales[j]
	}, x)

	w := mat.NewVecDense(cols, nil)
	labels := mat.NewVecDense(rows, y)
	pred := mat.NewVecDense(rows, nil)
	resid := mat.NewVecDense(rows, nil)
	grad := mat.NewVecDense(cols, nil)

	var b float64

	n := float64(rows)

	for range opts.Epochs {
		pred.MulVec(z, w)

		for i := range rows {
			pred.SetVec(i, sigmoid(pred.AtVec(i)+b))
		}

		resid.SubVec(pred, labels)
		grad.MulVec(z.T(), resid)
		w.AddScaledVec(w, -opts.LearningRate/n, grad)
		b -= opts.LearningRate * mat.Sum(resid) / n
	}

	m.Coefficients = mat.Col(nil, 0, w)
	m.Intercept = b
}

func (m *Model) accuracy(rows []Example) float64 {
	if len(rows) == 0 {
		return 0
	}

	correct := 0

	for _, ex := range rows {
		p, err := m.PredictProba(m.Features(ex.Patient))
		if err != nil {
			continue
		}

		if (p >= 0.5) == ex.Hypertensive {
			correct++
		}
	}

	return float64(correct) / float64(len(rows))
}

var (
	syntheticDiets = []string{
		"High salt diet with lots of processed food",
		"Balanced meals with fruit and vegetable servings",
		"Fast food and sugar heavy snacks most days",
		"Low fat diet rich in fiber and fish",
		"Red meat and dairy at every meal",
		"",
	}
	syntheticHistories = []string{
		"Family history of hypertension",
		"Parent diagnosed with hypertension in their fifties",
		"Sedentary office job, low level of activity",
		"Diabetes managed with insulin",
		"Chronic stress and anxiety",
		"No significant history",
		"",
	}
)

// SyntheticDataset generates n labelled patients. The label marks the upper
// half of a weighted clinical risk formula after min-max normalisation.
func SyntheticDataset(n int, seed uint64) []Example {
	rng := rand.New(rand.NewPCG(seed, seed)) //nolint:gosec // reproducible data

	uniform := func(lo, hi float64) float64 { return lo + rng.Float64()*(hi-lo) }
	flip := func() bool { return rng.IntN(2) == 1 }
	pick := func(values []string) string { return values[rng.IntN(len(values))] }

	examples := make([]Example, n)
	raw := make([]float64, n)

	for i := range n {
		p := Patient{
			Age:              30 + rng.IntN(50),
			Gender:           pick([]string{"male", "female"}),
			CurrentSmoker:    flip(),
			CigsPerDay:       rng.IntN(30),
			BPMeds:           flip(),
			Diabetes:         flip(),
			TotalChol:        uniform(150, 300),
			SysBP:            uniform(100, 180),
			DiaBP:            uniform(60, 100),
			BMI:              uniform(18, 35),
			HeartRate:        int(uniform(60, 100)),
			Glucose:          uniform(70, 150),
			DietDescription:  pick(syntheticDiets),
			MedicalHistory:   pick(syntheticHistories),
			PhysicalActivity: pick(ActivityLevels),
			KidneyDisease:    flip(),
			HeartDisease:     flip(),
			FamilyHistory:    flip(),
			Alcohol:          pick(AlcoholLevels),
			SaltIntake:       pick(SaltLevels),
			StressLevel:      pick(StressLevels),
			SleepHours:       uniform(4, 10),
		}

		if !p.CurrentSmoker {
			p.CigsPerDay = 0
		}

		examples[i].Patient = p
		raw[i] = float64(p.Age)*0.3 +
			boolFeature(p.CurrentSmoker)*15 +
			boolFeature(p.Diabetes)*20 +
			(p.SysBP-120)*0.2 +
			(p.DiaBP-80)*0.2 +
			(p.BMI-25)*0.5 +
			boolFeature(p.HeartDisease)*25 +
			boolFeature(p.KidneyDisease)*20 +
			boolFeature(p.FamilyHistory)*10
	}

	if n == 0 {
		return examples
	}

	lo, hi := raw[0], raw[0]
	for _, r := range raw {
		lo = math.Min(lo, r)
		hi = math.Max(hi, r)
	}

	span := hi - lo
	if span == 0 {
		span = 1
	}

	for i, r := range raw {
		examples[i].Hypertensive = (r-lo)/span*100 > 50
	}

	return examples
}

var datasetAliases = map[string]string{
	"sysbp":      "sys_bp",
	"diabp":      "dia_bp",
	"totchol":    "total_chol",
	"cigsperday": "cigs_per_day",
	"heartrate":  "heart_rate",
}

// ReadDataset parses a labelled CSV whose headers are patient data field
// names. Without a hypertension column the label is derived from the
// reading: systolic of 140 or more, or diastolic of 90 or more.
func ReadDataset(r io.Reader) ([]Example, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDataset
		}

		return nil, fmt.Errorf("failed to read dataset header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if alias, ok := datasetAliases[name]; ok {
			name = alias
		}

		cols[name] = i
	}

	var examples []Example

	line := 1

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		line++

		if err != nil {
			return nil, fmt.Errorf("failed to read dataset line %d: %w", line, err)
		}

		get := func(name string) string {
			if i, ok := cols[name]; ok && i < len(record) {
				return strings.TrimSpace(record[i])
			}

			return ""
		}

		p := Patient{
			Age:              int(parseNumber(get("age"))),
			Gender:           get("gender"),
			CurrentSmoker:    parseFlag(get("current_smoker")),
			CigsPerDay:       int(parseNumber(get("cigs_per_day"))),
			BPMeds:           parseFlag(get("bp_meds")),
			Diabetes:         parseFlag(get("diabetes")),
			TotalChol:        parseNumber(get("total_chol")),
			SysBP:            parseNumber(get("sys_bp")),
			DiaBP:            parseNumber(get("dia_bp")),
			BMI:              parseNumber(get("bmi")),
			HeartRate:        int(parseNumber(get("heart_rate"))),
			Glucose:          parseNumber(get("glucose")),
			DietDescription:  get("diet_description"),
			MedicalHistory:   get("medical_history"),
			PhysicalActivity: strings.ToLower(get("physical_activity_level")),
			KidneyDisease:    parseFlag(get("kidney_disease")),
			HeartDisease:     parseFlag(get("heart_disease")),
			FamilyHistory:    parseFlag(get("family_history_htn")),
			Alcohol:          strings.ToLower(get("alcohol_consumption")),
			SaltIntake:       strings.ToLower(get("salt_intake")),
			StressLevel:      strings.ToLower(get("stress_level")),
			SleepHours:       parseNumber(get("sleep_hours")),
		}

		label := p.SysBP >= 140 || p.DiaBP >= 90
		if _, ok := cols["hypertension"]; ok {
			label = parseFlag(get("hypertension"))
		}

		examples = append(examples, Example{Patient: p, Hypertensive: label})
	}

	if len(examples) == 0 {
		return nil, ErrEmptyDataset
	}

	return examples, nil
}

func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) {
		return 0
	}

	return v
}

func parseFlag(s string) bool {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "y", "1.0":
		return true
	default:
		return false
	}
}
