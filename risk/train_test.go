// SPDX-FileCopyrightText: 2025 Humaid Alqasimi
// SPDX-License-Identifier: Apache-2.0

package risk

import (
	"errors"
	"strings"
	"testing"
)

func TestSyntheticDatasetDeterministic(t *testing.T) {
	t.Parallel()

	a := SyntheticDataset(50, 42)
	b := SyntheticDataset(50, 42)

	positives := 0

	for i := range a {
		if a[i].Patient.SysBP != b[i].Patient.SysBP || a[i].Hypertensive != b[i].Hypertensive {
			t.Fatalf("row %d differs between runs with the same seed", i)
		}

		if a[i].Hypertensive {
			positives++
		}
	}

	if positives == 0 || positives == len(a) {
		t.Fatalf("expected both classes, got %d positives of %d", positives, len(a))
	}
}

func TestTrainSynthetic(t *testing.T) {
	t.Parallel()

	opts := DefaultTrainOptions()
	opts.Epochs = 500

	m, err := Train(SyntheticDataset(400, 42), opts)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}

	if err := m.Validate(); err != nil {
		t.Fatalf("trained model invalid: %v", err)
	}

	if m.Metrics.TrainRows != 320 || m.Metrics.TestRows != 80 {
		t.Fatalf("split = %d/%d, want 320/80", m.Metrics.TrainRows, m.Metrics.TestRows)
	}

	if m.Metrics.TrainAccuracy < 0.8 {
		t.Fatalf("train accuracy = %.2f, want at least 0.8", m.Metrics.TrainAccuracy)
	}

	if len(m.Vectorizer.IDF) > TextFeatureCount {
		t.Fatalf("vocabulary size = %d", len(m.Vectorizer.IDF))
	}
}

func TestTrainEmpty(t *testing.T) {
	t.Parallel()

	if _, err := Train(nil, DefaultTrainOptions()); !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("err = %v, want ErrEmptyDataset", err)
	}
}

func TestReadDataset(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		"age,gender,current_smoker,sysBP,diaBP,bmi,alcohol_consumption,hypertension",
		"61,male,yes,150,95,31.2,Heavy,1",
		"34,female,0,118,76,22.0,none,0",
	}, "\n")

	rows, err := ReadDataset(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadDataset: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	first := rows[0]
	if first.Patient.Age != 61 || !first.Patient.CurrentSmoker || first.Patient.SysBP != 150 {
		t.Fatalf("unexpected first row %+v", first.Patient)
	}

	if first.Patient.Alcohol != "heavy" || !first.Hypertensive {
		t.Fatalf("unexpected first row label or alcohol: %+v", first)
	}

	if rows[1].Hypertensive {
		t.Fatal("second row should not be hypertensive")
	}
}

func TestReadDatasetDerivedLabel(t *testing.T) {
	t.Parallel()

	rows, err := ReadDataset(strings.NewReader("age,sys_bp,dia_bp\n50,120,92\n40,120,70\n"))
	if err != nil {
		t.Fatalf("ReadDataset: %v", err)
	}

	if !rows[0].Hypertensive || rows[1].Hypertensive {
		t.Fatalf("derived labels = %v, %v", rows[0].Hypertensive, rows[1].Hypertensive)
	}
}

func TestReadDatasetEmpty(t *testing.T) {
	t.Parallel()

	if _, err := ReadDataset(strings.NewReader("")); !errors.Is(err, ErrEmptyDataset) {
		t.Fatalf("err = %v, want ErrEmptyDataset", err)
	}
}
