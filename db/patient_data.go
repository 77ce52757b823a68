/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/humaidq/hypertrack/risk"
)

const patientDataColumns = `
	id, user_id, age, gender, current_smoker, cigs_per_day, bp_meds, diabetes,
	total_chol, sys_bp, dia_bp, bmi, heart_rate, glucose, diet_description,
	medical_history, physical_activity_level, kidney_disease, heart_disease,
	family_history_htn, alcohol_consumption, salt_intake, stress_level,
	sleep_hours, prediction_score, prediction_date, risk_level, risk_factors,
	recommendations, created_at, updated_at`

// PatientDataInput carries medical history fields. Nil fields keep their
// stored value.
type PatientDataInput struct {
	Age                   *int     `json:"age"`
	Gender                *string  `json:"gender"`
	CurrentSmoker         *bool    `json:"current_smoker"`
	CigsPerDay            *int     `json:"cigs_per_day"`
	BPMeds                *bool    `json:"bp_meds"`
	Diabetes              *bool    `json:"diabetes"`
	TotalChol             *float64 `json:"total_chol"`
	SysBP                 *float64 `json:"sys_bp"`
	DiaBP                 *float64 `json:"dia_bp"`
	BMI                   *float64 `json:"bmi"`
	HeartRate             *int     `json:"heart_rate"`
	Glucose               *float64 `json:"glucose"`
	DietDescription       *string  `json:"diet_description"`
	MedicalHistory        *string  `json:"medical_history"`
	PhysicalActivityLevel *string  `json:"physical_activity_level"`
	KidneyDisease         *bool    `json:"kidney_disease"`
	HeartDisease          *bool    `json:"heart_disease"`
	FamilyHistoryHTN      *bool    `json:"family_history_htn"`
	AlcoholConsumption    *string  `json:"alcohol_consumption"`
	SaltIntake            *string  `json:"salt_intake"`
	StressLevel           *string  `json:"stress_level"`
	SleepHours            *float64 `json:"sleep_hours"`
}

// NormalizeLevels lower-cases the categorical fields and rejects values
// outside their vocabularies.
func (in *PatientDataInput) NormalizeLevels() error {
	fields := []struct {
		value  **string
		levels []string
		name   string
	}{
		{&in.PhysicalActivityLevel, risk.ActivityLevels, "physical_activity_level"},
		{&in.AlcoholConsumption, risk.AlcoholLevels, "alcohol_consumption"},
		{&in.SaltIntake, risk.SaltLevels, "salt_intake"},
		{&in.StressLevel, risk.StressLevels, "stress_level"},
	}

	for _, f := range fields {
		if *f.value == nil {
			continue
		}

		level, err := risk.NormalizeLevel(**f.value, f.levels)
		if err != nil {
			return fmt.Errorf("%s: %w", f.name, err)
		}

		if level == "" {
			*f.value = nil
		} else {
			*f.value = &level
		}
	}

	return nil
}

func (in *PatientDataInput) apply(p *PatientData) {
	setIf(&p.Age, in.Age)
	setIf(&p.Gender, in.Gender)
	setIf(&p.CurrentSmoker, in.CurrentSmoker)
	setIf(&p.BPMeds, in.BPMeds)
	setIf(&p.Diabetes, in.Diabetes)
	setIf(&p.KidneyDisease, in.KidneyDisease)
	setIf(&p.HeartDisease, in.HeartDisease)
	setIf(&p.FamilyHistoryHTN, in.FamilyHistoryHTN)

	p.CigsPerDay = coalesce(in.CigsPerDay, p.CigsPerDay)
	p.TotalChol = coalesce(in.TotalChol, p.TotalChol)
	p.SysBP = coalesce(in.SysBP, p.SysBP)
	p.DiaBP = coalesce(in.DiaBP, p.DiaBP)
	p.BMI = coalesce(in.BMI, p.BMI)
	p.HeartRate = coalesce(in.HeartRate, p.HeartRate)
	p.Glucose = coalesce(in.Glucose, p.Glucose)
	p.DietDescription = coalesce(in.DietDescription, p.DietDescription)
	p.MedicalHistory = coalesce(in.MedicalHistory, p.MedicalHistory)
	p.PhysicalActivityLevel = coalesce(in.PhysicalActivityLevel, p.PhysicalActivityLevel)
	p.AlcoholConsumption = coalesce(in.AlcoholConsumption, p.AlcoholConsumption)
	p.SaltIntake = coalesce(in.SaltIntake, p.SaltIntake)
	p.StressLevel = coalesce(in.StressLevel, p.StressLevel)
	p.SleepHours = coalesce(in.SleepHours, p.SleepHours)
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func scanPatientData(row pgx.Row) (*PatientData, error) {
	var p PatientData
	if err := row.Scan(
		&p.ID, &p.UserID, &p.Age, &p.Gender, &p.CurrentSmoker, &p.CigsPerDay, &p.BPMeds, &p.Diabetes,
		&p.TotalChol, &p.SysBP, &p.DiaBP, &p.BMI, &p.HeartRate, &p.Glucose, &p.DietDescription,
		&p.MedicalHistory, &p.PhysicalActivityLevel, &p.KidneyDisease, &p.HeartDisease,
		&p.FamilyHistoryHTN, &p.AlcoholConsumption, &p.SaltIntake, &p.StressLevel,
		&p.SleepHours, &p.PredictionScore, &p.PredictionDate, &p.RiskLevel, &p.RiskFactors,
		&p.Recommendations, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &p, nil
}

// GetPatientData returns the medical history for userID.
func GetPatientData(ctx context.Context, userID string) (*PatientData, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	p, err := scanPatientData(pool.QueryRow(ctx,
		`SELECT `+patientDataColumns+` FROM patient_data WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientDataNotFound
		}

		return nil, fmt.Errorf("failed to get patient data: %w", err)
	}

	return p, nil
}

// UpsertPatientData merges in over the stored record, creating it when
// missing. When no BMI is known the profile BMI is used.
func UpsertPatientData(ctx context.Context, userID string, in PatientDataInput) (*PatientData, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer rollback(ctx, tx)

	current, err := scanPatientData(tx.QueryRow(ctx,
		`SELECT `+patientDataColumns+` FROM patient_data WHERE user_id = $1 FOR UPDATE`, userID))

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		current = &PatientData{UserID: uid}
	case err != nil:
		return nil, fmt.Errorf("failed to load patient data: %w", err)
	}

	in.apply(current)

	if current.BMI == nil {
		var bmi *float64

		err := tx.QueryRow(ctx, `SELECT bmi FROM user_profiles WHERE user_id = $1`, userID).Scan(&bmi)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("failed to read profile bmi: %w", err)
		}

		current.BMI = bmi
	}

	p := current
	query := `
		INSERT INTO patient_data (
			user_id, age, gender, current_smoker, cigs_per_day, bp_meds, diabetes,
			total_chol, sys_bp, dia_bp, bmi, heart_rate, glucose, diet_description,
			medical_history, physical_activity_level, kidney_disease, heart_disease,
			family_history_htn, alcohol_consumption, salt_intake, stress_level, sleep_hours
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		ON CONFLICT (user_id) DO UPDATE SET
			age = EXCLUDED.age,
			gender = EXCLUDED.gender,
			current_smoker = EXCLUDED.current_smoker,
			cigs_per_day = EXCLUDED.cigs_per_day,
			bp_meds = EXCLUDED.bp_meds,
			diabetes = EXCLUDED.diabetes,
			total_chol = EXCLUDED.total_chol,
			sys_bp = EXCLUDED.sys_bp,
			dia_bp = EXCLUDED.dia_bp,
			bmi = EXCLUDED.bmi,
			heart_rate = EXCLUDED.heart_rate,
			glucose = EXCLUDED.glucose,
			diet_description = EXCLUDED.diet_description,
			medical_history = EXCLUDED.medical_history,
			physical_activity_level = EXCLUDED.physical_activity_level,
			kidney_disease = EXCLUDED.kidney_disease,
			heart_disease = EXCLUDED.heart_disease,
			family_history_htn = EXCLUDED.family_history_htn,
			alcohol_consumption = EXCLUDED.alcohol_consumption,
			salt_intake = EXCLUDED.salt_intake,
			stress_level = EXCLUDED.stress_level,
			sleep_hours = EXCLUDED.sleep_hours,
			updated_at = NOW()
		RETURNING ` + patientDataColumns

	saved, err := scanPatientData(tx.QueryRow(ctx, query,
		userID, p.Age, p.Gender, p.CurrentSmoker, p.CigsPerDay, p.BPMeds, p.Diabetes,
		p.TotalChol, p.SysBP, p.DiaBP, p.BMI, p.HeartRate, p.Glucose, p.DietDescription,
		p.MedicalHistory, p.PhysicalActivityLevel, p.KidneyDisease, p.HeartDisease,
		p.FamilyHistoryHTN, p.AlcoholConsumption, p.SaltIntake, p.StressLevel, p.SleepHours,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to save patient data: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit patient data: %w", err)
	}

	return saved, nil
}

// SavePrediction stores an assessment on the patient record and appends it
// to the prediction history in one transaction.
func SavePrediction(ctx context.Context, userID string, a risk.Assessment, at time.Time) (*PredictionRecord, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer rollback(ctx, tx)

	command, err := tx.Exec(ctx, `
		UPDATE patient_data
		SET prediction_score = $2, prediction_date = $3, risk_level = $4,
			risk_factors = $5, recommendations = $6, updated_at = NOW()
		WHERE user_id = $1
	`, userID, a.Score, at, a.Level, a.KeyFactors, a.Recommendations)
	if err != nil {
		return nil, fmt.Errorf("failed to store prediction: %w", err)
	}

	if command.RowsAffected() == 0 {
		return nil, ErrPatientDataNotFound
	}

	var rec PredictionRecord

	err = tx.QueryRow(ctx, `
		INSERT INTO prediction_history
			(user_id, probability, score, risk_level, key_factors, recommendations, model_version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, user_id, probability, score, risk_level, key_factors, recommendations, model_version, created_at
	`, userID, a.Probability, a.Score, a.Level, a.KeyFactors, a.Recommendations, a.ModelVersion, at).Scan(
		&rec.ID, &rec.UserID, &rec.Probability, &rec.Score, &rec.RiskLevel,
		&rec.KeyFactors, &rec.Recommendations, &rec.ModelVersion, &rec.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to append prediction history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit prediction: %w", err)
	}

	return &rec, nil
}

// ListPredictions returns the newest predictions for userID.
func ListPredictions(ctx context.Context, userID string, limit int) ([]PredictionRecord, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	rows, err := pool.Query(ctx, `
		SELECT id, user_id, probability, score, risk_level, key_factors, recommendations, model_version, created_at
		FROM prediction_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list predictions: %w", err)
	}
	defer rows.Close()

	records := []PredictionRecord{}

	for rows.Next() {
		var rec PredictionRecord
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.Probability, &rec.Score, &rec.RiskLevel,
			&rec.KeyFactors, &rec.Recommendations, &rec.ModelVersion, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating predictions: %w", err)
	}

	return records, nil
}
