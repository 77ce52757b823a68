/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"time"

	"github.com/google/uuid"

	"github.com/humaidq/hypertrack/bp"
	"github.com/humaidq/hypertrack/risk"
)

// Role is the permission level of an account.
type Role string

// Role values represent supported account roles.
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User represents an authenticated account.
type User struct {
	ID           uuid.UUID  `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         Role       `json:"role"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// UserProfile holds demographic details for a user.
type UserProfile struct {
	ID               uuid.UUID `json:"id"`
	UserID           uuid.UUID `json:"user_id"`
	Age              *int      `json:"age"`
	Gender           *string   `json:"gender"`
	Weight           *float64  `json:"weight"`
	Height           *float64  `json:"height"`
	BMI              *float64  `json:"bmi"`
	ContactEmail     *string   `json:"contact_email"`
	EmergencyContact *string   `json:"emergency_contact"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// PatientData is the medical history used for risk prediction, along with
// the most recent prediction outcome.
type PatientData struct {
	ID                    uuid.UUID  `json:"-"`
	UserID                uuid.UUID  `json:"-"`
	Age                   int        `json:"age"`
	Gender                string     `json:"gender"`
	CurrentSmoker         bool       `json:"current_smoker"`
	CigsPerDay            *int       `json:"cigs_per_day"`
	BPMeds                bool       `json:"bp_meds"`
	Diabetes              bool       `json:"diabetes"`
	TotalChol             *float64   `json:"total_chol"`
	SysBP                 *float64   `json:"sys_bp"`
	DiaBP                 *float64   `json:"dia_bp"`
	BMI                   *float64   `json:"bmi"`
	HeartRate             *int       `json:"heart_rate"`
	Glucose               *float64   `json:"glucose"`
	DietDescription       *string    `json:"diet_description"`
	MedicalHistory        *string    `json:"medical_history"`
	PhysicalActivityLevel *string    `json:"physical_activity_level"`
	KidneyDisease         bool       `json:"kidney_disease"`
	HeartDisease          bool       `json:"heart_disease"`
	FamilyHistoryHTN      bool       `json:"family_history_htn"`
	AlcoholConsumption    *string    `json:"alcohol_consumption"`
	SaltIntake            *string    `json:"salt_intake"`
	StressLevel           *string    `json:"stress_level"`
	SleepHours            *float64   `json:"sleep_hours"`
	PredictionScore       *int       `json:"prediction_score"`
	PredictionDate        *time.Time `json:"prediction_date"`
	RiskLevel             *string    `json:"risk_level"`
	RiskFactors           []string   `json:"risk_factors"`
	Recommendations       []string   `json:"recommendations"`
	CreatedAt             time.Time  `json:"-"`
	UpdatedAt             time.Time  `json:"-"`
}

// Patient converts stored data into the risk model's input. Missing values
// become zero.
func (p *PatientData) Patient() risk.Patient {
	return risk.Patient{
		Age:              p.Age,
		Gender:           p.Gender,
		CurrentSmoker:    p.CurrentSmoker,
		CigsPerDay:       deref(p.CigsPerDay),
		BPMeds:           p.BPMeds,
		Diabetes:         p.Diabetes,
		TotalChol:        deref(p.TotalChol),
		SysBP:            deref(p.SysBP),
		DiaBP:            deref(p.DiaBP),
		BMI:              deref(p.BMI),
		HeartRate:        deref(p.HeartRate),
		Glucose:          deref(p.Glucose),
		DietDescription:  deref(p.DietDescription),
		MedicalHistory:   deref(p.MedicalHistory),
		PhysicalActivity: deref(p.PhysicalActivityLevel),
		KidneyDisease:    p.KidneyDisease,
		HeartDisease:     p.HeartDisease,
		FamilyHistory:    p.FamilyHistoryHTN,
		Alcohol:          deref(p.AlcoholConsumption),
		SaltIntake:       deref(p.SaltIntake),
		StressLevel:      deref(p.StressLevel),
		SleepHours:       deref(p.SleepHours),
	}
}

// PredictionRecord is one entry in a user's prediction history.
type PredictionRecord struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"-"`
	Probability     float64   `json:"probability"`
	Score           int       `json:"prediction_score"`
	RiskLevel       string    `json:"risk_level"`
	KeyFactors      []string  `json:"key_factors"`
	Recommendations []string  `json:"recommendations"`
	ModelVersion    int       `json:"model_version"`
	CreatedAt       time.Time `json:"prediction_date"`
}

// ReadingSource records how a BP reading entered the system.
type ReadingSource string

// ReadingSource values represent supported ingestion paths.
const (
	SourceManual ReadingSource = "manual"
	SourceCSV    ReadingSource = "csv"
	SourceImage  ReadingSource = "image"
)

// BPReading is a stored blood pressure measurement.
type BPReading struct {
	ID                 uuid.UUID     `json:"id"`
	UserID             uuid.UUID     `json:"-"`
	Systolic           int           `json:"systolic"`
	Diastolic          int           `json:"diastolic"`
	Pulse              *int          `json:"pulse"`
	MeasuredAt         time.Time     `json:"measurement_date"`
	MeasurementTime    *string       `json:"measurement_time"`
	Notes              *string       `json:"notes"`
	Source             ReadingSource `json:"source"`
	SourceFilename     *string       `json:"source_filename,omitempty"`
	Category           bp.Category   `json:"category"`
	IsAbnormal         bool          `json:"is_abnormal"`
	AbnormalityDetails *string       `json:"abnormality_details"`
	CreatedAt          time.Time     `json:"created_at"`
}

// Sample returns the fields of r needed for analysis.
func (r *BPReading) Sample() bp.Sample {
	return bp.Sample{
		ID:         r.ID.String(),
		Systolic:   r.Systolic,
		Diastolic:  r.Diastolic,
		Pulse:      deref(r.Pulse),
		MeasuredAt: r.MeasuredAt,
		IsAbnormal: r.IsAbnormal,
		Category:   r.Category,
	}
}

// Samples converts readings for analysis.
func Samples(readings []BPReading) []bp.Sample {
	out := make([]bp.Sample, len(readings))
	for i := range readings {
		out[i] = readings[i].Sample()
	}

	return out
}

// BPAnalytics is the stored summary for one user and window size.
type BPAnalytics struct {
	ID                   uuid.UUID `json:"id"`
	UserID               uuid.UUID `json:"-"`
	WindowDays           int       `json:"window_days"`
	StartDate            time.Time `json:"start_date"`
	EndDate              time.Time `json:"end_date"`
	AvgSystolic          float64   `json:"avg_systolic"`
	AvgDiastolic         float64   `json:"avg_diastolic"`
	MinSystolic          int       `json:"min_systolic"`
	MaxSystolic          int       `json:"max_systolic"`
	MinDiastolic         int       `json:"min_diastolic"`
	MaxDiastolic         int       `json:"max_diastolic"`
	ReadingCount         int       `json:"reading_count"`
	AbnormalReadingCount int       `json:"abnormal_reading_count"`
	Trend                bp.Trend  `json:"trend"`
	TrendDetails         string    `json:"trend_details"`
	ReportPath           *string   `json:"report_path,omitempty"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Medication is a prescribed medication tracked for a user.
type Medication struct {
	ID        uuid.UUID  `json:"id"`
	UserID    uuid.UUID  `json:"-"`
	Name      string     `json:"name"`
	Dosage    string     `json:"dosage"`
	Frequency string     `json:"frequency"`
	TimeOfDay string     `json:"time_of_day"`
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Notes     *string    `json:"notes"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Channel is the delivery path for a reminder.
type Channel string

// Channel values represent supported reminder transports.
const (
	ChannelSMS      Channel = "sms"
	ChannelWhatsApp Channel = "whatsapp"
)

// Reminder is a scheduled prompt for a medication dose.
type Reminder struct {
	ID               uuid.UUID  `json:"id"`
	MedicationID     uuid.UUID  `json:"medication_id"`
	ReminderTime     time.Time  `json:"reminder_time"`
	PhoneNumber      string     `json:"phone_number"`
	Channel          Channel    `json:"channel"`
	VerificationCode string     `json:"verification_code"`
	IsSent           bool       `json:"is_sent"`
	SentAt           *time.Time `json:"sent_at"`
	ExpiresAt        *time.Time `json:"expires_at"`
	CreatedAt        time.Time  `json:"created_at"`
}

// DueReminder is a reminder joined with what the scheduler needs to send it.
type DueReminder struct {
	Reminder

	MedicationName string
	UserID         uuid.UUID
}

// LogStatus records whether a dose was taken.
type LogStatus string

// LogStatus values represent the outcomes of a reminder.
const (
	LogTaken  LogStatus = "taken"
	LogMissed LogStatus = "missed"
)

// MedicationLog is the outcome recorded for a scheduled dose.
type MedicationLog struct {
	ID            uuid.UUID  `json:"id"`
	MedicationID  uuid.UUID  `json:"medication_id"`
	ReminderID    *uuid.UUID `json:"reminder_id"`
	Status        LogStatus  `json:"status"`
	TakenAt       *time.Time `json:"taken_at"`
	ScheduledTime time.Time  `json:"scheduled_time"`
	Notes         *string    `json:"notes"`
	CreatedAt     time.Time  `json:"created_at"`
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}

	return *v
}
