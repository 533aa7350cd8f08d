package model

import (
	"time"

	"github.com/google/uuid"
)

// VitalSignsSnapshot is one capture of a patient's vital signs. Exactly
// one current snapshot exists per patient per calendar day; the
// consultation gate checks for the snapshot of the visit day.
type VitalSignsSnapshot struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	Systolic    int       `db:"systolic" json:"systolic"`
	Diastolic   int       `db:"diastolic" json:"diastolic"`
	Pulse       int       `db:"pulse" json:"pulse"`
	PulseRhythm string    `db:"pulse_rhythm" json:"pulse_rhythm,omitempty"`
	O2Sat       int       `db:"o2_sat" json:"o2_sat"`
	RespRate    int       `db:"resp_rate" json:"resp_rate"`
	WeightKg    float64   `db:"weight_kg" json:"weight_kg"`
	HeightCm    float64   `db:"height_cm" json:"height_cm"`
	BMI         float64   `db:"bmi" json:"bmi"`
	Temperature float64   `db:"temperature" json:"temperature"`
	CapturedOn  time.Time `db:"captured_on" json:"captured_on"`
	CapturedAt  time.Time `db:"captured_at" json:"captured_at"`
}

// RecordVitalsRequest carries one capture. The validate tags bound the
// values to physiologically plausible ranges.
type RecordVitalsRequest struct {
	Systolic    int     `json:"systolic" binding:"required" validate:"min=40,max=300"`
	Diastolic   int     `json:"diastolic" binding:"required" validate:"min=20,max=200"`
	Pulse       int     `json:"pulse" binding:"required" validate:"min=20,max=300"`
	PulseRhythm string  `json:"pulse_rhythm" validate:"omitempty,oneof=regular irregular"`
	O2Sat       int     `json:"o2_sat" binding:"required" validate:"min=50,max=100"`
	RespRate    int     `json:"resp_rate" binding:"required" validate:"min=5,max=90"`
	WeightKg    float64 `json:"weight_kg" binding:"required" validate:"gt=0,lt=500"`
	HeightCm    float64 `json:"height_cm" binding:"required" validate:"gt=0,lt=280"`
	Temperature float64 `json:"temperature" binding:"required" validate:"min=25,max=45"`
}
