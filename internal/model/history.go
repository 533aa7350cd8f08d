package model

import (
	"time"

	"github.com/google/uuid"
)

// HistoryRecord is the patient's structured past-medical-history
// ("antecedentes"). Created once per patient, typically at the first
// consultation, and referenced by later consultations.
type HistoryRecord struct {
	PatientID           uuid.UUID `db:"patient_id" json:"patient_id"`
	RiskFactors         string    `db:"risk_factors" json:"risk_factors,omitempty"`
	CardioHistory       string    `db:"cardio_history" json:"cardio_history,omitempty"`
	PathologicalHistory string    `db:"pathological_history" json:"pathological_history,omitempty"`
	CurrentIllness      string    `db:"current_illness" json:"current_illness,omitempty"`
	CreatedBy           uuid.UUID `db:"created_by" json:"created_by"`
	CreatedAt           time.Time `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time `db:"updated_at" json:"updated_at"`
}

type CreateHistoryRequest struct {
	RiskFactors         string `json:"risk_factors"`
	CardioHistory       string `json:"cardio_history"`
	PathologicalHistory string `json:"pathological_history"`
	CurrentIllness      string `json:"current_illness" binding:"required"`
}
