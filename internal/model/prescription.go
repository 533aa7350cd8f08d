package model

import (
	"time"

	"github.com/google/uuid"
)

// Prescription is an optional post-finalization artifact: zero or one
// per consultation, never required for finalization itself.
type Prescription struct {
	ID             uuid.UUID          `db:"id" json:"id"`
	ConsultationID uuid.UUID          `db:"consultation_id" json:"consultation_id"`
	CreatedBy      uuid.UUID          `db:"created_by" json:"created_by"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
	Items          []PrescriptionItem `json:"items"`
}

// PrescriptionItem is one medication line.
type PrescriptionItem struct {
	ID             uuid.UUID `db:"id" json:"id"`
	PrescriptionID uuid.UUID `db:"prescription_id" json:"prescription_id"`
	Medication     string    `db:"medication" json:"medication"`
	Dosage         string    `db:"dosage" json:"dosage"`
	Frequency      string    `db:"frequency" json:"frequency"`
	Duration       string    `db:"duration" json:"duration"`
	Notes          string    `db:"notes" json:"notes,omitempty"`
}

type CreatePrescriptionRequest struct {
	Items []PrescriptionItemRequest `json:"items" binding:"required,min=1,dive"`
}

type PrescriptionItemRequest struct {
	Medication string `json:"medication" binding:"required"`
	Dosage     string `json:"dosage" binding:"required"`
	Frequency  string `json:"frequency" binding:"required"`
	Duration   string `json:"duration"`
	Notes      string `json:"notes"`
}
