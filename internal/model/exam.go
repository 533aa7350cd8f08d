package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamVariant is the shape of a physical exam. The variant is fixed by
// the consultation's type at build time and cannot change afterwards.
type ExamVariant string

const (
	ExamVariantDetailed   ExamVariant = "detailed"
	ExamVariantSimplified ExamVariant = "simplified"
)

// PhysicalExam is the exam artifact attached to a consultation.
// Detailed variants fill the section fields, simplified variants fill
// Narrative. Exactly one exam exists per consultation.
type PhysicalExam struct {
	ConsultationID uuid.UUID   `db:"consultation_id" json:"consultation_id"`
	Variant        ExamVariant `db:"variant" json:"variant"`
	General        string      `db:"general" json:"general,omitempty"`
	Head           string      `db:"head" json:"head,omitempty"`
	Thorax         string      `db:"thorax" json:"thorax,omitempty"`
	Abdomen        string      `db:"abdomen" json:"abdomen,omitempty"`
	Extremities    string      `db:"extremities" json:"extremities,omitempty"`
	Neurological   string      `db:"neurological" json:"neurological,omitempty"`
	Narrative      string      `db:"narrative" json:"narrative,omitempty"`
	Observations   string      `db:"observations" json:"observations,omitempty"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

// DetailedExamFields is the request payload for a first-consultation exam.
type DetailedExamFields struct {
	General      string `json:"general"`
	Head         string `json:"head"`
	Thorax       string `json:"thorax"`
	Abdomen      string `json:"abdomen"`
	Extremities  string `json:"extremities"`
	Neurological string `json:"neurological"`
	Observations string `json:"observations"`
}

// SimplifiedExamFields is the request payload for a follow-up exam.
type SimplifiedExamFields struct {
	Narrative    string `json:"narrative"`
	Observations string `json:"observations"`
}

// SaveExamRequest carries exactly one variant. Submitting the variant
// that does not match the consultation's type is rejected, never
// coerced.
type SaveExamRequest struct {
	Detailed   *DetailedExamFields   `json:"detailed,omitempty"`
	Simplified *SimplifiedExamFields `json:"simplified,omitempty"`
}
