package model

import (
	"time"

	"github.com/google/uuid"
)

// ConsultType classifies a visit. It is fixed when the session is
// created and never re-evaluated for the record's lifetime.
type ConsultType string

const (
	ConsultTypeFirst    ConsultType = "first"
	ConsultTypeFollowUp ConsultType = "followup"
)

// ConsultationStatus is the lifecycle state of a consultation record.
// It only moves forward; cancelled is reachable from any non-finalized
// state and finalized is terminal.
type ConsultationStatus string

const (
	ConsultationStatusDraft          ConsultationStatus = "draft"
	ConsultationStatusNarrativeSaved ConsultationStatus = "narrative_saved"
	ConsultationStatusExamSaved      ConsultationStatus = "exam_saved"
	ConsultationStatusDiagnosed      ConsultationStatus = "diagnosed"
	ConsultationStatusPlanSaved      ConsultationStatus = "plan_saved"
	ConsultationStatusFinalized      ConsultationStatus = "finalized"
	ConsultationStatusCancelled      ConsultationStatus = "cancelled"
)

var statusRank = map[ConsultationStatus]int{
	ConsultationStatusDraft:          0,
	ConsultationStatusNarrativeSaved: 1,
	ConsultationStatusExamSaved:      2,
	ConsultationStatusDiagnosed:      3,
	ConsultationStatusPlanSaved:      4,
	ConsultationStatusFinalized:      5,
}

// Advance returns the further of the two statuses. Progress is recorded
// monotonically: saving an earlier step never moves the status back.
func (s ConsultationStatus) Advance(to ConsultationStatus) ConsultationStatus {
	if statusRank[to] > statusRank[s] {
		return to
	}
	return s
}

// Terminal reports whether no further mutation is possible.
func (s ConsultationStatus) Terminal() bool {
	return s == ConsultationStatusFinalized || s == ConsultationStatusCancelled
}

// Consultation is one documented patient visit, from vitals capture to
// finalization. Mutated only through session operations; immutable once
// finalized.
type Consultation struct {
	Base
	PatientID    uuid.UUID          `db:"patient_id" json:"patient_id"`
	VitalSignsID uuid.UUID          `db:"vital_signs_id" json:"vital_signs_id"`
	ClinicianID  uuid.UUID          `db:"clinician_id" json:"clinician_id"`
	ConsultType  ConsultType        `db:"consult_type" json:"consult_type"`
	Status       ConsultationStatus `db:"status" json:"status"`
	Narrative    string             `db:"narrative" json:"narrative,omitempty"`
	WorkPlan     string             `db:"work_plan" json:"work_plan,omitempty"`
	StartedOn    time.Time          `db:"started_on" json:"started_on"`
	FinalizedAt  *time.Time         `db:"finalized_at" json:"finalized_at,omitempty"`
	CancelledAt  *time.Time         `db:"cancelled_at" json:"cancelled_at,omitempty"`
}

type StartConsultationRequest struct {
	PatientID uuid.UUID `json:"patient_id" binding:"required"`
}

type StartConsultationResponse struct {
	ConsultationID uuid.UUID   `json:"consultation_id"`
	ConsultType    ConsultType `json:"consult_type"`
	VitalSignsID   uuid.UUID   `json:"vital_signs_id"`
}

type SaveNarrativeRequest struct {
	Text string `json:"text" binding:"required"`
}

type SavePlanRequest struct {
	Text string `json:"text" binding:"required"`
}

type FinalizeResponse struct {
	FinalizedAt time.Time `json:"finalized_at"`
}

// ConsultationDetail is the full record as served to clients: the
// consultation with its exam and diagnosis entries.
type ConsultationDetail struct {
	Consultation
	Exam      *PhysicalExam     `json:"exam,omitempty"`
	Diagnoses []*DiagnosisEntry `json:"diagnoses"`
}
