package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/consult-api/internal/model"
)

// All repository interfaces in one file
type (
	// ConsultationRepository owns consultation records and the artifacts
	// attached to them (exam, diagnosis entries).
	ConsultationRepository interface {
		// Create inserts a new draft. A violation of the active
		// per-(patient, day) uniqueness constraint is returned as a
		// *DuplicateActiveConsultationError.
		Create(ctx context.Context, c *model.Consultation) error
		Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error)
		// UpdateStep persists narrative/plan/status changes. The update is
		// conditional on the record not being terminal; zero rows affected
		// means the record was finalized or cancelled concurrently.
		UpdateStep(ctx context.Context, c *model.Consultation) error
		// Finalize is a single conditional update: it transitions to
		// finalized only from a non-terminal state, all-or-nothing.
		Finalize(ctx context.Context, id uuid.UUID, finalizedAt time.Time) error
		Cancel(ctx context.Context, id uuid.UUID, cancelledAt time.Time) error
		CountFinalizedByPatient(ctx context.Context, patientID uuid.UUID) (int, error)
		GetActiveForDay(ctx context.Context, patientID uuid.UUID, day time.Time) (*model.Consultation, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Consultation, error)

		UpsertExam(ctx context.Context, exam *model.PhysicalExam) error
		GetExam(ctx context.Context, consultationID uuid.UUID) (*model.PhysicalExam, error)

		AddDiagnosis(ctx context.Context, entry *model.DiagnosisEntry) error
		RemoveDiagnosis(ctx context.Context, consultationID uuid.UUID, code string) error
		ListDiagnoses(ctx context.Context, consultationID uuid.UUID) ([]*model.DiagnosisEntry, error)
	}

	// VitalSignsRepository is read-only to the consultation core; the
	// vitals-capture collaborator writes snapshots.
	VitalSignsRepository interface {
		Create(ctx context.Context, snapshot *model.VitalSignsSnapshot) error
		Get(ctx context.Context, id uuid.UUID) (*model.VitalSignsSnapshot, error)
		GetForDay(ctx context.Context, patientID uuid.UUID, day time.Time) (*model.VitalSignsSnapshot, error)
		ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.VitalSignsSnapshot, error)
	}

	// HistoryRepository holds the create-once antecedentes record.
	HistoryRepository interface {
		Create(ctx context.Context, record *model.HistoryRecord) error
		GetByPatient(ctx context.Context, patientID uuid.UUID) (*model.HistoryRecord, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error)
	}

	ClinicianRepository interface {
		Create(ctx context.Context, clinician *model.Clinician) error
		Get(ctx context.Context, id uuid.UUID) (*model.Clinician, error)
		GetByEmail(ctx context.Context, email string) (*model.Clinician, error)
		Update(ctx context.Context, clinician *model.Clinician) error
	}

	AppointmentRepository interface {
		Create(ctx context.Context, appointment *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		Update(ctx context.Context, appointment *model.Appointment) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error)
		CheckConflicts(ctx context.Context, clinicianID uuid.UUID, startTime, endTime time.Time, excludeID *uuid.UUID) (bool, error)
	}

	PrescriptionRepository interface {
		Create(ctx context.Context, prescription *model.Prescription) error
		GetByConsultation(ctx context.Context, consultationID uuid.UUID) (*model.Prescription, error)
	}

	// CatalogRepository searches the diagnosis-code catalog. Read-only
	// and idempotent; safe under bursts of duplicate queries.
	CatalogRepository interface {
		Search(ctx context.Context, query string, limit int) ([]*model.CatalogCode, error)
		GetByCode(ctx context.Context, code string) (*model.CatalogCode, error)
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, entityType string, entityID uuid.UUID) ([]*model.AuditLog, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
	}
)
