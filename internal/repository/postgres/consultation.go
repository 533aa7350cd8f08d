package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinicore/consult-api/internal/model"
	"github.com/clinicore/consult-api/internal/repository"
)

const activeConsultationConstraint = "consultations_patient_day_active_idx"

type consultationRepository struct {
	BaseRepository
}

func NewConsultationRepository(db *sqlx.DB) repository.ConsultationRepository {
	return &consultationRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *consultationRepository) Create(ctx context.Context, c *model.Consultation) error {
	query := `
		INSERT INTO consultations (
			id, patient_id, vital_signs_id, clinician_id, consult_type,
			status, narrative, work_plan, started_on, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	c.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.PatientID,
		c.VitalSignsID,
		c.ClinicianID,
		c.ConsultType,
		c.Status,
		c.Narrative,
		c.WorkPlan,
		c.StartedOn,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, activeConsultationConstraint) {
			existing, lookupErr := r.GetActiveForDay(ctx, c.PatientID, c.StartedOn)
			if lookupErr != nil {
				return fmt.Errorf("duplicate active consultation, lookup of existing draft failed: %w", lookupErr)
			}
			return &repository.DuplicateActiveConsultationError{ExistingID: existing.ID}
		}
		return fmt.Errorf("failed to create consultation: %w", err)
	}
	return nil
}

func (r *consultationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	query := `
		SELECT id, patient_id, vital_signs_id, clinician_id, consult_type,
			   status, narrative, work_plan, started_on, finalized_at,
			   cancelled_at, created_at, updated_at
		FROM consultations
		WHERE id = $1
	`
	var c model.Consultation
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		return nil, mapNotFound(err)
	}
	return &c, nil
}

func (r *consultationRepository) UpdateStep(ctx context.Context, c *model.Consultation) error {
	query := `
		UPDATE consultations
		SET narrative = $1, work_plan = $2, status = $3, updated_at = $4
		WHERE id = $5 AND status NOT IN ('finalized', 'cancelled')
	`
	c.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		c.Narrative,
		c.WorkPlan,
		c.Status,
		c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update consultation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotUpdatable
	}
	return nil
}

func (r *consultationRepository) Finalize(ctx context.Context, id uuid.UUID, finalizedAt time.Time) error {
	query := `
		UPDATE consultations
		SET status = 'finalized', finalized_at = $1, updated_at = $1
		WHERE id = $2 AND status NOT IN ('finalized', 'cancelled')
	`
	result, err := r.db.ExecContext(ctx, query, finalizedAt, id)
	if err != nil {
		return fmt.Errorf("failed to finalize consultation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotUpdatable
	}
	return nil
}

func (r *consultationRepository) Cancel(ctx context.Context, id uuid.UUID, cancelledAt time.Time) error {
	query := `
		UPDATE consultations
		SET status = 'cancelled', cancelled_at = $1, updated_at = $1
		WHERE id = $2 AND status NOT IN ('finalized', 'cancelled')
	`
	result, err := r.db.ExecContext(ctx, query, cancelledAt, id)
	if err != nil {
		return fmt.Errorf("failed to cancel consultation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotUpdatable
	}
	return nil
}

func (r *consultationRepository) CountFinalizedByPatient(ctx context.Context, patientID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM consultations
		WHERE patient_id = $1 AND status = 'finalized'
	`
	var count int
	if err := r.db.GetContext(ctx, &count, query, patientID); err != nil {
		return 0, fmt.Errorf("failed to count finalized consultations: %w", err)
	}
	return count, nil
}

func (r *consultationRepository) GetActiveForDay(ctx context.Context, patientID uuid.UUID, day time.Time) (*model.Consultation, error) {
	query := `
		SELECT id, patient_id, vital_signs_id, clinician_id, consult_type,
			   status, narrative, work_plan, started_on, finalized_at,
			   cancelled_at, created_at, updated_at
		FROM consultations
		WHERE patient_id = $1
		  AND started_on = $2
		  AND status NOT IN ('finalized', 'cancelled')
	`
	var c model.Consultation
	if err := r.db.GetContext(ctx, &c, query, patientID, day); err != nil {
		return nil, mapNotFound(err)
	}
	return &c, nil
}

func (r *consultationRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Consultation, error) {
	query := `
		SELECT id, patient_id, vital_signs_id, clinician_id, consult_type,
			   status, narrative, work_plan, started_on, finalized_at,
			   cancelled_at, created_at, updated_at
		FROM consultations
		WHERE patient_id = $1
		ORDER BY started_on DESC, created_at DESC
	`
	var consultations []*model.Consultation
	if err := r.db.SelectContext(ctx, &consultations, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list consultations: %w", err)
	}
	return consultations, nil
}

func (r *consultationRepository) UpsertExam(ctx context.Context, exam *model.PhysicalExam) error {
	query := `
		INSERT INTO consultation_exams (
			consultation_id, variant, general, head, thorax, abdomen,
			extremities, neurological, narrative, observations,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		ON CONFLICT (consultation_id) DO UPDATE SET
			general = EXCLUDED.general,
			head = EXCLUDED.head,
			thorax = EXCLUDED.thorax,
			abdomen = EXCLUDED.abdomen,
			extremities = EXCLUDED.extremities,
			neurological = EXCLUDED.neurological,
			narrative = EXCLUDED.narrative,
			observations = EXCLUDED.observations,
			updated_at = EXCLUDED.updated_at
		WHERE consultation_exams.variant = EXCLUDED.variant
	`
	now := time.Now()
	exam.UpdatedAt = now
	if exam.CreatedAt.IsZero() {
		exam.CreatedAt = now
	}

	result, err := r.db.ExecContext(ctx, query,
		exam.ConsultationID,
		exam.Variant,
		exam.General,
		exam.Head,
		exam.Thorax,
		exam.Abdomen,
		exam.Extremities,
		exam.Neurological,
		exam.Narrative,
		exam.Observations,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to save exam: %w", err)
	}

	// A zero-row upsert means an exam of the other variant already
	// exists; the variant is fixed at creation.
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotUpdatable
	}
	return nil
}

func (r *consultationRepository) GetExam(ctx context.Context, consultationID uuid.UUID) (*model.PhysicalExam, error) {
	query := `
		SELECT consultation_id, variant, general, head, thorax, abdomen,
			   extremities, neurological, narrative, observations,
			   created_at, updated_at
		FROM consultation_exams
		WHERE consultation_id = $1
	`
	var exam model.PhysicalExam
	if err := r.db.GetContext(ctx, &exam, query, consultationID); err != nil {
		return nil, mapNotFound(err)
	}
	return &exam, nil
}

func (r *consultationRepository) AddDiagnosis(ctx context.Context, entry *model.DiagnosisEntry) error {
	query := `
		INSERT INTO consultation_diagnoses (
			id, consultation_id, code, description, role, attached_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	entry.ID = uuid.New()
	entry.AttachedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.ConsultationID,
		entry.Code,
		entry.Description,
		entry.Role,
		entry.AttachedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to add diagnosis: %w", err)
	}
	return nil
}

func (r *consultationRepository) RemoveDiagnosis(ctx context.Context, consultationID uuid.UUID, code string) error {
	query := `
		DELETE FROM consultation_diagnoses
		WHERE consultation_id = $1 AND code = $2
	`
	result, err := r.db.ExecContext(ctx, query, consultationID, code)
	if err != nil {
		return fmt.Errorf("failed to remove diagnosis: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *consultationRepository) ListDiagnoses(ctx context.Context, consultationID uuid.UUID) ([]*model.DiagnosisEntry, error) {
	query := `
		SELECT id, consultation_id, code, description, role, attached_at
		FROM consultation_diagnoses
		WHERE consultation_id = $1
		ORDER BY attached_at ASC
	`
	var entries []*model.DiagnosisEntry
	if err := r.db.SelectContext(ctx, &entries, query, consultationID); err != nil {
		return nil, fmt.Errorf("failed to list diagnoses: %w", err)
	}
	return entries, nil
}
