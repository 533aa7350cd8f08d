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

type vitalSignsRepository struct {
	BaseRepository
}

func NewVitalSignsRepository(db *sqlx.DB) repository.VitalSignsRepository {
	return &vitalSignsRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *vitalSignsRepository) Create(ctx context.Context, s *model.VitalSignsSnapshot) error {
	query := `
		INSERT INTO vital_signs (
			id, patient_id, systolic, diastolic, pulse, pulse_rhythm,
			o2_sat, resp_rate, weight_kg, height_cm, bmi, temperature,
			captured_on, captured_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (patient_id, captured_on) DO UPDATE SET
			systolic = EXCLUDED.systolic,
			diastolic = EXCLUDED.diastolic,
			pulse = EXCLUDED.pulse,
			pulse_rhythm = EXCLUDED.pulse_rhythm,
			o2_sat = EXCLUDED.o2_sat,
			resp_rate = EXCLUDED.resp_rate,
			weight_kg = EXCLUDED.weight_kg,
			height_cm = EXCLUDED.height_cm,
			bmi = EXCLUDED.bmi,
			temperature = EXCLUDED.temperature,
			captured_at = EXCLUDED.captured_at
	`
	s.ID = uuid.New()
	s.CapturedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		s.ID,
		s.PatientID,
		s.Systolic,
		s.Diastolic,
		s.Pulse,
		s.PulseRhythm,
		s.O2Sat,
		s.RespRate,
		s.WeightKg,
		s.HeightCm,
		s.BMI,
		s.Temperature,
		s.CapturedOn,
		s.CapturedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record vital signs: %w", err)
	}
	return nil
}

func (r *vitalSignsRepository) Get(ctx context.Context, id uuid.UUID) (*model.VitalSignsSnapshot, error) {
	query := `
		SELECT id, patient_id, systolic, diastolic, pulse, pulse_rhythm,
			   o2_sat, resp_rate, weight_kg, height_cm, bmi, temperature,
			   captured_on, captured_at
		FROM vital_signs
		WHERE id = $1
	`
	var s model.VitalSignsSnapshot
	if err := r.db.GetContext(ctx, &s, query, id); err != nil {
		return nil, mapNotFound(err)
	}
	return &s, nil
}

func (r *vitalSignsRepository) GetForDay(ctx context.Context, patientID uuid.UUID, day time.Time) (*model.VitalSignsSnapshot, error) {
	query := `
		SELECT id, patient_id, systolic, diastolic, pulse, pulse_rhythm,
			   o2_sat, resp_rate, weight_kg, height_cm, bmi, temperature,
			   captured_on, captured_at
		FROM vital_signs
		WHERE patient_id = $1 AND captured_on = $2
	`
	var s model.VitalSignsSnapshot
	if err := r.db.GetContext(ctx, &s, query, patientID, day); err != nil {
		return nil, mapNotFound(err)
	}
	return &s, nil
}

func (r *vitalSignsRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.VitalSignsSnapshot, error) {
	query := `
		SELECT id, patient_id, systolic, diastolic, pulse, pulse_rhythm,
			   o2_sat, resp_rate, weight_kg, height_cm, bmi, temperature,
			   captured_on, captured_at
		FROM vital_signs
		WHERE patient_id = $1
		ORDER BY captured_on DESC
	`
	var snapshots []*model.VitalSignsSnapshot
	if err := r.db.SelectContext(ctx, &snapshots, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list vital signs: %w", err)
	}
	return snapshots, nil
}
