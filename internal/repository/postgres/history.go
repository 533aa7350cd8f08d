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

type historyRepository struct {
	BaseRepository
}

func NewHistoryRepository(db *sqlx.DB) repository.HistoryRepository {
	return &historyRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *historyRepository) Create(ctx context.Context, record *model.HistoryRecord) error {
	query := `
		INSERT INTO medical_histories (
			patient_id, risk_factors, cardio_history, pathological_history,
			current_illness, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	record.CreatedAt = time.Now()
	record.UpdatedAt = record.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		record.PatientID,
		record.RiskFactors,
		record.CardioHistory,
		record.PathologicalHistory,
		record.CurrentIllness,
		record.CreatedBy,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create history record: %w", err)
	}
	return nil
}

func (r *historyRepository) GetByPatient(ctx context.Context, patientID uuid.UUID) (*model.HistoryRecord, error) {
	query := `
		SELECT patient_id, risk_factors, cardio_history, pathological_history,
			   current_illness, created_by, created_at, updated_at
		FROM medical_histories
		WHERE patient_id = $1
	`
	var record model.HistoryRecord
	if err := r.db.GetContext(ctx, &record, query, patientID); err != nil {
		return nil, mapNotFound(err)
	}
	return &record, nil
}
