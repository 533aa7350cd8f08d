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

type prescriptionRepository struct {
	BaseRepository
}

func NewPrescriptionRepository(db *sqlx.DB) repository.PrescriptionRepository {
	return &prescriptionRepository{BaseRepository: NewBaseRepository(db)}
}

// Create inserts the prescription and its medication lines in one
// transaction.
func (r *prescriptionRepository) Create(ctx context.Context, p *model.Prescription) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO prescriptions (id, consultation_id, created_by, created_at)
			VALUES ($1, $2, $3, $4)
		`
		if _, err := tx.ExecContext(ctx, query, p.ID, p.ConsultationID, p.CreatedBy, p.CreatedAt); err != nil {
			if isUniqueViolation(err, "") {
				return repository.ErrDuplicate
			}
			return fmt.Errorf("failed to create prescription: %w", err)
		}

		itemQuery := `
			INSERT INTO prescription_items (
				id, prescription_id, medication, dosage, frequency, duration, notes
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		for i := range p.Items {
			item := &p.Items[i]
			item.ID = uuid.New()
			item.PrescriptionID = p.ID
			if _, err := tx.ExecContext(ctx, itemQuery,
				item.ID,
				item.PrescriptionID,
				item.Medication,
				item.Dosage,
				item.Frequency,
				item.Duration,
				item.Notes,
			); err != nil {
				return fmt.Errorf("failed to create prescription item: %w", err)
			}
		}
		return nil
	})
}

func (r *prescriptionRepository) GetByConsultation(ctx context.Context, consultationID uuid.UUID) (*model.Prescription, error) {
	query := `
		SELECT id, consultation_id, created_by, created_at
		FROM prescriptions
		WHERE consultation_id = $1
	`
	var p model.Prescription
	if err := r.db.GetContext(ctx, &p, query, consultationID); err != nil {
		return nil, mapNotFound(err)
	}

	itemQuery := `
		SELECT id, prescription_id, medication, dosage, frequency, duration, notes
		FROM prescription_items
		WHERE prescription_id = $1
	`
	if err := r.db.SelectContext(ctx, &p.Items, itemQuery, p.ID); err != nil {
		return nil, fmt.Errorf("failed to load prescription items: %w", err)
	}
	return &p, nil
}
