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

type clinicianRepository struct {
	BaseRepository
}

func NewClinicianRepository(db *sqlx.DB) repository.ClinicianRepository {
	return &clinicianRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *clinicianRepository) Create(ctx context.Context, clinician *model.Clinician) error {
	query := `
		INSERT INTO clinicians (
			id, name, email, password_hash, specialty, license_no,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	clinician.ID = uuid.New()
	clinician.CreatedAt = time.Now()
	clinician.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		clinician.ID,
		clinician.Name,
		clinician.Email,
		clinician.PasswordHash,
		clinician.Specialty,
		clinician.LicenseNo,
		clinician.Status,
		clinician.CreatedAt,
		clinician.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("failed to create clinician: %w", err)
	}
	return nil
}

func (r *clinicianRepository) Get(ctx context.Context, id uuid.UUID) (*model.Clinician, error) {
	query := `
		SELECT id, name, email, password_hash, specialty, license_no,
			   status, last_login_at, created_at, updated_at
		FROM clinicians
		WHERE id = $1
	`
	var clinician model.Clinician
	if err := r.db.GetContext(ctx, &clinician, query, id); err != nil {
		return nil, mapNotFound(err)
	}
	return &clinician, nil
}

func (r *clinicianRepository) GetByEmail(ctx context.Context, email string) (*model.Clinician, error) {
	query := `
		SELECT id, name, email, password_hash, specialty, license_no,
			   status, last_login_at, created_at, updated_at
		FROM clinicians
		WHERE email = $1
	`
	var clinician model.Clinician
	if err := r.db.GetContext(ctx, &clinician, query, email); err != nil {
		return nil, mapNotFound(err)
	}
	return &clinician, nil
}

func (r *clinicianRepository) Update(ctx context.Context, clinician *model.Clinician) error {
	query := `
		UPDATE clinicians
		SET name = $1, email = $2, password_hash = $3, specialty = $4,
			license_no = $5, status = $6, last_login_at = $7, updated_at = $8
		WHERE id = $9
	`
	clinician.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		clinician.Name,
		clinician.Email,
		clinician.PasswordHash,
		clinician.Specialty,
		clinician.LicenseNo,
		clinician.Status,
		clinician.LastLoginAt,
		clinician.UpdatedAt,
		clinician.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update clinician: %w", err)
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
