package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/clinicore/consult-api/internal/model"
	"github.com/clinicore/consult-api/internal/repository"
)

type auditRepository struct {
	BaseRepository
}

func NewAuditRepository(db *sqlx.DB) repository.AuditRepository {
	return &auditRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *auditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	query := `
		INSERT INTO audit_logs (
			id, actor_id, action, entity_type, entity_id,
			changes, metadata, ip_address, user_agent, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.ActorID,
		log.Action,
		log.EntityType,
		log.EntityID,
		log.Changes,
		log.Metadata,
		log.IPAddress,
		log.UserAgent,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}

func (r *auditRepository) List(ctx context.Context, entityType string, entityID uuid.UUID) ([]*model.AuditLog, error) {
	query := `
		SELECT id, actor_id, action, entity_type, entity_id,
			   changes, metadata, ip_address, user_agent, created_at
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
	`
	var logs []*model.AuditLog
	if err := r.db.SelectContext(ctx, &logs, query, entityType, entityID); err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}
