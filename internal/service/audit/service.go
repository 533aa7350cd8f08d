package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/consult-api/internal/model"
	"github.com/clinicore/consult-api/internal/repository"
	"github.com/clinicore/consult-api/pkg/logger"
)

// Service writes the audit trail. Logging failures are reported but
// never fail the operation being audited.
type Service struct {
	repo   repository.AuditRepository
	logger *logger.Logger
}

func NewService(repo repository.AuditRepository, logger *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Entry describes one auditable action.
type Entry struct {
	ActorID    uuid.UUID
	Action     string
	EntityType string
	EntityID   uuid.UUID
	Changes    interface{}
	Metadata   map[string]string
}

func (s *Service) Record(ctx context.Context, entry Entry) {
	log := &model.AuditLog{
		ID:         uuid.New(),
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		CreatedAt:  time.Now(),
	}

	if entry.Changes != nil {
		data, err := json.Marshal(entry.Changes)
		if err != nil {
			s.logger.Error(err, "failed to marshal audit changes")
		} else {
			log.Changes = data
		}
	}
	if len(entry.Metadata) > 0 {
		data, err := json.Marshal(entry.Metadata)
		if err != nil {
			s.logger.Error(err, "failed to marshal audit metadata")
		} else {
			log.Metadata = data
		}
	}

	if err := s.repo.Create(ctx, log); err != nil {
		s.logger.Error(err, "failed to write audit log")
	}
}

func (s *Service) List(ctx context.Context, entityType string, entityID uuid.UUID) ([]*model.AuditLog, error) {
	return s.repo.List(ctx, entityType, entityID)
}
