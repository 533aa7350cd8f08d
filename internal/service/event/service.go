package event

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/consult-api/internal/model"
	"github.com/clinicore/consult-api/internal/repository"
)

// Service stores domain events in the transactional outbox. A separate
// worker process drains the outbox and publishes to the broker, so an
// event survives even if the broker is down at commit time.
type Service struct {
	outbox repository.OutboxRepository
}

func NewService(outbox repository.OutboxRepository) *Service {
	return &Service{outbox: outbox}
}

func (s *Service) Emit(ctx context.Context, eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	event := &model.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   data,
		Status:    model.OutboxStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.outbox.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to store outbox event: %w", err)
	}
	return nil
}
