package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// AuditLog records one actor action against an entity. Every core
// mutation writes one.
type AuditLog struct {
	ID         uuid.UUID       `db:"id" json:"id"`
	ActorID    uuid.UUID       `db:"actor_id" json:"actor_id"`
	Action     string          `db:"action" json:"action"`
	EntityType string          `db:"entity_type" json:"entity_type"`
	EntityID   uuid.UUID       `db:"entity_id" json:"entity_id"`
	Changes    json.RawMessage `db:"changes" json:"changes,omitempty"`
	Metadata   json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	IPAddress  string          `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent  string          `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
}
