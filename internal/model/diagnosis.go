package model

import (
	"time"

	"github.com/google/uuid"
)

// DiagnosisRole distinguishes the single principal diagnosis from
// secondary ones.
type DiagnosisRole string

const (
	DiagnosisRolePrincipal DiagnosisRole = "principal"
	DiagnosisRoleSecondary DiagnosisRole = "secondary"
)

func (r DiagnosisRole) Valid() bool {
	return r == DiagnosisRolePrincipal || r == DiagnosisRoleSecondary
}

// DiagnosisEntry is one catalog code attached to a consultation. Codes
// are unique within a consultation.
type DiagnosisEntry struct {
	ID             uuid.UUID     `db:"id" json:"id"`
	ConsultationID uuid.UUID     `db:"consultation_id" json:"consultation_id"`
	Code           string        `db:"code" json:"code"`
	Description    string        `db:"description" json:"description"`
	Role           DiagnosisRole `db:"role" json:"role"`
	AttachedAt     time.Time     `db:"attached_at" json:"attached_at"`
}

type AttachDiagnosisRequest struct {
	Code string        `json:"code" binding:"required"`
	Role DiagnosisRole `json:"role" binding:"required"`
}

// CatalogCode is a candidate from the external diagnosis catalog. The
// catalog is a search source only; uniqueness and role rules are owned
// by the ledger.
type CatalogCode struct {
	Code        string `db:"code" json:"code"`
	Description string `db:"description" json:"description"`
}
