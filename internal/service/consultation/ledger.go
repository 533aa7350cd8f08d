package consultation

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/consult-api/internal/model"
	"github.com/clinicore/consult-api/internal/repository"
	apperrors "github.com/clinicore/consult-api/pkg/errors"
)

// DiagnosisLedger owns the diagnosis entries of a consultation: codes
// are unique within a record and at most one entry holds the principal
// role. The catalog is only a search source; these rules live here.
type DiagnosisLedger struct {
	consultations repository.ConsultationRepository
	catalog       repository.CatalogRepository
}

func NewDiagnosisLedger(consultations repository.ConsultationRepository, catalog repository.CatalogRepository) *DiagnosisLedger {
	return &DiagnosisLedger{consultations: consultations, catalog: catalog}
}

func (l *DiagnosisLedger) Attach(ctx context.Context, c *model.Consultation, code string, role model.DiagnosisRole) (*model.DiagnosisEntry, error) {
	if c.Status.Terminal() {
		return nil, apperrors.Immutable("consultation can no longer be modified")
	}
	if !role.Valid() {
		return nil, apperrors.Validationf("unknown diagnosis role %q", role)
	}

	catalogCode, err := l.catalog.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("diagnosis code", err)
		}
		return nil, apperrors.Persistence(err)
	}

	entries, err := l.consultations.ListDiagnoses(ctx, c.ID)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	for _, entry := range entries {
		if entry.Code == code {
			return nil, apperrors.Conflictf("diagnosis %s is already attached", code)
		}
		if role == model.DiagnosisRolePrincipal && entry.Role == model.DiagnosisRolePrincipal {
			return nil, apperrors.Conflict("a principal diagnosis is already attached")
		}
	}

	entry := &model.DiagnosisEntry{
		ID:             uuid.New(),
		ConsultationID: c.ID,
		Code:           catalogCode.Code,
		Description:    catalogCode.Description,
		Role:           role,
		AttachedAt:     time.Now(),
	}
	if err := l.consultations.AddDiagnosis(ctx, entry); err != nil {
		// Lost a race with a concurrent attach of the same code.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflictf("diagnosis %s is already attached", code)
		}
		return nil, apperrors.Persistence(err)
	}
	return entry, nil
}

func (l *DiagnosisLedger) Detach(ctx context.Context, c *model.Consultation, code string) error {
	if c.Status.Terminal() {
		return apperrors.Immutable("consultation can no longer be modified")
	}
	if err := l.consultations.RemoveDiagnosis(ctx, c.ID, code); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("diagnosis entry", err)
		}
		return apperrors.Persistence(err)
	}
	return nil
}
