package prescription

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/clinicore/consult-api/internal/model"
	"github.com/clinicore/consult-api/internal/repository"
	"github.com/clinicore/consult-api/internal/service/audit"
	apperrors "github.com/clinicore/consult-api/pkg/errors"
)

// Service issues prescriptions. A prescription attaches only to a
// finalized consultation and each consultation carries at most one.
type Service struct {
	prescriptions repository.PrescriptionRepository
	consultations repository.ConsultationRepository
	auditor       *audit.Service
}

func NewService(prescriptions repository.PrescriptionRepository, consultations repository.ConsultationRepository, auditor *audit.Service) *Service {
	return &Service{
		prescriptions: prescriptions,
		consultations: consultations,
		auditor:       auditor,
	}
}

func (s *Service) Create(ctx context.Context, actor model.ClinicianContext, consultationID uuid.UUID, req *model.CreatePrescriptionRequest) (*model.Prescription, error) {
	c, err := s.consultations.Get(ctx, consultationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("consultation", err)
		}
		return nil, apperrors.Persistence(err)
	}
	if c.Status != model.ConsultationStatusFinalized {
		return nil, apperrors.Validation("a prescription can only be issued for a finalized consultation")
	}

	p := &model.Prescription{
		ConsultationID: consultationID,
		CreatedBy:      actor.ClinicianID,
	}
	for _, item := range req.Items {
		p.Items = append(p.Items, model.PrescriptionItem{
			Medication: item.Medication,
			Dosage:     item.Dosage,
			Frequency:  item.Frequency,
			Duration:   item.Duration,
			Notes:      item.Notes,
		})
	}

	if err := s.prescriptions.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("a prescription already exists for this consultation")
		}
		return nil, apperrors.Persistence(err)
	}

	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actor.ClinicianID,
		Action:     "prescription.create",
		EntityType: "prescription",
		EntityID:   p.ID,
		Changes:    map[string]interface{}{"consultation_id": consultationID, "items": len(p.Items)},
	})
	return p, nil
}

func (s *Service) GetByConsultation(ctx context.Context, consultationID uuid.UUID) (*model.Prescription, error) {
	p, err := s.prescriptions.GetByConsultation(ctx, consultationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("prescription", err)
		}
		return nil, apperrors.Persistence(err)
	}
	return p, nil
}
