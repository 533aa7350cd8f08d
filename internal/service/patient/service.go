package patient

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/consult-api/internal/model"
	"github.com/clinicore/consult-api/internal/repository"
	"github.com/clinicore/consult-api/internal/service/audit"
	apperrors "github.com/clinicore/consult-api/pkg/errors"
)

// Service manages the patient registry.
type Service struct {
	patients repository.PatientRepository
	auditor  *audit.Service
}

func NewService(patients repository.PatientRepository, auditor *audit.Service) *Service {
	return &Service{patients: patients, auditor: auditor}
}

func (s *Service) Create(ctx context.Context, actor model.ClinicianContext, req *model.CreatePatientRequest) (*model.Patient, error) {
	now := time.Now()
	patient := &model.Patient{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Name:        req.Name,
		DocumentID:  req.DocumentID,
		Email:       req.Email,
		Phone:       req.Phone,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
		Address:     req.Address,
		Status:      string(model.PatientStatusActive),
	}

	if err := s.patients.Create(ctx, patient); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflictf("a patient with document %s already exists", req.DocumentID)
		}
		return nil, apperrors.Persistence(err)
	}

	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actor.ClinicianID,
		Action:     "patient.create",
		EntityType: "patient",
		EntityID:   patient.ID,
	})
	return patient, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	patient, err := s.patients.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, apperrors.Persistence(err)
	}
	return patient, nil
}

func (s *Service) Update(ctx context.Context, actor model.ClinicianContext, id uuid.UUID, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		patient.Name = *req.Name
	}
	if req.Email != nil {
		patient.Email = *req.Email
	}
	if req.Phone != nil {
		patient.Phone = *req.Phone
	}
	if req.DateOfBirth != nil {
		patient.DateOfBirth = req.DateOfBirth
	}
	if req.Gender != nil {
		patient.Gender = *req.Gender
	}
	if req.Address != nil {
		patient.Address = *req.Address
	}
	if req.Status != nil {
		patient.Status = *req.Status
	}
	patient.UpdatedAt = time.Now()

	if err := s.patients.Update(ctx, patient); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, apperrors.Persistence(err)
	}

	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actor.ClinicianID,
		Action:     "patient.update",
		EntityType: "patient",
		EntityID:   patient.ID,
	})
	return patient, nil
}

func (s *Service) Delete(ctx context.Context, actor model.ClinicianContext, id uuid.UUID) error {
	if err := s.patients.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("patient", err)
		}
		return apperrors.Persistence(err)
	}

	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actor.ClinicianID,
		Action:     "patient.delete",
		EntityType: "patient",
		EntityID:   id,
	})
	return nil
}

func (s *Service) List(ctx context.Context, filters *model.PatientFilters) ([]*model.Patient, error) {
	list, err := s.patients.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	return list, nil
}
