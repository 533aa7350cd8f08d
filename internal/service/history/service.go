package history

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

// Service manages the create-once medical history record.
type Service struct {
	histories repository.HistoryRepository
	patients  repository.PatientRepository
	auditor   *audit.Service
}

func NewService(histories repository.HistoryRepository, patients repository.PatientRepository, auditor *audit.Service) *Service {
	return &Service{histories: histories, patients: patients, auditor: auditor}
}

func (s *Service) Create(ctx context.Context, actor model.ClinicianContext, patientID uuid.UUID, req *model.CreateHistoryRequest) (*model.HistoryRecord, error) {
	if _, err := s.patients.Get(ctx, patientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, apperrors.Persistence(err)
	}

	now := time.Now()
	record := &model.HistoryRecord{
		PatientID:           patientID,
		RiskFactors:         req.RiskFactors,
		CardioHistory:       req.CardioHistory,
		PathologicalHistory: req.PathologicalHistory,
		CurrentIllness:      req.CurrentIllness,
		CreatedBy:           actor.ClinicianID,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.histories.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("a medical history record already exists for this patient")
		}
		return nil, apperrors.Persistence(err)
	}

	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actor.ClinicianID,
		Action:     "history.create",
		EntityType: "medical_history",
		EntityID:   patientID,
	})
	return record, nil
}

func (s *Service) GetByPatient(ctx context.Context, patientID uuid.UUID) (*model.HistoryRecord, error) {
	record, err := s.histories.GetByPatient(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("medical history", err)
		}
		return nil, apperrors.Persistence(err)
	}
	return record, nil
}
