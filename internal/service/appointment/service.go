package appointment

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

// Service schedules visits. Overlapping slots for the same clinician
// are rejected.
type Service struct {
	appointments repository.AppointmentRepository
	patients     repository.PatientRepository
	auditor      *audit.Service
}

func NewService(appointments repository.AppointmentRepository, patients repository.PatientRepository, auditor *audit.Service) *Service {
	return &Service{
		appointments: appointments,
		patients:     patients,
		auditor:      auditor,
	}
}

func (s *Service) Create(ctx context.Context, actor model.ClinicianContext, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, apperrors.Validation("appointment end time must be after start time")
	}
	if _, err := s.patients.Get(ctx, req.PatientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, apperrors.Persistence(err)
	}

	conflict, err := s.appointments.CheckConflicts(ctx, req.ClinicianID, req.StartTime, req.EndTime, nil)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	if conflict {
		return nil, apperrors.Conflict("the clinician already has an appointment in this time slot")
	}

	now := time.Now()
	appointment := &model.Appointment{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		ClinicianID: req.ClinicianID,
		PatientID:   req.PatientID,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Status:      model.AppointmentStatusScheduled,
		Notes:       req.Notes,
	}

	if err := s.appointments.Create(ctx, appointment); err != nil {
		return nil, apperrors.Persistence(err)
	}

	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actor.ClinicianID,
		Action:     "appointment.create",
		EntityType: "appointment",
		EntityID:   appointment.ID,
	})
	return appointment, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	appointment, err := s.appointments.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, apperrors.Persistence(err)
	}
	return appointment, nil
}

func (s *Service) Update(ctx context.Context, actor model.ClinicianContext, id uuid.UUID, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	appointment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if appointment.Status == model.AppointmentStatusCancelled || appointment.Status == model.AppointmentStatusCompleted {
		return nil, apperrors.Immutable("appointment can no longer be modified")
	}

	if req.StartTime != nil {
		appointment.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		appointment.EndTime = *req.EndTime
	}
	if !appointment.EndTime.After(appointment.StartTime) {
		return nil, apperrors.Validation("appointment end time must be after start time")
	}
	if req.Status != nil {
		appointment.Status = *req.Status
	}
	if req.Notes != nil {
		appointment.Notes = *req.Notes
	}
	if req.CancelReason != nil {
		appointment.CancelReason = req.CancelReason
	}

	if req.StartTime != nil || req.EndTime != nil {
		conflict, err := s.appointments.CheckConflicts(ctx, appointment.ClinicianID, appointment.StartTime, appointment.EndTime, &appointment.ID)
		if err != nil {
			return nil, apperrors.Persistence(err)
		}
		if conflict {
			return nil, apperrors.Conflict("the clinician already has an appointment in this time slot")
		}
	}

	appointment.UpdatedAt = time.Now()
	if err := s.appointments.Update(ctx, appointment); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, apperrors.Persistence(err)
	}

	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actor.ClinicianID,
		Action:     "appointment.update",
		EntityType: "appointment",
		EntityID:   appointment.ID,
	})
	return appointment, nil
}

func (s *Service) Delete(ctx context.Context, actor model.ClinicianContext, id uuid.UUID) error {
	if err := s.appointments.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("appointment", err)
		}
		return apperrors.Persistence(err)
	}

	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actor.ClinicianID,
		Action:     "appointment.delete",
		EntityType: "appointment",
		EntityID:   id,
	})
	return nil
}

func (s *Service) List(ctx context.Context, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	list, err := s.appointments.List(ctx, filters)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	return list, nil
}
