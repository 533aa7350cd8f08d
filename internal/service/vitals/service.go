package vitals

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/consult-api/internal/model"
	"github.com/clinicore/consult-api/internal/repository"
	"github.com/clinicore/consult-api/internal/service/audit"
	apperrors "github.com/clinicore/consult-api/pkg/errors"
	"github.com/clinicore/consult-api/pkg/validator"
)

// Service captures vital-signs snapshots. One snapshot is current per
// patient per day; capturing again on the same day replaces it.
type Service struct {
	vitals   repository.VitalSignsRepository
	patients repository.PatientRepository
	auditor  *audit.Service
	validate *validator.Validator
}

func NewService(vitals repository.VitalSignsRepository, patients repository.PatientRepository, auditor *audit.Service) *Service {
	return &Service{
		vitals:   vitals,
		patients: patients,
		auditor:  auditor,
		validate: validator.New(),
	}
}

func (s *Service) Record(ctx context.Context, actor model.ClinicianContext, patientID uuid.UUID, req *model.RecordVitalsRequest) (*model.VitalSignsSnapshot, error) {
	if _, err := s.patients.Get(ctx, patientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, apperrors.Persistence(err)
	}
	if err := s.validate.Validate(req); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	now := time.Now()
	snapshot := &model.VitalSignsSnapshot{
		ID:          uuid.New(),
		PatientID:   patientID,
		Systolic:    req.Systolic,
		Diastolic:   req.Diastolic,
		Pulse:       req.Pulse,
		PulseRhythm: req.PulseRhythm,
		O2Sat:       req.O2Sat,
		RespRate:    req.RespRate,
		WeightKg:    req.WeightKg,
		HeightCm:    req.HeightCm,
		BMI:         computeBMI(req.WeightKg, req.HeightCm),
		Temperature: req.Temperature,
		CapturedOn:  time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
		CapturedAt:  now,
	}

	if err := s.vitals.Create(ctx, snapshot); err != nil {
		return nil, apperrors.Persistence(err)
	}

	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actor.ClinicianID,
		Action:     "vitals.record",
		EntityType: "vital_signs",
		EntityID:   snapshot.ID,
		Changes:    map[string]interface{}{"patient_id": patientID},
	})
	return snapshot, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.VitalSignsSnapshot, error) {
	snapshot, err := s.vitals.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("vital signs snapshot", err)
		}
		return nil, apperrors.Persistence(err)
	}
	return snapshot, nil
}

// GetForToday returns the patient's current-day snapshot, if one was
// captured.
func (s *Service) GetForToday(ctx context.Context, patientID uuid.UUID) (*model.VitalSignsSnapshot, error) {
	now := time.Now()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	snapshot, err := s.vitals.GetForDay(ctx, patientID, day)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("vital signs for today", err)
		}
		return nil, apperrors.Persistence(err)
	}
	return snapshot, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.VitalSignsSnapshot, error) {
	list, err := s.vitals.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	return list, nil
}

// computeBMI derives body mass index from weight in kilograms and
// height in centimeters, rounded to one decimal.
func computeBMI(weightKg, heightCm float64) float64 {
	heightM := heightCm / 100
	return math.Round(weightKg/(heightM*heightM)*10) / 10
}
