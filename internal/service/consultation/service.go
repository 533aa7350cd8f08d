package consultation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/consult-api/internal/model"
	"github.com/clinicore/consult-api/internal/repository"
	"github.com/clinicore/consult-api/internal/service/audit"
	"github.com/clinicore/consult-api/internal/service/email"
	"github.com/clinicore/consult-api/internal/service/event"
	apperrors "github.com/clinicore/consult-api/pkg/errors"
	"github.com/clinicore/consult-api/pkg/logger"
	"github.com/clinicore/consult-api/pkg/metrics"
)

// Service runs the consultation workflow: session creation behind the
// prerequisite gate, step documentation, the diagnosis ledger and the
// finalization checklist. All mutations take the acting clinician
// explicitly.
type Service struct {
	consultations repository.ConsultationRepository
	patients      repository.PatientRepository
	histories     repository.HistoryRepository

	gate       *PrerequisiteGate
	classifier *TypeClassifier
	ledger     *DiagnosisLedger
	checklist  FinalizationValidator

	events  *event.Service
	auditor *audit.Service
	emailer email.Sender
	metrics *metrics.Metrics
	logger  *logger.Logger
}

func NewService(
	consultations repository.ConsultationRepository,
	patients repository.PatientRepository,
	vitals repository.VitalSignsRepository,
	histories repository.HistoryRepository,
	catalog repository.CatalogRepository,
	events *event.Service,
	auditor *audit.Service,
	emailer email.Sender,
	m *metrics.Metrics,
	logger *logger.Logger,
) *Service {
	return &Service{
		consultations: consultations,
		patients:      patients,
		histories:     histories,
		gate:          NewPrerequisiteGate(vitals, histories),
		classifier:    NewTypeClassifier(consultations),
		ledger:        NewDiagnosisLedger(consultations, catalog),
		events:        events,
		auditor:       auditor,
		emailer:       emailer,
		metrics:       m,
		logger:        logger,
	}
}

// Start opens a new consultation session for the patient's visit today.
// The session is refused without a same-day vital-signs snapshot, and
// at most one non-terminal session exists per patient per day.
func (s *Service) Start(ctx context.Context, actor model.ClinicianContext, patientID uuid.UUID) (*model.StartConsultationResponse, error) {
	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, apperrors.Persistence(err)
	}

	today := dateOnly(time.Now())
	gate, err := s.gate.Evaluate(ctx, patient.ID, today)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	if !gate.HasVitalSignsToday {
		return nil, apperrors.PrerequisiteNotMet(ReasonVitalsMissing)
	}

	consultType, err := s.classifier.Classify(ctx, patient.ID)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}

	now := time.Now()
	c := &model.Consultation{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		PatientID:    patient.ID,
		VitalSignsID: gate.VitalSignsID,
		ClinicianID:  actor.ClinicianID,
		ConsultType:  consultType,
		Status:       model.ConsultationStatusDraft,
		StartedOn:    today,
	}

	if err := s.consultations.Create(ctx, c); err != nil {
		var dup *repository.DuplicateActiveConsultationError
		if errors.As(err, &dup) {
			return nil, apperrors.Conflictf("an active consultation already exists for this patient today: %s", dup.ExistingID)
		}
		return nil, apperrors.Persistence(err)
	}

	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actor.ClinicianID,
		Action:     "consultation.start",
		EntityType: "consultation",
		EntityID:   c.ID,
		Changes:    map[string]interface{}{"consult_type": consultType, "patient_id": patient.ID},
	})
	s.metrics.ConsultationsStarted.Inc()

	return &model.StartConsultationResponse{
		ConsultationID: c.ID,
		ConsultType:    c.ConsultType,
		VitalSignsID:   c.VitalSignsID,
	}, nil
}

// Get returns the full record: the consultation with its exam and
// diagnosis entries.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.ConsultationDetail, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &model.ConsultationDetail{Consultation: *c}

	exam, err := s.consultations.GetExam(ctx, id)
	switch {
	case err == nil:
		detail.Exam = exam
	case errors.Is(err, repository.ErrNotFound):
	default:
		return nil, apperrors.Persistence(err)
	}

	diagnoses, err := s.consultations.ListDiagnoses(ctx, id)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	detail.Diagnoses = diagnoses

	return detail, nil
}

// ListByPatient returns the patient's consultations, newest first.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Consultation, error) {
	list, err := s.consultations.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}
	return list, nil
}

// SaveNarrative records the anamnesis text. On a first consultation the
// patient's medical history record must already exist.
func (s *Service) SaveNarrative(ctx context.Context, actor model.ClinicianContext, id uuid.UUID, text string) (*model.Consultation, error) {
	if isBlank(text) {
		return nil, apperrors.Validation("narrative must not be blank")
	}

	c, err := s.getMutable(ctx, id)
	if err != nil {
		return nil, err
	}

	if c.ConsultType == model.ConsultTypeFirst {
		if _, err := s.histories.GetByPatient(ctx, c.PatientID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.PrerequisiteNotMet(ReasonHistoryMissing)
			}
			return nil, apperrors.Persistence(err)
		}
	}

	c.Narrative = text
	c.Status = c.Status.Advance(model.ConsultationStatusNarrativeSaved)
	if err := s.updateStep(ctx, c); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actor.ClinicianID,
		Action:     "consultation.narrative.save",
		EntityType: "consultation",
		EntityID:   c.ID,
	})
	return c, nil
}

// SaveExam stores the physical exam in the variant dictated by the
// consultation's type. Saving again replaces the previous exam.
func (s *Service) SaveExam(ctx context.Context, actor model.ClinicianContext, id uuid.UUID, req *model.SaveExamRequest) (*model.PhysicalExam, error) {
	c, err := s.getMutable(ctx, id)
	if err != nil {
		return nil, err
	}

	exam, err := BuildExam(c.ID, c.ConsultType, req)
	if err != nil {
		return nil, err
	}

	if err := s.consultations.UpsertExam(ctx, exam); err != nil {
		if errors.Is(err, repository.ErrNotUpdatable) {
			return nil, apperrors.Validation("exam variant does not match the consultation type")
		}
		return nil, apperrors.Persistence(err)
	}

	c.Status = c.Status.Advance(model.ConsultationStatusExamSaved)
	if err := s.updateStep(ctx, c); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actor.ClinicianID,
		Action:     "consultation.exam.save",
		EntityType: "consultation",
		EntityID:   c.ID,
		Changes:    map[string]interface{}{"variant": exam.Variant},
	})
	return exam, nil
}

// AttachDiagnosis adds a catalog code to the record's diagnosis ledger.
func (s *Service) AttachDiagnosis(ctx context.Context, actor model.ClinicianContext, id uuid.UUID, code string, role model.DiagnosisRole) (*model.DiagnosisEntry, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	entry, err := s.ledger.Attach(ctx, c, code, role)
	if err != nil {
		return nil, err
	}

	c.Status = c.Status.Advance(model.ConsultationStatusDiagnosed)
	if err := s.updateStep(ctx, c); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actor.ClinicianID,
		Action:     "consultation.diagnosis.attach",
		EntityType: "consultation",
		EntityID:   c.ID,
		Changes:    map[string]interface{}{"code": entry.Code, "role": entry.Role},
	})
	return entry, nil
}

// DetachDiagnosis removes a previously attached code.
func (s *Service) DetachDiagnosis(ctx context.Context, actor model.ClinicianContext, id uuid.UUID, code string) error {
	c, err := s.get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.ledger.Detach(ctx, c, code); err != nil {
		return err
	}

	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actor.ClinicianID,
		Action:     "consultation.diagnosis.detach",
		EntityType: "consultation",
		EntityID:   c.ID,
		Changes:    map[string]interface{}{"code": code},
	})
	return nil
}

// SavePlan records the work plan text.
func (s *Service) SavePlan(ctx context.Context, actor model.ClinicianContext, id uuid.UUID, text string) (*model.Consultation, error) {
	if isBlank(text) {
		return nil, apperrors.Validation("work plan must not be blank")
	}

	c, err := s.getMutable(ctx, id)
	if err != nil {
		return nil, err
	}

	c.WorkPlan = text
	c.Status = c.Status.Advance(model.ConsultationStatusPlanSaved)
	if err := s.updateStep(ctx, c); err != nil {
		return nil, err
	}

	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actor.ClinicianID,
		Action:     "consultation.plan.save",
		EntityType: "consultation",
		EntityID:   c.ID,
	})
	return c, nil
}

// Finalize runs the completeness checklist and, if every condition
// holds, seals the record. A rejected attempt reports every unmet
// condition at once and changes nothing.
func (s *Service) Finalize(ctx context.Context, actor model.ClinicianContext, id uuid.UUID) (*model.FinalizeResponse, error) {
	c, err := s.getMutable(ctx, id)
	if err != nil {
		return nil, err
	}

	var exam *model.PhysicalExam
	exam, err = s.consultations.GetExam(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Persistence(err)
		}
		exam = nil
	}

	diagnoses, err := s.consultations.ListDiagnoses(ctx, id)
	if err != nil {
		return nil, apperrors.Persistence(err)
	}

	if reasons := s.checklist.Check(c, exam, diagnoses); len(reasons) > 0 {
		for _, reason := range reasons {
			s.metrics.FinalizationRejections.WithLabelValues(reason).Inc()
		}
		return nil, apperrors.PrerequisiteNotMet(reasons...)
	}

	finalizedAt := time.Now()
	if err := s.consultations.Finalize(ctx, id, finalizedAt); err != nil {
		if errors.Is(err, repository.ErrNotUpdatable) {
			return nil, s.classifyNotUpdatable(ctx, id)
		}
		return nil, apperrors.Persistence(err)
	}

	if err := s.events.Emit(ctx, model.EventConsultationFinalized, map[string]interface{}{
		"consultation_id": c.ID,
		"patient_id":      c.PatientID,
		"clinician_id":    actor.ClinicianID,
		"consult_type":    c.ConsultType,
		"finalized_at":    finalizedAt,
	}); err != nil {
		s.logger.Error(err, "failed to emit finalization event", "consultation_id", c.ID)
	}

	s.notifyFinalized(c, finalizedAt)

	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actor.ClinicianID,
		Action:     "consultation.finalize",
		EntityType: "consultation",
		EntityID:   c.ID,
	})
	s.metrics.ConsultationsFinalized.Inc()

	return &model.FinalizeResponse{FinalizedAt: finalizedAt}, nil
}

// Cancel abandons a non-terminal session. The cancelled record keeps
// whatever was documented, stops counting toward the one-active-per-day
// rule, and never counts for first/follow-up classification.
func (s *Service) Cancel(ctx context.Context, actor model.ClinicianContext, id uuid.UUID) error {
	if err := s.consultations.Cancel(ctx, id, time.Now()); err != nil {
		if errors.Is(err, repository.ErrNotUpdatable) {
			return s.classifyNotUpdatable(ctx, id)
		}
		return apperrors.Persistence(err)
	}

	if err := s.events.Emit(ctx, model.EventConsultationCancelled, map[string]interface{}{
		"consultation_id": id,
		"clinician_id":    actor.ClinicianID,
	}); err != nil {
		s.logger.Error(err, "failed to emit cancellation event", "consultation_id", id)
	}

	s.auditor.Record(ctx, audit.Entry{
		ActorID:    actor.ClinicianID,
		Action:     "consultation.cancel",
		EntityType: "consultation",
		EntityID:   id,
	})
	s.metrics.ConsultationsCancelled.Inc()
	return nil
}

// HistorySummary returns the patient's medical history for display
// alongside an open consultation.
func (s *Service) HistorySummary(ctx context.Context, id uuid.UUID) (*model.HistoryRecord, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}

	record, err := s.histories.GetByPatient(ctx, c.PatientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("medical history", err)
		}
		return nil, apperrors.Persistence(err)
	}
	return record, nil
}

func (s *Service) get(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	c, err := s.consultations.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("consultation", err)
		}
		return nil, apperrors.Persistence(err)
	}
	return c, nil
}

func (s *Service) getMutable(ctx context.Context, id uuid.UUID) (*model.Consultation, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.Status.Terminal() {
		return nil, apperrors.Immutable("consultation can no longer be modified")
	}
	return c, nil
}

func (s *Service) updateStep(ctx context.Context, c *model.Consultation) error {
	c.UpdatedAt = time.Now()
	if err := s.consultations.UpdateStep(ctx, c); err != nil {
		if errors.Is(err, repository.ErrNotUpdatable) {
			return s.classifyNotUpdatable(ctx, c.ID)
		}
		return apperrors.Persistence(err)
	}
	return nil
}

// classifyNotUpdatable re-reads after a zero-row conditional update to
// tell a concurrently sealed record apart from a missing one.
func (s *Service) classifyNotUpdatable(ctx context.Context, id uuid.UUID) error {
	c, err := s.consultations.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("consultation", err)
		}
		return apperrors.Persistence(err)
	}
	if c.Status.Terminal() {
		return apperrors.Immutable("consultation can no longer be modified")
	}
	return apperrors.Persistence(fmt.Errorf("consultation %s was not updatable", id))
}

func (s *Service) notifyFinalized(c *model.Consultation, finalizedAt time.Time) {
	if s.emailer == nil {
		return
	}

	patient, err := s.patients.Get(context.Background(), c.PatientID)
	if err != nil || patient.Email == "" {
		return
	}

	summary := fmt.Sprintf(
		"Your consultation on %s was completed and signed at %s.",
		c.StartedOn.Format("2006-01-02"),
		finalizedAt.Format(time.RFC1123),
	)
	go func() {
		if err := s.emailer.SendConsultationSummary(patient.Email, patient.Name, summary); err != nil {
			s.logger.Error(err, "failed to send consultation summary", "patient_id", c.PatientID)
		}
	}()
}

func isBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
