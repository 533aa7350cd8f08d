package consultation

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/consult-api/internal/model"
	"github.com/clinicore/consult-api/internal/service/audit"
	"github.com/clinicore/consult-api/internal/service/event"
	apperrors "github.com/clinicore/consult-api/pkg/errors"
	"github.com/clinicore/consult-api/pkg/logger"
	"github.com/clinicore/consult-api/pkg/metrics"
)

// Registered once for the whole test binary; prometheus rejects
// duplicate collector registration.
var testMetrics = metrics.NewMetrics("consult_test")

type testEnv struct {
	svc       *Service
	consults  *memConsultationRepo
	vitals    *memVitalsRepo
	histories *memHistoryRepo
	patients  *memPatientRepo
	outbox    *memOutboxRepo
	actor     model.ClinicianContext
	patientID uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		consults:  newMemConsultationRepo(),
		vitals:    newMemVitalsRepo(),
		histories: newMemHistoryRepo(),
		patients:  newMemPatientRepo(),
		outbox:    &memOutboxRepo{},
		actor: model.ClinicianContext{
			ClinicianID: uuid.New(),
			Email:       "doctor@clinic.test",
		},
		patientID: uuid.New(),
	}

	catalog := newMemCatalogRepo(
		&model.CatalogCode{Code: "I10", Description: "Essential hypertension"},
		&model.CatalogCode{Code: "E11", Description: "Type 2 diabetes mellitus"},
		&model.CatalogCode{Code: "J06", Description: "Acute upper respiratory infection"},
	)

	log := logger.NewLogger(nil)
	env.svc = NewService(
		env.consults,
		env.patients,
		env.vitals,
		env.histories,
		catalog,
		event.NewService(env.outbox),
		audit.NewService(&memAuditRepo{}, log),
		nil,
		testMetrics,
		log,
	)

	require.NoError(t, env.patients.Create(context.Background(), &model.Patient{
		Base:       model.Base{ID: env.patientID},
		Name:       "Ana Torres",
		DocumentID: "12345678",
		Status:     string(model.PatientStatusActive),
	}))
	return env
}

func (env *testEnv) captureVitalsToday(t *testing.T) uuid.UUID {
	t.Helper()
	now := time.Now()
	snapshot := &model.VitalSignsSnapshot{
		ID:         uuid.New(),
		PatientID:  env.patientID,
		Systolic:   120,
		Diastolic:  80,
		CapturedOn: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()),
		CapturedAt: now,
	}
	require.NoError(t, env.vitals.Create(context.Background(), snapshot))
	return snapshot.ID
}

func (env *testEnv) recordHistory(t *testing.T) {
	t.Helper()
	require.NoError(t, env.histories.Create(context.Background(), &model.HistoryRecord{
		PatientID:      env.patientID,
		CurrentIllness: "intermittent chest pain",
		CreatedBy:      env.actor.ClinicianID,
	}))
}

func (env *testEnv) start(t *testing.T) uuid.UUID {
	t.Helper()
	resp, err := env.svc.Start(context.Background(), env.actor, env.patientID)
	require.NoError(t, err)
	return resp.ConsultationID
}

// document fills every checklist item so the session can be finalized.
func (env *testEnv) document(t *testing.T, id uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	_, err := env.svc.SaveNarrative(ctx, env.actor, id, "patient reports chest pain on exertion")
	require.NoError(t, err)

	c, err := env.consults.Get(ctx, id)
	require.NoError(t, err)

	var examReq model.SaveExamRequest
	if c.ConsultType == model.ConsultTypeFirst {
		examReq.Detailed = &model.DetailedExamFields{General: "alert, oriented"}
	} else {
		examReq.Simplified = &model.SimplifiedExamFields{Narrative: "no changes since last visit"}
	}
	_, err = env.svc.SaveExam(ctx, env.actor, id, &examReq)
	require.NoError(t, err)

	_, err = env.svc.AttachDiagnosis(ctx, env.actor, id, "I10", model.DiagnosisRolePrincipal)
	require.NoError(t, err)

	_, err = env.svc.SavePlan(ctx, env.actor, id, "start enalapril, control in two weeks")
	require.NoError(t, err)
}

func TestStartRequiresSameDayVitals(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Start(context.Background(), env.actor, env.patientID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrPrerequisiteNotMet))

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, []string{ReasonVitalsMissing}, appErr.Reasons)
}

func TestStartBindsVitalsAndClassifiesFirst(t *testing.T) {
	env := newTestEnv(t)
	vitalsID := env.captureVitalsToday(t)

	resp, err := env.svc.Start(context.Background(), env.actor, env.patientID)
	require.NoError(t, err)
	assert.Equal(t, model.ConsultTypeFirst, resp.ConsultType)
	assert.Equal(t, vitalsID, resp.VitalSignsID)

	c, err := env.consults.Get(context.Background(), resp.ConsultationID)
	require.NoError(t, err)
	assert.Equal(t, model.ConsultationStatusDraft, c.Status)
	assert.Equal(t, env.actor.ClinicianID, c.ClinicianID)
}

func TestStartRejectsUnknownPatient(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Start(context.Background(), env.actor, uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}

func TestStartRejectsSecondActiveSessionSameDay(t *testing.T) {
	env := newTestEnv(t)
	env.captureVitalsToday(t)
	first := env.start(t)

	_, err := env.svc.Start(context.Background(), env.actor, env.patientID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	assert.Contains(t, err.Error(), first.String())
}

func TestCancelFreesTheDaySlot(t *testing.T) {
	env := newTestEnv(t)
	env.captureVitalsToday(t)
	first := env.start(t)

	require.NoError(t, env.svc.Cancel(context.Background(), env.actor, first))

	second := env.start(t)
	assert.NotEqual(t, first, second)
}

func TestCancelledSessionsNeverCountForClassification(t *testing.T) {
	env := newTestEnv(t)
	env.captureVitalsToday(t)
	id := env.start(t)
	require.NoError(t, env.svc.Cancel(context.Background(), env.actor, id))

	resp, err := env.svc.Start(context.Background(), env.actor, env.patientID)
	require.NoError(t, err)
	assert.Equal(t, model.ConsultTypeFirst, resp.ConsultType)
}

func TestFinalizedSessionMakesNextVisitFollowUp(t *testing.T) {
	env := newTestEnv(t)
	env.captureVitalsToday(t)
	env.recordHistory(t)
	id := env.start(t)
	env.document(t, id)

	_, err := env.svc.Finalize(context.Background(), env.actor, id)
	require.NoError(t, err)

	resp, err := env.svc.Start(context.Background(), env.actor, env.patientID)
	require.NoError(t, err)
	assert.Equal(t, model.ConsultTypeFollowUp, resp.ConsultType)
}

func TestSaveNarrativeRequiresHistoryOnFirstConsultation(t *testing.T) {
	env := newTestEnv(t)
	env.captureVitalsToday(t)
	id := env.start(t)

	_, err := env.svc.SaveNarrative(context.Background(), env.actor, id, "some narrative")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrPrerequisiteNotMet))

	appErr, _ := apperrors.As(err)
	assert.Equal(t, []string{ReasonHistoryMissing}, appErr.Reasons)

	env.recordHistory(t)
	_, err = env.svc.SaveNarrative(context.Background(), env.actor, id, "some narrative")
	assert.NoError(t, err)
}

func TestSaveNarrativeRejectsBlankText(t *testing.T) {
	env := newTestEnv(t)
	env.captureVitalsToday(t)
	id := env.start(t)

	_, err := env.svc.SaveNarrative(context.Background(), env.actor, id, "   \n\t")
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestStatusNeverMovesBackward(t *testing.T) {
	env := newTestEnv(t)
	env.captureVitalsToday(t)
	env.recordHistory(t)
	id := env.start(t)
	ctx := context.Background()

	_, err := env.svc.SavePlan(ctx, env.actor, id, "rest and hydration")
	require.NoError(t, err)

	c, err := env.consults.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.ConsultationStatusPlanSaved, c.Status)

	_, err = env.svc.SaveNarrative(ctx, env.actor, id, "late narrative")
	require.NoError(t, err)

	c, err = env.consults.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.ConsultationStatusPlanSaved, c.Status)
	assert.Equal(t, "late narrative", c.Narrative)
}

func TestSaveExamRejectsVariantMismatch(t *testing.T) {
	env := newTestEnv(t)
	env.captureVitalsToday(t)
	id := env.start(t)

	_, err := env.svc.SaveExam(context.Background(), env.actor, id, &model.SaveExamRequest{
		Simplified: &model.SimplifiedExamFields{Narrative: "looks fine"},
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestDetailedExamAcceptsObservationsOnly(t *testing.T) {
	env := newTestEnv(t)
	env.captureVitalsToday(t)
	id := env.start(t)

	exam, err := env.svc.SaveExam(context.Background(), env.actor, id, &model.SaveExamRequest{
		Detailed: &model.DetailedExamFields{Observations: "mild pallor"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.ExamVariantDetailed, exam.Variant)
}

func TestDetailedExamRejectsAllBlankSections(t *testing.T) {
	env := newTestEnv(t)
	env.captureVitalsToday(t)
	id := env.start(t)

	_, err := env.svc.SaveExam(context.Background(), env.actor, id, &model.SaveExamRequest{
		Detailed: &model.DetailedExamFields{General: "  ", Head: "\t"},
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestAttachDiagnosisRules(t *testing.T) {
	env := newTestEnv(t)
	env.captureVitalsToday(t)
	id := env.start(t)
	ctx := context.Background()

	_, err := env.svc.AttachDiagnosis(ctx, env.actor, id, "XX99", model.DiagnosisRoleSecondary)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))

	entry, err := env.svc.AttachDiagnosis(ctx, env.actor, id, "I10", model.DiagnosisRolePrincipal)
	require.NoError(t, err)
	assert.Equal(t, "Essential hypertension", entry.Description)

	_, err = env.svc.AttachDiagnosis(ctx, env.actor, id, "I10", model.DiagnosisRoleSecondary)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	_, err = env.svc.AttachDiagnosis(ctx, env.actor, id, "E11", model.DiagnosisRolePrincipal)
	assert.True(t, apperrors.Is(err, apperrors.ErrConflict))

	_, err = env.svc.AttachDiagnosis(ctx, env.actor, id, "E11", model.DiagnosisRoleSecondary)
	assert.NoError(t, err)
}

func TestDetachThenReattachDiagnosis(t *testing.T) {
	env := newTestEnv(t)
	env.captureVitalsToday(t)
	id := env.start(t)
	ctx := context.Background()

	_, err := env.svc.AttachDiagnosis(ctx, env.actor, id, "I10", model.DiagnosisRolePrincipal)
	require.NoError(t, err)

	require.NoError(t, env.svc.DetachDiagnosis(ctx, env.actor, id, "I10"))

	_, err = env.svc.AttachDiagnosis(ctx, env.actor, id, "J06", model.DiagnosisRolePrincipal)
	assert.NoError(t, err)
}

func TestFinalizeReportsEveryMissingCondition(t *testing.T) {
	env := newTestEnv(t)
	env.captureVitalsToday(t)
	id := env.start(t)

	_, err := env.svc.Finalize(context.Background(), env.actor, id)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrPrerequisiteNotMet))

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{
		ReasonNarrativeMissing,
		ReasonExamMissing,
		ReasonPrincipalMissing,
		ReasonPlanMissing,
	}, appErr.Reasons)
}

func TestFinalizeReportsOnlyThePlanWhenEverythingElseIsDone(t *testing.T) {
	env := newTestEnv(t)
	env.captureVitalsToday(t)
	env.recordHistory(t)
	id := env.start(t)
	ctx := context.Background()

	_, err := env.svc.SaveNarrative(ctx, env.actor, id, "narrative")
	require.NoError(t, err)
	_, err = env.svc.SaveExam(ctx, env.actor, id, &model.SaveExamRequest{
		Detailed: &model.DetailedExamFields{General: "normal"},
	})
	require.NoError(t, err)
	_, err = env.svc.AttachDiagnosis(ctx, env.actor, id, "I10", model.DiagnosisRolePrincipal)
	require.NoError(t, err)

	_, err = env.svc.Finalize(ctx, env.actor, id)
	require.Error(t, err)

	appErr, _ := apperrors.As(err)
	assert.Equal(t, []string{ReasonPlanMissing}, appErr.Reasons)
}

func TestFinalizeWithOnlySecondaryDiagnosesIsRejected(t *testing.T) {
	env := newTestEnv(t)
	env.captureVitalsToday(t)
	env.recordHistory(t)
	id := env.start(t)
	ctx := context.Background()

	_, err := env.svc.SaveNarrative(ctx, env.actor, id, "narrative")
	require.NoError(t, err)
	_, err = env.svc.SaveExam(ctx, env.actor, id, &model.SaveExamRequest{
		Detailed: &model.DetailedExamFields{General: "normal"},
	})
	require.NoError(t, err)
	_, err = env.svc.AttachDiagnosis(ctx, env.actor, id, "E11", model.DiagnosisRoleSecondary)
	require.NoError(t, err)
	_, err = env.svc.SavePlan(ctx, env.actor, id, "plan")
	require.NoError(t, err)

	_, err = env.svc.Finalize(ctx, env.actor, id)
	require.Error(t, err)

	appErr, _ := apperrors.As(err)
	assert.Equal(t, []string{ReasonPrincipalMissing}, appErr.Reasons)
}

func TestFinalizeSealsTheRecordAndEmitsEvent(t *testing.T) {
	env := newTestEnv(t)
	env.captureVitalsToday(t)
	env.recordHistory(t)
	id := env.start(t)
	env.document(t, id)
	ctx := context.Background()

	resp, err := env.svc.Finalize(ctx, env.actor, id)
	require.NoError(t, err)
	assert.False(t, resp.FinalizedAt.IsZero())

	require.Len(t, env.outbox.events, 1)
	assert.Equal(t, model.EventConsultationFinalized, env.outbox.events[0].EventType)

	_, err = env.svc.SaveNarrative(ctx, env.actor, id, "too late")
	assert.True(t, apperrors.Is(err, apperrors.ErrImmutable))

	_, err = env.svc.SaveExam(ctx, env.actor, id, &model.SaveExamRequest{
		Detailed: &model.DetailedExamFields{General: "x"},
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrImmutable))

	_, err = env.svc.AttachDiagnosis(ctx, env.actor, id, "E11", model.DiagnosisRoleSecondary)
	assert.True(t, apperrors.Is(err, apperrors.ErrImmutable))

	err = env.svc.DetachDiagnosis(ctx, env.actor, id, "I10")
	assert.True(t, apperrors.Is(err, apperrors.ErrImmutable))

	_, err = env.svc.Finalize(ctx, env.actor, id)
	assert.True(t, apperrors.Is(err, apperrors.ErrImmutable))
}

func TestCancelledRecordIsImmutable(t *testing.T) {
	env := newTestEnv(t)
	env.captureVitalsToday(t)
	id := env.start(t)
	ctx := context.Background()

	require.NoError(t, env.svc.Cancel(ctx, env.actor, id))

	_, err := env.svc.SavePlan(ctx, env.actor, id, "plan")
	assert.True(t, apperrors.Is(err, apperrors.ErrImmutable))

	err = env.svc.Cancel(ctx, env.actor, id)
	assert.True(t, apperrors.Is(err, apperrors.ErrImmutable))
}

func TestVitalsLookupFailurePropagatesAsError(t *testing.T) {
	env := newTestEnv(t)
	env.vitals.failWith = context.DeadlineExceeded

	_, err := env.svc.Start(context.Background(), env.actor, env.patientID)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrPersistence))
	assert.False(t, apperrors.Is(err, apperrors.ErrPrerequisiteNotMet))
}

func TestGetReturnsFullDetail(t *testing.T) {
	env := newTestEnv(t)
	env.captureVitalsToday(t)
	env.recordHistory(t)
	id := env.start(t)
	env.document(t, id)

	detail, err := env.svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, detail.ID)
	require.NotNil(t, detail.Exam)
	assert.Equal(t, model.ExamVariantDetailed, detail.Exam.Variant)
	require.Len(t, detail.Diagnoses, 1)
	assert.Equal(t, "I10", detail.Diagnoses[0].Code)
}

func TestHistorySummaryForOpenConsultation(t *testing.T) {
	env := newTestEnv(t)
	env.captureVitalsToday(t)
	env.recordHistory(t)
	id := env.start(t)

	record, err := env.svc.HistorySummary(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "intermittent chest pain", record.CurrentIllness)
}
