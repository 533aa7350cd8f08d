package consultation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/consult-api/internal/model"
	"github.com/clinicore/consult-api/internal/repository"
)

// In-memory repositories backing the workflow tests.

type memConsultationRepo struct {
	mu            sync.Mutex
	consultations map[uuid.UUID]*model.Consultation
	exams         map[uuid.UUID]*model.PhysicalExam
	diagnoses     map[uuid.UUID][]*model.DiagnosisEntry
}

func newMemConsultationRepo() *memConsultationRepo {
	return &memConsultationRepo{
		consultations: make(map[uuid.UUID]*model.Consultation),
		exams:         make(map[uuid.UUID]*model.PhysicalExam),
		diagnoses:     make(map[uuid.UUID][]*model.DiagnosisEntry),
	}
}

func (r *memConsultationRepo) Create(_ context.Context, c *model.Consultation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.consultations {
		if existing.PatientID == c.PatientID && existing.StartedOn.Equal(c.StartedOn) && !existing.Status.Terminal() {
			return &repository.DuplicateActiveConsultationError{ExistingID: existing.ID}
		}
	}
	clone := *c
	r.consultations[c.ID] = &clone
	return nil
}

func (r *memConsultationRepo) Get(_ context.Context, id uuid.UUID) (*model.Consultation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.consultations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *memConsultationRepo) UpdateStep(_ context.Context, c *model.Consultation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.consultations[c.ID]
	if !ok || stored.Status.Terminal() {
		return repository.ErrNotUpdatable
	}
	clone := *c
	r.consultations[c.ID] = &clone
	return nil
}

func (r *memConsultationRepo) Finalize(_ context.Context, id uuid.UUID, finalizedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.consultations[id]
	if !ok || stored.Status.Terminal() {
		return repository.ErrNotUpdatable
	}
	stored.Status = model.ConsultationStatusFinalized
	stored.FinalizedAt = &finalizedAt
	return nil
}

func (r *memConsultationRepo) Cancel(_ context.Context, id uuid.UUID, cancelledAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.consultations[id]
	if !ok || stored.Status.Terminal() {
		return repository.ErrNotUpdatable
	}
	stored.Status = model.ConsultationStatusCancelled
	stored.CancelledAt = &cancelledAt
	return nil
}

func (r *memConsultationRepo) CountFinalizedByPatient(_ context.Context, patientID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, c := range r.consultations {
		if c.PatientID == patientID && c.Status == model.ConsultationStatusFinalized {
			count++
		}
	}
	return count, nil
}

func (r *memConsultationRepo) GetActiveForDay(_ context.Context, patientID uuid.UUID, day time.Time) (*model.Consultation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.consultations {
		if c.PatientID == patientID && c.StartedOn.Equal(day) && !c.Status.Terminal() {
			clone := *c
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memConsultationRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*model.Consultation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Consultation
	for _, c := range r.consultations {
		if c.PatientID == patientID {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memConsultationRepo) UpsertExam(_ context.Context, exam *model.PhysicalExam) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.exams[exam.ConsultationID]; ok && existing.Variant != exam.Variant {
		return repository.ErrNotUpdatable
	}
	clone := *exam
	r.exams[exam.ConsultationID] = &clone
	return nil
}

func (r *memConsultationRepo) GetExam(_ context.Context, consultationID uuid.UUID) (*model.PhysicalExam, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	exam, ok := r.exams[consultationID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *exam
	return &clone, nil
}

func (r *memConsultationRepo) AddDiagnosis(_ context.Context, entry *model.DiagnosisEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.diagnoses[entry.ConsultationID] {
		if existing.Code == entry.Code {
			return repository.ErrDuplicate
		}
	}
	clone := *entry
	r.diagnoses[entry.ConsultationID] = append(r.diagnoses[entry.ConsultationID], &clone)
	return nil
}

func (r *memConsultationRepo) RemoveDiagnosis(_ context.Context, consultationID uuid.UUID, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entries := r.diagnoses[consultationID]
	for i, entry := range entries {
		if entry.Code == code {
			r.diagnoses[consultationID] = append(entries[:i], entries[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *memConsultationRepo) ListDiagnoses(_ context.Context, consultationID uuid.UUID) ([]*model.DiagnosisEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.DiagnosisEntry
	for _, entry := range r.diagnoses[consultationID] {
		clone := *entry
		out = append(out, &clone)
	}
	return out, nil
}

type memVitalsRepo struct {
	mu        sync.Mutex
	snapshots map[uuid.UUID]*model.VitalSignsSnapshot
	failWith  error
}

func newMemVitalsRepo() *memVitalsRepo {
	return &memVitalsRepo{snapshots: make(map[uuid.UUID]*model.VitalSignsSnapshot)}
}

func (r *memVitalsRepo) Create(_ context.Context, snapshot *model.VitalSignsSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *snapshot
	r.snapshots[snapshot.ID] = &clone
	return nil
}

func (r *memVitalsRepo) Get(_ context.Context, id uuid.UUID) (*model.VitalSignsSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.snapshots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *memVitalsRepo) GetForDay(_ context.Context, patientID uuid.UUID, day time.Time) (*model.VitalSignsSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return nil, r.failWith
	}
	for _, s := range r.snapshots {
		if s.PatientID == patientID && s.CapturedOn.Equal(day) {
			clone := *s
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memVitalsRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*model.VitalSignsSnapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.VitalSignsSnapshot
	for _, s := range r.snapshots {
		if s.PatientID == patientID {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

type memHistoryRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]*model.HistoryRecord
}

func newMemHistoryRepo() *memHistoryRepo {
	return &memHistoryRepo{records: make(map[uuid.UUID]*model.HistoryRecord)}
}

func (r *memHistoryRepo) Create(_ context.Context, record *model.HistoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[record.PatientID]; ok {
		return repository.ErrDuplicate
	}
	clone := *record
	r.records[record.PatientID] = &clone
	return nil
}

func (r *memHistoryRepo) GetByPatient(_ context.Context, patientID uuid.UUID) (*model.HistoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[patientID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *record
	return &clone, nil
}

type memPatientRepo struct {
	mu       sync.Mutex
	patients map[uuid.UUID]*model.Patient
}

func newMemPatientRepo() *memPatientRepo {
	return &memPatientRepo{patients: make(map[uuid.UUID]*model.Patient)}
}

func (r *memPatientRepo) Create(_ context.Context, patient *model.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *patient
	r.patients[patient.ID] = &clone
	return nil
}

func (r *memPatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *memPatientRepo) Update(_ context.Context, patient *model.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patients[patient.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *patient
	r.patients[patient.ID] = &clone
	return nil
}

func (r *memPatientRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patients[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.patients, id)
	return nil
}

func (r *memPatientRepo) List(_ context.Context, _ *model.PatientFilters) ([]*model.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Patient
	for _, p := range r.patients {
		clone := *p
		out = append(out, &clone)
	}
	return out, nil
}

type memCatalogRepo struct {
	codes map[string]*model.CatalogCode
}

func newMemCatalogRepo(codes ...*model.CatalogCode) *memCatalogRepo {
	r := &memCatalogRepo{codes: make(map[string]*model.CatalogCode)}
	for _, c := range codes {
		r.codes[c.Code] = c
	}
	return r
}

func (r *memCatalogRepo) Search(_ context.Context, query string, limit int) ([]*model.CatalogCode, error) {
	var out []*model.CatalogCode
	for _, c := range r.codes {
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *memCatalogRepo) GetByCode(_ context.Context, code string) (*model.CatalogCode, error) {
	c, ok := r.codes[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return c, nil
}

type memAuditRepo struct {
	mu   sync.Mutex
	logs []*model.AuditLog
}

func (r *memAuditRepo) Create(_ context.Context, log *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, log)
	return nil
}

func (r *memAuditRepo) List(_ context.Context, entityType string, entityID uuid.UUID) ([]*model.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.AuditLog
	for _, l := range r.logs {
		if l.EntityType == entityType && l.EntityID == entityID {
			out = append(out, l)
		}
	}
	return out, nil
}

type memOutboxRepo struct {
	mu     sync.Mutex
	events []*model.OutboxEvent
}

func (r *memOutboxRepo) Create(_ context.Context, event *model.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *memOutboxRepo) GetPendingEventsWithLock(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.OutboxEvent
	for _, e := range r.events {
		if e.Status == model.OutboxStatusPending {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *memOutboxRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.ID == id {
			e.Status = status
			e.ErrorMessage = errorMessage
			return nil
		}
	}
	return errors.New("event not found")
}
