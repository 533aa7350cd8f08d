package consultation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/consult-api/internal/repository"
)

// Reason codes returned when a session operation is blocked by an
// unmet precondition. Clients branch on these, so they are stable.
const (
	ReasonVitalsMissing  = "vitals.sameday.missing"
	ReasonHistoryMissing = "history.missing"
)

// GateResult is the outcome of a prerequisite evaluation. Absence of a
// prerequisite is reported here as a fact; it is never an error.
type GateResult struct {
	HasVitalSignsToday bool
	VitalSignsID       uuid.UUID
	HasHistory         bool
}

// PrerequisiteGate checks the preconditions for opening and documenting
// a consultation: a vital-signs snapshot captured on the visit day, and
// for first consultations a medical history record.
type PrerequisiteGate struct {
	vitals    repository.VitalSignsRepository
	histories repository.HistoryRepository
}

func NewPrerequisiteGate(vitals repository.VitalSignsRepository, histories repository.HistoryRepository) *PrerequisiteGate {
	return &PrerequisiteGate{vitals: vitals, histories: histories}
}

// Evaluate inspects both prerequisites for the given patient and day.
// A failed lookup is returned as an error, never reported as absence.
func (g *PrerequisiteGate) Evaluate(ctx context.Context, patientID uuid.UUID, day time.Time) (*GateResult, error) {
	result := &GateResult{}

	snapshot, err := g.vitals.GetForDay(ctx, patientID, day)
	switch {
	case err == nil:
		result.HasVitalSignsToday = true
		result.VitalSignsID = snapshot.ID
	case errors.Is(err, repository.ErrNotFound):
	default:
		return nil, fmt.Errorf("failed to look up vital signs: %w", err)
	}

	_, err = g.histories.GetByPatient(ctx, patientID)
	switch {
	case err == nil:
		result.HasHistory = true
	case errors.Is(err, repository.ErrNotFound):
	default:
		return nil, fmt.Errorf("failed to look up medical history: %w", err)
	}

	return result, nil
}
