package consultation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicore/consult-api/internal/model"
	"github.com/clinicore/consult-api/internal/repository"
)

// TypeClassifier decides whether a new session is the patient's first
// consultation or a follow-up. Only finalized consultations count:
// drafts and cancelled sessions leave the classification unchanged.
type TypeClassifier struct {
	consultations repository.ConsultationRepository
}

func NewTypeClassifier(consultations repository.ConsultationRepository) *TypeClassifier {
	return &TypeClassifier{consultations: consultations}
}

func (c *TypeClassifier) Classify(ctx context.Context, patientID uuid.UUID) (model.ConsultType, error) {
	count, err := c.consultations.CountFinalizedByPatient(ctx, patientID)
	if err != nil {
		return "", fmt.Errorf("failed to count finalized consultations: %w", err)
	}
	if count == 0 {
		return model.ConsultTypeFirst, nil
	}
	return model.ConsultTypeFollowUp, nil
}
