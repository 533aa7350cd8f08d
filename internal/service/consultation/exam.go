package consultation

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/consult-api/internal/model"
	apperrors "github.com/clinicore/consult-api/pkg/errors"
)

// BuildExam validates an exam submission against the consultation's
// type and produces the storable record. First consultations take the
// detailed variant, follow-ups the simplified one; submitting the
// wrong variant is rejected, never coerced.
func BuildExam(consultationID uuid.UUID, consultType model.ConsultType, req *model.SaveExamRequest) (*model.PhysicalExam, error) {
	if req.Detailed != nil && req.Simplified != nil {
		return nil, apperrors.Validation("exam submission must carry exactly one variant")
	}

	now := time.Now()

	switch consultType {
	case model.ConsultTypeFirst:
		if req.Detailed == nil {
			return nil, apperrors.Validation("a first consultation requires the detailed exam variant")
		}
		exam := &model.PhysicalExam{
			ConsultationID: consultationID,
			Variant:        model.ExamVariantDetailed,
			General:        req.Detailed.General,
			Head:           req.Detailed.Head,
			Thorax:         req.Detailed.Thorax,
			Abdomen:        req.Detailed.Abdomen,
			Extremities:    req.Detailed.Extremities,
			Neurological:   req.Detailed.Neurological,
			Observations:   req.Detailed.Observations,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if !examComplete(exam) {
			return nil, apperrors.Validation("a detailed exam requires at least one documented section")
		}
		return exam, nil

	case model.ConsultTypeFollowUp:
		if req.Simplified == nil {
			return nil, apperrors.Validation("a follow-up consultation requires the simplified exam variant")
		}
		exam := &model.PhysicalExam{
			ConsultationID: consultationID,
			Variant:        model.ExamVariantSimplified,
			Narrative:      req.Simplified.Narrative,
			Observations:   req.Simplified.Observations,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if !examComplete(exam) {
			return nil, apperrors.Validation("a simplified exam requires a findings narrative")
		}
		return exam, nil
	}

	return nil, apperrors.Validationf("unknown consultation type %q", consultType)
}

// examComplete reports whether the exam satisfies its variant's
// completeness rule. Detailed exams need any one section filled in;
// simplified exams need the narrative.
func examComplete(exam *model.PhysicalExam) bool {
	switch exam.Variant {
	case model.ExamVariantDetailed:
		for _, section := range []string{
			exam.General,
			exam.Head,
			exam.Thorax,
			exam.Abdomen,
			exam.Extremities,
			exam.Neurological,
			exam.Observations,
		} {
			if strings.TrimSpace(section) != "" {
				return true
			}
		}
		return false
	case model.ExamVariantSimplified:
		return strings.TrimSpace(exam.Narrative) != ""
	}
	return false
}
