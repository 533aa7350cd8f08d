package consultation

import (
	"strings"

	"github.com/clinicore/consult-api/internal/model"
)

// Reason codes returned when finalization is rejected.
const (
	ReasonNarrativeMissing = "narrative.missing"
	ReasonPlanMissing      = "plan.missing"
	ReasonExamMissing      = "exam.missing"
	ReasonExamInvalid      = "exam.invalid"
	ReasonPrincipalMissing = "diagnosis.principal.missing"
)

// FinalizationValidator runs the completeness checklist that gates the
// finalized state.
type FinalizationValidator struct{}

// Check evaluates every condition and returns the full list of unmet
// ones. It never stops at the first failure: the clinician gets the
// whole picture in one pass. An empty list means the record may be
// finalized.
func (FinalizationValidator) Check(c *model.Consultation, exam *model.PhysicalExam, diagnoses []*model.DiagnosisEntry) []string {
	var reasons []string

	if strings.TrimSpace(c.Narrative) == "" {
		reasons = append(reasons, ReasonNarrativeMissing)
	}

	if exam == nil {
		reasons = append(reasons, ReasonExamMissing)
	} else if !examComplete(exam) {
		reasons = append(reasons, ReasonExamInvalid)
	}

	hasPrincipal := false
	for _, entry := range diagnoses {
		if entry.Role == model.DiagnosisRolePrincipal {
			hasPrincipal = true
			break
		}
	}
	if !hasPrincipal {
		reasons = append(reasons, ReasonPrincipalMissing)
	}

	if strings.TrimSpace(c.WorkPlan) == "" {
		reasons = append(reasons, ReasonPlanMissing)
	}

	return reasons
}
