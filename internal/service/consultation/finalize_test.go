package consultation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/clinicore/consult-api/internal/model"
)

func TestChecklistPassesOnCompleteRecord(t *testing.T) {
	var v FinalizationValidator

	c := &model.Consultation{
		Narrative: "chest pain on exertion",
		WorkPlan:  "start treatment",
	}
	exam := &model.PhysicalExam{
		Variant: model.ExamVariantDetailed,
		General: "normal",
	}
	diagnoses := []*model.DiagnosisEntry{
		{Code: "I10", Role: model.DiagnosisRolePrincipal},
	}

	assert.Empty(t, v.Check(c, exam, diagnoses))
}

func TestChecklistNeverShortCircuits(t *testing.T) {
	var v FinalizationValidator

	reasons := v.Check(&model.Consultation{}, nil, nil)
	assert.ElementsMatch(t, []string{
		ReasonNarrativeMissing,
		ReasonExamMissing,
		ReasonPrincipalMissing,
		ReasonPlanMissing,
	}, reasons)
}

func TestChecklistFlagsStoredExamWithBlankContent(t *testing.T) {
	var v FinalizationValidator

	c := &model.Consultation{
		Narrative: "narrative",
		WorkPlan:  "plan",
	}
	exam := &model.PhysicalExam{
		Variant: model.ExamVariantSimplified,
		// Narrative left blank
	}
	diagnoses := []*model.DiagnosisEntry{
		{Code: "I10", Role: model.DiagnosisRolePrincipal},
	}

	assert.Equal(t, []string{ReasonExamInvalid}, v.Check(c, exam, diagnoses))
}

func TestChecklistTreatsWhitespaceAsBlank(t *testing.T) {
	var v FinalizationValidator

	c := &model.Consultation{
		Narrative: "  \n ",
		WorkPlan:  "\t",
	}
	reasons := v.Check(c, &model.PhysicalExam{Variant: model.ExamVariantDetailed, Head: "normal"}, []*model.DiagnosisEntry{
		{Code: "I10", Role: model.DiagnosisRolePrincipal},
	})
	assert.ElementsMatch(t, []string{ReasonNarrativeMissing, ReasonPlanMissing}, reasons)
}

func TestBuildExamRejectsBothVariants(t *testing.T) {
	_, err := BuildExam(uuid.New(), model.ConsultTypeFirst, &model.SaveExamRequest{
		Detailed:   &model.DetailedExamFields{General: "x"},
		Simplified: &model.SimplifiedExamFields{Narrative: "y"},
	})
	assert.Error(t, err)
}

func TestBuildExamFollowUpRequiresNarrative(t *testing.T) {
	_, err := BuildExam(uuid.New(), model.ConsultTypeFollowUp, &model.SaveExamRequest{
		Simplified: &model.SimplifiedExamFields{Observations: "only observations"},
	})
	assert.Error(t, err)

	exam, err := BuildExam(uuid.New(), model.ConsultTypeFollowUp, &model.SaveExamRequest{
		Simplified: &model.SimplifiedExamFields{Narrative: "stable"},
	})
	assert.NoError(t, err)
	assert.Equal(t, model.ExamVariantSimplified, exam.Variant)
}
