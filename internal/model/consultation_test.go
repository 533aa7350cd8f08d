package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusAdvanceIsMonotonic(t *testing.T) {
	s := ConsultationStatusDraft

	s = s.Advance(ConsultationStatusPlanSaved)
	assert.Equal(t, ConsultationStatusPlanSaved, s)

	// Saving an earlier step never moves the status back.
	s = s.Advance(ConsultationStatusNarrativeSaved)
	assert.Equal(t, ConsultationStatusPlanSaved, s)

	s = s.Advance(ConsultationStatusFinalized)
	assert.Equal(t, ConsultationStatusFinalized, s)
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, ConsultationStatusFinalized.Terminal())
	assert.True(t, ConsultationStatusCancelled.Terminal())
	assert.False(t, ConsultationStatusDraft.Terminal())
	assert.False(t, ConsultationStatusPlanSaved.Terminal())
}

func TestDiagnosisRoleValidity(t *testing.T) {
	assert.True(t, DiagnosisRolePrincipal.Valid())
	assert.True(t, DiagnosisRoleSecondary.Valid())
	assert.False(t, DiagnosisRole("tertiary").Valid())
}
