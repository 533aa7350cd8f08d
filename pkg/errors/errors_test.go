package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCodeMapping(t *testing.T) {
	tests := []struct {
		err    *AppError
		status int
	}{
		{NotFound("patient", nil), http.StatusNotFound},
		{Validation("bad input"), http.StatusBadRequest},
		{PrerequisiteNotMet("vitals.sameday.missing"), http.StatusUnprocessableEntity},
		{Conflict("duplicate"), http.StatusConflict},
		{Immutable("sealed"), http.StatusConflict},
		{Persistence(errors.New("db down")), http.StatusInternalServerError},
		{Unauthorized(errors.New("bad token")), http.StatusUnauthorized},
		{Internal(errors.New("boom")), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.status, tt.err.StatusCode(), tt.err.Message)
	}
}

func TestPrerequisiteNotMetCarriesReasons(t *testing.T) {
	err := PrerequisiteNotMet("narrative.missing", "plan.missing")
	assert.Equal(t, []string{"narrative.missing", "plan.missing"}, err.Reasons)
}

func TestIsMatchesWrappedErrors(t *testing.T) {
	base := Conflict("already attached")
	wrapped := fmt.Errorf("attach diagnosis: %w", base)

	assert.True(t, Is(wrapped, ErrConflict))
	assert.False(t, Is(wrapped, ErrNotFound))
	assert.False(t, Is(errors.New("plain"), ErrConflict))
}

func TestAsUnwraps(t *testing.T) {
	base := Validation("bad")
	wrapped := fmt.Errorf("outer: %w", base)

	appErr, ok := As(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ErrValidation, appErr.Code)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}

func TestErrorStringIncludesCause(t *testing.T) {
	err := Persistence(errors.New("connection refused"))
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, "connection refused", errors.Unwrap(err).Error())
}
