package repository

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned when the requested row does not exist.
// Callers distinguish it from lookup failures: absence is a fact,
// a failed lookup is an error that must propagate.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a uniqueness constraint rejects a write.
var ErrDuplicate = errors.New("duplicate")

// ErrNotUpdatable is returned when a conditional update touched zero
// rows: the record is missing or already terminal. The caller re-reads
// to tell the two apart.
var ErrNotUpdatable = errors.New("record not updatable")

// DuplicateActiveConsultationError is returned when the per-(patient, day)
// uniqueness constraint rejects a new draft. It points the caller at the
// consultation that already holds the slot.
type DuplicateActiveConsultationError struct {
	ExistingID uuid.UUID
}

func (e *DuplicateActiveConsultationError) Error() string {
	return fmt.Sprintf("an active consultation already exists for this patient today: %s", e.ExistingID)
}

func (e *DuplicateActiveConsultationError) Is(target error) bool {
	return target == ErrDuplicate
}
