package model

import (
	"time"
)

type PatientStatus string

const (
	PatientStatusActive   PatientStatus = "active"
	PatientStatusInactive PatientStatus = "inactive"
)

type Patient struct {
	Base
	Name        string     `db:"name" json:"name"`
	DocumentID  string     `db:"document_id" json:"document_id"`
	Email       string     `db:"email" json:"email,omitempty"`
	Phone       string     `db:"phone" json:"phone,omitempty"`
	DateOfBirth *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender      string     `db:"gender" json:"gender,omitempty"`
	Address     string     `db:"address" json:"address,omitempty"`
	Status      string     `db:"status" json:"status"`
}

type CreatePatientRequest struct {
	Name        string     `json:"name" binding:"required"`
	DocumentID  string     `json:"document_id" binding:"required"`
	Email       string     `json:"email" binding:"omitempty,email"`
	Phone       string     `json:"phone"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Gender      string     `json:"gender"`
	Address     string     `json:"address"`
}

type UpdatePatientRequest struct {
	Name        *string    `json:"name"`
	Email       *string    `json:"email" binding:"omitempty,email"`
	Phone       *string    `json:"phone"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Gender      *string    `json:"gender"`
	Address     *string    `json:"address"`
	Status      *string    `json:"status"`
}

type PatientFilters struct {
	SearchTerm string        `form:"search_term"`
	Status     PatientStatus `form:"status"`
}
