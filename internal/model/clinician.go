package model

import (
	"time"

	"github.com/google/uuid"
)

type ClinicianStatus string

const (
	ClinicianStatusActive   ClinicianStatus = "active"
	ClinicianStatusInactive ClinicianStatus = "inactive"
)

type Clinician struct {
	Base
	Name         string          `db:"name" json:"name"`
	Email        string          `db:"email" json:"email"`
	PasswordHash string          `db:"password_hash" json:"-"`
	Specialty    string          `db:"specialty" json:"specialty,omitempty"`
	LicenseNo    string          `db:"license_no" json:"license_no,omitempty"`
	Status       ClinicianStatus `db:"status" json:"status"`
	LastLoginAt  *time.Time      `db:"last_login_at" json:"last_login_at,omitempty"`
}

// ClinicianContext identifies the acting clinician for a session
// operation. Passed explicitly into every service call; never read from
// ambient globals.
type ClinicianContext struct {
	ClinicianID uuid.UUID
	Email       string
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}
