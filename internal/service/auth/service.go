package auth

import (
	"context"
	"errors"
	"time"

	"github.com/clinicore/consult-api/internal/model"
	"github.com/clinicore/consult-api/internal/repository"
	"github.com/clinicore/consult-api/pkg/auth"
	apperrors "github.com/clinicore/consult-api/pkg/errors"
	"github.com/clinicore/consult-api/pkg/security"
)

// Service authenticates clinicians and issues token pairs.
type Service struct {
	clinicians repository.ClinicianRepository
	tokens     *auth.JWTService
	hasher     security.PasswordHasher
	expiry     time.Duration
}

func NewService(clinicians repository.ClinicianRepository, tokens *auth.JWTService, hasher security.PasswordHasher, expiry time.Duration) *Service {
	return &Service{
		clinicians: clinicians,
		tokens:     tokens,
		hasher:     hasher,
		expiry:     expiry,
	}
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	clinician, err := s.clinicians.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized(errors.New("invalid credentials"))
		}
		return nil, apperrors.Persistence(err)
	}
	if clinician.Status != model.ClinicianStatusActive {
		return nil, apperrors.Unauthorized(errors.New("account is inactive"))
	}
	if err := s.hasher.Compare(clinician.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized(errors.New("invalid credentials"))
	}

	now := time.Now()
	clinician.LastLoginAt = &now
	if err := s.clinicians.Update(ctx, clinician); err != nil {
		return nil, apperrors.Persistence(err)
	}

	return s.issueTokens(clinician)
}

func (s *Service) Refresh(ctx context.Context, req *model.RefreshRequest) (*model.TokenResponse, error) {
	claims, err := s.tokens.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}

	clinician, err := s.clinicians.Get(ctx, claims.ClinicianID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Unauthorized(errors.New("unknown clinician"))
		}
		return nil, apperrors.Persistence(err)
	}
	if clinician.Status != model.ClinicianStatusActive {
		return nil, apperrors.Unauthorized(errors.New("account is inactive"))
	}

	return s.issueTokens(clinician)
}

func (s *Service) issueTokens(clinician *model.Clinician) (*model.TokenResponse, error) {
	accessToken, err := s.tokens.GenerateAccessToken(clinician.ID, clinician.Email)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(clinician.ID, clinician.Email)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	return &model.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    time.Now().Add(s.expiry),
	}, nil
}
