package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carried by clinician access tokens.
type Claims struct {
	ClinicianID uuid.UUID `json:"clinician_id"`
	Email       string    `json:"email"`
	jwt.RegisteredClaims
}

type Config struct {
	Secret        string
	RefreshSecret string
	Expiry        time.Duration
	RefreshExpiry time.Duration
}

// JWTService issues and validates clinician tokens.
type JWTService struct {
	cfg Config
}

func NewJWTService(cfg Config) *JWTService {
	return &JWTService{cfg: cfg}
}

func (s *JWTService) GenerateAccessToken(clinicianID uuid.UUID, email string) (string, error) {
	return s.sign(clinicianID, email, s.cfg.Secret, s.cfg.Expiry)
}

func (s *JWTService) GenerateRefreshToken(clinicianID uuid.UUID, email string) (string, error) {
	return s.sign(clinicianID, email, s.cfg.RefreshSecret, s.cfg.RefreshExpiry)
}

func (s *JWTService) ValidateAccessToken(token string) (*Claims, error) {
	return s.parse(token, s.cfg.Secret)
}

func (s *JWTService) ValidateRefreshToken(token string) (*Claims, error) {
	return s.parse(token, s.cfg.RefreshSecret)
}

func (s *JWTService) sign(clinicianID uuid.UUID, email, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		ClinicianID: clinicianID,
		Email:       email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			Subject:   clinicianID.String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *JWTService) parse(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
