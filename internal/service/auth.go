package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/laura2ndrea/payment-links/internal/domain"
	"github.com/laura2ndrea/payment-links/internal/repository"
)

// AuthService handles merchant registration and bearer token issuance.
type AuthService struct {
	merchantRepo repository.MerchantRepository
	secret       []byte
	tokenTTL     time.Duration
	now          func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(merchantRepo repository.MerchantRepository, secret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		merchantRepo: merchantRepo,
		secret:       []byte(secret),
		tokenTTL:     tokenTTL,
		now:          time.Now,
	}
}

// Register creates a new merchant account and returns its ID.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (string, error) {
	if name == "" || email == "" || password == "" {
		return "", ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	merchant := &domain.Merchant{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}

	if err := s.merchantRepo.Create(ctx, merchant); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return "", ErrEmailExists
		}
		return "", err
	}

	return merchant.ID, nil
}

// Login verifies the merchant's credentials and returns a signed bearer
// token. Unknown email and wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	merchant, err := s.merchantRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(merchant.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   merchant.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}

	return token, nil
}

// ValidateToken parses a bearer token and returns the merchant ID it was
// issued for.
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}
