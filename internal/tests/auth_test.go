package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/laura2ndrea/payment-links/internal/service"
)

func newAuthService(merchantRepo *MockMerchantRepository) *service.AuthService {
	return service.NewAuthService(merchantRepo, "test-secret", time.Hour)
}

func TestAuth_RegisterLoginValidateRoundtrip(t *testing.T) {
	merchantRepo := NewMockMerchantRepository()
	svc := newAuthService(merchantRepo)
	ctx := context.Background()

	merchantID, err := svc.Register(ctx, "Acme Store", "owner@acme.test", "hunter2hunter2")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, err := svc.Login(ctx, "owner@acme.test", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	subject, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("token validation failed: %v", err)
	}
	if subject != merchantID {
		t.Errorf("expected token subject %q, got %q", merchantID, subject)
	}

	// Password is stored hashed, never in the clear.
	merchant, err := merchantRepo.GetByID(ctx, merchantID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merchant.PasswordHash == "hunter2hunter2" {
		t.Error("password stored in the clear")
	}
}

func TestAuth_RegisterDuplicateEmail(t *testing.T) {
	merchantRepo := NewMockMerchantRepository()
	svc := newAuthService(merchantRepo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "First", "owner@acme.test", "hunter2hunter2"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, err := svc.Register(ctx, "Second", "owner@acme.test", "different-pass")
	if !errors.Is(err, service.ErrEmailExists) {
		t.Errorf("expected ErrEmailExists, got %v", err)
	}
}

func TestAuth_LoginRejectsBadCredentials(t *testing.T) {
	merchantRepo := NewMockMerchantRepository()
	svc := newAuthService(merchantRepo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Acme Store", "owner@acme.test", "hunter2hunter2"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := svc.Login(ctx, "owner@acme.test", "wrong-password"); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}

	// Unknown email looks identical to a wrong password.
	if _, err := svc.Login(ctx, "nobody@acme.test", "hunter2hunter2"); !errors.Is(err, service.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestAuth_ValidateTokenRejectsTampering(t *testing.T) {
	merchantRepo := NewMockMerchantRepository()
	svc := newAuthService(merchantRepo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Acme Store", "owner@acme.test", "hunter2hunter2"); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	token, err := svc.Login(ctx, "owner@acme.test", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := svc.ValidateToken(tampered); !errors.Is(err, service.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for tampered token, got %v", err)
	}

	if _, err := svc.ValidateToken("not-a-token"); !errors.Is(err, service.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for garbage token, got %v", err)
	}

	// A token signed with a different secret fails verification.
	other := service.NewAuthService(merchantRepo, "other-secret", time.Hour)
	if _, err := other.ValidateToken(token); !errors.Is(err, service.ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for foreign signature, got %v", err)
	}
}
