package repository

import (
	"context"

	"github.com/laura2ndrea/payment-links/internal/domain"
)

// MerchantRepository defines the persistence operations for merchants.
type MerchantRepository interface {
	// Create persists a new merchant. Returns ErrDuplicate if the email is
	// already registered.
	Create(ctx context.Context, merchant *domain.Merchant) error

	// GetByID retrieves a merchant by ID.
	GetByID(ctx context.Context, id string) (*domain.Merchant, error)

	// GetByEmail retrieves a merchant by email.
	GetByEmail(ctx context.Context, email string) (*domain.Merchant, error)
}
