package repository

import (
	"context"

	"github.com/laura2ndrea/payment-links/internal/domain"
)

// PaymentAttemptRepository defines the persistence operations for payment
// attempts.
type PaymentAttemptRepository interface {
	// Create persists a new attempt. Returns ErrDuplicate if an attempt
	// already exists for the same (link, idempotency key) pair.
	Create(ctx context.Context, attempt *domain.PaymentAttempt) error

	// GetByLinkAndKey retrieves the attempt recorded for the given link and
	// idempotency key. Returns nil if no such attempt exists.
	GetByLinkAndKey(ctx context.Context, linkID, idempotencyKey string) (*domain.PaymentAttempt, error)
}
