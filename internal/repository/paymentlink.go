package repository

import (
	"context"
	"time"

	"github.com/laura2ndrea/payment-links/internal/domain"
)

// LinkFilter narrows a payment link search. Nil fields are ignored.
type LinkFilter struct {
	Status    *domain.LinkStatus
	FromDate  *time.Time
	ToDate    *time.Time
	MinAmount *int64
	MaxAmount *int64
}

// PageRequest selects one page of a result set. Page is zero-based.
type PageRequest struct {
	Page int
	Size int
}

// PaymentLinkRepository defines the persistence operations for payment links.
type PaymentLinkRepository interface {
	// Create persists a new link. Returns ErrDuplicate if the reference is
	// already taken.
	Create(ctx context.Context, link *domain.PaymentLink) error

	// GetByIDAndMerchant retrieves a link by ID, scoped to the merchant.
	GetByIDAndMerchant(ctx context.Context, id, merchantID string) (*domain.PaymentLink, error)

	// GetByReferenceAndMerchant retrieves a link by its human reference,
	// scoped to the merchant.
	GetByReferenceAndMerchant(ctx context.Context, reference, merchantID string) (*domain.PaymentLink, error)

	// MarkPaid transitions a link from CREATED to PAID and stamps the
	// settlement time, as a single conditional update. Returns ErrNotFound
	// if the link is absent or no longer CREATED.
	MarkPaid(ctx context.Context, id string, paidAt time.Time) error

	// MarkCancelled transitions a link from CREATED to CANCELLED as a single
	// conditional update. Returns ErrNotFound if the link is absent or no
	// longer CREATED.
	MarkCancelled(ctx context.Context, id string) error

	// Search returns one page of the merchant's links matching the filter,
	// newest first, along with the total number of matches.
	Search(ctx context.Context, merchantID string, filter LinkFilter, page PageRequest) ([]*domain.PaymentLink, int64, error)

	// ExpireOverdue transitions every CREATED link whose deadline is strictly
	// before now to EXPIRED in one statement, returning the number of links
	// transitioned.
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}
