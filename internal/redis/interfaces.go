package redis

import (
	"context"
	"time"

	"github.com/laura2ndrea/payment-links/internal/domain"
)

// LinkCacheInterface defines the interface for payment link caching.
type LinkCacheInterface interface {
	Get(ctx context.Context, merchantID, identifier string) (*domain.PaymentLink, error)
	Set(ctx context.Context, link *domain.PaymentLink) error
	Invalidate(ctx context.Context, link *domain.PaymentLink) error
}

// LockStoreInterface defines the interface for distributed locking.
type LockStoreInterface interface {
	AcquireSweepLock(ctx context.Context, ttl time.Duration) (bool, error)
	ReleaseSweepLock(ctx context.Context) error
}

// Ensure concrete types implement interfaces.
var (
	_ LinkCacheInterface = (*LinkCache)(nil)
	_ LockStoreInterface = (*LockStore)(nil)
)
