package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/laura2ndrea/payment-links/internal/domain"
	"github.com/laura2ndrea/payment-links/internal/redis"
	"github.com/laura2ndrea/payment-links/internal/repository"
)

// successTokenPrefix marks a payment token that the simulated network
// settles successfully. Everything else is declined.
const successTokenPrefix = "ok_"

const declinedReason = "payment declined"

// PaymentService applies payment attempts to links exactly once per
// idempotency key. The unique index on (payment_link_id, idempotency_key)
// is the load-bearing defense against duplicate settlement; the lookup
// before the insert is only a fast path.
type PaymentService struct {
	linkRepo    repository.PaymentLinkRepository
	attemptRepo repository.PaymentAttemptRepository
	txRunner    repository.TxRunner
	cache       redis.LinkCacheInterface
	now         func() time.Time
}

// NewPaymentService creates a new PaymentService. cache may be nil.
func NewPaymentService(
	linkRepo repository.PaymentLinkRepository,
	attemptRepo repository.PaymentAttemptRepository,
	txRunner repository.TxRunner,
	cache redis.LinkCacheInterface,
) *PaymentService {
	return &PaymentService{
		linkRepo:    linkRepo,
		attemptRepo: attemptRepo,
		txRunner:    txRunner,
		cache:       cache,
		now:         time.Now,
	}
}

// Pay applies one payment attempt to a link.
//
// A retry with an already-used idempotency key returns the recorded attempt
// unchanged, even if the token differs and even if the link has since
// settled: the recorded attempt is the single source of truth for that key.
func (s *PaymentService) Pay(ctx context.Context, merchantID, linkID, paymentToken, idempotencyKey string) (*domain.PaymentAttempt, error) {
	if merchantID == "" {
		return nil, ErrInvalidMerchantID
	}
	if linkID == "" {
		return nil, ErrInvalidLinkID
	}
	if idempotencyKey == "" {
		return nil, ErrMissingIdempotencyKey
	}
	if paymentToken == "" {
		return nil, ErrMissingPaymentToken
	}

	link, err := s.linkRepo.GetByIDAndMerchant(ctx, linkID, merchantID)
	if err != nil {
		return nil, err
	}

	// Idempotency check comes before the state check: a retried request must
	// get its original result back even though the link is now PAID.
	existing, err := s.attemptRepo.GetByLinkAndKey(ctx, link.ID, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	now := s.now()
	if link.Status != domain.LinkStatusCreated {
		return nil, ErrInvalidLinkState
	}
	if link.IsExpired(now) {
		return nil, &LinkExpiredError{ExpiresAt: link.ExpiresAt}
	}

	attempt := &domain.PaymentAttempt{
		ID:             uuid.New().String(),
		PaymentLinkID:  link.ID,
		Status:         deriveOutcome(paymentToken),
		IdempotencyKey: idempotencyKey,
		CreatedAt:      now,
	}
	if attempt.Status == domain.AttemptStatusFailed {
		attempt.Reason = declinedReason
	}

	// Attempt insert and status write are one atomic unit. The conditional
	// MarkPaid is the transition legality check at the store boundary.
	err = s.txRunner.WithinTx(ctx, func(repos repository.TxRepositories) error {
		if err := repos.Attempts.Create(ctx, attempt); err != nil {
			return err
		}
		if attempt.Status == domain.AttemptStatusSuccess {
			return repos.Links.MarkPaid(ctx, link.ID, now)
		}
		return nil
	})
	if err != nil {
		return s.resolveFailedAttempt(ctx, link, idempotencyKey, err)
	}

	if s.cache != nil && attempt.Status == domain.AttemptStatusSuccess {
		_ = s.cache.Invalidate(ctx, link)
	}

	return attempt, nil
}

// resolveFailedAttempt classifies a failed pay transaction. An idempotency
// key race is resolved by returning the winning record rather than erroring;
// the caller's intent was already satisfied once.
func (s *PaymentService) resolveFailedAttempt(ctx context.Context, link *domain.PaymentLink, idempotencyKey string, txErr error) (*domain.PaymentAttempt, error) {
	if errors.Is(txErr, repository.ErrDuplicate) {
		winner, err := s.attemptRepo.GetByLinkAndKey(ctx, link.ID, idempotencyKey)
		if err != nil {
			return nil, err
		}
		if winner == nil {
			// Constraint fired but no record is visible: a logic error, not
			// a resolvable race.
			return nil, ErrDuplicateAttempt
		}
		return winner, nil
	}

	if errors.Is(txErr, repository.ErrNotFound) {
		// MarkPaid found no CREATED row: a concurrent cancel, pay or sweep
		// won. Re-read to report the state the winner left behind.
		current, err := s.linkRepo.GetByIDAndMerchant(ctx, link.ID, link.MerchantID)
		if err != nil {
			return nil, err
		}
		if current.Status == domain.LinkStatusCreated && current.IsExpired(s.now()) {
			return nil, &LinkExpiredError{ExpiresAt: current.ExpiresAt}
		}
		return nil, ErrInvalidLinkState
	}

	return nil, txErr
}

// deriveOutcome simulates the payment network deterministically from the
// token.
func deriveOutcome(paymentToken string) domain.AttemptStatus {
	if strings.HasPrefix(paymentToken, successTokenPrefix) {
		return domain.AttemptStatusSuccess
	}
	return domain.AttemptStatusFailed
}
