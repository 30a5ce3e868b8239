package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/laura2ndrea/payment-links/internal/domain"
	"github.com/laura2ndrea/payment-links/internal/repository"
)

// PaymentAttemptRepository is a PostgreSQL implementation of repository.PaymentAttemptRepository.
type PaymentAttemptRepository struct {
	q Querier
}

// NewPaymentAttemptRepository creates a new PostgreSQL payment attempt repository.
func NewPaymentAttemptRepository(db *sql.DB) *PaymentAttemptRepository {
	return &PaymentAttemptRepository{q: db}
}

// NewPaymentAttemptRepositoryWithTx creates a payment attempt repository using a transaction.
func NewPaymentAttemptRepositoryWithTx(tx *sql.Tx) *PaymentAttemptRepository {
	return &PaymentAttemptRepository{q: tx}
}

// Create persists a new payment attempt. The unique index on
// (payment_link_id, idempotency_key) is the authoritative duplicate check;
// a violation surfaces as repository.ErrDuplicate.
func (r *PaymentAttemptRepository) Create(ctx context.Context, attempt *domain.PaymentAttempt) error {
	query := `
		INSERT INTO payment_attempts (id, payment_link_id, status, reason, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	var reason sql.NullString
	if attempt.Reason != "" {
		reason = sql.NullString{String: attempt.Reason, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		attempt.ID,
		attempt.PaymentLinkID,
		attempt.Status,
		reason,
		attempt.IdempotencyKey,
		attempt.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}

	return nil
}

// GetByLinkAndKey retrieves the attempt recorded for the given link and
// idempotency key. Returns nil if no such attempt exists.
func (r *PaymentAttemptRepository) GetByLinkAndKey(ctx context.Context, linkID, idempotencyKey string) (*domain.PaymentAttempt, error) {
	query := `
		SELECT id, payment_link_id, status, reason, idempotency_key, created_at
		FROM payment_attempts
		WHERE payment_link_id = $1 AND idempotency_key = $2
	`

	var attempt domain.PaymentAttempt
	var reason sql.NullString

	err := r.q.QueryRowContext(ctx, query, linkID, idempotencyKey).Scan(
		&attempt.ID,
		&attempt.PaymentLinkID,
		&attempt.Status,
		&reason,
		&attempt.IdempotencyKey,
		&attempt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	if reason.Valid {
		attempt.Reason = reason.String
	}

	return &attempt, nil
}
