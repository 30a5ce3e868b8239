package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/laura2ndrea/payment-links/internal/domain"
	"github.com/laura2ndrea/payment-links/internal/repository"
)

// PaymentLinkRepository is a PostgreSQL implementation of repository.PaymentLinkRepository.
type PaymentLinkRepository struct {
	q Querier
}

// NewPaymentLinkRepository creates a new PostgreSQL payment link repository.
func NewPaymentLinkRepository(db *sql.DB) *PaymentLinkRepository {
	return &PaymentLinkRepository{q: db}
}

// NewPaymentLinkRepositoryWithTx creates a payment link repository using a transaction.
func NewPaymentLinkRepositoryWithTx(tx *sql.Tx) *PaymentLinkRepository {
	return &PaymentLinkRepository{q: tx}
}

const linkColumns = `id, merchant_id, reference, amount_cents, currency, description, status, expires_at, paid_at, metadata, created_at`

// Create persists a new payment link.
func (r *PaymentLinkRepository) Create(ctx context.Context, link *domain.PaymentLink) error {
	query := `
		INSERT INTO payment_links (` + linkColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	var paidAt sql.NullTime
	if !link.PaidAt.IsZero() {
		paidAt = sql.NullTime{Time: link.PaidAt, Valid: true}
	}

	var metadata []byte
	if link.Metadata != nil {
		data, err := json.Marshal(link.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
		metadata = data
	}

	_, err := r.q.ExecContext(ctx, query,
		link.ID,
		link.MerchantID,
		link.Reference,
		link.AmountCents,
		link.Currency,
		link.Description,
		link.Status,
		link.ExpiresAt,
		paidAt,
		metadata,
		link.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}

	return nil
}

// GetByIDAndMerchant retrieves a link by ID, scoped to the merchant.
func (r *PaymentLinkRepository) GetByIDAndMerchant(ctx context.Context, id, merchantID string) (*domain.PaymentLink, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM payment_links WHERE id = $1 AND merchant_id = $2
	`
	return scanLink(r.q.QueryRowContext(ctx, query, id, merchantID))
}

// GetByReferenceAndMerchant retrieves a link by its human reference, scoped to the merchant.
func (r *PaymentLinkRepository) GetByReferenceAndMerchant(ctx context.Context, reference, merchantID string) (*domain.PaymentLink, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM payment_links WHERE reference = $1 AND merchant_id = $2
	`
	return scanLink(r.q.QueryRowContext(ctx, query, reference, merchantID))
}

// MarkPaid transitions a link from CREATED to PAID and stamps the settlement
// time. The status predicate makes the update a compare-and-swap: a
// concurrent cancel, pay or sweep that already moved the link leaves zero
// rows affected.
func (r *PaymentLinkRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time) error {
	query := `
		UPDATE payment_links SET status = $1, paid_at = $2
		WHERE id = $3 AND status = $4
	`
	return r.execTransition(ctx, query, domain.LinkStatusPaid, paidAt, id, domain.LinkStatusCreated)
}

// MarkCancelled transitions a link from CREATED to CANCELLED.
func (r *PaymentLinkRepository) MarkCancelled(ctx context.Context, id string) error {
	query := `
		UPDATE payment_links SET status = $1
		WHERE id = $2 AND status = $3
	`
	return r.execTransition(ctx, query, domain.LinkStatusCancelled, id, domain.LinkStatusCreated)
}

func (r *PaymentLinkRepository) execTransition(ctx context.Context, query string, args ...any) error {
	result, err := r.q.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Search returns one page of the merchant's links matching the filter,
// newest first, along with the total number of matches.
func (r *PaymentLinkRepository) Search(ctx context.Context, merchantID string, filter repository.LinkFilter, page repository.PageRequest) ([]*domain.PaymentLink, int64, error) {
	where := []string{"merchant_id = $1"}
	args := []any{merchantID}

	addClause := func(clause string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if filter.Status != nil {
		addClause("status = $%d", *filter.Status)
	}
	if filter.FromDate != nil {
		addClause("created_at >= $%d", *filter.FromDate)
	}
	if filter.ToDate != nil {
		addClause("created_at <= $%d", *filter.ToDate)
	}
	if filter.MinAmount != nil {
		addClause("amount_cents >= $%d", *filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		addClause("amount_cents <= $%d", *filter.MaxAmount)
	}

	condition := strings.Join(where, " AND ")

	var total int64
	countQuery := `SELECT COUNT(*) FROM payment_links WHERE ` + condition
	if err := r.q.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		`SELECT `+linkColumns+` FROM payment_links WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		condition, len(args)+1, len(args)+2,
	)
	args = append(args, page.Size, page.Page*page.Size)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var links []*domain.PaymentLink
	for rows.Next() {
		link, err := scanLinkRow(rows)
		if err != nil {
			return nil, 0, err
		}
		links = append(links, link)
	}

	return links, total, rows.Err()
}

// ExpireOverdue transitions every CREATED link whose deadline is strictly
// before now to EXPIRED. A single conditional statement so the sweep cannot
// race a concurrent pay into an inconsistent state: whichever side wins the
// row lock determines the final status, and the loser's predicate fails.
func (r *PaymentLinkRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE payment_links SET status = $1
		WHERE status = $2 AND expires_at < $3
	`

	result, err := r.q.ExecContext(ctx, query, domain.LinkStatusExpired, domain.LinkStatusCreated, now)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(row *sql.Row) (*domain.PaymentLink, error) {
	link, err := scanLinkRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return link, nil
}

func scanLinkRow(row rowScanner) (*domain.PaymentLink, error) {
	var link domain.PaymentLink
	var paidAt sql.NullTime
	var metadata []byte

	err := row.Scan(
		&link.ID,
		&link.MerchantID,
		&link.Reference,
		&link.AmountCents,
		&link.Currency,
		&link.Description,
		&link.Status,
		&link.ExpiresAt,
		&paidAt,
		&metadata,
		&link.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if paidAt.Valid {
		link.PaidAt = paidAt.Time
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &link.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata: %w", err)
		}
	}

	return &link, nil
}
