package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/laura2ndrea/payment-links/internal/domain"
	"github.com/laura2ndrea/payment-links/internal/repository"
)

// MerchantRepository is a PostgreSQL implementation of repository.MerchantRepository.
type MerchantRepository struct {
	q Querier
}

// NewMerchantRepository creates a new PostgreSQL merchant repository.
func NewMerchantRepository(db *sql.DB) *MerchantRepository {
	return &MerchantRepository{q: db}
}

// Create persists a new merchant.
func (r *MerchantRepository) Create(ctx context.Context, merchant *domain.Merchant) error {
	query := `
		INSERT INTO merchants (id, name, email, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.q.ExecContext(ctx, query,
		merchant.ID,
		merchant.Name,
		merchant.Email,
		merchant.PasswordHash,
		merchant.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}

	return nil
}

// GetByID retrieves a merchant by ID.
func (r *MerchantRepository) GetByID(ctx context.Context, id string) (*domain.Merchant, error) {
	query := `
		SELECT id, name, email, password_hash, created_at
		FROM merchants WHERE id = $1
	`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a merchant by email.
func (r *MerchantRepository) GetByEmail(ctx context.Context, email string) (*domain.Merchant, error) {
	query := `
		SELECT id, name, email, password_hash, created_at
		FROM merchants WHERE email = $1
	`
	return r.scanOne(r.q.QueryRowContext(ctx, query, email))
}

func (r *MerchantRepository) scanOne(row *sql.Row) (*domain.Merchant, error) {
	var merchant domain.Merchant
	err := row.Scan(
		&merchant.ID,
		&merchant.Name,
		&merchant.Email,
		&merchant.PasswordHash,
		&merchant.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return &merchant, nil
}
