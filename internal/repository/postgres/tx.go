package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/laura2ndrea/payment-links/internal/repository"
)

// TxManager runs functions inside a PostgreSQL transaction with
// transaction-scoped repositories.
type TxManager struct {
	db *sql.DB
}

// NewTxManager creates a new TxManager.
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

// WithinTx implements repository.TxRunner.
func (m *TxManager) WithinTx(ctx context.Context, fn func(repository.TxRepositories) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	repos := repository.TxRepositories{
		Links:    NewPaymentLinkRepositoryWithTx(tx),
		Attempts: NewPaymentAttemptRepositoryWithTx(tx),
	}

	if err := fn(repos); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
