package repository

import "context"

// TxRepositories bundles the repositories scoped to one storage transaction.
type TxRepositories struct {
	Links    PaymentLinkRepository
	Attempts PaymentAttemptRepository
}

// TxRunner executes a function within a single atomic storage transaction.
// The transaction commits when fn returns nil and rolls back otherwise, so
// a status write and an attempt insert either both land or neither does.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(TxRepositories) error) error
}
