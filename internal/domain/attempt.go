package domain

import "time"

// AttemptStatus represents the outcome of a payment attempt.
type AttemptStatus string

const (
	AttemptStatusSuccess AttemptStatus = "SUCCESS"
	AttemptStatusFailed  AttemptStatus = "FAILED"
)

// PaymentAttempt is an immutable record of one attempt to settle a link.
// At most one attempt may ever exist per (link, idempotency key) pair.
type PaymentAttempt struct {
	ID             string
	PaymentLinkID  string
	Status         AttemptStatus
	Reason         string // present only when Status is FAILED
	IdempotencyKey string
	CreatedAt      time.Time
}
