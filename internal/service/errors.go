package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidAmount is returned when the amount is not a positive number
	// of minor currency units.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrInvalidCurrency is returned when the currency code is not exactly
	// three characters.
	ErrInvalidCurrency = errors.New("currency must be a 3-letter code")

	// ErrInvalidDescription is returned when the description is empty or too long.
	ErrInvalidDescription = errors.New("description must be between 1 and 255 characters")

	// ErrInvalidTTL is returned when the expiration window is less than zero minutes.
	ErrInvalidTTL = errors.New("expiration must be at least 0 minutes")

	// ErrInvalidMerchantID is returned when the merchant ID is empty.
	ErrInvalidMerchantID = errors.New("invalid merchant id")

	// ErrInvalidLinkID is returned when the link identifier is empty.
	ErrInvalidLinkID = errors.New("invalid payment link id")

	// ErrMissingIdempotencyKey is returned when a pay request carries no
	// idempotency key.
	ErrMissingIdempotencyKey = errors.New("idempotency key is required")

	// ErrMissingPaymentToken is returned when a pay request carries no
	// payment token.
	ErrMissingPaymentToken = errors.New("payment token is required")

	// ErrInvalidLinkState is returned when a transition is requested from a
	// state that does not allow it.
	ErrInvalidLinkState = errors.New("payment link is not in a valid state for this operation")

	// ErrDuplicateAttempt is returned when an idempotency key collision
	// cannot be resolved to an existing attempt record.
	ErrDuplicateAttempt = errors.New("duplicate payment attempt")

	// ErrEmailExists is returned when registering with an email that is
	// already taken.
	ErrEmailExists = errors.New("email already registered")

	// ErrInvalidCredentials is returned on login with an unknown email or a
	// wrong password. Deliberately indistinguishable between the two.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidToken is returned when a bearer token is missing, malformed
	// or expired.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// LinkExpiredError is returned when a payment is attempted on a link whose
// deadline has passed. It carries the deadline so the boundary can echo it
// back to the caller.
type LinkExpiredError struct {
	ExpiresAt time.Time
}

func (e *LinkExpiredError) Error() string {
	return fmt.Sprintf("payment link expired at %s", e.ExpiresAt.Format(time.RFC3339))
}
