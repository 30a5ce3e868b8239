package domain

import "time"

// Merchant represents a registered merchant account.
type Merchant struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
