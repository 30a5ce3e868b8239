package domain

import "time"

// LinkStatus represents the current status of a payment link.
type LinkStatus string

const (
	LinkStatusCreated   LinkStatus = "CREATED"
	LinkStatusPaid      LinkStatus = "PAID"
	LinkStatusCancelled LinkStatus = "CANCELLED"
	LinkStatusExpired   LinkStatus = "EXPIRED"
)

// linkTransitions encodes the legal status transitions. PAID, CANCELLED and
// EXPIRED are terminal: nothing leaves them.
var linkTransitions = map[LinkStatus][]LinkStatus{
	LinkStatusCreated: {LinkStatusPaid, LinkStatusCancelled, LinkStatusExpired},
}

// CanTransitionTo reports whether a link may move from s to target.
func (s LinkStatus) CanTransitionTo(target LinkStatus) bool {
	for _, t := range linkTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are legal from s.
func (s LinkStatus) IsTerminal() bool {
	return len(linkTransitions[s]) == 0
}

// ParseLinkStatus validates a status string supplied by a caller (e.g. a
// list filter). Returns false for anything outside the enum.
func ParseLinkStatus(s string) (LinkStatus, bool) {
	switch LinkStatus(s) {
	case LinkStatusCreated, LinkStatusPaid, LinkStatusCancelled, LinkStatusExpired:
		return LinkStatus(s), true
	}
	return "", false
}

// PaymentLink represents a merchant-issued request for payment with a
// bounded validity window. Amounts are in minor currency units.
type PaymentLink struct {
	ID          string
	MerchantID  string
	Reference   string
	AmountCents int64
	Currency    string
	Description string
	Status      LinkStatus
	ExpiresAt   time.Time
	PaidAt      time.Time // zero until settled
	Metadata    map[string]any
	CreatedAt   time.Time
}

// IsExpired reports whether the link's deadline has passed at now.
// The deadline itself is fixed at creation and never mutated.
func (l *PaymentLink) IsExpired(now time.Time) bool {
	return l.ExpiresAt.Before(now)
}

// CanPay reports whether a payment attempt is admissible: the link must be
// open and within its validity window.
func (l *PaymentLink) CanPay(now time.Time) bool {
	return l.Status == LinkStatusCreated && !l.IsExpired(now)
}
