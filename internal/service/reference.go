package service

import (
	"fmt"
	"sync/atomic"
	"time"
)

// ReferenceGenerator produces unique, human-readable payment link references.
type ReferenceGenerator interface {
	Generate() string
}

// YearSequenceGenerator issues references of the form PL-<year>-<6-digit
// sequence>, e.g. PL-2025-000042. The sequence is a process-wide counter
// seeded at zero on start, so the generator alone only guarantees uniqueness
// within one process; the unique index on payment_links.reference is the
// cross-process backstop.
type YearSequenceGenerator struct {
	counter atomic.Int64
	now     func() time.Time
}

// NewReferenceGenerator creates a new YearSequenceGenerator.
func NewReferenceGenerator() *YearSequenceGenerator {
	return &YearSequenceGenerator{now: time.Now}
}

// Generate returns the next reference. Safe for concurrent use.
func (g *YearSequenceGenerator) Generate() string {
	sequence := g.counter.Add(1)
	return fmt.Sprintf("PL-%d-%06d", g.now().Year(), sequence)
}
