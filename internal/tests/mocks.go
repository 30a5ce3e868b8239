package tests

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/laura2ndrea/payment-links/internal/domain"
	"github.com/laura2ndrea/payment-links/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK MERCHANT REPOSITORY
// ──────────────────────────────────────────────

// MockMerchantRepository is a mock implementation of MerchantRepository.
type MockMerchantRepository struct {
	mu        sync.RWMutex
	merchants map[string]*domain.Merchant

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockMerchantRepository creates a new mock merchant repository.
func NewMockMerchantRepository() *MockMerchantRepository {
	return &MockMerchantRepository{
		merchants: make(map[string]*domain.Merchant),
	}
}

// AddMerchant adds a merchant to the mock repository.
func (m *MockMerchantRepository) AddMerchant(merchant *domain.Merchant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.merchants[merchant.ID] = merchant
}

func (m *MockMerchantRepository) Create(ctx context.Context, merchant *domain.Merchant) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.merchants {
		if existing.Email == merchant.Email {
			return repository.ErrDuplicate
		}
	}
	m.merchants[merchant.ID] = merchant
	return nil
}

func (m *MockMerchantRepository) GetByID(ctx context.Context, id string) (*domain.Merchant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	merchant, ok := m.merchants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *merchant
	return &copy, nil
}

func (m *MockMerchantRepository) GetByEmail(ctx context.Context, email string) (*domain.Merchant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, merchant := range m.merchants {
		if merchant.Email == email {
			copy := *merchant
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

// ──────────────────────────────────────────────
// MOCK PAYMENT LINK REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentLinkRepository is a mock implementation of PaymentLinkRepository.
type MockPaymentLinkRepository struct {
	mu    sync.RWMutex
	links map[string]*domain.PaymentLink

	// Counters for verification
	CreateCallCount   int32
	MarkPaidCallCount int32

	// Error injection
	CreateError        error
	CreateErrorOnce    error
	MarkPaidError      error
	MarkCancelledError error
	ExpireOverdueError error
}

// NewMockPaymentLinkRepository creates a new mock payment link repository.
func NewMockPaymentLinkRepository() *MockPaymentLinkRepository {
	return &MockPaymentLinkRepository{
		links: make(map[string]*domain.PaymentLink),
	}
}

// AddLink adds a link to the mock repository.
func (m *MockPaymentLinkRepository) AddLink(link *domain.PaymentLink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[link.ID] = link
}

// GetLink returns a link for test assertions.
func (m *MockPaymentLinkRepository) GetLink(id string) *domain.PaymentLink {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.links[id]
}

func (m *MockPaymentLinkRepository) Create(ctx context.Context, link *domain.PaymentLink) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateErrorOnce != nil {
		err := m.CreateErrorOnce
		m.CreateErrorOnce = nil
		return err
	}
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.links {
		if existing.Reference == link.Reference {
			return repository.ErrDuplicate
		}
	}
	copy := *link
	m.links[link.ID] = &copy
	return nil
}

func (m *MockPaymentLinkRepository) GetByIDAndMerchant(ctx context.Context, id, merchantID string) (*domain.PaymentLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	link, ok := m.links[id]
	if !ok || link.MerchantID != merchantID {
		return nil, repository.ErrNotFound
	}
	copy := *link
	return &copy, nil
}

func (m *MockPaymentLinkRepository) GetByReferenceAndMerchant(ctx context.Context, reference, merchantID string) (*domain.PaymentLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, link := range m.links {
		if link.Reference == reference && link.MerchantID == merchantID {
			copy := *link
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockPaymentLinkRepository) MarkPaid(ctx context.Context, id string, paidAt time.Time) error {
	atomic.AddInt32(&m.MarkPaidCallCount, 1)
	if m.MarkPaidError != nil {
		return m.MarkPaidError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[id]
	if !ok || link.Status != domain.LinkStatusCreated {
		return repository.ErrNotFound
	}
	link.Status = domain.LinkStatusPaid
	link.PaidAt = paidAt
	return nil
}

func (m *MockPaymentLinkRepository) MarkCancelled(ctx context.Context, id string) error {
	if m.MarkCancelledError != nil {
		return m.MarkCancelledError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	link, ok := m.links[id]
	if !ok || link.Status != domain.LinkStatusCreated {
		return repository.ErrNotFound
	}
	link.Status = domain.LinkStatusCancelled
	return nil
}

func (m *MockPaymentLinkRepository) Search(ctx context.Context, merchantID string, filter repository.LinkFilter, page repository.PageRequest) ([]*domain.PaymentLink, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []*domain.PaymentLink
	for _, link := range m.links {
		if link.MerchantID != merchantID {
			continue
		}
		if filter.Status != nil && link.Status != *filter.Status {
			continue
		}
		if filter.FromDate != nil && link.CreatedAt.Before(*filter.FromDate) {
			continue
		}
		if filter.ToDate != nil && link.CreatedAt.After(*filter.ToDate) {
			continue
		}
		if filter.MinAmount != nil && link.AmountCents < *filter.MinAmount {
			continue
		}
		if filter.MaxAmount != nil && link.AmountCents > *filter.MaxAmount {
			continue
		}
		copy := *link
		matches = append(matches, &copy)
	}

	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	total := int64(len(matches))
	start := page.Page * page.Size
	if start > len(matches) {
		start = len(matches)
	}
	end := start + page.Size
	if end > len(matches) {
		end = len(matches)
	}

	return matches[start:end], total, nil
}

func (m *MockPaymentLinkRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	if m.ExpireOverdueError != nil {
		return 0, m.ExpireOverdueError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, link := range m.links {
		if link.Status == domain.LinkStatusCreated && link.ExpiresAt.Before(now) {
			link.Status = domain.LinkStatusExpired
			count++
		}
	}
	return count, nil
}

// ──────────────────────────────────────────────
// MOCK PAYMENT ATTEMPT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentAttemptRepository is a mock implementation of PaymentAttemptRepository.
type MockPaymentAttemptRepository struct {
	mu       sync.RWMutex
	attempts map[string]*domain.PaymentAttempt

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error

	// SkipLookupOnce makes the next GetByLinkAndKey miss even if a record
	// exists, simulating a concurrent insert racing past the fast-path check.
	SkipLookupOnce bool
}

// NewMockPaymentAttemptRepository creates a new mock payment attempt repository.
func NewMockPaymentAttemptRepository() *MockPaymentAttemptRepository {
	return &MockPaymentAttemptRepository{
		attempts: make(map[string]*domain.PaymentAttempt),
	}
}

func attemptKey(linkID, idempotencyKey string) string {
	return fmt.Sprintf("%s|%s", linkID, idempotencyKey)
}

// AddAttempt adds an attempt to the mock repository.
func (m *MockPaymentAttemptRepository) AddAttempt(attempt *domain.PaymentAttempt) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts[attemptKey(attempt.PaymentLinkID, attempt.IdempotencyKey)] = attempt
}

// Count returns the number of recorded attempts.
func (m *MockPaymentAttemptRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.attempts)
}

func (m *MockPaymentAttemptRepository) Create(ctx context.Context, attempt *domain.PaymentAttempt) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := attemptKey(attempt.PaymentLinkID, attempt.IdempotencyKey)
	if _, exists := m.attempts[key]; exists {
		return repository.ErrDuplicate
	}
	copy := *attempt
	m.attempts[key] = &copy
	return nil
}

func (m *MockPaymentAttemptRepository) GetByLinkAndKey(ctx context.Context, linkID, idempotencyKey string) (*domain.PaymentAttempt, error) {
	m.mu.Lock()
	if m.SkipLookupOnce {
		m.SkipLookupOnce = false
		m.mu.Unlock()
		return nil, nil
	}
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()
	attempt, ok := m.attempts[attemptKey(linkID, idempotencyKey)]
	if !ok {
		return nil, nil
	}
	copy := *attempt
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK TX RUNNER
// ──────────────────────────────────────────────

// MockTxRunner is a mock implementation of TxRunner. It hands the same mock
// repositories to the transactional function; rollback is not simulated.
type MockTxRunner struct {
	Links    repository.PaymentLinkRepository
	Attempts repository.PaymentAttemptRepository

	// Error injection
	BeginError error
}

// NewMockTxRunner creates a new mock tx runner over the given repositories.
func NewMockTxRunner(links repository.PaymentLinkRepository, attempts repository.PaymentAttemptRepository) *MockTxRunner {
	return &MockTxRunner{Links: links, Attempts: attempts}
}

func (m *MockTxRunner) WithinTx(ctx context.Context, fn func(repository.TxRepositories) error) error {
	if m.BeginError != nil {
		return m.BeginError
	}
	return fn(repository.TxRepositories{Links: m.Links, Attempts: m.Attempts})
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	Allow        bool
	AcquireError error

	AcquireCallCount int32
}

func (m *MockLockStore) AcquireSweepLock(ctx context.Context, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	return m.Allow, m.AcquireError
}

func (m *MockLockStore) ReleaseSweepLock(ctx context.Context) error {
	return nil
}

// ──────────────────────────────────────────────
// FAKE REFERENCE GENERATOR
// ──────────────────────────────────────────────

// FakeReferenceGenerator issues deterministic references for tests.
type FakeReferenceGenerator struct {
	counter atomic.Int64
}

func (g *FakeReferenceGenerator) Generate() string {
	return fmt.Sprintf("PL-2025-%06d", g.counter.Add(1))
}
