package tests

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/laura2ndrea/payment-links/internal/domain"
	"github.com/laura2ndrea/payment-links/internal/service"
)

func addSweepLink(repo *MockPaymentLinkRepository, status domain.LinkStatus, expiresAt time.Time) *domain.PaymentLink {
	link := &domain.PaymentLink{
		ID:         uuid.New().String(),
		MerchantID: uuid.New().String(),
		Reference:  "PL-2025-" + uuid.New().String()[:6],
		Status:     status,
		ExpiresAt:  expiresAt,
		CreatedAt:  time.Now(),
	}
	repo.AddLink(link)
	return link
}

func TestSweeper_RunOnceExpiresOnlyOverdueCreatedLinks(t *testing.T) {
	linkRepo := NewMockPaymentLinkRepository()
	now := time.Now()

	overdue1 := addSweepLink(linkRepo, domain.LinkStatusCreated, now.Add(-time.Hour))
	overdue2 := addSweepLink(linkRepo, domain.LinkStatusCreated, now.Add(-time.Minute))
	future := addSweepLink(linkRepo, domain.LinkStatusCreated, now.Add(time.Hour))
	paid := addSweepLink(linkRepo, domain.LinkStatusPaid, now.Add(-time.Hour))
	cancelled := addSweepLink(linkRepo, domain.LinkStatusCancelled, now.Add(-time.Hour))

	sweeper := service.NewSweeper(linkRepo, nil, nil, time.Minute)

	count, err := sweeper.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 expired, got %d", count)
	}

	for _, id := range []string{overdue1.ID, overdue2.ID} {
		if got := linkRepo.GetLink(id).Status; got != domain.LinkStatusExpired {
			t.Errorf("expected EXPIRED for overdue link, got %s", got)
		}
	}
	if got := linkRepo.GetLink(future.ID).Status; got != domain.LinkStatusCreated {
		t.Errorf("future link should stay CREATED, got %s", got)
	}
	if got := linkRepo.GetLink(paid.ID).Status; got != domain.LinkStatusPaid {
		t.Errorf("paid link should stay PAID, got %s", got)
	}
	if got := linkRepo.GetLink(cancelled.ID).Status; got != domain.LinkStatusCancelled {
		t.Errorf("cancelled link should stay CANCELLED, got %s", got)
	}
}

func TestSweeper_SecondRunIsANoOp(t *testing.T) {
	linkRepo := NewMockPaymentLinkRepository()
	addSweepLink(linkRepo, domain.LinkStatusCreated, time.Now().Add(-time.Hour))

	sweeper := service.NewSweeper(linkRepo, nil, nil, time.Minute)

	first, err := sweeper.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != 1 {
		t.Fatalf("expected 1 expired on first run, got %d", first)
	}

	second, err := sweeper.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second != 0 {
		t.Errorf("expected 0 expired on second run, got %d", second)
	}
}

func TestSweeper_SkipsRunWhenAnotherInstanceHoldsTheLock(t *testing.T) {
	linkRepo := NewMockPaymentLinkRepository()
	addSweepLink(linkRepo, domain.LinkStatusCreated, time.Now().Add(-time.Hour))

	locks := &MockLockStore{Allow: false}
	sweeper := service.NewSweeper(linkRepo, locks, nil, time.Minute)

	count, err := sweeper.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 expired while lock is held elsewhere, got %d", count)
	}
	if locks.AcquireCallCount != 1 {
		t.Errorf("expected 1 lock acquisition attempt, got %d", locks.AcquireCallCount)
	}
}

func TestSweeper_SweepsAnywayWhenLockStoreErrors(t *testing.T) {
	linkRepo := NewMockPaymentLinkRepository()
	addSweepLink(linkRepo, domain.LinkStatusCreated, time.Now().Add(-time.Hour))

	locks := &MockLockStore{Allow: false, AcquireError: context.DeadlineExceeded}
	sweeper := service.NewSweeper(linkRepo, locks, nil, time.Minute)

	count, err := sweeper.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 1 {
		t.Errorf("expected sweep to proceed on lock error, got count %d", count)
	}
}
