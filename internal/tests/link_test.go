package tests

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/laura2ndrea/payment-links/internal/domain"
	"github.com/laura2ndrea/payment-links/internal/repository"
	"github.com/laura2ndrea/payment-links/internal/service"
)

func newLinkService(linkRepo *MockPaymentLinkRepository, merchantRepo *MockMerchantRepository) *service.LinkService {
	txRunner := NewMockTxRunner(linkRepo, NewMockPaymentAttemptRepository())
	return service.NewLinkService(linkRepo, merchantRepo, txRunner, &FakeReferenceGenerator{}, nil)
}

func seedMerchant(merchantRepo *MockMerchantRepository) *domain.Merchant {
	merchant := &domain.Merchant{
		ID:        uuid.New().String(),
		Name:      "Acme Store",
		Email:     "owner@acme.test",
		CreatedAt: time.Now(),
	}
	merchantRepo.AddMerchant(merchant)
	return merchant
}

func TestCreateLink_SetsCreatedStatusAndDeadline(t *testing.T) {
	linkRepo := NewMockPaymentLinkRepository()
	merchantRepo := NewMockMerchantRepository()
	merchant := seedMerchant(merchantRepo)
	svc := newLinkService(linkRepo, merchantRepo)

	before := time.Now()
	link, err := svc.CreateLink(context.Background(), merchant.ID, service.CreateLinkRequest{
		AmountCents:      5000,
		Currency:         "usd",
		Description:      "sneakers",
		ExpiresInMinutes: 30,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if link.Status != domain.LinkStatusCreated {
		t.Errorf("expected status CREATED, got %s", link.Status)
	}

	wantDeadline := before.Add(30 * time.Minute)
	if link.ExpiresAt.Before(wantDeadline) || link.ExpiresAt.After(wantDeadline.Add(time.Minute)) {
		t.Errorf("deadline %s not near now+30m", link.ExpiresAt)
	}

	if matched := regexp.MustCompile(`^PL-\d{4}-\d{6}$`).MatchString(link.Reference); !matched {
		t.Errorf("reference %q does not match PL-<year>-<seq>", link.Reference)
	}
}

func TestCreateLink_ReferencesAreUnique(t *testing.T) {
	linkRepo := NewMockPaymentLinkRepository()
	merchantRepo := NewMockMerchantRepository()
	merchant := seedMerchant(merchantRepo)
	svc := newLinkService(linkRepo, merchantRepo)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		link, err := svc.CreateLink(context.Background(), merchant.ID, service.CreateLinkRequest{
			AmountCents:      100,
			Currency:         "usd",
			Description:      "item",
			ExpiresInMinutes: 5,
		})
		if err != nil {
			t.Fatalf("unexpected error on link %d: %v", i, err)
		}
		if seen[link.Reference] {
			t.Fatalf("duplicate reference %q", link.Reference)
		}
		seen[link.Reference] = true
	}
}

func TestCreateLink_RetriesOnceOnReferenceCollision(t *testing.T) {
	linkRepo := NewMockPaymentLinkRepository()
	merchantRepo := NewMockMerchantRepository()
	merchant := seedMerchant(merchantRepo)
	svc := newLinkService(linkRepo, merchantRepo)

	// Another process grabbed the first reference.
	linkRepo.CreateErrorOnce = repository.ErrDuplicate

	link, err := svc.CreateLink(context.Background(), merchant.ID, service.CreateLinkRequest{
		AmountCents:      100,
		Currency:         "usd",
		Description:      "item",
		ExpiresInMinutes: 5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if linkRepo.CreateCallCount != 2 {
		t.Errorf("expected 2 create calls, got %d", linkRepo.CreateCallCount)
	}
	if link.Reference != "PL-2025-000002" {
		t.Errorf("expected second reference after retry, got %q", link.Reference)
	}
}

func TestCreateLink_MerchantMustExist(t *testing.T) {
	svc := newLinkService(NewMockPaymentLinkRepository(), NewMockMerchantRepository())

	_, err := svc.CreateLink(context.Background(), uuid.New().String(), service.CreateLinkRequest{
		AmountCents:      100,
		Currency:         "usd",
		Description:      "item",
		ExpiresInMinutes: 5,
	})

	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateLink_ValidatesInput(t *testing.T) {
	linkRepo := NewMockPaymentLinkRepository()
	merchantRepo := NewMockMerchantRepository()
	merchant := seedMerchant(merchantRepo)
	svc := newLinkService(linkRepo, merchantRepo)

	testCases := []struct {
		name    string
		req     service.CreateLinkRequest
		wantErr error
	}{
		{"zero amount", service.CreateLinkRequest{AmountCents: 0, Currency: "usd", Description: "x", ExpiresInMinutes: 5}, service.ErrInvalidAmount},
		{"negative amount", service.CreateLinkRequest{AmountCents: -5, Currency: "usd", Description: "x", ExpiresInMinutes: 5}, service.ErrInvalidAmount},
		{"short currency", service.CreateLinkRequest{AmountCents: 100, Currency: "us", Description: "x", ExpiresInMinutes: 5}, service.ErrInvalidCurrency},
		{"long currency", service.CreateLinkRequest{AmountCents: 100, Currency: "usdt", Description: "x", ExpiresInMinutes: 5}, service.ErrInvalidCurrency},
		{"empty description", service.CreateLinkRequest{AmountCents: 100, Currency: "usd", Description: "", ExpiresInMinutes: 5}, service.ErrInvalidDescription},
		{"negative ttl", service.CreateLinkRequest{AmountCents: 100, Currency: "usd", Description: "x", ExpiresInMinutes: -1}, service.ErrInvalidTTL},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateLink(context.Background(), merchant.ID, tc.req)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestGetLink_ByIDAndByReference(t *testing.T) {
	linkRepo := NewMockPaymentLinkRepository()
	merchantRepo := NewMockMerchantRepository()
	merchant := seedMerchant(merchantRepo)
	svc := newLinkService(linkRepo, merchantRepo)

	link := &domain.PaymentLink{
		ID:         uuid.New().String(),
		MerchantID: merchant.ID,
		Reference:  "PL-2025-000042",
		Status:     domain.LinkStatusCreated,
		ExpiresAt:  time.Now().Add(time.Hour),
		CreatedAt:  time.Now(),
	}
	linkRepo.AddLink(link)

	byID, err := svc.GetLink(context.Background(), merchant.ID, link.ID)
	if err != nil {
		t.Fatalf("lookup by id failed: %v", err)
	}
	if byID.Reference != link.Reference {
		t.Errorf("expected reference %q, got %q", link.Reference, byID.Reference)
	}

	byRef, err := svc.GetLink(context.Background(), merchant.ID, link.Reference)
	if err != nil {
		t.Fatalf("lookup by reference failed: %v", err)
	}
	if byRef.ID != link.ID {
		t.Errorf("expected id %q, got %q", link.ID, byRef.ID)
	}
}

func TestGetLink_OtherMerchantsLinkIsNotFound(t *testing.T) {
	linkRepo := NewMockPaymentLinkRepository()
	merchantRepo := NewMockMerchantRepository()
	merchant := seedMerchant(merchantRepo)
	svc := newLinkService(linkRepo, merchantRepo)

	link := &domain.PaymentLink{
		ID:         uuid.New().String(),
		MerchantID: uuid.New().String(), // someone else's link
		Reference:  "PL-2025-000099",
		Status:     domain.LinkStatusCreated,
		ExpiresAt:  time.Now().Add(time.Hour),
		CreatedAt:  time.Now(),
	}
	linkRepo.AddLink(link)

	_, err := svc.GetLink(context.Background(), merchant.ID, link.ID)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound for cross-merchant lookup, got %v", err)
	}
}

func TestCancelLink_OnlyLegalFromCreated(t *testing.T) {
	testCases := []struct {
		name    string
		status  domain.LinkStatus
		wantErr error
	}{
		{"created", domain.LinkStatusCreated, nil},
		{"paid", domain.LinkStatusPaid, service.ErrInvalidLinkState},
		{"cancelled", domain.LinkStatusCancelled, service.ErrInvalidLinkState},
		{"expired", domain.LinkStatusExpired, service.ErrInvalidLinkState},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			linkRepo := NewMockPaymentLinkRepository()
			merchantRepo := NewMockMerchantRepository()
			merchant := seedMerchant(merchantRepo)
			svc := newLinkService(linkRepo, merchantRepo)

			link := &domain.PaymentLink{
				ID:         uuid.New().String(),
				MerchantID: merchant.ID,
				Reference:  "PL-2025-000001",
				Status:     tc.status,
				ExpiresAt:  time.Now().Add(time.Hour),
				CreatedAt:  time.Now(),
			}
			linkRepo.AddLink(link)

			cancelled, err := svc.CancelLink(context.Background(), merchant.ID, link.ID)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if tc.wantErr == nil && cancelled.Status != domain.LinkStatusCancelled {
				t.Errorf("expected CANCELLED, got %s", cancelled.Status)
			}
		})
	}
}

func TestCancelLink_ConcurrentTransitionLosesGracefully(t *testing.T) {
	linkRepo := NewMockPaymentLinkRepository()
	merchantRepo := NewMockMerchantRepository()
	merchant := seedMerchant(merchantRepo)
	svc := newLinkService(linkRepo, merchantRepo)

	link := &domain.PaymentLink{
		ID:         uuid.New().String(),
		MerchantID: merchant.ID,
		Reference:  "PL-2025-000001",
		Status:     domain.LinkStatusCreated,
		ExpiresAt:  time.Now().Add(time.Hour),
		CreatedAt:  time.Now(),
	}
	linkRepo.AddLink(link)

	// The conditional update finds no CREATED row: a concurrent pay won.
	linkRepo.MarkCancelledError = repository.ErrNotFound

	_, err := svc.CancelLink(context.Background(), merchant.ID, link.ID)
	if !errors.Is(err, service.ErrInvalidLinkState) {
		t.Errorf("expected ErrInvalidLinkState after losing the race, got %v", err)
	}
}

func TestListLinks_FiltersAndPaginates(t *testing.T) {
	linkRepo := NewMockPaymentLinkRepository()
	merchantRepo := NewMockMerchantRepository()
	merchant := seedMerchant(merchantRepo)
	svc := newLinkService(linkRepo, merchantRepo)

	base := time.Now()
	statuses := []domain.LinkStatus{
		domain.LinkStatusCreated,
		domain.LinkStatusCreated,
		domain.LinkStatusPaid,
		domain.LinkStatusCancelled,
	}
	for i, status := range statuses {
		linkRepo.AddLink(&domain.PaymentLink{
			ID:          uuid.New().String(),
			MerchantID:  merchant.ID,
			Reference:   "PL-2025-00000" + string(rune('1'+i)),
			AmountCents: int64(1000 * (i + 1)),
			Status:      status,
			ExpiresAt:   base.Add(time.Hour),
			CreatedAt:   base.Add(time.Duration(i) * time.Second),
		})
	}

	created := domain.LinkStatusCreated
	page, err := svc.ListLinks(context.Background(), merchant.ID, repository.LinkFilter{Status: &created}, repository.PageRequest{Page: 0, Size: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.TotalElements != 2 {
		t.Errorf("expected 2 CREATED links, got %d", page.TotalElements)
	}

	minAmount := int64(2000)
	page, err = svc.ListLinks(context.Background(), merchant.ID, repository.LinkFilter{MinAmount: &minAmount}, repository.PageRequest{Page: 0, Size: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.TotalElements != 3 {
		t.Errorf("expected 3 links with amount >= 2000, got %d", page.TotalElements)
	}
	if len(page.Links) != 2 {
		t.Errorf("expected page of 2, got %d", len(page.Links))
	}
	if page.TotalPages != 2 {
		t.Errorf("expected 2 total pages, got %d", page.TotalPages)
	}
}
