package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/laura2ndrea/payment-links/internal/domain"
	"github.com/laura2ndrea/payment-links/internal/redis"
	"github.com/laura2ndrea/payment-links/internal/repository"
)

const maxDescriptionLength = 255

// LinkService orchestrates the payment link lifecycle: create, inspect,
// list and cancel. Payments are handled by PaymentService.
type LinkService struct {
	linkRepo     repository.PaymentLinkRepository
	merchantRepo repository.MerchantRepository
	txRunner     repository.TxRunner
	references   ReferenceGenerator
	cache        redis.LinkCacheInterface
	now          func() time.Time
}

// NewLinkService creates a new LinkService. cache may be nil.
func NewLinkService(
	linkRepo repository.PaymentLinkRepository,
	merchantRepo repository.MerchantRepository,
	txRunner repository.TxRunner,
	references ReferenceGenerator,
	cache redis.LinkCacheInterface,
) *LinkService {
	return &LinkService{
		linkRepo:     linkRepo,
		merchantRepo: merchantRepo,
		txRunner:     txRunner,
		references:   references,
		cache:        cache,
		now:          time.Now,
	}
}

// CreateLinkRequest contains the parameters for creating a payment link.
type CreateLinkRequest struct {
	AmountCents      int64
	Currency         string
	Description      string
	ExpiresInMinutes int
	Metadata         map[string]any
}

// CreateLink creates a new payment link for the merchant. The expiry
// deadline is fixed here and never mutated afterwards.
func (s *LinkService) CreateLink(ctx context.Context, merchantID string, req CreateLinkRequest) (*domain.PaymentLink, error) {
	if merchantID == "" {
		return nil, ErrInvalidMerchantID
	}
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	// Merchant must exist; a missing merchant is a NotFound, not a fault.
	if _, err := s.merchantRepo.GetByID(ctx, merchantID); err != nil {
		return nil, err
	}

	now := s.now()
	link := &domain.PaymentLink{
		ID:          uuid.New().String(),
		MerchantID:  merchantID,
		AmountCents: req.AmountCents,
		Currency:    req.Currency,
		Description: req.Description,
		Status:      domain.LinkStatusCreated,
		ExpiresAt:   now.Add(time.Duration(req.ExpiresInMinutes) * time.Minute),
		Metadata:    req.Metadata,
		CreatedAt:   now,
	}

	// The generator is unique per process; the reference unique index covers
	// collisions across processes. One retry with a fresh reference is enough
	// to get past a colliding sibling.
	for attempt := 0; ; attempt++ {
		link.Reference = s.references.Generate()
		err := s.linkRepo.Create(ctx, link)
		if err == nil {
			break
		}
		if errors.Is(err, repository.ErrDuplicate) && attempt == 0 {
			continue
		}
		return nil, err
	}

	return link, nil
}

// GetLink retrieves a link by internal ID or human reference, scoped to the
// merchant. A link belonging to another merchant is indistinguishable from a
// missing one.
func (s *LinkService) GetLink(ctx context.Context, merchantID, identifier string) (*domain.PaymentLink, error) {
	if merchantID == "" {
		return nil, ErrInvalidMerchantID
	}
	if identifier == "" {
		return nil, ErrInvalidLinkID
	}

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, merchantID, identifier); err == nil && cached != nil {
			return cached, nil
		}
	}

	var link *domain.PaymentLink
	var err error
	if _, parseErr := uuid.Parse(identifier); parseErr == nil {
		link, err = s.linkRepo.GetByIDAndMerchant(ctx, identifier, merchantID)
	} else {
		link, err = s.linkRepo.GetByReferenceAndMerchant(ctx, identifier, merchantID)
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.Set(ctx, link)
	}

	return link, nil
}

// LinkPage is one page of a link search result.
type LinkPage struct {
	Links         []*domain.PaymentLink
	Page          int
	Size          int
	TotalElements int64
	TotalPages    int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// ListLinks returns the merchant's links matching the filter, paginated.
func (s *LinkService) ListLinks(ctx context.Context, merchantID string, filter repository.LinkFilter, page repository.PageRequest) (*LinkPage, error) {
	if merchantID == "" {
		return nil, ErrInvalidMerchantID
	}

	if page.Page < 0 {
		page.Page = 0
	}
	if page.Size <= 0 {
		page.Size = defaultPageSize
	}
	if page.Size > maxPageSize {
		page.Size = maxPageSize
	}

	links, total, err := s.linkRepo.Search(ctx, merchantID, filter, page)
	if err != nil {
		return nil, err
	}

	totalPages := int(total) / page.Size
	if int(total)%page.Size != 0 {
		totalPages++
	}

	return &LinkPage{
		Links:         links,
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: total,
		TotalPages:    totalPages,
	}, nil
}

// CancelLink cancels a link. Only legal from CREATED; the status write is a
// compare-and-swap so a concurrent pay or sweep cannot be overwritten.
func (s *LinkService) CancelLink(ctx context.Context, merchantID, linkID string) (*domain.PaymentLink, error) {
	if merchantID == "" {
		return nil, ErrInvalidMerchantID
	}
	if linkID == "" {
		return nil, ErrInvalidLinkID
	}

	link, err := s.linkRepo.GetByIDAndMerchant(ctx, linkID, merchantID)
	if err != nil {
		return nil, err
	}

	if !link.Status.CanTransitionTo(domain.LinkStatusCancelled) {
		return nil, ErrInvalidLinkState
	}

	err = s.txRunner.WithinTx(ctx, func(repos repository.TxRepositories) error {
		return repos.Links.MarkCancelled(ctx, link.ID)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// A concurrent pay or sweep won the row between our read and the
			// conditional update.
			return nil, ErrInvalidLinkState
		}
		return nil, err
	}

	link.Status = domain.LinkStatusCancelled

	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, link)
	}

	return link, nil
}

func validateCreateRequest(req CreateLinkRequest) error {
	if req.AmountCents <= 0 {
		return ErrInvalidAmount
	}
	if len(req.Currency) != 3 {
		return ErrInvalidCurrency
	}
	if req.Description == "" || len(req.Description) > maxDescriptionLength {
		return ErrInvalidDescription
	}
	if req.ExpiresInMinutes < 0 {
		return ErrInvalidTTL
	}
	return nil
}
