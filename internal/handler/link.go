package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/laura2ndrea/payment-links/internal/domain"
	"github.com/laura2ndrea/payment-links/internal/middleware"
	"github.com/laura2ndrea/payment-links/internal/repository"
	"github.com/laura2ndrea/payment-links/internal/service"
)

const idempotencyKeyHeader = "Idempotency-Key"

// LinkHandler handles HTTP requests for payment links.
type LinkHandler struct {
	linkService    *service.LinkService
	paymentService *service.PaymentService
}

// NewLinkHandler creates a new LinkHandler.
func NewLinkHandler(linkService *service.LinkService, paymentService *service.PaymentService) *LinkHandler {
	return &LinkHandler{
		linkService:    linkService,
		paymentService: paymentService,
	}
}

// CreateLinkRequest is the HTTP request body for creating a payment link.
type CreateLinkRequest struct {
	AmountCents      int64          `json:"amount_cents" binding:"required,gt=0"`
	Currency         string         `json:"currency" binding:"required,len=3"`
	Description      string         `json:"description" binding:"required,max=255"`
	ExpiresInMinutes *int           `json:"expires_in_minutes" binding:"required,gte=0"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// PayLinkRequest is the HTTP request body for paying a link.
type PayLinkRequest struct {
	PaymentToken string `json:"payment_token" binding:"required"`
}

// LinkSummaryResponse is the summary wire shape for a payment link.
type LinkSummaryResponse struct {
	ID          string `json:"id"`
	Reference   string `json:"reference"`
	Status      string `json:"status"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	ExpiresAt   string `json:"expires_at"`
}

// LinkDetailResponse is the full wire shape for a payment link: the summary
// plus the detail-only fields.
type LinkDetailResponse struct {
	LinkSummaryResponse
	Description string         `json:"description"`
	MerchantID  string         `json:"merchant_id"`
	CreatedAt   string         `json:"created_at"`
	PaidAt      string         `json:"paid_at,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// AttemptResponse is the wire shape for a payment attempt.
type AttemptResponse struct {
	ID             string `json:"id"`
	PaymentLinkID  string `json:"payment_link_id"`
	Status         string `json:"status"`
	Reason         string `json:"reason,omitempty"`
	IdempotencyKey string `json:"idempotency_key"`
	CreatedAt      string `json:"created_at"`
}

// LinkPageResponse is one page of link summaries.
type LinkPageResponse struct {
	Content       []LinkSummaryResponse `json:"content"`
	Page          int                   `json:"page"`
	Size          int                   `json:"size"`
	TotalElements int64                 `json:"total_elements"`
	TotalPages    int                   `json:"total_pages"`
}

// Create handles POST /payment-links
func (h *LinkHandler) Create(c *gin.Context) {
	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	link, err := h.linkService.CreateLink(c.Request.Context(), middleware.MerchantID(c), service.CreateLinkRequest{
		AmountCents:      req.AmountCents,
		Currency:         req.Currency,
		Description:      req.Description,
		ExpiresInMinutes: *req.ExpiresInMinutes,
		Metadata:         req.Metadata,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toSummaryResponse(link))
}

// List handles GET /payment-links
func (h *LinkHandler) List(c *gin.Context) {
	filter, page, err := parseListQuery(c)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: err.Error(),
		})
		return
	}

	result, err := h.linkService.ListLinks(c.Request.Context(), middleware.MerchantID(c), filter, page)
	if err != nil {
		respondError(c, err)
		return
	}

	content := make([]LinkSummaryResponse, 0, len(result.Links))
	for _, link := range result.Links {
		content = append(content, toSummaryResponse(link))
	}

	respondJSON(c, http.StatusOK, LinkPageResponse{
		Content:       content,
		Page:          result.Page,
		Size:          result.Size,
		TotalElements: result.TotalElements,
		TotalPages:    result.TotalPages,
	})
}

// Get handles GET /payment-links/:id (ID or human reference)
func (h *LinkHandler) Get(c *gin.Context) {
	link, err := h.linkService.GetLink(c.Request.Context(), middleware.MerchantID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toDetailResponse(link))
}

// Pay handles POST /payment-links/:id/pay
func (h *LinkHandler) Pay(c *gin.Context) {
	var req PayLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindingError(c, err)
		return
	}

	attempt, err := h.paymentService.Pay(
		c.Request.Context(),
		middleware.MerchantID(c),
		c.Param("id"),
		req.PaymentToken,
		c.GetHeader(idempotencyKeyHeader),
	)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, AttemptResponse{
		ID:             attempt.ID,
		PaymentLinkID:  attempt.PaymentLinkID,
		Status:         string(attempt.Status),
		Reason:         attempt.Reason,
		IdempotencyKey: attempt.IdempotencyKey,
		CreatedAt:      attempt.CreatedAt.Format(time.RFC3339),
	})
}

// Cancel handles POST /payment-links/:id/cancel
func (h *LinkHandler) Cancel(c *gin.Context) {
	link, err := h.linkService.CancelLink(c.Request.Context(), middleware.MerchantID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toSummaryResponse(link))
}

func toSummaryResponse(link *domain.PaymentLink) LinkSummaryResponse {
	return LinkSummaryResponse{
		ID:          link.ID,
		Reference:   link.Reference,
		Status:      string(link.Status),
		AmountCents: link.AmountCents,
		Currency:    link.Currency,
		ExpiresAt:   link.ExpiresAt.Format(time.RFC3339),
	}
}

func toDetailResponse(link *domain.PaymentLink) LinkDetailResponse {
	resp := LinkDetailResponse{
		LinkSummaryResponse: toSummaryResponse(link),
		Description:         link.Description,
		MerchantID:          link.MerchantID,
		CreatedAt:           link.CreatedAt.Format(time.RFC3339),
		Metadata:            link.Metadata,
	}
	if !link.PaidAt.IsZero() {
		resp.PaidAt = link.PaidAt.Format(time.RFC3339)
	}
	return resp
}

func parseListQuery(c *gin.Context) (repository.LinkFilter, repository.PageRequest, error) {
	var filter repository.LinkFilter

	if raw := c.Query("status"); raw != "" {
		status, ok := domain.ParseLinkStatus(raw)
		if !ok {
			return filter, repository.PageRequest{}, errors.New("status must be one of CREATED, PAID, CANCELLED, EXPIRED")
		}
		filter.Status = &status
	}

	if raw := c.Query("from_date"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, repository.PageRequest{}, err
		}
		filter.FromDate = &from
	}

	if raw := c.Query("to_date"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, repository.PageRequest{}, err
		}
		filter.ToDate = &to
	}

	if raw := c.Query("min_amount"); raw != "" {
		min, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, repository.PageRequest{}, err
		}
		filter.MinAmount = &min
	}

	if raw := c.Query("max_amount"); raw != "" {
		max, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, repository.PageRequest{}, err
		}
		filter.MaxAmount = &max
	}

	page := repository.PageRequest{
		Page: queryInt(c, "page", 0),
		Size: queryInt(c, "size", 0),
	}

	return filter, page, nil
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
