package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/laura2ndrea/payment-links/internal/repository"
	"github.com/laura2ndrea/payment-links/internal/service"
)

// ErrorResponse is the wire shape for every error.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// respondError maps service and repository errors onto the stable HTTP
// taxonomy. Anything unrecognized becomes a 500 with no internal detail.
func respondError(c *gin.Context, err error) {
	var expired *service.LinkExpiredError

	switch {
	case errors.Is(err, repository.ErrNotFound):
		// Deliberately generic: a link owned by another merchant must be
		// indistinguishable from a missing one.
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    "NOT_FOUND",
			Message: "resource not found",
		})

	case errors.As(err, &expired):
		c.JSON(http.StatusConflict, ErrorResponse{
			Code:    "LINK_EXPIRED",
			Message: err.Error(),
			Details: map[string]any{"expires_at": expired.ExpiresAt.Format(time.RFC3339)},
		})

	case errors.Is(err, service.ErrInvalidLinkState):
		c.JSON(http.StatusConflict, ErrorResponse{
			Code:    "CONFLICT",
			Message: err.Error(),
		})

	case errors.Is(err, service.ErrDuplicateAttempt):
		c.JSON(http.StatusConflict, ErrorResponse{
			Code:    "DUPLICATE_OPERATION",
			Message: err.Error(),
		})

	case errors.Is(err, service.ErrEmailExists):
		c.JSON(http.StatusConflict, ErrorResponse{
			Code:    "EMAIL_EXISTS",
			Message: err.Error(),
		})

	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    "UNAUTHORIZED",
			Message: err.Error(),
		})

	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidCurrency),
		errors.Is(err, service.ErrInvalidDescription),
		errors.Is(err, service.ErrInvalidTTL),
		errors.Is(err, service.ErrMissingIdempotencyKey),
		errors.Is(err, service.ErrMissingPaymentToken),
		errors.Is(err, service.ErrInvalidLinkID),
		errors.Is(err, service.ErrInvalidMerchantID):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Code:    "VALIDATION_ERROR",
			Message: err.Error(),
		})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "INTERNAL",
			Message: "internal server error",
		})
	}
}

// respondBindingError turns a request body binding failure into a 422 with
// per-field messages where the validator provides them.
func respondBindingError(c *gin.Context, err error) {
	details := map[string]any{}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, fieldErr := range validationErrs {
			details[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
		}
	}

	resp := ErrorResponse{
		Code:    "VALIDATION_ERROR",
		Message: "invalid request body",
	}
	if len(details) > 0 {
		resp.Details = details
	}

	c.JSON(http.StatusUnprocessableEntity, resp)
}
