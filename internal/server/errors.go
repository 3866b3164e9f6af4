package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	documentdomain "github.com/studioops/billing/internal/document/domain"
	paymentdomain "github.com/studioops/billing/internal/payment/domain"
	subscriptiondomain "github.com/studioops/billing/internal/subscription/domain"
)

// APIError is the wire shape of a handler error.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

func invalidRequestError() *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: "invalid_request", Message: "request body could not be parsed"}
}

func newValidationError(field, code, message string) *APIError {
	return &APIError{Status: http.StatusBadRequest, Code: code, Field: field, Message: message}
}

// statusByError maps service sentinel errors onto HTTP statuses. Anything
// unmapped is an internal error.
var statusByError = map[error]int{
	documentdomain.ErrNotFound:           http.StatusNotFound,
	documentdomain.ErrInvalidID:          http.StatusBadRequest,
	documentdomain.ErrInvalidType:        http.StatusBadRequest,
	documentdomain.ErrInvalidStatus:      http.StatusBadRequest,
	documentdomain.ErrInvalidCounterpart: http.StatusBadRequest,
	documentdomain.ErrInvalidCurrency:    http.StatusBadRequest,
	documentdomain.ErrEmptyItems:         http.StatusBadRequest,
	documentdomain.ErrInvalidDescription: http.StatusBadRequest,
	documentdomain.ErrInvalidQuantity:    http.StatusBadRequest,
	documentdomain.ErrInvalidUnitAmount:  http.StatusBadRequest,
	documentdomain.ErrInvalidTaxRate:     http.StatusBadRequest,
	documentdomain.ErrInvalidDiscount:    http.StatusBadRequest,
	documentdomain.ErrInvalidTaxMode:     http.StatusBadRequest,
	documentdomain.ErrInvalidShipping:    http.StatusBadRequest,
	documentdomain.ErrInvalidDueInDays:   http.StatusBadRequest,
	documentdomain.ErrNotDraft:           http.StatusConflict,
	documentdomain.ErrConcurrentUpdate:   http.StatusConflict,
	documentdomain.ErrDocumentNotPayable: http.StatusConflict,

	paymentdomain.ErrInvalidAmount:         http.StatusBadRequest,
	paymentdomain.ErrInvalidIdempotencyKey: http.StatusBadRequest,
	paymentdomain.ErrCurrencyMismatch:      http.StatusBadRequest,
	paymentdomain.ErrOverpayment:           http.StatusConflict,
	paymentdomain.ErrDuplicatePayment:      http.StatusConflict,

	subscriptiondomain.ErrTemplateNotFound: http.StatusNotFound,
	subscriptiondomain.ErrInvalidName:      http.StatusBadRequest,
	subscriptiondomain.ErrInvalidCadence:   http.StatusBadRequest,
	subscriptiondomain.ErrEmptyItems:       http.StatusBadRequest,
	subscriptiondomain.ErrTemplateInactive: http.StatusConflict,
	subscriptiondomain.ErrConcurrentRun:    http.StatusConflict,
}

// AbortWithError writes the error response for a handler failure.
func AbortWithError(c *gin.Context, err error) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		abort(c, apiErr)
		return
	}

	var transitionErr *documentdomain.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		abort(c, &APIError{
			Status:  http.StatusConflict,
			Code:    "invalid_transition",
			Message: transitionErr.Error(),
		})
		return
	}

	for sentinel, status := range statusByError {
		if errors.Is(err, sentinel) {
			abort(c, &APIError{Status: status, Code: sentinel.Error(), Message: err.Error()})
			return
		}
	}

	_ = c.Error(err)
	abort(c, &APIError{Status: http.StatusInternalServerError, Code: "internal_error", Message: "internal error"})
}

func abort(c *gin.Context, apiErr *APIError) {
	c.AbortWithStatusJSON(apiErr.Status, gin.H{"error": apiErr})
}
