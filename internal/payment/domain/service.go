package domain

import (
	"context"
	"errors"

	documentdomain "github.com/studioops/billing/internal/document/domain"
)

// ApplyRequest applies a payment to a document. IdempotencyKey must be a
// UUID; retrying with the same key and amount replays the original result
// instead of double-posting.
type ApplyRequest struct {
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	IdempotencyKey string `json:"idempotency_key"`
	Method         string `json:"method"`
	Reference      string `json:"reference"`
}

// ApplyResult is the outcome of a payment application. Replayed is true when
// the idempotency key matched an earlier application and nothing was written.
type ApplyResult struct {
	Payment  *Payment                 `json:"payment"`
	Document *documentdomain.Document `json:"document"`
	Replayed bool                     `json:"replayed"`
}

// Service is the payment ledger contract.
type Service interface {
	Apply(ctx context.Context, documentID string, req ApplyRequest) (*ApplyResult, error)
	ListByDocument(ctx context.Context, documentID string) ([]Payment, error)
}

var (
	ErrInvalidAmount         = errors.New("invalid_payment_amount")
	ErrInvalidIdempotencyKey = errors.New("invalid_idempotency_key")
	ErrCurrencyMismatch      = errors.New("payment_currency_mismatch")
	ErrOverpayment           = errors.New("overpayment")
	ErrDuplicatePayment      = errors.New("duplicate_payment")
)
