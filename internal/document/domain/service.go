package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// ItemInput is one line item as submitted by a caller. UnitAmount is in
// minor units of the document currency.
type ItemInput struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitAmount  int64           `json:"unit_amount"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Category    string          `json:"category"`
}

// DiscountInput is the caller-facing discount spec.
type DiscountInput struct {
	Mode  string          `json:"mode"`
	Value decimal.Decimal `json:"value"`
}

// CreateRequest creates a DRAFT document.
type CreateRequest struct {
	Type           string         `json:"type"`
	CounterpartID  string         `json:"counterpart_id"`
	Currency       string         `json:"currency"`
	Items          []ItemInput    `json:"items"`
	Discount       *DiscountInput `json:"discount"`
	TaxMode        string         `json:"tax_mode"`
	ShippingAmount int64          `json:"shipping_amount"`
	DueInDays      int            `json:"due_in_days"`
	Notes          string         `json:"notes"`
}

// UpdateRequest replaces the mutable fields of a DRAFT document. Totals are
// recomputed from scratch on every update.
type UpdateRequest struct {
	CounterpartID  string         `json:"counterpart_id"`
	Items          []ItemInput    `json:"items"`
	Discount       *DiscountInput `json:"discount"`
	TaxMode        string         `json:"tax_mode"`
	ShippingAmount int64          `json:"shipping_amount"`
	DueInDays      int            `json:"due_in_days"`
	Notes          string         `json:"notes"`
}

// ListRequest filters documents.
type ListRequest struct {
	Type          string `form:"type"`
	Status        string `form:"status"`
	CounterpartID string `form:"counterpart_id"`
	Limit         int    `form:"limit"`
}

// Service is the document lifecycle contract.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Document, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Document, error)
	Get(ctx context.Context, id string) (*Document, error)
	List(ctx context.Context, req ListRequest) ([]Document, error)
	Schedule(ctx context.Context, id string) (*Document, error)
	Cancel(ctx context.Context, id string, reason string) (*Document, error)
	Transition(ctx context.Context, id string, to DocumentStatus, reason string) (*Document, error)
}

// ParseID parses a caller-supplied snowflake ID.
func ParseID(raw string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(raw))
}

var (
	ErrNotFound           = errors.New("document_not_found")
	ErrNotDraft           = errors.New("document_not_draft")
	ErrInvalidID          = errors.New("invalid_document_id")
	ErrInvalidType        = errors.New("invalid_document_type")
	ErrInvalidStatus      = errors.New("invalid_document_status")
	ErrInvalidCounterpart = errors.New("invalid_counterpart")
	ErrInvalidCurrency    = errors.New("invalid_currency")
	ErrEmptyItems         = errors.New("empty_items")
	ErrInvalidDescription = errors.New("invalid_item_description")
	ErrInvalidQuantity    = errors.New("invalid_quantity")
	ErrInvalidUnitAmount  = errors.New("invalid_unit_amount")
	ErrInvalidTaxRate     = errors.New("invalid_tax_rate")
	ErrInvalidDiscount    = errors.New("invalid_discount")
	ErrInvalidTaxMode     = errors.New("invalid_tax_mode")
	ErrInvalidShipping    = errors.New("invalid_shipping")
	ErrInvalidDueInDays   = errors.New("invalid_due_in_days")
	ErrConcurrentUpdate   = errors.New("concurrent_update")
	ErrDocumentNotPayable = errors.New("document_not_payable")
)

// OverdueCandidate is the sweep view of an issued, unpaid, past-due document.
type OverdueCandidate struct {
	ID     snowflake.ID
	Status DocumentStatus
}

// Sweeper is implemented by the document service for the periodic scheduler
// sweep; separated so the worker does not depend on the full Service.
type Sweeper interface {
	MarkOverdue(ctx context.Context, now time.Time, limit int) (int, error)
}
