package domain

import (
	"context"
	"errors"
	"time"

	documentdomain "github.com/studioops/billing/internal/document/domain"
)

// CreateRequest creates a subscription template. StartAt anchors the first
// run; when omitted the template is due immediately.
type CreateRequest struct {
	Name           string                          `json:"name"`
	CounterpartID  string                          `json:"counterpart_id"`
	Currency       string                          `json:"currency"`
	Cadence        string                          `json:"cadence"`
	Items          []documentdomain.ItemInput      `json:"items"`
	Discount       *documentdomain.DiscountInput   `json:"discount"`
	TaxMode        string                          `json:"tax_mode"`
	ShippingAmount int64                           `json:"shipping_amount"`
	DueInDays      int                             `json:"due_in_days"`
	StartAt        *time.Time                      `json:"start_at"`
}

// UpdateRequest replaces the mutable fields of a template. A cadence change
// takes effect from the next advance; NextRunAt is never rewritten here.
type UpdateRequest struct {
	Name           string                        `json:"name"`
	CounterpartID  string                        `json:"counterpart_id"`
	Currency       string                        `json:"currency"`
	Cadence        string                        `json:"cadence"`
	Items          []documentdomain.ItemInput    `json:"items"`
	Discount       *documentdomain.DiscountInput `json:"discount"`
	TaxMode        string                        `json:"tax_mode"`
	ShippingAmount int64                         `json:"shipping_amount"`
	DueInDays      int                           `json:"due_in_days"`
}

// ListRequest filters subscription templates.
type ListRequest struct {
	CounterpartID string `form:"counterpart_id"`
	Active        *bool  `form:"active"`
	Limit         int    `form:"limit"`
}

// RunResult links a template run to the bill it produced.
type RunResult struct {
	Template *SubscriptionTemplate    `json:"template"`
	Document *documentdomain.Document `json:"document"`
}

// Service is the subscription scheduling contract. Run executes one cycle
// immediately; RunDue is the scheduler entry point that runs every template
// whose NextRunAt has passed.
type Service interface {
	Create(ctx context.Context, req CreateRequest) (*SubscriptionTemplate, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*SubscriptionTemplate, error)
	Get(ctx context.Context, id string) (*SubscriptionTemplate, error)
	List(ctx context.Context, req ListRequest) ([]SubscriptionTemplate, error)
	SetActive(ctx context.Context, id string, active bool) (*SubscriptionTemplate, error)
	Run(ctx context.Context, id string) (*RunResult, error)
	RunDue(ctx context.Context, now time.Time, limit int) (int, error)
}

var (
	ErrTemplateNotFound = errors.New("subscription_template_not_found")
	ErrTemplateInactive = errors.New("subscription_template_inactive")
	ErrInvalidName      = errors.New("invalid_template_name")
	ErrInvalidCadence   = errors.New("invalid_cadence")
	ErrEmptyItems       = errors.New("empty_template_items")
	ErrConcurrentRun    = errors.New("concurrent_subscription_run")
)
