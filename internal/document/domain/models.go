package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/studioops/billing/internal/money"
	"github.com/studioops/billing/internal/pricing"
)

// DocumentType distinguishes quotes from bills. Both share the same
// lifecycle and totals computation.
type DocumentType string

const (
	DocumentTypeQuote DocumentType = "QUOTE"
	DocumentTypeBill  DocumentType = "BILL"
)

// DocumentStatus is the closed set of lifecycle states.
type DocumentStatus string

const (
	StatusDraft     DocumentStatus = "DRAFT"
	StatusScheduled DocumentStatus = "SCHEDULED"
	StatusPartial   DocumentStatus = "PARTIAL"
	StatusPaid      DocumentStatus = "PAID"
	StatusOverdue   DocumentStatus = "OVERDUE"
	StatusCancelled DocumentStatus = "CANCELLED"
)

// Document is a financial document (quote or bill). Totals columns are a
// cached projection of the items and are recomputed on every mutation; the
// items remain the source of truth. Numbered documents are never hard
// deleted, only cancelled.
type Document struct {
	ID             snowflake.ID      `gorm:"primaryKey" json:"id"`
	Type           DocumentType      `gorm:"type:text;not null;index" json:"type"`
	Number         *string           `gorm:"type:text;uniqueIndex" json:"number,omitempty"`
	CounterpartID  snowflake.ID      `gorm:"not null;index" json:"counterpart_id"`
	Currency       string            `gorm:"type:text;not null" json:"currency"`
	Status         DocumentStatus    `gorm:"type:text;not null;index;default:'DRAFT'" json:"status"`
	IssueDate      time.Time         `gorm:"not null" json:"issue_date"`
	DueDate        time.Time         `gorm:"not null;index" json:"due_date"`
	TaxMode        pricing.TaxMode   `gorm:"type:text;not null" json:"tax_mode"`
	DiscountMode   string            `gorm:"type:text;not null;default:''" json:"discount_mode"`
	DiscountValue  decimal.Decimal   `gorm:"type:decimal(18,6);not null;default:0" json:"discount_value"`
	ShippingAmount int64             `gorm:"not null;default:0" json:"shipping_amount"`
	SubtotalAmount int64             `gorm:"not null;default:0" json:"subtotal_amount"`
	DiscountAmount int64             `gorm:"not null;default:0" json:"discount_amount"`
	TaxAmount      int64             `gorm:"not null;default:0" json:"tax_amount"`
	TotalAmount    int64             `gorm:"not null;default:0" json:"total_amount"`
	AmountPaid     int64             `gorm:"not null;default:0" json:"amount_paid"`
	Notes          string            `gorm:"type:text;not null;default:''" json:"notes"`
	Metadata       datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CancelReason   *string           `gorm:"type:text" json:"cancel_reason,omitempty"`
	CancelledAt    *time.Time        `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Items []DocumentItem `gorm:"-" json:"items"`
}

// TableName sets the database table name.
func (Document) TableName() string { return "documents" }

// DocumentItem is one priced line owned exclusively by its document.
type DocumentItem struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	DocumentID  snowflake.ID    `gorm:"not null;index" json:"document_id"`
	Position    int             `gorm:"not null;default:0" json:"position"`
	Description string          `gorm:"type:text;not null;default:''" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0" json:"quantity"`
	UnitAmount  int64           `gorm:"not null;default:0" json:"unit_amount"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(9,4);not null;default:0" json:"tax_rate"`
	Category    string          `gorm:"type:text;not null;default:''" json:"category"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (DocumentItem) TableName() string { return "document_items" }

// DocumentSequence issues sequential document numbers per document type.
type DocumentSequence struct {
	DocType   DocumentType `gorm:"primaryKey;type:text" json:"doc_type"`
	LastValue int64        `gorm:"not null;default:0" json:"last_value"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (DocumentSequence) TableName() string { return "document_sequences" }

// AmountDue is the outstanding balance in minor units.
func (d *Document) AmountDue() int64 {
	return d.TotalAmount - d.AmountPaid
}

// Discount returns the document-level discount spec.
func (d *Document) Discount() pricing.DiscountSpec {
	return pricing.DiscountSpec{
		Mode:  pricing.DiscountMode(d.DiscountMode),
		Value: d.DiscountValue,
	}
}

// Totals returns the cached totals projection.
func (d *Document) Totals() pricing.Totals {
	return pricing.Totals{
		SubTotal:      money.New(d.SubtotalAmount, d.Currency),
		DiscountTotal: money.New(d.DiscountAmount, d.Currency),
		TaxTotal:      money.New(d.TaxAmount, d.Currency),
		GrandTotal:    money.New(d.TotalAmount, d.Currency),
	}
}

// PricingItems converts the stored items into engine inputs.
func (d *Document) PricingItems() []pricing.LineItem {
	items := make([]pricing.LineItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, pricing.LineItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   money.New(it.UnitAmount, d.Currency),
			TaxRate:     it.TaxRate,
			Category:    it.Category,
		})
	}
	return items
}

// ApplyTotals writes a computed Totals projection onto the cached columns.
func (d *Document) ApplyTotals(totals pricing.Totals) {
	d.SubtotalAmount = totals.SubTotal.Amount
	d.DiscountAmount = totals.DiscountTotal.Amount
	d.TaxAmount = totals.TaxTotal.Amount
	d.TotalAmount = totals.GrandTotal.Amount
}

// ValidDocumentType reports whether the type is one of the closed set.
func ValidDocumentType(t DocumentType) bool {
	return t == DocumentTypeQuote || t == DocumentTypeBill
}

// NumberPrefix returns the document number prefix for a type.
func NumberPrefix(t DocumentType) string {
	if t == DocumentTypeQuote {
		return "Q"
	}
	return "B"
}
