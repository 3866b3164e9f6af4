package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"

	"github.com/studioops/billing/internal/pricing"
)

// SubscriptionTemplate describes a recurring bill. Each run stamps out a
// SCHEDULED document from the template items and advances NextRunAt by one
// cadence step.
type SubscriptionTemplate struct {
	ID             snowflake.ID    `gorm:"primaryKey" json:"id"`
	Name           string          `gorm:"type:text;not null" json:"name"`
	CounterpartID  snowflake.ID    `gorm:"not null;index" json:"counterpart_id"`
	Currency       string          `gorm:"type:text;not null" json:"currency"`
	Cadence        Cadence         `gorm:"type:text;not null" json:"cadence"`
	TaxMode        pricing.TaxMode `gorm:"type:text;not null" json:"tax_mode"`
	DiscountMode   string          `gorm:"type:text;not null;default:''" json:"discount_mode"`
	DiscountValue  decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0" json:"discount_value"`
	ShippingAmount int64           `gorm:"not null;default:0" json:"shipping_amount"`
	DueInDays      int             `gorm:"not null;default:0" json:"due_in_days"`
	Active         bool            `gorm:"not null;default:true" json:"active"`
	NextRunAt      time.Time       `gorm:"not null;index" json:"next_run_at"`
	LastRunAt      *time.Time      `json:"last_run_at,omitempty"`
	CreatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Items []TemplateItem `gorm:"-" json:"items"`
}

// TableName sets the database table name.
func (SubscriptionTemplate) TableName() string { return "subscription_templates" }

// TemplateItem is one recurring line copied verbatim onto each generated bill.
type TemplateItem struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	TemplateID  snowflake.ID    `gorm:"not null;index" json:"template_id"`
	Position    int             `gorm:"not null;default:0" json:"position"`
	Description string          `gorm:"type:text;not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0" json:"quantity"`
	UnitAmount  int64           `gorm:"not null;default:0" json:"unit_amount"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(9,4);not null;default:0" json:"tax_rate"`
	Category    string          `gorm:"type:text;not null;default:''" json:"category"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (TemplateItem) TableName() string { return "subscription_template_items" }
