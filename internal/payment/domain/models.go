package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Payment is one applied payment against a document. The composite unique
// index on (document_id, idempotency_key) makes retries collide at the
// database even when two requests race past the lookup.
type Payment struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	DocumentID     snowflake.ID `gorm:"not null;uniqueIndex:idx_payments_doc_key" json:"document_id"`
	IdempotencyKey string       `gorm:"type:text;not null;uniqueIndex:idx_payments_doc_key" json:"idempotency_key"`
	Amount         int64        `gorm:"not null" json:"amount"`
	Currency       string       `gorm:"type:text;not null" json:"currency"`
	Method         string       `gorm:"type:text;not null;default:''" json:"method,omitempty"`
	Reference      string       `gorm:"type:text;not null;default:''" json:"reference,omitempty"`
	PaidAt         time.Time    `gorm:"not null" json:"paid_at"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Payment) TableName() string { return "payments" }
