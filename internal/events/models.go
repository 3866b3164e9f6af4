package events

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// BillingEvent is one stored outbox row. DedupeKey is nullable; the unique
// index only constrains non-null keys.
type BillingEvent struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	EventType string            `gorm:"type:text;not null;index"`
	Payload   datatypes.JSONMap `gorm:"type:jsonb"`
	DedupeKey *string           `gorm:"type:text;uniqueIndex"`
	Published bool              `gorm:"not null;default:false"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (BillingEvent) TableName() string { return "billing_events" }
