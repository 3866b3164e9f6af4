package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the persistence boundary for subscription templates.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, template *SubscriptionTemplate) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*SubscriptionTemplate, error)
	List(ctx context.Context, db *gorm.DB, req ListRequest) ([]SubscriptionTemplate, error)
	Update(ctx context.Context, db *gorm.DB, template *SubscriptionTemplate) error
	ReplaceItems(ctx context.Context, db *gorm.DB, templateID snowflake.ID, items []TemplateItem) error
	SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool, now time.Time) (bool, error)

	// CasAdvanceRun moves NextRunAt forward only if it still holds the value
	// the caller read, serializing concurrent runs of the same template.
	CasAdvanceRun(ctx context.Context, db *gorm.DB, id snowflake.ID, oldNextRun, newNextRun, now time.Time) (bool, error)

	// ListDueIDs returns active templates whose NextRunAt has passed.
	ListDueIDs(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]snowflake.ID, error)
}
