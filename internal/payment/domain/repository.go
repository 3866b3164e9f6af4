package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the persistence boundary for payments. Methods take the
// *gorm.DB handle explicitly so the service can compose them inside the same
// transaction that settles the document.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByKey(ctx context.Context, db *gorm.DB, documentID snowflake.ID, idempotencyKey string) (*Payment, error)
	ListByDocument(ctx context.Context, db *gorm.DB, documentID snowflake.ID) ([]Payment, error)
}
