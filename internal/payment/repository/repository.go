package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/studioops/billing/internal/payment/domain"
)

type repository struct{}

// Provide constructs the gorm-backed payment repository.
func Provide() domain.Repository {
	return &repository{}
}

func (r *repository) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Create(payment).Error
}

func (r *repository) FindByKey(ctx context.Context, db *gorm.DB, documentID snowflake.ID, idempotencyKey string) (*domain.Payment, error) {
	var payment domain.Payment
	err := db.WithContext(ctx).
		Where("document_id = ? AND idempotency_key = ?", documentID, idempotencyKey).
		Take(&payment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ListByDocument(ctx context.Context, db *gorm.DB, documentID snowflake.ID) ([]domain.Payment, error) {
	var payments []domain.Payment
	err := db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("id ASC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
