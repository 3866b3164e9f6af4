package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/studioops/billing/internal/subscription/domain"
)

type repository struct{}

// Provide constructs the gorm-backed subscription repository.
func Provide() domain.Repository {
	return &repository{}
}

func (r *repository) Insert(ctx context.Context, db *gorm.DB, template *domain.SubscriptionTemplate) error {
	if err := db.WithContext(ctx).Create(template).Error; err != nil {
		return err
	}
	if len(template.Items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&template.Items).Error
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.SubscriptionTemplate, error) {
	var template domain.SubscriptionTemplate
	err := db.WithContext(ctx).Where("id = ?", id).Take(&template).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	var items []domain.TemplateItem
	err = db.WithContext(ctx).
		Where("template_id = ?", id).
		Order("position ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	template.Items = items
	return &template, nil
}

func (r *repository) List(ctx context.Context, db *gorm.DB, req domain.ListRequest) ([]domain.SubscriptionTemplate, error) {
	query := db.WithContext(ctx).Model(&domain.SubscriptionTemplate{})
	if raw := strings.TrimSpace(req.CounterpartID); raw != "" {
		counterpartID, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, domain.ErrTemplateNotFound
		}
		query = query.Where("counterpart_id = ?", counterpartID)
	}
	if req.Active != nil {
		query = query.Where("active = ?", *req.Active)
	}
	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var templates []domain.SubscriptionTemplate
	if err := query.Order("id DESC").Limit(limit).Find(&templates).Error; err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *repository) Update(ctx context.Context, db *gorm.DB, template *domain.SubscriptionTemplate) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscription_templates
		 SET name = ?, counterpart_id = ?, currency = ?, cadence = ?, tax_mode = ?,
		     discount_mode = ?, discount_value = ?, shipping_amount = ?, due_in_days = ?, updated_at = ?
		 WHERE id = ?`,
		template.Name,
		template.CounterpartID,
		template.Currency,
		template.Cadence,
		template.TaxMode,
		template.DiscountMode,
		template.DiscountValue,
		template.ShippingAmount,
		template.DueInDays,
		template.UpdatedAt,
		template.ID,
	).Error
}

func (r *repository) ReplaceItems(ctx context.Context, db *gorm.DB, templateID snowflake.ID, items []domain.TemplateItem) error {
	if err := db.WithContext(ctx).
		Where("template_id = ?", templateID).
		Delete(&domain.TemplateItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repository) SetActive(ctx context.Context, db *gorm.DB, id snowflake.ID, active bool, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE subscription_templates
		 SET active = ?, updated_at = ?
		 WHERE id = ? AND active = ?`,
		active,
		now,
		id,
		!active,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) CasAdvanceRun(ctx context.Context, db *gorm.DB, id snowflake.ID, oldNextRun, newNextRun, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE subscription_templates
		 SET next_run_at = ?, last_run_at = ?, updated_at = ?
		 WHERE id = ? AND next_run_at = ? AND active = ?`,
		newNextRun,
		now,
		now,
		id,
		oldNextRun,
		true,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) ListDueIDs(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]snowflake.ID, error) {
	if limit <= 0 {
		limit = 50
	}
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT id
		 FROM subscription_templates
		 WHERE active = ? AND next_run_at <= ?
		 ORDER BY next_run_at ASC, id ASC
		 LIMIT ?`,
		true,
		now,
		limit,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
