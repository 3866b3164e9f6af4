package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/studioops/billing/internal/document/domain"
)

type repository struct{}

// Provide constructs the gorm-backed document repository.
func Provide() domain.Repository {
	return &repository{}
}

func (r *repository) Insert(ctx context.Context, db *gorm.DB, doc *domain.Document) error {
	if err := db.WithContext(ctx).Create(doc).Error; err != nil {
		return err
	}
	if len(doc.Items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&doc.Items).Error
}

func (r *repository) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Document, error) {
	var doc domain.Document
	err := db.WithContext(ctx).Where("id = ?", id).Take(&doc).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	items, err := r.loadItems(ctx, db, id)
	if err != nil {
		return nil, err
	}
	doc.Items = items
	return &doc, nil
}

func (r *repository) loadItems(ctx context.Context, db *gorm.DB, docID snowflake.ID) ([]domain.DocumentItem, error) {
	var items []domain.DocumentItem
	err := db.WithContext(ctx).
		Where("document_id = ?", docID).
		Order("position ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) List(ctx context.Context, db *gorm.DB, req domain.ListRequest) ([]domain.Document, error) {
	query := db.WithContext(ctx).Model(&domain.Document{})
	if status := strings.TrimSpace(req.Status); status != "" {
		query = query.Where("status = ?", status)
	}
	if docType := strings.TrimSpace(req.Type); docType != "" {
		query = query.Where("type = ?", docType)
	}
	if raw := strings.TrimSpace(req.CounterpartID); raw != "" {
		counterpartID, err := snowflake.ParseString(raw)
		if err != nil {
			return nil, domain.ErrInvalidCounterpart
		}
		query = query.Where("counterpart_id = ?", counterpartID)
	}
	limit := req.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var docs []domain.Document
	if err := query.Order("id DESC").Limit(limit).Find(&docs).Error; err != nil {
		return nil, err
	}
	return docs, nil
}

func (r *repository) UpdateDraft(ctx context.Context, db *gorm.DB, doc *domain.Document, now time.Time) error {
	result := db.WithContext(ctx).Model(&domain.Document{}).
		Where("id = ? AND status = ?", doc.ID, domain.StatusDraft).
		Updates(map[string]any{
			"counterpart_id":  doc.CounterpartID,
			"tax_mode":        doc.TaxMode,
			"discount_mode":   doc.DiscountMode,
			"discount_value":  doc.DiscountValue,
			"shipping_amount": doc.ShippingAmount,
			"subtotal_amount": doc.SubtotalAmount,
			"discount_amount": doc.DiscountAmount,
			"tax_amount":      doc.TaxAmount,
			"total_amount":    doc.TotalAmount,
			"due_date":        doc.DueDate,
			"notes":           doc.Notes,
			"updated_at":      now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotDraft
	}
	return nil
}

func (r *repository) ReplaceItems(ctx context.Context, db *gorm.DB, docID snowflake.ID, items []domain.DocumentItem) error {
	if err := db.WithContext(ctx).
		Where("document_id = ?", docID).
		Delete(&domain.DocumentItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&items).Error
}

func (r *repository) MarkScheduled(ctx context.Context, db *gorm.DB, id snowflake.ID, number string, issueDate, dueDate, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE documents
		 SET status = ?, number = ?, issue_date = ?, due_date = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusScheduled,
		number,
		issueDate,
		dueDate,
		now,
		id,
		domain.StatusDraft,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) MarkCancelled(ctx context.Context, db *gorm.DB, id snowflake.ID, from domain.DocumentStatus, reason string, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE documents
		 SET status = ?, cancel_reason = ?, cancelled_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.StatusCancelled,
		reason,
		now,
		now,
		id,
		from,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) CasPayment(ctx context.Context, db *gorm.DB, id snowflake.ID, oldPaid, newPaid int64, from, to domain.DocumentStatus, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE documents
		 SET amount_paid = ?, status = ?, updated_at = ?
		 WHERE id = ? AND amount_paid = ? AND status = ?`,
		newPaid,
		to,
		now,
		id,
		oldPaid,
		from,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) MarkOverdueOne(ctx context.Context, db *gorm.DB, id snowflake.ID, from domain.DocumentStatus, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE documents
		 SET status = ?, updated_at = ?
		 WHERE id = ? AND status = ? AND due_date < ? AND amount_paid < total_amount`,
		domain.StatusOverdue,
		now,
		id,
		from,
		now,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) ListOverdueCandidates(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]domain.OverdueCandidate, error) {
	if limit <= 0 {
		limit = 50
	}
	var candidates []domain.OverdueCandidate
	err := db.WithContext(ctx).Raw(
		`SELECT id, status
		 FROM documents
		 WHERE status IN (?, ?) AND due_date < ? AND amount_paid < total_amount
		 ORDER BY due_date ASC, id ASC
		 LIMIT ?`,
		domain.StatusScheduled,
		domain.StatusPartial,
		now,
		limit,
	).Scan(&candidates).Error
	if err != nil {
		return nil, err
	}
	return candidates, nil
}

func (r *repository) NextNumber(ctx context.Context, db *gorm.DB, docType domain.DocumentType, now time.Time) (string, error) {
	if err := db.WithContext(ctx).Exec(
		`INSERT INTO document_sequences (doc_type, last_value, updated_at)
		 VALUES (?, 1, ?)
		 ON CONFLICT (doc_type) DO UPDATE
		 SET last_value = document_sequences.last_value + 1, updated_at = excluded.updated_at`,
		docType,
		now,
	).Error; err != nil {
		return "", err
	}

	var lastValue int64
	if err := db.WithContext(ctx).Raw(
		`SELECT last_value FROM document_sequences WHERE doc_type = ?`,
		docType,
	).Scan(&lastValue).Error; err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%06d", domain.NumberPrefix(docType), lastValue), nil
}
