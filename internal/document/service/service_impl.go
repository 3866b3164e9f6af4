package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/studioops/billing/internal/audit/domain"
	"github.com/studioops/billing/internal/clock"
	"github.com/studioops/billing/internal/document/domain"
	"github.com/studioops/billing/internal/events"
	ledgerdomain "github.com/studioops/billing/internal/ledger/domain"
	"github.com/studioops/billing/internal/money"
	"github.com/studioops/billing/internal/pricing"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	LedgerSvc ledgerdomain.Service
	AuditSvc  auditdomain.Service
	Outbox    *events.Outbox
	Clock     clock.Clock
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	ledgerSvc ledgerdomain.Service
	auditSvc  auditdomain.Service
	outbox    *events.Outbox
	clock     clock.Clock
}

// NewService wires the document lifecycle service. The concrete type also
// satisfies domain.Sweeper for the scheduler worker.
func NewService(p Params) *Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("document.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		ledgerSvc: p.LedgerSvc,
		auditSvc:  p.AuditSvc,
		outbox:    p.Outbox,
		clock:     p.Clock,
	}
}

// mutation carries the validated, normalized fields shared by create and
// update. Validation happens entirely before any write.
type mutation struct {
	counterpartID snowflake.ID
	currency      string
	items         []domain.DocumentItem
	discountMode  pricing.DiscountMode
	discountValue decimal.Decimal
	taxMode       pricing.TaxMode
	shipping      int64
	dueInDays     int
	notes         string
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Document, error) {
	docType := domain.DocumentType(strings.ToUpper(strings.TrimSpace(req.Type)))
	if docType == "" {
		docType = domain.DocumentTypeBill
	}
	if !domain.ValidDocumentType(docType) {
		return nil, domain.ErrInvalidType
	}

	if strings.TrimSpace(req.Currency) == "" {
		return nil, domain.ErrInvalidCurrency
	}
	m, err := validateMutation(req.CounterpartID, req.Currency, req.Items, req.Discount, req.TaxMode, req.ShippingAmount, req.DueInDays, req.Notes)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	doc := &domain.Document{
		ID:             s.genID.Generate(),
		Type:           docType,
		CounterpartID:  m.counterpartID,
		Currency:       m.currency,
		Status:         domain.StatusDraft,
		IssueDate:      now,
		DueDate:        now.AddDate(0, 0, m.dueInDays),
		TaxMode:        m.taxMode,
		DiscountMode:   string(m.discountMode),
		DiscountValue:  m.discountValue,
		ShippingAmount: m.shipping,
		Notes:          m.notes,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	doc.Items = s.attachItems(doc.ID, m.items, now)
	doc.ApplyTotals(pricing.ComputeTotals(doc.PricingItems(), doc.Discount(), doc.TaxMode, money.New(doc.ShippingAmount, doc.Currency)))

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, doc)
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, "document.create", doc, nil)
	return doc, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.UpdateRequest) (*domain.Document, error) {
	docID, err := domain.ParseID(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	m, err := validateMutation(req.CounterpartID, "", req.Items, req.Discount, req.TaxMode, req.ShippingAmount, req.DueInDays, req.Notes)
	if err != nil {
		return nil, err
	}

	var updated *domain.Document
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := s.repo.FindByID(ctx, tx, docID)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.ErrNotFound
		}
		if !domain.CanEdit(doc.Status) {
			return domain.ErrNotDraft
		}

		now := s.clock.Now()
		doc.CounterpartID = m.counterpartID
		doc.TaxMode = m.taxMode
		doc.DiscountMode = string(m.discountMode)
		doc.DiscountValue = m.discountValue
		doc.ShippingAmount = m.shipping
		doc.DueDate = doc.IssueDate.AddDate(0, 0, m.dueInDays)
		doc.Notes = m.notes
		doc.Items = s.attachItems(doc.ID, m.items, now)
		doc.ApplyTotals(pricing.ComputeTotals(doc.PricingItems(), doc.Discount(), doc.TaxMode, money.New(doc.ShippingAmount, doc.Currency)))

		if err := s.repo.ReplaceItems(ctx, tx, doc.ID, doc.Items); err != nil {
			return err
		}
		if err := s.repo.UpdateDraft(ctx, tx, doc, now); err != nil {
			return err
		}
		doc.UpdatedAt = now
		updated = doc
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, "document.update", updated, nil)
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Document, error) {
	docID, err := domain.ParseID(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	doc, err := s.repo.FindByID(ctx, s.db, docID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Document, error) {
	if status := strings.TrimSpace(req.Status); status != "" && !domain.ValidStatus(domain.DocumentStatus(status)) {
		return nil, domain.ErrInvalidStatus
	}
	return s.repo.List(ctx, s.db, req)
}

func (s *Service) Schedule(ctx context.Context, id string) (*domain.Document, error) {
	docID, err := domain.ParseID(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var scheduled *domain.Document
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := s.repo.FindByID(ctx, tx, docID)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.ErrNotFound
		}
		if doc.Status != domain.StatusDraft {
			return &domain.InvalidTransitionError{From: doc.Status, To: domain.StatusScheduled}
		}
		if doc.CounterpartID == 0 {
			return domain.ErrInvalidCounterpart
		}
		if len(doc.Items) == 0 {
			return domain.ErrEmptyItems
		}
		for _, item := range doc.Items {
			if strings.TrimSpace(item.Description) == "" {
				return domain.ErrInvalidDescription
			}
		}

		now := s.clock.Now()
		number, err := s.repo.NextNumber(ctx, tx, doc.Type, now)
		if err != nil {
			return err
		}

		span := doc.DueDate.Sub(doc.IssueDate)
		issueDate := now
		dueDate := now.Add(span)

		ok, err := s.repo.MarkScheduled(ctx, tx, doc.ID, number, issueDate, dueDate, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrConcurrentUpdate
		}

		if err := s.ledgerSvc.CreateEntry(ctx, tx,
			ledgerdomain.SourceTypeDocumentIssued, doc.ID, doc.Currency, now,
			ledgerdomain.IssuePostings(doc.TotalAmount, doc.TaxAmount),
		); err != nil {
			return err
		}

		doc.Status = domain.StatusScheduled
		doc.Number = &number
		doc.IssueDate = issueDate
		doc.DueDate = dueDate
		doc.UpdatedAt = now
		scheduled = doc

		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type:      events.EventDocumentScheduled,
			Payload:   events.DocumentPayload{DocumentID: doc.ID.String(), Number: number, Status: string(doc.Status)}.ToMap(),
			DedupeKey: events.EventDocumentScheduled + ":" + doc.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, "document.schedule", scheduled, nil)
	return scheduled, nil
}

func (s *Service) Cancel(ctx context.Context, id string, reason string) (*domain.Document, error) {
	docID, err := domain.ParseID(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	var cancelled *domain.Document
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := s.repo.FindByID(ctx, tx, docID)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.ErrNotFound
		}
		if err := domain.ValidateTransition(doc.Status, domain.StatusCancelled); err != nil {
			return err
		}

		now := s.clock.Now()
		from := doc.Status
		ok, err := s.repo.MarkCancelled(ctx, tx, doc.ID, from, strings.TrimSpace(reason), now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrConcurrentUpdate
		}

		// An issued document already posted receivables; cancelling it
		// posts the reversal. A draft never reached the ledger.
		if from == domain.StatusScheduled {
			if err := s.ledgerSvc.CreateEntry(ctx, tx,
				ledgerdomain.SourceTypeDocumentCancelled, doc.ID, doc.Currency, now,
				ledgerdomain.CancelPostings(doc.TotalAmount, doc.TaxAmount),
			); err != nil {
				return err
			}
		}

		doc.Status = domain.StatusCancelled
		trimmed := strings.TrimSpace(reason)
		doc.CancelReason = &trimmed
		doc.CancelledAt = &now
		doc.UpdatedAt = now
		cancelled = doc

		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type:      events.EventDocumentCancelled,
			Payload:   events.DocumentPayload{DocumentID: doc.ID.String(), Status: string(doc.Status)}.ToMap(),
			DedupeKey: events.EventDocumentCancelled + ":" + doc.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, "document.cancel", cancelled, map[string]any{"reason": strings.TrimSpace(reason)})
	return cancelled, nil
}

func (s *Service) Transition(ctx context.Context, id string, to domain.DocumentStatus, reason string) (*domain.Document, error) {
	switch to {
	case domain.StatusScheduled:
		return s.Schedule(ctx, id)
	case domain.StatusCancelled:
		return s.Cancel(ctx, id, reason)
	case domain.StatusDraft, domain.StatusPaid, domain.StatusPartial, domain.StatusOverdue:
		// Payment- and sweep-driven states are never caller-settable.
		doc, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, &domain.InvalidTransitionError{From: doc.Status, To: to}
	default:
		return nil, domain.ErrInvalidStatus
	}
}

// MarkOverdue is the periodic sweep moving due unpaid documents to OVERDUE.
// Each candidate is re-guarded on its status so a concurrent payment wins.
func (s *Service) MarkOverdue(ctx context.Context, now time.Time, limit int) (int, error) {
	candidates, err := s.repo.ListOverdueCandidates(ctx, s.db, now, limit)
	if err != nil {
		return 0, err
	}

	flipped := 0
	for _, candidate := range candidates {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			ok, err := s.repo.MarkOverdueOne(ctx, tx, candidate.ID, candidate.Status, now)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			flipped++
			return s.outbox.PublishTx(ctx, tx, events.Event{
				Type:      events.EventDocumentOverdue,
				Payload:   events.DocumentPayload{DocumentID: candidate.ID.String(), Status: string(domain.StatusOverdue)}.ToMap(),
				DedupeKey: events.EventDocumentOverdue + ":" + candidate.ID.String(),
			})
		})
		if err != nil {
			s.log.Warn("overdue sweep failed for document",
				zap.String("document_id", candidate.ID.String()),
				zap.Error(err),
			)
		}
	}
	return flipped, nil
}

func (s *Service) attachItems(docID snowflake.ID, items []domain.DocumentItem, now time.Time) []domain.DocumentItem {
	out := make([]domain.DocumentItem, 0, len(items))
	for i, item := range items {
		item.ID = s.genID.Generate()
		item.DocumentID = docID
		item.Position = i
		item.CreatedAt = now
		out = append(out, item)
	}
	return out
}

func (s *Service) audit(ctx context.Context, action string, doc *domain.Document, extra map[string]any) {
	if s.auditSvc == nil || doc == nil {
		return
	}
	metadata := map[string]any{
		"document_id":  doc.ID.String(),
		"type":         string(doc.Type),
		"status":       string(doc.Status),
		"currency":     doc.Currency,
		"total_amount": doc.TotalAmount,
	}
	if doc.Number != nil {
		metadata["number"] = *doc.Number
	}
	for key, value := range extra {
		if key == "" {
			continue
		}
		metadata[key] = value
	}
	targetID := doc.ID.String()
	_ = s.auditSvc.AuditLog(ctx, auditdomain.ActorTypeUser, nil, action, "document", &targetID, metadata)
}

var oneHundred = decimal.NewFromInt(100)

func validateMutation(counterpartID, currency string, items []domain.ItemInput, discount *domain.DiscountInput, taxMode string, shipping int64, dueInDays int, notes string) (mutation, error) {
	var m mutation

	parsedCounterpart, err := domain.ParseID(counterpartID)
	if err != nil || parsedCounterpart == 0 {
		return m, domain.ErrInvalidCounterpart
	}
	m.counterpartID = parsedCounterpart

	if currency != "" {
		if !money.ValidCurrency(currency) {
			return m, domain.ErrInvalidCurrency
		}
		m.currency = strings.ToUpper(strings.TrimSpace(currency))
	}

	mode := pricing.TaxMode(strings.ToUpper(strings.TrimSpace(taxMode)))
	if !pricing.ValidTaxMode(mode) {
		return m, domain.ErrInvalidTaxMode
	}
	m.taxMode = mode

	if discount != nil {
		discountMode := pricing.DiscountMode(strings.ToUpper(strings.TrimSpace(discount.Mode)))
		if !pricing.ValidDiscountMode(discountMode) || (discountMode == "" && !discount.Value.IsZero()) {
			return m, domain.ErrInvalidDiscount
		}
		if discount.Value.IsNegative() {
			return m, domain.ErrInvalidDiscount
		}
		if discountMode == pricing.DiscountModePercent && discount.Value.GreaterThan(oneHundred) {
			return m, domain.ErrInvalidDiscount
		}
		m.discountMode = discountMode
		m.discountValue = discount.Value
	} else {
		m.discountValue = decimal.Zero
	}

	if shipping < 0 {
		return m, domain.ErrInvalidShipping
	}
	m.shipping = shipping

	if dueInDays < 0 {
		return m, domain.ErrInvalidDueInDays
	}
	m.dueInDays = dueInDays
	m.notes = strings.TrimSpace(notes)

	m.items = make([]domain.DocumentItem, 0, len(items))
	for _, item := range items {
		if item.Quantity.IsNegative() {
			return m, domain.ErrInvalidQuantity
		}
		if item.UnitAmount < 0 {
			return m, domain.ErrInvalidUnitAmount
		}
		if item.TaxRate.IsNegative() || item.TaxRate.GreaterThan(oneHundred) {
			return m, domain.ErrInvalidTaxRate
		}
		m.items = append(m.items, domain.DocumentItem{
			Description: strings.TrimSpace(item.Description),
			Quantity:    item.Quantity,
			UnitAmount:  item.UnitAmount,
			TaxRate:     item.TaxRate,
			Category:    strings.TrimSpace(item.Category),
		})
	}
	return m, nil
}
