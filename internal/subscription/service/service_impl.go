package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/studioops/billing/internal/audit/domain"
	"github.com/studioops/billing/internal/clock"
	documentdomain "github.com/studioops/billing/internal/document/domain"
	"github.com/studioops/billing/internal/events"
	ledgerdomain "github.com/studioops/billing/internal/ledger/domain"
	"github.com/studioops/billing/internal/money"
	"github.com/studioops/billing/internal/pricing"
	"github.com/studioops/billing/internal/subscription/domain"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Repo      domain.Repository
	DocRepo   documentdomain.Repository
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
	docRepo   documentdomain.Repository
	ledgerSvc ledgerdomain.Service
	auditSvc  auditdomain.Service
	outbox    *events.Outbox
	clock     clock.Clock
}

func NewService(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("subscription.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		docRepo:   p.DocRepo,
		ledgerSvc: p.LedgerSvc,
		auditSvc:  p.AuditSvc,
		outbox:    p.Outbox,
		clock:     p.Clock,
	}
}

var oneHundred = decimal.NewFromInt(100)

// templateMutation carries the validated, normalized fields shared by create
// and update.
type templateMutation struct {
	name           string
	counterpartID  snowflake.ID
	currency       string
	cadence        domain.Cadence
	taxMode        pricing.TaxMode
	discountMode   string
	discountValue  decimal.Decimal
	shippingAmount int64
	dueInDays      int
	items          []domain.TemplateItem
}

func validateTemplate(name, counterpartID, currency, cadence, taxMode string, items []documentdomain.ItemInput, discount *documentdomain.DiscountInput, shipping int64, dueInDays int) (templateMutation, error) {
	var m templateMutation

	m.name = strings.TrimSpace(name)
	if m.name == "" {
		return m, domain.ErrInvalidName
	}
	parsedCounterpart, err := documentdomain.ParseID(counterpartID)
	if err != nil || parsedCounterpart == 0 {
		return m, documentdomain.ErrInvalidCounterpart
	}
	m.counterpartID = parsedCounterpart
	if !money.ValidCurrency(currency) {
		return m, documentdomain.ErrInvalidCurrency
	}
	m.currency = strings.ToUpper(strings.TrimSpace(currency))
	m.cadence = domain.Cadence(strings.ToUpper(strings.TrimSpace(cadence)))
	if !domain.ValidCadence(m.cadence) {
		return m, domain.ErrInvalidCadence
	}
	m.taxMode = pricing.TaxMode(strings.ToUpper(strings.TrimSpace(taxMode)))
	if !pricing.ValidTaxMode(m.taxMode) {
		return m, documentdomain.ErrInvalidTaxMode
	}
	if shipping < 0 {
		return m, documentdomain.ErrInvalidShipping
	}
	m.shippingAmount = shipping
	if dueInDays < 0 {
		return m, documentdomain.ErrInvalidDueInDays
	}
	m.dueInDays = dueInDays
	if len(items) == 0 {
		return m, domain.ErrEmptyItems
	}

	m.discountValue = decimal.Zero
	if discount != nil {
		mode := pricing.DiscountMode(strings.ToUpper(strings.TrimSpace(discount.Mode)))
		if !pricing.ValidDiscountMode(mode) || discount.Value.IsNegative() {
			return m, documentdomain.ErrInvalidDiscount
		}
		if mode == pricing.DiscountModePercent && discount.Value.GreaterThan(oneHundred) {
			return m, documentdomain.ErrInvalidDiscount
		}
		m.discountMode = string(mode)
		m.discountValue = discount.Value
	}

	m.items = make([]domain.TemplateItem, 0, len(items))
	for _, item := range items {
		description := strings.TrimSpace(item.Description)
		if description == "" {
			return m, documentdomain.ErrInvalidDescription
		}
		if item.Quantity.IsNegative() {
			return m, documentdomain.ErrInvalidQuantity
		}
		if item.UnitAmount < 0 {
			return m, documentdomain.ErrInvalidUnitAmount
		}
		if item.TaxRate.IsNegative() || item.TaxRate.GreaterThan(oneHundred) {
			return m, documentdomain.ErrInvalidTaxRate
		}
		m.items = append(m.items, domain.TemplateItem{
			Description: description,
			Quantity:    item.Quantity,
			UnitAmount:  item.UnitAmount,
			TaxRate:     item.TaxRate,
			Category:    strings.TrimSpace(item.Category),
		})
	}
	return m, nil
}

func (s *Service) attachItems(templateID snowflake.ID, items []domain.TemplateItem, now time.Time) []domain.TemplateItem {
	out := make([]domain.TemplateItem, 0, len(items))
	for i, item := range items {
		item.ID = s.genID.Generate()
		item.TemplateID = templateID
		item.Position = i
		item.CreatedAt = now
		out = append(out, item)
	}
	return out
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.SubscriptionTemplate, error) {
	m, err := validateTemplate(req.Name, req.CounterpartID, req.Currency, req.Cadence, req.TaxMode, req.Items, req.Discount, req.ShippingAmount, req.DueInDays)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	template := &domain.SubscriptionTemplate{
		ID:             s.genID.Generate(),
		Name:           m.name,
		CounterpartID:  m.counterpartID,
		Currency:       m.currency,
		Cadence:        m.cadence,
		TaxMode:        m.taxMode,
		DiscountMode:   m.discountMode,
		DiscountValue:  m.discountValue,
		ShippingAmount: m.shippingAmount,
		DueInDays:      m.dueInDays,
		Active:         true,
		NextRunAt:      now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.StartAt != nil {
		template.NextRunAt = req.StartAt.UTC()
	}
	template.Items = s.attachItems(template.ID, m.items, now)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.Insert(ctx, tx, template)
	})
	if err != nil {
		return nil, err
	}
	return template, nil
}

// Update replaces the template definition. The run anchor (NextRunAt) and the
// active flag are left alone; a cadence change only shows on the next advance.
func (s *Service) Update(ctx context.Context, id string, req domain.UpdateRequest) (*domain.SubscriptionTemplate, error) {
	templateID, err := documentdomain.ParseID(id)
	if err != nil {
		return nil, domain.ErrTemplateNotFound
	}
	m, err := validateTemplate(req.Name, req.CounterpartID, req.Currency, req.Cadence, req.TaxMode, req.Items, req.Discount, req.ShippingAmount, req.DueInDays)
	if err != nil {
		return nil, err
	}

	var updated *domain.SubscriptionTemplate
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		template, err := s.repo.FindByID(ctx, tx, templateID)
		if err != nil {
			return err
		}
		if template == nil {
			return domain.ErrTemplateNotFound
		}

		now := s.clock.Now()
		template.Name = m.name
		template.CounterpartID = m.counterpartID
		template.Currency = m.currency
		template.Cadence = m.cadence
		template.TaxMode = m.taxMode
		template.DiscountMode = m.discountMode
		template.DiscountValue = m.discountValue
		template.ShippingAmount = m.shippingAmount
		template.DueInDays = m.dueInDays
		template.UpdatedAt = now
		template.Items = s.attachItems(template.ID, m.items, now)

		if err := s.repo.ReplaceItems(ctx, tx, template.ID, template.Items); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, tx, template); err != nil {
			return err
		}
		updated = template
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.SubscriptionTemplate, error) {
	templateID, err := documentdomain.ParseID(id)
	if err != nil {
		return nil, domain.ErrTemplateNotFound
	}
	template, err := s.repo.FindByID(ctx, s.db, templateID)
	if err != nil {
		return nil, err
	}
	if template == nil {
		return nil, domain.ErrTemplateNotFound
	}
	return template, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.SubscriptionTemplate, error) {
	return s.repo.List(ctx, s.db, req)
}

func (s *Service) SetActive(ctx context.Context, id string, active bool) (*domain.SubscriptionTemplate, error) {
	template, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if template.Active == active {
		return template, nil
	}
	now := s.clock.Now()
	ok, err := s.repo.SetActive(ctx, s.db, template.ID, active, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrConcurrentRun
	}
	template.Active = active
	template.UpdatedAt = now
	return template, nil
}

// Run executes one billing cycle: it stamps a SCHEDULED bill out of the
// template and advances NextRunAt by one cadence step. Everything happens in
// one transaction; a failed run leaves the template untouched so the next
// sweep retries it.
func (s *Service) Run(ctx context.Context, id string) (*domain.RunResult, error) {
	templateID, err := documentdomain.ParseID(id)
	if err != nil {
		return nil, domain.ErrTemplateNotFound
	}

	var result *domain.RunResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		template, err := s.repo.FindByID(ctx, tx, templateID)
		if err != nil {
			return err
		}
		if template == nil {
			return domain.ErrTemplateNotFound
		}
		if !template.Active {
			return domain.ErrTemplateInactive
		}

		now := s.clock.Now()
		previousRun := template.NextRunAt
		nextRun := domain.Advance(previousRun, template.Cadence)
		ok, err := s.repo.CasAdvanceRun(ctx, tx, template.ID, previousRun, nextRun, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrConcurrentRun
		}

		number, err := s.docRepo.NextNumber(ctx, tx, documentdomain.DocumentTypeBill, now)
		if err != nil {
			return err
		}

		doc := &documentdomain.Document{
			ID:             s.genID.Generate(),
			Type:           documentdomain.DocumentTypeBill,
			Number:         &number,
			CounterpartID:  template.CounterpartID,
			Currency:       template.Currency,
			Status:         documentdomain.StatusScheduled,
			IssueDate:      now,
			DueDate:        now.AddDate(0, 0, template.DueInDays),
			TaxMode:        template.TaxMode,
			DiscountMode:   template.DiscountMode,
			DiscountValue:  template.DiscountValue,
			ShippingAmount: template.ShippingAmount,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		for i, item := range template.Items {
			doc.Items = append(doc.Items, documentdomain.DocumentItem{
				ID:          s.genID.Generate(),
				DocumentID:  doc.ID,
				Position:    i,
				Description: item.Description,
				Quantity:    item.Quantity,
				UnitAmount:  item.UnitAmount,
				TaxRate:     item.TaxRate,
				Category:    item.Category,
				CreatedAt:   now,
			})
		}
		doc.ApplyTotals(pricing.ComputeTotals(doc.PricingItems(), doc.Discount(), doc.TaxMode, money.New(doc.ShippingAmount, doc.Currency)))

		if err := s.docRepo.Insert(ctx, tx, doc); err != nil {
			return err
		}
		if err := s.ledgerSvc.CreateEntry(ctx, tx,
			ledgerdomain.SourceTypeDocumentIssued, doc.ID, doc.Currency, now,
			ledgerdomain.IssuePostings(doc.TotalAmount, doc.TaxAmount),
		); err != nil {
			return err
		}

		template.NextRunAt = nextRun
		template.LastRunAt = &now
		template.UpdatedAt = now
		result = &domain.RunResult{Template: template, Document: doc}

		if err := s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventSubscriptionRun,
			Payload: events.SubscriptionRunPayload{
				TemplateID: template.ID.String(),
				DocumentID: doc.ID.String(),
			}.ToMap(),
			DedupeKey: events.EventSubscriptionRun + ":" + template.ID.String() + ":" + previousRun.UTC().Format(time.RFC3339),
		}); err != nil {
			return err
		}
		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type:      events.EventDocumentScheduled,
			Payload:   events.DocumentPayload{DocumentID: doc.ID.String(), Number: number, Status: string(doc.Status)}.ToMap(),
			DedupeKey: events.EventDocumentScheduled + ":" + doc.ID.String(),
		})
	})
	if err != nil {
		return nil, err
	}

	targetID := result.Template.ID.String()
	_ = s.auditSvc.AuditLog(ctx, auditdomain.ActorTypeSystem, nil, "subscription.run", "subscription_template", &targetID, map[string]any{
		"document_id": result.Document.ID.String(),
		"next_run_at": result.Template.NextRunAt,
	})
	return result, nil
}

func (s *Service) RunDue(ctx context.Context, now time.Time, limit int) (int, error) {
	ids, err := s.repo.ListDueIDs(ctx, s.db, now, limit)
	if err != nil {
		return 0, err
	}

	ran := 0
	for _, id := range ids {
		if _, err := s.Run(ctx, id.String()); err != nil {
			if errors.Is(err, domain.ErrConcurrentRun) || errors.Is(err, domain.ErrTemplateInactive) {
				continue
			}
			s.log.Warn("subscription run failed",
				zap.String("template_id", id.String()),
				zap.Error(err),
			)
			continue
		}
		ran++
	}
	return ran, nil
}
