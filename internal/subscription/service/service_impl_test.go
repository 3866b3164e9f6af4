package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	auditdomain "github.com/studioops/billing/internal/audit/domain"
	auditrepo "github.com/studioops/billing/internal/audit/repository"
	auditservice "github.com/studioops/billing/internal/audit/service"
	"github.com/studioops/billing/internal/clock"
	documentdomain "github.com/studioops/billing/internal/document/domain"
	documentrepo "github.com/studioops/billing/internal/document/repository"
	"github.com/studioops/billing/internal/events"
	ledgerdomain "github.com/studioops/billing/internal/ledger/domain"
	ledgerservice "github.com/studioops/billing/internal/ledger/service"
	"github.com/studioops/billing/internal/subscription/domain"
	"github.com/studioops/billing/internal/subscription/repository"
)

type fixture struct {
	svc   domain.Service
	db    *gorm.DB
	clock *clock.Fixed
	node  *snowflake.Node
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "billing.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&documentdomain.Document{},
		&documentdomain.DocumentItem{},
		&documentdomain.DocumentSequence{},
		&domain.SubscriptionTemplate{},
		&domain.TemplateItem{},
		&ledgerdomain.LedgerAccount{},
		&ledgerdomain.LedgerEntry{},
		&ledgerdomain.LedgerEntryLine{},
		&auditdomain.AuditLog{},
		&events.BillingEvent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(3)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	log := zap.NewNop()
	fixed := &clock.Fixed{Instant: time.Date(2026, time.January, 31, 9, 0, 0, 0, time.UTC)}

	svc := NewService(Params{
		DB:      db,
		Log:     log,
		GenID:   node,
		Repo:    repository.Provide(),
		DocRepo: documentrepo.Provide(),
		LedgerSvc: ledgerservice.NewService(ledgerservice.Params{
			Log: log, GenID: node,
		}),
		AuditSvc: auditservice.NewService(auditservice.Params{
			DB: db, Log: log, GenID: node, Repo: auditrepo.Provide(),
		}),
		Outbox: events.NewOutbox(db, node),
		Clock:  fixed,
	})
	return &fixture{svc: svc, db: db, clock: fixed, node: node}
}

func (f *fixture) createRequest() domain.CreateRequest {
	return domain.CreateRequest{
		Name:          "Monthly retainer",
		CounterpartID: f.node.Generate().String(),
		Currency:      "USD",
		Cadence:       "MONTHLY",
		Items: []documentdomain.ItemInput{
			{Description: "Retainer", Quantity: decimal.NewFromInt(1), UnitAmount: 250000, TaxRate: decimal.NewFromInt(18)},
		},
		TaxMode:   "EXCLUSIVE",
		DueInDays: 14,
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		mutate  func(*domain.CreateRequest)
		wantErr error
	}{
		{"blank name", func(r *domain.CreateRequest) { r.Name = "  " }, domain.ErrInvalidName},
		{"bad cadence", func(r *domain.CreateRequest) { r.Cadence = "WEEKLY" }, domain.ErrInvalidCadence},
		{"no items", func(r *domain.CreateRequest) { r.Items = nil }, domain.ErrEmptyItems},
		{"bad currency", func(r *domain.CreateRequest) { r.Currency = "US" }, documentdomain.ErrInvalidCurrency},
		{"blank item description", func(r *domain.CreateRequest) { r.Items[0].Description = "" }, documentdomain.ErrInvalidDescription},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := f.createRequest()
			tc.mutate(&req)
			if _, err := f.svc.Create(ctx, req); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestUpdateReplacesDefinitionKeepsAnchor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	template, err := f.svc.Create(ctx, f.createRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	anchor := template.NextRunAt

	updated, err := f.svc.Update(ctx, template.ID.String(), domain.UpdateRequest{
		Name:          "Quarterly retainer",
		CounterpartID: template.CounterpartID.String(),
		Currency:      "USD",
		Cadence:       "QUARTERLY",
		Items: []documentdomain.ItemInput{
			{Description: "Retainer", Quantity: decimal.NewFromInt(1), UnitAmount: 300000, TaxRate: decimal.NewFromInt(18)},
			{Description: "Support", Quantity: decimal.NewFromInt(2), UnitAmount: 25000, TaxRate: decimal.NewFromInt(18)},
		},
		TaxMode:   "EXCLUSIVE",
		DueInDays: 30,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Cadence != domain.CadenceQuarterly {
		t.Fatalf("expected QUARTERLY, got %s", updated.Cadence)
	}
	if !updated.NextRunAt.Equal(anchor) {
		t.Fatalf("update must not move the run anchor: %s vs %s", updated.NextRunAt, anchor)
	}
	if len(updated.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(updated.Items))
	}

	result, err := f.svc.Run(ctx, template.ID.String())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	// 300000 + 2*25000 = 350000, 18% tax on top.
	if result.Document.SubtotalAmount != 350000 || result.Document.TotalAmount != 413000 {
		t.Fatalf("unexpected totals after update: sub=%d total=%d",
			result.Document.SubtotalAmount, result.Document.TotalAmount)
	}
	if got := result.Document.DueDate.Sub(result.Document.IssueDate); got != 30*24*time.Hour {
		t.Fatalf("expected 30 day term, got %s", got)
	}

	missing := domain.UpdateRequest{
		Name:          "Ghost",
		CounterpartID: template.CounterpartID.String(),
		Currency:      "USD",
		Cadence:       "MONTHLY",
		Items: []documentdomain.ItemInput{
			{Description: "Retainer", Quantity: decimal.NewFromInt(1), UnitAmount: 1000},
		},
		TaxMode: "EXCLUSIVE",
	}
	if _, err := f.svc.Update(ctx, "999999", missing); !errors.Is(err, domain.ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestRunStampsScheduledBill(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	template, err := f.svc.Create(ctx, f.createRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	result, err := f.svc.Run(ctx, template.ID.String())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	doc := result.Document
	if doc.Status != documentdomain.StatusScheduled {
		t.Fatalf("expected SCHEDULED bill, got %s", doc.Status)
	}
	if doc.Number == nil || *doc.Number != "B-000001" {
		t.Fatalf("expected number B-000001, got %v", doc.Number)
	}
	if doc.SubtotalAmount != 250000 || doc.TaxAmount != 45000 || doc.TotalAmount != 295000 {
		t.Fatalf("unexpected totals: sub=%d tax=%d total=%d", doc.SubtotalAmount, doc.TaxAmount, doc.TotalAmount)
	}
	if got := doc.DueDate.Sub(doc.IssueDate); got != 14*24*time.Hour {
		t.Fatalf("expected 14 day term, got %s", got)
	}

	// Jan 31 anchor clamps to Feb 28 on a non-leap year.
	wantNext := time.Date(2026, time.February, 28, 9, 0, 0, 0, time.UTC)
	if !result.Template.NextRunAt.Equal(wantNext) {
		t.Fatalf("expected next run %s, got %s", wantNext, result.Template.NextRunAt)
	}
	if result.Template.LastRunAt == nil || !result.Template.LastRunAt.Equal(f.clock.Now()) {
		t.Fatalf("last run not stamped: %v", result.Template.LastRunAt)
	}

	var entries int64
	if err := f.db.Model(&ledgerdomain.LedgerEntry{}).
		Where("source_type = ? AND source_id = ?", ledgerdomain.SourceTypeDocumentIssued, doc.ID).
		Count(&entries).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if entries != 1 {
		t.Fatalf("expected 1 issue entry, got %d", entries)
	}

	var runEvents int64
	if err := f.db.Model(&events.BillingEvent{}).
		Where("event_type = ?", events.EventSubscriptionRun).
		Count(&runEvents).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if runEvents != 1 {
		t.Fatalf("expected 1 run event, got %d", runEvents)
	}
}

func TestRunInactiveTemplate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	template, err := f.svc.Create(ctx, f.createRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.svc.SetActive(ctx, template.ID.String(), false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := f.svc.Run(ctx, template.ID.String()); !errors.Is(err, domain.ErrTemplateInactive) {
		t.Fatalf("expected ErrTemplateInactive, got %v", err)
	}

	if _, err := f.svc.SetActive(ctx, template.ID.String(), true); err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if _, err := f.svc.Run(ctx, template.ID.String()); err != nil {
		t.Fatalf("run after reactivate: %v", err)
	}
}

func TestRunDueOnlyRunsDueTemplates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, f.createRequest()); err != nil {
		t.Fatalf("create due: %v", err)
	}
	future := f.clock.Now().AddDate(0, 2, 0)
	futureReq := f.createRequest()
	futureReq.Name = "Future retainer"
	futureReq.StartAt = &future
	if _, err := f.svc.Create(ctx, futureReq); err != nil {
		t.Fatalf("create future: %v", err)
	}

	ran, err := f.svc.RunDue(ctx, f.clock.Now(), 50)
	if err != nil {
		t.Fatalf("run due: %v", err)
	}
	if ran != 1 {
		t.Fatalf("expected 1 run, got %d", ran)
	}

	// The due template advanced a month out, so an immediate second sweep
	// finds nothing.
	ran, err = f.svc.RunDue(ctx, f.clock.Now(), 50)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if ran != 0 {
		t.Fatalf("expected 0 runs, got %d", ran)
	}

	var bills int64
	if err := f.db.Model(&documentdomain.Document{}).Count(&bills).Error; err != nil {
		t.Fatalf("count bills: %v", err)
	}
	if bills != 1 {
		t.Fatalf("expected 1 generated bill, got %d", bills)
	}
}

// staleAnchorRepo serves a fixed template snapshot, standing in for a run
// that read the template before a concurrent run advanced its anchor.
type staleAnchorRepo struct {
	domain.Repository
	stale *domain.SubscriptionTemplate
}

func (r *staleAnchorRepo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.SubscriptionTemplate, error) {
	snapshot := *r.stale
	return &snapshot, nil
}

func TestRunRejectsStaleAnchor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	template, err := f.svc.Create(ctx, f.createRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	snapshot := *template

	if _, err := f.svc.Run(ctx, template.ID.String()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// A second runner still holding the pre-run anchor loses the
	// compare-and-swap and must not bill again.
	staleSvc := NewService(Params{
		DB:      f.db,
		Log:     zap.NewNop(),
		GenID:   f.node,
		Repo:    &staleAnchorRepo{Repository: repository.Provide(), stale: &snapshot},
		DocRepo: documentrepo.Provide(),
		LedgerSvc: ledgerservice.NewService(ledgerservice.Params{
			Log: zap.NewNop(), GenID: f.node,
		}),
		AuditSvc: auditservice.NewService(auditservice.Params{
			DB: f.db, Log: zap.NewNop(), GenID: f.node, Repo: auditrepo.Provide(),
		}),
		Outbox: events.NewOutbox(f.db, f.node),
		Clock:  f.clock,
	})
	if _, err := staleSvc.Run(ctx, template.ID.String()); !errors.Is(err, domain.ErrConcurrentRun) {
		t.Fatalf("expected ErrConcurrentRun, got %v", err)
	}

	var bills int64
	if err := f.db.Model(&documentdomain.Document{}).Count(&bills).Error; err != nil {
		t.Fatalf("count bills: %v", err)
	}
	if bills != 1 {
		t.Fatalf("stale run must not bill: got %d bills", bills)
	}
	var entries int64
	if err := f.db.Model(&ledgerdomain.LedgerEntry{}).Count(&entries).Error; err != nil {
		t.Fatalf("count entries: %v", err)
	}
	if entries != 1 {
		t.Fatalf("stale run must not post ledger entries: got %d", entries)
	}
	var runEvents int64
	if err := f.db.Model(&events.BillingEvent{}).
		Where("event_type = ?", events.EventSubscriptionRun).
		Count(&runEvents).Error; err != nil {
		t.Fatalf("count events: %v", err)
	}
	if runEvents != 1 {
		t.Fatalf("stale run must not emit events: got %d", runEvents)
	}
}

func TestRunSequentialCycles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	template, err := f.svc.Create(ctx, f.createRequest())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	first, err := f.svc.Run(ctx, template.ID.String())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := f.svc.Run(ctx, template.ID.String())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if *first.Document.Number == *second.Document.Number {
		t.Fatalf("cycles must not share numbers: %s", *first.Document.Number)
	}

	// Feb 28 advances to Mar 28, not Mar 31: the clamp does not restore the
	// original anchor day.
	wantNext := time.Date(2026, time.March, 28, 9, 0, 0, 0, time.UTC)
	if !second.Template.NextRunAt.Equal(wantNext) {
		t.Fatalf("expected next run %s, got %s", wantNext, second.Template.NextRunAt)
	}
}
