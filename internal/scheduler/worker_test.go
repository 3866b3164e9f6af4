package scheduler

import (
	"context"
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
	documentservice "github.com/studioops/billing/internal/document/service"
	"github.com/studioops/billing/internal/events"
	ledgerdomain "github.com/studioops/billing/internal/ledger/domain"
	ledgerservice "github.com/studioops/billing/internal/ledger/service"
	subscriptiondomain "github.com/studioops/billing/internal/subscription/domain"
	subscriptionrepo "github.com/studioops/billing/internal/subscription/repository"
	subscriptionservice "github.com/studioops/billing/internal/subscription/service"
)

func newWorkerFixture(t *testing.T) (*Worker, *documentservice.Service, subscriptiondomain.Service, *clock.Fixed, *snowflake.Node, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "billing.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&documentdomain.Document{},
		&documentdomain.DocumentItem{},
		&documentdomain.DocumentSequence{},
		&subscriptiondomain.SubscriptionTemplate{},
		&subscriptiondomain.TemplateItem{},
		&ledgerdomain.LedgerAccount{},
		&ledgerdomain.LedgerEntry{},
		&ledgerdomain.LedgerEntryLine{},
		&auditdomain.AuditLog{},
		&events.BillingEvent{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(4)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	log := zap.NewNop()
	fixed := &clock.Fixed{Instant: time.Date(2026, time.April, 1, 6, 0, 0, 0, time.UTC)}
	docRepo := documentrepo.Provide()
	ledgerSvc := ledgerservice.NewService(ledgerservice.Params{Log: log, GenID: node})
	auditSvc := auditservice.NewService(auditservice.Params{DB: db, Log: log, GenID: node, Repo: auditrepo.Provide()})
	outbox := events.NewOutbox(db, node)

	docSvc := documentservice.NewService(documentservice.Params{
		DB: db, Log: log, GenID: node, Repo: docRepo,
		LedgerSvc: ledgerSvc, AuditSvc: auditSvc, Outbox: outbox, Clock: fixed,
	})
	subSvc := subscriptionservice.NewService(subscriptionservice.Params{
		DB: db, Log: log, GenID: node,
		Repo: subscriptionrepo.Provide(), DocRepo: docRepo,
		LedgerSvc: ledgerSvc, AuditSvc: auditSvc, Outbox: outbox, Clock: fixed,
	})
	worker := NewWorker(log, fixed, docSvc, subSvc, Config{BatchSize: 10})
	return worker, docSvc, subSvc, fixed, node, db
}

func TestRunOnceSweepsBothJobs(t *testing.T) {
	worker, docSvc, subSvc, fixed, node, db := newWorkerFixture(t)
	ctx := context.Background()

	doc, err := docSvc.Create(ctx, documentdomain.CreateRequest{
		Type:          "BILL",
		CounterpartID: node.Generate().String(),
		Currency:      "USD",
		Items: []documentdomain.ItemInput{
			{Description: "Hosting", Quantity: decimal.NewFromInt(1), UnitAmount: 40000},
		},
		TaxMode:   "EXCLUSIVE",
		DueInDays: 7,
	})
	if err != nil {
		t.Fatalf("create doc: %v", err)
	}
	if _, err := docSvc.Schedule(ctx, doc.ID.String()); err != nil {
		t.Fatalf("schedule doc: %v", err)
	}

	if _, err := subSvc.Create(ctx, subscriptiondomain.CreateRequest{
		Name:          "Monthly hosting",
		CounterpartID: node.Generate().String(),
		Currency:      "USD",
		Cadence:       "MONTHLY",
		Items: []documentdomain.ItemInput{
			{Description: "Hosting", Quantity: decimal.NewFromInt(1), UnitAmount: 40000},
		},
		TaxMode:   "EXCLUSIVE",
		DueInDays: 7,
	}); err != nil {
		t.Fatalf("create template: %v", err)
	}

	fixed.Advance(8 * 24 * time.Hour)
	if err := worker.RunOnce(ctx); err != nil {
		t.Fatalf("run once: %v", err)
	}

	swept, err := docSvc.Get(ctx, doc.ID.String())
	if err != nil {
		t.Fatalf("get doc: %v", err)
	}
	if swept.Status != documentdomain.StatusOverdue {
		t.Fatalf("expected OVERDUE, got %s", swept.Status)
	}

	var generated int64
	if err := db.Model(&documentdomain.Document{}).
		Where("id <> ?", doc.ID).
		Count(&generated).Error; err != nil {
		t.Fatalf("count bills: %v", err)
	}
	if generated != 1 {
		t.Fatalf("expected 1 generated bill, got %d", generated)
	}

	// A second sweep is a no-op: the document is already OVERDUE and the
	// template advanced a month out.
	if err := worker.RunOnce(ctx); err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if err := db.Model(&documentdomain.Document{}).
		Where("id <> ?", doc.ID).
		Count(&generated).Error; err != nil {
		t.Fatalf("recount bills: %v", err)
	}
	if generated != 1 {
		t.Fatalf("expected still 1 generated bill, got %d", generated)
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.PollInterval != time.Minute {
		t.Fatalf("expected 1m default interval, got %s", cfg.PollInterval)
	}
	if cfg.BatchSize != 50 {
		t.Fatalf("expected batch size 50, got %d", cfg.BatchSize)
	}

	custom := Config{PollInterval: 5 * time.Second, BatchSize: 7}.withDefaults()
	if custom.PollInterval != 5*time.Second || custom.BatchSize != 7 {
		t.Fatalf("custom values overridden: %+v", custom)
	}
}
