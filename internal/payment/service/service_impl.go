package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	auditdomain "github.com/studioops/billing/internal/audit/domain"
	"github.com/studioops/billing/internal/cache"
	"github.com/studioops/billing/internal/clock"
	documentdomain "github.com/studioops/billing/internal/document/domain"
	"github.com/studioops/billing/internal/events"
	ledgerdomain "github.com/studioops/billing/internal/ledger/domain"
	"github.com/studioops/billing/internal/payment/domain"
)

// replayCacheTTL bounds how long a settled idempotency key short-circuits
// without a database round trip. Keys older than this still replay correctly
// through the payments table.
const replayCacheTTL = 10 * time.Minute

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
	Replays   cache.Cache[string, *domain.Payment]
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
	replays   cache.Cache[string, *domain.Payment]
}

func NewService(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("payment.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		docRepo:   p.DocRepo,
		ledgerSvc: p.LedgerSvc,
		auditSvc:  p.AuditSvc,
		outbox:    p.Outbox,
		clock:     p.Clock,
		replays:   p.Replays,
	}
}

func (s *Service) Apply(ctx context.Context, documentID string, req domain.ApplyRequest) (*domain.ApplyResult, error) {
	docID, err := documentdomain.ParseID(documentID)
	if err != nil {
		return nil, documentdomain.ErrInvalidID
	}
	parsedKey, err := uuid.Parse(strings.TrimSpace(req.IdempotencyKey))
	if err != nil {
		return nil, domain.ErrInvalidIdempotencyKey
	}
	key := parsedKey.String()
	if req.Amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	cacheKey := docID.String() + ":" + key
	if cached, ok := s.replays.Get(cacheKey); ok {
		return s.replay(ctx, docID, cached, req.Amount)
	}

	var result *domain.ApplyResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := s.repo.FindByKey(ctx, tx, docID, key)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.Amount != req.Amount {
				return domain.ErrDuplicatePayment
			}
			doc, err := s.docRepo.FindByID(ctx, tx, docID)
			if err != nil {
				return err
			}
			result = &domain.ApplyResult{Payment: existing, Document: doc, Replayed: true}
			return nil
		}

		doc, err := s.docRepo.FindByID(ctx, tx, docID)
		if err != nil {
			return err
		}
		if doc == nil {
			return documentdomain.ErrNotFound
		}
		if currency := strings.ToUpper(strings.TrimSpace(req.Currency)); currency != "" && currency != doc.Currency {
			return domain.ErrCurrencyMismatch
		}
		if !documentdomain.IsPayable(doc.Status) {
			return documentdomain.ErrDocumentNotPayable
		}
		if req.Amount > doc.AmountDue() {
			return domain.ErrOverpayment
		}

		oldPaid := doc.AmountPaid
		newPaid := oldPaid + req.Amount
		next, err := documentdomain.NextOnPayment(doc.Status, newPaid, doc.TotalAmount)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		payment := &domain.Payment{
			ID:             s.genID.Generate(),
			DocumentID:     docID,
			IdempotencyKey: key,
			Amount:         req.Amount,
			Currency:       doc.Currency,
			Method:         strings.TrimSpace(req.Method),
			Reference:      strings.TrimSpace(req.Reference),
			PaidAt:         now,
			CreatedAt:      now,
		}
		if err := s.repo.Insert(ctx, tx, payment); err != nil {
			return err
		}

		ok, err := s.docRepo.CasPayment(ctx, tx, docID, oldPaid, newPaid, doc.Status, next, now)
		if err != nil {
			return err
		}
		if !ok {
			// amount_paid moved underneath us; the caller retries with the
			// same idempotency key.
			return documentdomain.ErrConcurrentUpdate
		}

		if err := s.ledgerSvc.CreateEntry(ctx, tx,
			ledgerdomain.SourceTypePayment, payment.ID, doc.Currency, now,
			ledgerdomain.PaymentPostings(payment.Amount),
		); err != nil {
			return err
		}

		doc.AmountPaid = newPaid
		doc.Status = next
		doc.UpdatedAt = now
		result = &domain.ApplyResult{Payment: payment, Document: doc}

		return s.outbox.PublishTx(ctx, tx, events.Event{
			Type: events.EventPaymentApplied,
			Payload: events.PaymentPayload{
				PaymentID:  payment.ID.String(),
				DocumentID: docID.String(),
				Amount:     payment.Amount,
				Currency:   payment.Currency,
			}.ToMap(),
			DedupeKey: events.EventPaymentApplied + ":" + cacheKey,
		})
	})
	if err != nil {
		return nil, err
	}

	s.replays.Set(cacheKey, result.Payment, replayCacheTTL)
	if !result.Replayed {
		s.audit(ctx, result)
	}
	return result, nil
}

// replay serves a repeated request from the cache without re-entering the
// settlement transaction.
func (s *Service) replay(ctx context.Context, docID snowflake.ID, cached *domain.Payment, amount int64) (*domain.ApplyResult, error) {
	if cached.Amount != amount {
		return nil, domain.ErrDuplicatePayment
	}
	doc, err := s.docRepo.FindByID(ctx, s.db, docID)
	if err != nil {
		return nil, err
	}
	return &domain.ApplyResult{Payment: cached, Document: doc, Replayed: true}, nil
}

func (s *Service) ListByDocument(ctx context.Context, documentID string) ([]domain.Payment, error) {
	docID, err := documentdomain.ParseID(documentID)
	if err != nil {
		return nil, documentdomain.ErrInvalidID
	}
	doc, err := s.docRepo.FindByID(ctx, s.db, docID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, documentdomain.ErrNotFound
	}
	return s.repo.ListByDocument(ctx, s.db, docID)
}

func (s *Service) audit(ctx context.Context, result *domain.ApplyResult) {
	if s.auditSvc == nil || result == nil || result.Payment == nil {
		return
	}
	targetID := result.Payment.DocumentID.String()
	_ = s.auditSvc.AuditLog(ctx, auditdomain.ActorTypeUser, nil, "payment.apply", "document", &targetID, map[string]any{
		"payment_id": result.Payment.ID.String(),
		"amount":     result.Payment.Amount,
		"currency":   result.Payment.Currency,
		"status":     string(result.Document.Status),
	})
}
