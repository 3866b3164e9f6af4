package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	ledgerdomain "github.com/studioops/billing/internal/ledger/domain"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		log:   p.Log.Named("ledger.service"),
		genID: p.GenID,
	}
}

func (s *Service) CreateEntry(
	ctx context.Context,
	tx *gorm.DB,
	sourceType string,
	sourceID snowflake.ID,
	currency string,
	occurredAt time.Time,
	postings []ledgerdomain.Posting,
) error {
	if tx == nil {
		return errors.New("missing_transaction")
	}
	if strings.TrimSpace(sourceType) == "" {
		return ledgerdomain.ErrInvalidSourceType
	}
	if sourceID == 0 {
		return ledgerdomain.ErrInvalidSourceID
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return ledgerdomain.ErrInvalidCurrency
	}
	if occurredAt.IsZero() {
		return ledgerdomain.ErrInvalidOccurredAt
	}
	if err := ledgerdomain.ValidateBalanced(postings); err != nil {
		return err
	}

	now := time.Now().UTC()
	entry := ledgerdomain.LedgerEntry{
		ID:         s.genID.Generate(),
		SourceType: sourceType,
		SourceID:   sourceID,
		Currency:   currency,
		OccurredAt: occurredAt.UTC(),
		CreatedAt:  now,
	}
	if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
		return err
	}

	lines := make([]ledgerdomain.LedgerEntryLine, 0, len(postings))
	for _, posting := range postings {
		accountID, err := s.ensureAccount(ctx, tx, posting.AccountCode, now)
		if err != nil {
			return err
		}
		lines = append(lines, ledgerdomain.LedgerEntryLine{
			ID:            s.genID.Generate(),
			LedgerEntryID: entry.ID,
			AccountID:     accountID,
			Direction:     posting.Direction,
			Amount:        posting.Amount,
			CreatedAt:     now,
		})
	}
	return tx.WithContext(ctx).Create(&lines).Error
}

var accountNames = map[string]string{
	ledgerdomain.AccountCodeAccountsReceivable: "Accounts Receivable",
	ledgerdomain.AccountCodeRevenue:            "Revenue",
	ledgerdomain.AccountCodeTaxPayable:         "Tax Payable",
	ledgerdomain.AccountCodeCashClearing:       "Cash / Clearing",
}

func (s *Service) ensureAccount(ctx context.Context, tx *gorm.DB, code string, now time.Time) (snowflake.ID, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return 0, ledgerdomain.ErrInvalidAccount
	}
	name, ok := accountNames[code]
	if !ok {
		name = code
	}

	var accountID snowflake.ID
	if err := tx.WithContext(ctx).Raw(
		`SELECT id FROM ledger_accounts WHERE code = ?`,
		code,
	).Scan(&accountID).Error; err != nil {
		return 0, err
	}
	if accountID != 0 {
		return accountID, nil
	}

	newID := s.genID.Generate()
	if err := tx.WithContext(ctx).Exec(
		`INSERT INTO ledger_accounts (id, code, name, created_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (code) DO NOTHING`,
		newID,
		code,
		name,
		now,
	).Error; err != nil {
		return 0, err
	}

	if err := tx.WithContext(ctx).Raw(
		`SELECT id FROM ledger_accounts WHERE code = ?`,
		code,
	).Scan(&accountID).Error; err != nil {
		return 0, err
	}
	if accountID == 0 {
		return 0, errors.New("ledger_account_not_found")
	}
	return accountID, nil
}
