package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Posting is one side of a double-entry posting, addressed by account code.
// The service resolves codes to account rows, creating them on first use.
type Posting struct {
	AccountCode string
	Direction   EntryDirection
	Amount      int64
}

// LedgerService writes balanced ledger entries. CreateEntry participates in
// the caller's transaction.
type LedgerService interface {
	CreateEntry(
		ctx context.Context,
		tx *gorm.DB,
		sourceType string,
		sourceID snowflake.ID,
		currency string,
		occurredAt time.Time,
		postings []Posting,
	) error
}

// Service is the package alias for LedgerService.
type Service = LedgerService

var (
	ErrInvalidSourceType    = errors.New("invalid_source_type")
	ErrInvalidSourceID      = errors.New("invalid_source_id")
	ErrInvalidCurrency      = errors.New("invalid_currency")
	ErrInvalidOccurredAt    = errors.New("invalid_occurred_at")
	ErrInvalidPostings      = errors.New("invalid_postings")
	ErrInvalidPostingAmount = errors.New("invalid_posting_amount")
	ErrInvalidDirection     = errors.New("invalid_posting_direction")
	ErrInvalidAccount       = errors.New("invalid_account")
	ErrUnbalancedEntry      = errors.New("unbalanced_entry")
)

// IssuePostings builds the postings for an issued document: accounts
// receivable against revenue and extracted tax.
func IssuePostings(totalAmount, taxAmount int64) []Posting {
	return []Posting{
		{AccountCode: AccountCodeAccountsReceivable, Direction: EntryDirectionDebit, Amount: totalAmount},
		{AccountCode: AccountCodeRevenue, Direction: EntryDirectionCredit, Amount: totalAmount - taxAmount},
		{AccountCode: AccountCodeTaxPayable, Direction: EntryDirectionCredit, Amount: taxAmount},
	}
}

// CancelPostings reverses an issue entry when a scheduled document is
// cancelled before settlement.
func CancelPostings(totalAmount, taxAmount int64) []Posting {
	return []Posting{
		{AccountCode: AccountCodeAccountsReceivable, Direction: EntryDirectionCredit, Amount: totalAmount},
		{AccountCode: AccountCodeRevenue, Direction: EntryDirectionDebit, Amount: totalAmount - taxAmount},
		{AccountCode: AccountCodeTaxPayable, Direction: EntryDirectionDebit, Amount: taxAmount},
	}
}

// PaymentPostings moves an applied payment from receivables into clearing.
func PaymentPostings(amount int64) []Posting {
	return []Posting{
		{AccountCode: AccountCodeCashClearing, Direction: EntryDirectionDebit, Amount: amount},
		{AccountCode: AccountCodeAccountsReceivable, Direction: EntryDirectionCredit, Amount: amount},
	}
}
