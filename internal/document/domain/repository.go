package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository is the persistence boundary for documents. Every method takes
// the *gorm.DB handle explicitly so services can compose calls inside one
// transaction.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, doc *Document) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Document, error)
	List(ctx context.Context, db *gorm.DB, req ListRequest) ([]Document, error)
	UpdateDraft(ctx context.Context, db *gorm.DB, doc *Document, now time.Time) error
	ReplaceItems(ctx context.Context, db *gorm.DB, docID snowflake.ID, items []DocumentItem) error

	// MarkScheduled flips DRAFT to SCHEDULED, assigning the number and
	// dates. Returns false when the row was not in DRAFT anymore.
	MarkScheduled(ctx context.Context, db *gorm.DB, id snowflake.ID, number string, issueDate, dueDate, now time.Time) (bool, error)

	// MarkCancelled flips the given state to CANCELLED. Returns false when
	// the row already left that state.
	MarkCancelled(ctx context.Context, db *gorm.DB, id snowflake.ID, from DocumentStatus, reason string, now time.Time) (bool, error)

	// CasPayment advances amount_paid and status only if amount_paid still
	// holds its previously read value; the compare-and-swap serializes
	// concurrent payment postings per document.
	CasPayment(ctx context.Context, db *gorm.DB, id snowflake.ID, oldPaid, newPaid int64, from, to DocumentStatus, now time.Time) (bool, error)

	// MarkOverdueOne flips one issued unpaid document to OVERDUE, guarded
	// on its current status so a racing payment wins.
	MarkOverdueOne(ctx context.Context, db *gorm.DB, id snowflake.ID, from DocumentStatus, now time.Time) (bool, error)
	ListOverdueCandidates(ctx context.Context, db *gorm.DB, now time.Time, limit int) ([]OverdueCandidate, error)

	// NextNumber increments and formats the per-type document sequence.
	NextNumber(ctx context.Context, db *gorm.DB, docType DocumentType, now time.Time) (string, error)
}
