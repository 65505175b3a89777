package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EntryType string

const (
	EntryTypeIncome  EntryType = "income"
	EntryTypeExpense EntryType = "expense"
)

// Entry is a single ledger line. An entry with a non-nil RecurringID is
// either the anchor (template) entry of a recurring series or a replacement
// entry referenced by a modification exclusion; replacement entries are only
// ever looked up through Exclusion.ModifiedEntryID, never listed directly.
// The "fullfilled" spelling is the ledger's historical column name and is
// kept everywhere for consistency.
type Entry struct {
	ID           uuid.UUID       `json:"id"`
	UserID       string          `json:"-"`
	Name         string          `json:"name"`
	Type         EntryType       `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
	Date         time.Time       `json:"date"`
	Fullfilled   bool            `json:"fullfilled"`
	RecurringID  *uuid.UUID      `json:"recurringId,omitempty"`
	GroupID      *uuid.UUID      `json:"groupId,omitempty"`
	TagID        *uuid.UUID      `json:"tagId,omitempty"`
	ReceiptKey   *string         `json:"receiptKey,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// EntryRepository defines store operations for ledger entries.
// All reads return non-deleted rows only; Delete is a soft delete.
type EntryRepository interface {
	Create(ctx context.Context, entry *Entry) (*Entry, error)
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*Entry, error)
	// ListStandalone returns entries with no recurring config, ordered by date.
	ListStandalone(ctx context.Context, userID string) ([]*Entry, error)
	// ListByRecurringIDs returns entries belonging to the given recurring
	// configs (anchors and replacements), ordered by creation time.
	ListByRecurringIDs(ctx context.Context, userID string, recurringIDs []uuid.UUID) ([]*Entry, error)
	Update(ctx context.Context, entry *Entry) (*Entry, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
	SetReceiptKey(ctx context.Context, userID string, id uuid.UUID, key *string) error
}
