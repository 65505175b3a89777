package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EntryDetails are the resolved, display-ready fields of a feed occurrence.
// Group and tag names are resolved defensively: a dangling reference leaves
// the name nil rather than failing the projection.
type EntryDetails struct {
	EntryID      uuid.UUID       `json:"entryId"`
	Name         string          `json:"name"`
	Type         EntryType       `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
	Fullfilled   bool            `json:"fullfilled"`
	GroupID      *uuid.UUID      `json:"groupId,omitempty"`
	GroupName    *string         `json:"groupName,omitempty"`
	TagID        *uuid.UUID      `json:"tagId,omitempty"`
	TagName      *string         `json:"tagName,omitempty"`
	TagColor     *string         `json:"tagColor,omitempty"`
	ReceiptKey   *string         `json:"receiptKey,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// PopulatedEntry is one line of the projected feed. It is built fresh on
// every projection and never persisted or mutated in place.
//
// For a standalone entry ID is the entry row's id and Index is 0. For a
// series occurrence Index is the 1-based occurrence number, Interval the
// effective series length (0 for unbounded), and ExclusionID is set when the
// occurrence is materialized through a modification exclusion. Index and
// Interval are stamped here so mutation operations never re-derive them from
// the date.
type PopulatedEntry struct {
	ID                *uuid.UUID       `json:"id,omitempty"`
	Date              time.Time        `json:"date"`
	Index             int              `json:"index"`
	Interval          int32            `json:"interval"`
	Config            *RecurringConfig `json:"config,omitempty"`
	RecurringConfigID *uuid.UUID       `json:"recurringConfigId,omitempty"`
	ExclusionID       *uuid.UUID       `json:"exclusionId,omitempty"`
	Details           EntryDetails     `json:"details"`
}

// MaintenanceRepository holds bulk store operations that span all entity
// tables.
type MaintenanceRepository interface {
	// EraseAll permanently removes every row belonging to the user across
	// all five entity tables. Idempotent.
	EraseAll(ctx context.Context, userID string) error
}
