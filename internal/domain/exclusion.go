package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ExclusionReason string

const (
	ExclusionReasonDeletion     ExclusionReason = "deletion"
	ExclusionReasonModification ExclusionReason = "modification"
)

// Exclusion overrides a single occurrence of a recurring series. Date is the
// original occurrence date being excluded. A deletion exclusion removes the
// occurrence; a modification exclusion replaces its details with the entry
// referenced by ModifiedEntryID.
type Exclusion struct {
	ID              uuid.UUID       `json:"id"`
	UserID          string          `json:"-"`
	RecurringID     uuid.UUID       `json:"recurringId"`
	Date            time.Time       `json:"date"`
	Reason          ExclusionReason `json:"reason"`
	ModifiedEntryID *uuid.UUID      `json:"modifiedEntryId,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// ExclusionRepository defines store operations for exclusions.
// Reads return non-deleted rows only; Delete is a soft delete.
type ExclusionRepository interface {
	Create(ctx context.Context, exclusion *Exclusion) (*Exclusion, error)
	ListByRecurringIDs(ctx context.Context, userID string, recurringIDs []uuid.UUID) ([]*Exclusion, error)
	UpdateReason(ctx context.Context, userID string, id uuid.UUID, reason ExclusionReason) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}
