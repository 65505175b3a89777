package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Group is a named bucket entries can be assigned to.
type Group struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	Icon      *string   `json:"icon,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// GroupRepository defines store operations for groups.
type GroupRepository interface {
	Create(ctx context.Context, group *Group) (*Group, error)
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*Group, error)
	ListByUser(ctx context.Context, userID string) ([]*Group, error)
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}
