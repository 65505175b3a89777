package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tag is a colorable label for entries. SuggestID links a tag back to the
// built-in suggestion it was created from, when any.
type Tag struct {
	ID        uuid.UUID `json:"id"`
	UserID    string    `json:"-"`
	Name      string    `json:"name"`
	Color     *string   `json:"color,omitempty"`
	SuggestID *string   `json:"suggestId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// TagRepository defines store operations for tags.
type TagRepository interface {
	Create(ctx context.Context, tag *Tag) (*Tag, error)
	GetByID(ctx context.Context, userID string, id uuid.UUID) (*Tag, error)
	ListByUser(ctx context.Context, userID string) ([]*Tag, error)
	UpdateColor(ctx context.Context, userID string, id uuid.UUID, color *string) error
	Delete(ctx context.Context, userID string, id uuid.UUID) error
}
