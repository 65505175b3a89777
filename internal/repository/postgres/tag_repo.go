package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kassa-app/kassa-backend/internal/domain"
)

// TagRepository implements domain.TagRepository using PostgreSQL
type TagRepository struct {
	pool *pgxpool.Pool
}

// NewTagRepository creates a new TagRepository
func NewTagRepository(pool *pgxpool.Pool) *TagRepository {
	return &TagRepository{pool: pool}
}

// Create inserts a new tag
func (r *TagRepository) Create(ctx context.Context, tag *domain.Tag) (*domain.Tag, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO entry_tags (user_id, name, color, suggest_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, name, color, suggest_id, created_at`,
		tag.UserID, tag.Name, textPtrToPg(tag.Color), textPtrToPg(tag.SuggestID),
	)
	return scanTag(row)
}

// GetByID retrieves a non-deleted tag by ID
func (r *TagRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*domain.Tag, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, color, suggest_id, created_at
		FROM entry_tags
		WHERE id = $1 AND user_id = $2 AND NOT is_deleted`,
		uuidToPg(id), userID,
	)

	tag, err := scanTag(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrTagNotFound
		}
		return nil, err
	}
	return tag, nil
}

// ListByUser retrieves all non-deleted tags, ordered by creation time
func (r *TagRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Tag, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, color, suggest_id, created_at
		FROM entry_tags
		WHERE user_id = $1 AND NOT is_deleted
		ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*domain.Tag
	for rows.Next() {
		tag, err := scanTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// UpdateColor updates a tag's color
func (r *TagRepository) UpdateColor(ctx context.Context, userID string, id uuid.UUID, color *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE entry_tags
		SET color = $3
		WHERE id = $1 AND user_id = $2 AND NOT is_deleted`,
		uuidToPg(id), userID, textPtrToPg(color),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTagNotFound
	}
	return nil
}

// Delete soft-deletes a tag
func (r *TagRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE entry_tags
		SET is_deleted = true
		WHERE id = $1 AND user_id = $2 AND NOT is_deleted`,
		uuidToPg(id), userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTagNotFound
	}
	return nil
}

func scanTag(row pgx.Row) (*domain.Tag, error) {
	var (
		tag       domain.Tag
		id        pgtype.UUID
		color     pgtype.Text
		suggestID pgtype.Text
		createdAt pgtype.Timestamptz
	)

	if err := row.Scan(&id, &tag.UserID, &tag.Name, &color, &suggestID, &createdAt); err != nil {
		return nil, err
	}

	tag.ID = pgToUUID(id)
	tag.Color = pgToTextPtr(color)
	tag.SuggestID = pgToTextPtr(suggestID)
	tag.CreatedAt = createdAt.Time
	return &tag, nil
}
