package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kassa-app/kassa-backend/internal/domain"
)

// GroupRepository implements domain.GroupRepository using PostgreSQL
type GroupRepository struct {
	pool *pgxpool.Pool
}

// NewGroupRepository creates a new GroupRepository
func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

// Create inserts a new group
func (r *GroupRepository) Create(ctx context.Context, group *domain.Group) (*domain.Group, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO entry_groups (user_id, name, icon)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, name, icon, created_at`,
		group.UserID, group.Name, textPtrToPg(group.Icon),
	)
	return scanGroup(row)
}

// GetByID retrieves a non-deleted group by ID
func (r *GroupRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*domain.Group, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, icon, created_at
		FROM entry_groups
		WHERE id = $1 AND user_id = $2 AND NOT is_deleted`,
		uuidToPg(id), userID,
	)

	group, err := scanGroup(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrGroupNotFound
		}
		return nil, err
	}
	return group, nil
}

// ListByUser retrieves all non-deleted groups, ordered by creation time
func (r *GroupRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Group, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, icon, created_at
		FROM entry_groups
		WHERE user_id = $1 AND NOT is_deleted
		ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []*domain.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// Delete soft-deletes a group
func (r *GroupRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE entry_groups
		SET is_deleted = true
		WHERE id = $1 AND user_id = $2 AND NOT is_deleted`,
		uuidToPg(id), userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrGroupNotFound
	}
	return nil
}

func scanGroup(row pgx.Row) (*domain.Group, error) {
	var (
		group     domain.Group
		id        pgtype.UUID
		icon      pgtype.Text
		createdAt pgtype.Timestamptz
	)

	if err := row.Scan(&id, &group.UserID, &group.Name, &icon, &createdAt); err != nil {
		return nil, err
	}

	group.ID = pgToUUID(id)
	group.Icon = pgToTextPtr(icon)
	group.CreatedAt = createdAt.Time
	return &group, nil
}
