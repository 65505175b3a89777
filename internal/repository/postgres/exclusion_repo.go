package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kassa-app/kassa-backend/internal/domain"
)

// ExclusionRepository implements domain.ExclusionRepository using PostgreSQL
type ExclusionRepository struct {
	pool *pgxpool.Pool
}

// NewExclusionRepository creates a new ExclusionRepository
func NewExclusionRepository(pool *pgxpool.Pool) *ExclusionRepository {
	return &ExclusionRepository{pool: pool}
}

const exclusionColumns = `id, user_id, recurring_id, date, reason, modified_entry_id, created_at`

// Create inserts a new exclusion
func (r *ExclusionRepository) Create(ctx context.Context, exclusion *domain.Exclusion) (*domain.Exclusion, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO exclusions (user_id, recurring_id, date, reason, modified_entry_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+exclusionColumns,
		exclusion.UserID,
		uuidToPg(exclusion.RecurringID),
		dateToPg(exclusion.Date),
		string(exclusion.Reason),
		uuidPtrToPg(exclusion.ModifiedEntryID),
	)
	return scanExclusion(row)
}

// ListByRecurringIDs retrieves all non-deleted exclusions for the given
// recurring configs
func (r *ExclusionRepository) ListByRecurringIDs(ctx context.Context, userID string, recurringIDs []uuid.UUID) ([]*domain.Exclusion, error) {
	if len(recurringIDs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(recurringIDs))
	for i, id := range recurringIDs {
		ids[i] = id.String()
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+exclusionColumns+`
		FROM exclusions
		WHERE user_id = $1 AND recurring_id = ANY($2::uuid[]) AND NOT is_deleted
		ORDER BY date ASC, created_at ASC`,
		userID, ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exclusions []*domain.Exclusion
	for rows.Next() {
		exclusion, err := scanExclusion(rows)
		if err != nil {
			return nil, err
		}
		exclusions = append(exclusions, exclusion)
	}
	return exclusions, rows.Err()
}

// UpdateReason flips an exclusion's reason (modification -> deletion when a
// materialized occurrence is removed)
func (r *ExclusionRepository) UpdateReason(ctx context.Context, userID string, id uuid.UUID, reason domain.ExclusionReason) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE exclusions
		SET reason = $3
		WHERE id = $1 AND user_id = $2 AND NOT is_deleted`,
		uuidToPg(id), userID, string(reason),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExclusionNotFound
	}
	return nil
}

// Delete soft-deletes an exclusion
func (r *ExclusionRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE exclusions
		SET is_deleted = true
		WHERE id = $1 AND user_id = $2 AND NOT is_deleted`,
		uuidToPg(id), userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrExclusionNotFound
	}
	return nil
}

func scanExclusion(row pgx.Row) (*domain.Exclusion, error) {
	var (
		exclusion       domain.Exclusion
		id              pgtype.UUID
		recurringID     pgtype.UUID
		exclusionDate   pgtype.Date
		reason          string
		modifiedEntryID pgtype.UUID
		createdAt       pgtype.Timestamptz
	)

	err := row.Scan(
		&id,
		&exclusion.UserID,
		&recurringID,
		&exclusionDate,
		&reason,
		&modifiedEntryID,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	exclusion.ID = pgToUUID(id)
	exclusion.RecurringID = pgToUUID(recurringID)
	exclusion.Date = exclusionDate.Time
	exclusion.Reason = domain.ExclusionReason(reason)
	exclusion.ModifiedEntryID = pgToUUIDPtr(modifiedEntryID)
	exclusion.CreatedAt = createdAt.Time
	return &exclusion, nil
}
