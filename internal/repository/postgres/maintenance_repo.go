package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// MaintenanceRepository implements domain.MaintenanceRepository using
// PostgreSQL
type MaintenanceRepository struct {
	pool *pgxpool.Pool
}

// NewMaintenanceRepository creates a new MaintenanceRepository
func NewMaintenanceRepository(pool *pgxpool.Pool) *MaintenanceRepository {
	return &MaintenanceRepository{pool: pool}
}

// EraseAll permanently deletes every row belonging to the user. Unlike the
// regular mutation paths this is a hard delete: the whole point of the
// operation is that no tombstones survive. Deleting tables in dependency
// order keeps the store consistent if a later statement fails.
func (r *MaintenanceRepository) EraseAll(ctx context.Context, userID string) error {
	tables := []string{
		"exclusions",
		"entries",
		"recurring_configs",
		"entry_groups",
		"entry_tags",
	}

	for _, table := range tables {
		if _, err := r.pool.Exec(ctx, `DELETE FROM `+table+` WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("erase %s: %w", table, err)
		}
	}
	return nil
}
