package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kassa-app/kassa-backend/internal/domain"
)

// RecurringConfigRepository implements domain.RecurringConfigRepository using
// PostgreSQL. interval_count and every_count back the domain's Interval and
// Every fields ("interval" alone would shadow the SQL keyword).
type RecurringConfigRepository struct {
	pool *pgxpool.Pool
}

// NewRecurringConfigRepository creates a new RecurringConfigRepository
func NewRecurringConfigRepository(pool *pgxpool.Pool) *RecurringConfigRepository {
	return &RecurringConfigRepository{pool: pool}
}

const recurringColumns = `id, user_id, frequency, interval_count, every_count, start_date, end_date, created_at`

// Create inserts a new recurring config
func (r *RecurringConfigRepository) Create(ctx context.Context, config *domain.RecurringConfig) (*domain.RecurringConfig, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO recurring_configs (user_id, frequency, interval_count, every_count, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+recurringColumns,
		config.UserID,
		string(config.Frequency),
		config.Interval,
		config.Every,
		dateToPg(config.StartDate),
		datePtrToPg(config.EndDate),
	)
	return scanRecurringConfig(row)
}

// GetByID retrieves a non-deleted recurring config by ID
func (r *RecurringConfigRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*domain.RecurringConfig, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+recurringColumns+`
		FROM recurring_configs
		WHERE id = $1 AND user_id = $2 AND NOT is_deleted`,
		uuidToPg(id), userID,
	)

	config, err := scanRecurringConfig(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrRecurringNotFound
		}
		return nil, err
	}
	return config, nil
}

// ListByUser retrieves all non-deleted recurring configs, ordered by creation time
func (r *RecurringConfigRepository) ListByUser(ctx context.Context, userID string) ([]*domain.RecurringConfig, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+recurringColumns+`
		FROM recurring_configs
		WHERE user_id = $1 AND NOT is_deleted
		ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var configs []*domain.RecurringConfig
	for rows.Next() {
		config, err := scanRecurringConfig(rows)
		if err != nil {
			return nil, err
		}
		configs = append(configs, config)
	}
	return configs, rows.Err()
}

// Update updates a recurring config's bounds
func (r *RecurringConfigRepository) Update(ctx context.Context, config *domain.RecurringConfig) (*domain.RecurringConfig, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE recurring_configs
		SET frequency = $3, interval_count = $4, every_count = $5, start_date = $6, end_date = $7
		WHERE id = $1 AND user_id = $2 AND NOT is_deleted
		RETURNING `+recurringColumns,
		uuidToPg(config.ID),
		config.UserID,
		string(config.Frequency),
		config.Interval,
		config.Every,
		dateToPg(config.StartDate),
		datePtrToPg(config.EndDate),
	)

	updated, err := scanRecurringConfig(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrRecurringNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete soft-deletes a recurring config
func (r *RecurringConfigRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE recurring_configs
		SET is_deleted = true
		WHERE id = $1 AND user_id = $2 AND NOT is_deleted`,
		uuidToPg(id), userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecurringNotFound
	}
	return nil
}

func scanRecurringConfig(row pgx.Row) (*domain.RecurringConfig, error) {
	var (
		config    domain.RecurringConfig
		id        pgtype.UUID
		frequency string
		startDate pgtype.Date
		endDate   pgtype.Date
		createdAt pgtype.Timestamptz
	)

	err := row.Scan(
		&id,
		&config.UserID,
		&frequency,
		&config.Interval,
		&config.Every,
		&startDate,
		&endDate,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	config.ID = pgToUUID(id)
	config.Frequency = domain.Frequency(frequency)
	config.StartDate = startDate.Time
	config.EndDate = pgToDatePtr(endDate)
	config.CreatedAt = createdAt.Time
	return &config, nil
}
