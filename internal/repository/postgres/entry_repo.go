package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kassa-app/kassa-backend/internal/domain"
)

// EntryRepository implements domain.EntryRepository using PostgreSQL
type EntryRepository struct {
	pool *pgxpool.Pool
}

// NewEntryRepository creates a new EntryRepository
func NewEntryRepository(pool *pgxpool.Pool) *EntryRepository {
	return &EntryRepository{pool: pool}
}

const entryColumns = `id, user_id, name, type, amount, currency_code, date, fullfilled,
	recurring_id, group_id, tag_id, receipt_key, created_at, updated_at`

// Create inserts a new entry
func (r *EntryRepository) Create(ctx context.Context, entry *domain.Entry) (*domain.Entry, error) {
	amount, err := decimalToPgNumeric(entry.Amount)
	if err != nil {
		return nil, fmt.Errorf("encode amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO entries (user_id, name, type, amount, currency_code, date, fullfilled,
			recurring_id, group_id, tag_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+entryColumns,
		entry.UserID,
		entry.Name,
		string(entry.Type),
		amount,
		entry.CurrencyCode,
		dateToPg(entry.Date),
		entry.Fullfilled,
		uuidPtrToPg(entry.RecurringID),
		uuidPtrToPg(entry.GroupID),
		uuidPtrToPg(entry.TagID),
	)

	return scanEntry(row)
}

// GetByID retrieves a non-deleted entry by ID
func (r *EntryRepository) GetByID(ctx context.Context, userID string, id uuid.UUID) (*domain.Entry, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		WHERE id = $1 AND user_id = $2 AND NOT is_deleted`,
		uuidToPg(id), userID,
	)

	entry, err := scanEntry(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}
	return entry, nil
}

// ListStandalone retrieves all non-deleted entries not tied to a recurring
// config, ordered by date
func (r *EntryRepository) ListStandalone(ctx context.Context, userID string) ([]*domain.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		WHERE user_id = $1 AND recurring_id IS NULL AND NOT is_deleted
		ORDER BY date ASC, created_at ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ListByRecurringIDs retrieves all non-deleted entries belonging to the given
// recurring configs, ordered by creation time
func (r *EntryRepository) ListByRecurringIDs(ctx context.Context, userID string, recurringIDs []uuid.UUID) ([]*domain.Entry, error) {
	if len(recurringIDs) == 0 {
		return nil, nil
	}

	ids := make([]string, len(recurringIDs))
	for i, id := range recurringIDs {
		ids[i] = id.String()
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+entryColumns+`
		FROM entries
		WHERE user_id = $1 AND recurring_id = ANY($2::uuid[]) AND NOT is_deleted
		ORDER BY created_at ASC`,
		userID, ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Update updates an entry's mutable fields
func (r *EntryRepository) Update(ctx context.Context, entry *domain.Entry) (*domain.Entry, error) {
	amount, err := decimalToPgNumeric(entry.Amount)
	if err != nil {
		return nil, fmt.Errorf("encode amount: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE entries
		SET name = $3, type = $4, amount = $5, currency_code = $6, date = $7,
			fullfilled = $8, group_id = $9, tag_id = $10, updated_at = now()
		WHERE id = $1 AND user_id = $2 AND NOT is_deleted
		RETURNING `+entryColumns,
		uuidToPg(entry.ID),
		entry.UserID,
		entry.Name,
		string(entry.Type),
		amount,
		entry.CurrencyCode,
		dateToPg(entry.Date),
		entry.Fullfilled,
		uuidPtrToPg(entry.GroupID),
		uuidPtrToPg(entry.TagID),
	)

	updated, err := scanEntry(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete soft-deletes an entry
func (r *EntryRepository) Delete(ctx context.Context, userID string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE entries
		SET is_deleted = true, updated_at = now()
		WHERE id = $1 AND user_id = $2 AND NOT is_deleted`,
		uuidToPg(id), userID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

// SetReceiptKey stores or clears the entry's receipt object key
func (r *EntryRepository) SetReceiptKey(ctx context.Context, userID string, id uuid.UUID, key *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE entries
		SET receipt_key = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2 AND NOT is_deleted`,
		uuidToPg(id), userID, textPtrToPg(key),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

func scanEntry(row pgx.Row) (*domain.Entry, error) {
	var (
		entry        domain.Entry
		id           pgtype.UUID
		amount       pgtype.Numeric
		entryDate    pgtype.Date
		recurringID  pgtype.UUID
		groupID      pgtype.UUID
		tagID        pgtype.UUID
		receiptKey   pgtype.Text
		createdAt    pgtype.Timestamptz
		updatedAt    pgtype.Timestamptz
		entryType    string
	)

	err := row.Scan(
		&id,
		&entry.UserID,
		&entry.Name,
		&entryType,
		&amount,
		&entry.CurrencyCode,
		&entryDate,
		&entry.Fullfilled,
		&recurringID,
		&groupID,
		&tagID,
		&receiptKey,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.ID = pgToUUID(id)
	entry.Type = domain.EntryType(entryType)
	entry.Amount = pgNumericToDecimal(amount)
	entry.Date = entryDate.Time
	entry.RecurringID = pgToUUIDPtr(recurringID)
	entry.GroupID = pgToUUIDPtr(groupID)
	entry.TagID = pgToUUIDPtr(tagID)
	entry.ReceiptKey = pgToTextPtr(receiptKey)
	entry.CreatedAt = createdAt.Time
	entry.UpdatedAt = updatedAt.Time

	return &entry, nil
}

func scanEntries(rows pgx.Rows) ([]*domain.Entry, error) {
	var entries []*domain.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
