package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"daylog-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// ErrDuplicateDay is returned when a conditional insert finds an entry
// already recorded for the user since the given day start.
var ErrDuplicateDay = errors.New("entry already exists for this day")

// EntryRepository handles database operations for photo entries
type EntryRepository struct {
	db Querier
}

// NewEntryRepository creates a new entry repository
func NewEntryRepository(db Querier) *EntryRepository {
	return &EntryRepository{db: db}
}

// CreateSince inserts an entry only if the user has no entry for the local
// calendar day starting at dayStart. The timestamp is assigned by the
// database. The WHERE NOT EXISTS guard rejects sequential duplicates, but
// under READ COMMITTED two concurrent inserts can each see an empty snapshot
// and both pass it; the UNIQUE (user_id, day_key) constraint is the atomic
// backstop that lets at most one of them land. On success the entry's
// CreatedAt is filled in.
func (r *EntryRepository) CreateSince(ctx context.Context, entry *models.Entry, dayStart time.Time) error {
	query := `
		INSERT INTO entries (id, user_id, blob_url, caption, day_key)
		SELECT $1, $2, $3, $4, $6
		WHERE NOT EXISTS (
			SELECT 1 FROM entries WHERE user_id = $2 AND created_at >= $5
		)
		RETURNING created_at
	`
	dayKey := dayStart.Format("2006-01-02")
	err := r.db.QueryRow(ctx, query,
		entry.ID, entry.UserID, entry.BlobURL, entry.Caption, dayStart, dayKey,
	).Scan(&entry.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrDuplicateDay
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrDuplicateDay
		}
		return fmt.Errorf("failed to create entry: %w", err)
	}
	return nil
}

// ExistsSince reports whether the user has any entry created at or after the
// given instant.
func (r *EntryRepository) ExistsSince(ctx context.Context, userID string, since time.Time) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM entries WHERE user_id = $1 AND created_at >= $2)`
	var exists bool
	err := r.db.QueryRow(ctx, query, userID, since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check entry existence: %w", err)
	}
	return exists, nil
}

// ListByUser retrieves all entries for a user, newest first
func (r *EntryRepository) ListByUser(ctx context.Context, userID string) ([]*models.Entry, error) {
	query := `
		SELECT id, user_id, blob_url, caption, created_at
		FROM entries
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.Entry
	for rows.Next() {
		var entry models.Entry
		err := rows.Scan(
			&entry.ID, &entry.UserID, &entry.BlobURL, &entry.Caption, &entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating entries: %w", err)
	}

	return entries, nil
}
