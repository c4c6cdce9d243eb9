package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"eventbook/internal/adapters/storage"
	domain "eventbook/internal/domain/outbox"
)

const selectColumns = `SELECT id, notifier, booking_id, payload, status, attempts, max_attempts,
	COALESCE(last_attempted_at, ''), COALESCE(next_attempt_at, ''), created_at, error_message FROM outbox`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new outbox store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an outbox entry by its ID.
// PRE: id is non-empty
// POST: Returns the entry or an error wrapping domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Entry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	e, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entry{}, fmt.Errorf("outbox entry %q: %w", id, domain.ErrNotFound)
	}
	return e, err
}

// Save persists an outbox entry to the database.
// PRE: entry has been validated
// POST: Entry is persisted (insert or update); notifier, booking and payload never change
func (s *SQLiteStore) Save(ctx context.Context, e domain.Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outbox (id, notifier, booking_id, payload, status, attempts, max_attempts, last_attempted_at, next_attempt_at, created_at, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status=excluded.status,
		   attempts=excluded.attempts,
		   max_attempts=excluded.max_attempts,
		   last_attempted_at=excluded.last_attempted_at,
		   next_attempt_at=excluded.next_attempt_at,
		   error_message=excluded.error_message`,
		e.ID, e.Notifier, e.BookingID, e.Payload, e.Status, e.Attempts, e.MaxAttempts,
		storage.NullableTime(e.LastAttemptedAt), storage.NullableTime(e.NextAttemptAt), storage.FormatTime(e.CreatedAt), e.ErrorMessage)
	return err
}

// ListPending returns every undelivered entry (pending or retrying), due or not.
// PRE: limit > 0
// POST: Returns up to limit entries ordered by created_at
func (s *SQLiteStore) ListPending(ctx context.Context, limit int) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+" WHERE status IN (?, ?) ORDER BY created_at ASC LIMIT ?",
		domain.StatusPending, domain.StatusRetrying, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListDue returns pending or retrying entries whose next attempt is at or before now.
// PRE: limit > 0
// POST: Returns up to limit entries, longest overdue first; a NULL next_attempt_at counts as due
func (s *SQLiteStore) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+` WHERE status IN (?, ?) AND (next_attempt_at IS NULL OR next_attempt_at <= ?)
		 ORDER BY COALESCE(next_attempt_at, created_at) ASC, created_at ASC LIMIT ?`,
		domain.StatusPending, domain.StatusRetrying, storage.FormatTime(now), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ListFailed returns entries that have permanently failed.
// PRE: limit > 0
// POST: Returns up to limit failed entries ordered by last_attempted_at desc
func (s *SQLiteStore) ListFailed(ctx context.Context, limit int) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		selectColumns+" WHERE status = ? ORDER BY last_attempted_at DESC LIMIT ?",
		domain.StatusFailed, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

// CountByStatus returns the number of entries per status. Absent statuses are omitted.
func (s *SQLiteStore) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT status, COUNT(*) FROM outbox GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// PurgeDone removes delivered entries created before cutoff.
func (s *SQLiteStore) PurgeDone(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM outbox WHERE status = ? AND created_at < ?",
		domain.StatusDone, storage.FormatTime(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func scanEntry(scan func(dest ...interface{}) error) (domain.Entry, error) {
	var e domain.Entry
	var createdAt, lastAttemptedAt, nextAttemptAt string
	err := scan(&e.ID, &e.Notifier, &e.BookingID, &e.Payload, &e.Status, &e.Attempts, &e.MaxAttempts,
		&lastAttemptedAt, &nextAttemptAt, &createdAt, &e.ErrorMessage)
	if err != nil {
		return domain.Entry{}, err
	}
	if e.CreatedAt, err = storage.ParseTimeColumn("outbox.created_at", createdAt); err != nil {
		return domain.Entry{}, err
	}
	if lastAttemptedAt != "" {
		if e.LastAttemptedAt, err = storage.ParseTimeColumn("outbox.last_attempted_at", lastAttemptedAt); err != nil {
			return domain.Entry{}, err
		}
	}
	if nextAttemptAt != "" {
		if e.NextAttemptAt, err = storage.ParseTimeColumn("outbox.next_attempt_at", nextAttemptAt); err != nil {
			return domain.Entry{}, err
		}
	}
	return e, nil
}

func scanEntries(rows *sql.Rows) ([]domain.Entry, error) {
	var entries []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
