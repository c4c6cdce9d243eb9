package booking

import (
	"context"
	"fmt"

	"eventbook/internal/adapters/storage"
	eventStore "eventbook/internal/adapters/storage/event"
	domain "eventbook/internal/domain/booking"
	eventDomain "eventbook/internal/domain/event"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new booking store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// Create inserts a booking only while the event still has a free seat.
// The count and the insert run as one statement inside an immediate
// transaction, so concurrent bookers are serialised by the write lock.
// PRE: value has been validated
// POST: the booking exists, or one of domain.ErrAlreadyBooked,
// domain.ErrEventFull, eventDomain.ErrNotFound is returned and nothing changed
func (s *SQLiteStore) Create(ctx context.Context, value domain.Booking) error {
	if err := value.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO booking (id, account_id, event_id, booked_at)
		 SELECT ?, ?, e.id, ?
		 FROM event e
		 WHERE e.id = ?
		   AND (SELECT COUNT(*) FROM booking b WHERE b.event_id = e.id) < e.capacity`,
		value.ID, value.AccountID, storage.FormatTime(value.BookedAt), value.EventID,
	)
	if err != nil {
		if storage.IsUniqueViolation(err) {
			return domain.ErrAlreadyBooked
		}
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM event WHERE id = ?", value.EventID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("event %q: %w", value.EventID, eventDomain.ErrNotFound)
		}
		return domain.ErrEventFull
	}
	return tx.Commit()
}

// Exists reports whether the account holds a booking for the event.
func (s *SQLiteStore) Exists(ctx context.Context, accountID, eventID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM booking WHERE account_id = ? AND event_id = ?", accountID, eventID,
	).Scan(&n)
	return n > 0, err
}

// CountForEvent returns how many seats of an event are taken.
func (s *SQLiteStore) CountForEvent(ctx context.Context, eventID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM booking WHERE event_id = ?", eventID).Scan(&n)
	return n, err
}

// CountsByEvent returns booked seats keyed by event ID. Events without
// bookings are absent.
func (s *SQLiteStore) CountsByEvent(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT event_id, COUNT(*) FROM booking GROUP BY event_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// EventIDsForAccount returns the set of events an account has booked.
func (s *SQLiteStore) EventIDsForAccount(ctx context.Context, accountID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT event_id FROM booking WHERE account_id = ?", accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// ListForAccount returns an account's bookings joined with their events,
// soonest event first.
func (s *SQLiteStore) ListForAccount(ctx context.Context, accountID string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT b.id, b.account_id, b.event_id, b.booked_at,
		        e.id, e.name, e.description, e.location, e.date, e.capacity, e.created_by, e.created_at, e.updated_at
		 FROM booking b
		 JOIN event e ON e.id = b.event_id
		 WHERE b.account_id = ?
		 ORDER BY e.date ASC, e.name ASC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Row
	for rows.Next() {
		var r Row
		var bookedAt string
		e, err := eventStore.ScanEvent(func(dest ...interface{}) error {
			head := []interface{}{&r.Booking.ID, &r.Booking.AccountID, &r.Booking.EventID, &bookedAt}
			return rows.Scan(append(head, dest...)...)
		})
		if err != nil {
			return nil, err
		}
		r.Event = e
		if r.Booking.BookedAt, err = storage.ParseTimeColumn("booking.booked_at", bookedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
