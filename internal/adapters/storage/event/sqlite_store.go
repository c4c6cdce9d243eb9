package event

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventbook/internal/adapters/storage"
	domain "eventbook/internal/domain/event"
)

const selectColumns = "SELECT id, name, description, location, date, capacity, created_by, created_at, updated_at FROM event"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new event store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Event by its ID.
// PRE: id is non-empty
// POST: Returns the entity or an error wrapping domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Event, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	entity, err := ScanEvent(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Event{}, fmt.Errorf("event %q: %w", id, domain.ErrNotFound)
	}
	return entity, err
}

// List returns every event ordered by date, then name.
func (s *SQLiteStore) List(ctx context.Context) ([]domain.Event, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" ORDER BY date ASC, name ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []domain.Event
	for rows.Next() {
		entity, err := ScanEvent(rows.Scan)
		if err != nil {
			return nil, err
		}
		results = append(results, entity)
	}
	return results, rows.Err()
}

// Save persists an Event (insert or update).
// PRE: entity has been validated and its creator exists
// POST: Entity is persisted; CreatedBy and CreatedAt are never changed by an update
func (s *SQLiteStore) Save(ctx context.Context, entity domain.Event) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO event (id, name, description, location, date, capacity, created_by, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name=excluded.name,
			description=excluded.description,
			location=excluded.location,
			date=excluded.date,
			capacity=excluded.capacity,
			updated_at=excluded.updated_at`,
		entity.ID,
		entity.Name,
		entity.Description,
		entity.Location,
		storage.FormatTime(entity.Date),
		entity.Capacity,
		entity.CreatedBy,
		storage.FormatTime(entity.CreatedAt),
		storage.FormatTime(entity.UpdatedAt),
	)
	return err
}

// Update rewrites the editable fields of an existing Event. The capacity
// guard runs in the same statement, so a booking committed after the caller
// counted seats still blocks a capacity that would undercut it.
// PRE: entity has been validated
// POST: the row is updated, or ErrNotFound / ErrCapacityBelowBooked and nothing changed
func (s *SQLiteStore) Update(ctx context.Context, entity domain.Event) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE event SET name = ?, description = ?, location = ?, date = ?, capacity = ?, updated_at = ?
		 WHERE id = ? AND ? >= (SELECT COUNT(*) FROM booking WHERE event_id = ?)`,
		entity.Name,
		entity.Description,
		entity.Location,
		storage.FormatTime(entity.Date),
		entity.Capacity,
		storage.FormatTime(entity.UpdatedAt),
		entity.ID,
		entity.Capacity,
		entity.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM event WHERE id = ?)", entity.ID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("event %q: %w", entity.ID, domain.ErrNotFound)
	}
	return fmt.Errorf("event %q: %w", entity.ID, domain.ErrCapacityBelowBooked)
}

// Delete removes an Event; its bookings go with it.
// PRE: id is non-empty
// POST: the event and all of its bookings are gone, or ErrNotFound if none existed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM event WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("event %q: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ScanEvent extracts an Event from a row scanner in selectColumns order.
// Exported for stores that join against event.
func ScanEvent(scan func(dest ...interface{}) error) (domain.Event, error) {
	var e domain.Event
	var date, createdAt, updatedAt string
	if err := scan(
		&e.ID,
		&e.Name,
		&e.Description,
		&e.Location,
		&date,
		&e.Capacity,
		&e.CreatedBy,
		&createdAt,
		&updatedAt,
	); err != nil {
		return domain.Event{}, err
	}
	var err error
	if e.Date, err = storage.ParseTimeColumn("event.date", date); err != nil {
		return domain.Event{}, err
	}
	if e.CreatedAt, err = storage.ParseTimeColumn("event.created_at", createdAt); err != nil {
		return domain.Event{}, err
	}
	if e.UpdatedAt, err = storage.ParseTimeColumn("event.updated_at", updatedAt); err != nil {
		return domain.Event{}, err
	}
	return e, nil
}
