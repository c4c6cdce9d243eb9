package outbox

import (
	"context"
	"time"

	domain "eventbook/internal/domain/outbox"
)

// Store defines the interface for outbox entry persistence.
type Store interface {
	// GetByID retrieves an outbox entry by its ID.
	// PRE: id is non-empty
	// POST: Returns the entry or an error wrapping domain.ErrNotFound
	GetByID(ctx context.Context, id string) (domain.Entry, error)

	// Save persists an outbox entry (insert or update).
	// PRE: entry has been validated and its booking exists
	Save(ctx context.Context, e domain.Entry) error

	// ListPending returns entries still waiting for delivery, oldest first.
	// PRE: limit > 0
	ListPending(ctx context.Context, limit int) ([]domain.Entry, error)

	// ListDue returns undelivered entries whose next attempt is due at now,
	// longest overdue first.
	// PRE: limit > 0
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Entry, error)

	// ListFailed returns entries that exhausted their attempts, most recent first.
	// PRE: limit > 0
	ListFailed(ctx context.Context, limit int) ([]domain.Entry, error)

	// CountByStatus returns the number of entries in each status.
	CountByStatus(ctx context.Context) (map[string]int, error)

	// PurgeDone deletes delivered entries created before cutoff.
	// POST: returns the number of rows removed
	PurgeDone(ctx context.Context, cutoff time.Time) (int64, error)
}
