package projections

import (
	"context"

	"eventbook/internal/adapters/storage/booking"
	domainEvent "eventbook/internal/domain/event"
	domainProfile "eventbook/internal/domain/profile"
)

// EventStore interface for event queries.
type EventStore interface {
	GetByID(ctx context.Context, id string) (domainEvent.Event, error)
	List(ctx context.Context) ([]domainEvent.Event, error)
}

// BookingStore interface for booking queries.
type BookingStore interface {
	CountForEvent(ctx context.Context, eventID string) (int, error)
	CountsByEvent(ctx context.Context) (map[string]int, error)
	EventIDsForAccount(ctx context.Context, accountID string) (map[string]bool, error)
	ListForAccount(ctx context.Context, accountID string) ([]booking.Row, error)
}

// ProfileStore interface for profile queries.
type ProfileStore interface {
	GetByAccountID(ctx context.Context, accountID string) (domainProfile.Profile, error)
}
