package booking

import (
	"context"

	domain "eventbook/internal/domain/booking"
	eventDomain "eventbook/internal/domain/event"
)

// Row pairs a booking with the event it reserves.
type Row struct {
	Booking domain.Booking
	Event   eventDomain.Event
}

// Store persists Booking state.
type Store interface {
	Create(ctx context.Context, value domain.Booking) error
	Exists(ctx context.Context, accountID, eventID string) (bool, error)
	CountForEvent(ctx context.Context, eventID string) (int, error)
	CountsByEvent(ctx context.Context) (map[string]int, error)
	EventIDsForAccount(ctx context.Context, accountID string) (map[string]bool, error)
	ListForAccount(ctx context.Context, accountID string) ([]Row, error)
}
