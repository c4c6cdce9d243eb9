package projections

import (
	"context"
	"time"

	"eventbook/internal/domain/account"
	domainEvent "eventbook/internal/domain/event"
)

// MyBookingsQuery carries query parameters.
type MyBookingsQuery struct {
	Principal account.Principal
}

// BookedEvent is one of the principal's bookings.
type BookedEvent struct {
	BookingID string
	BookedAt  time.Time
	Event     domainEvent.Event
	Upcoming  bool
}

// MyBookingsDeps holds dependencies for MyBookings.
type MyBookingsDeps struct {
	BookingStore BookingStore
	Now          func() time.Time
}

// QueryMyBookings lists the principal's bookings, soonest event first.
// PRE: Principal is authenticated
// POST: only bookings owned by Principal are returned
func QueryMyBookings(ctx context.Context, query MyBookingsQuery, deps MyBookingsDeps) ([]BookedEvent, error) {
	if query.Principal.IsAnonymous() {
		return nil, nil
	}
	rows, err := deps.BookingStore.ListForAccount(ctx, query.Principal.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	result := make([]BookedEvent, 0, len(rows))
	for _, r := range rows {
		result = append(result, BookedEvent{
			BookingID: r.Booking.ID,
			BookedAt:  r.Booking.BookedAt,
			Event:     r.Event,
			Upcoming:  r.Event.Date.After(now),
		})
	}
	return result, nil
}
