package projections

import (
	"context"
	"time"

	"eventbook/internal/adapters/storage/booking"
	domainBooking "eventbook/internal/domain/booking"
	domainEvent "eventbook/internal/domain/event"
	domainProfile "eventbook/internal/domain/profile"
)

var baseTime = time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)

type mockEventStore struct {
	events []domainEvent.Event
}

// GetByID returns the seeded event with the given id.
// PRE: id is non-empty
// POST: Returns the event or domainEvent.ErrNotFound
func (m *mockEventStore) GetByID(_ context.Context, id string) (domainEvent.Event, error) {
	for _, e := range m.events {
		if e.ID == id {
			return e, nil
		}
	}
	return domainEvent.Event{}, domainEvent.ErrNotFound
}

// List returns the seeded events in seed order.
func (m *mockEventStore) List(_ context.Context) ([]domainEvent.Event, error) {
	return m.events, nil
}

// mockBookingStore answers from a flat list of (account, event) pairs.
type mockBookingStore struct {
	bookings []domainBooking.Booking
	events   *mockEventStore
}

func (m *mockBookingStore) CountForEvent(_ context.Context, eventID string) (int, error) {
	n := 0
	for _, b := range m.bookings {
		if b.EventID == eventID {
			n++
		}
	}
	return n, nil
}

func (m *mockBookingStore) CountsByEvent(_ context.Context) (map[string]int, error) {
	counts := map[string]int{}
	for _, b := range m.bookings {
		counts[b.EventID]++
	}
	return counts, nil
}

func (m *mockBookingStore) EventIDsForAccount(_ context.Context, accountID string) (map[string]bool, error) {
	ids := map[string]bool{}
	for _, b := range m.bookings {
		if b.AccountID == accountID {
			ids[b.EventID] = true
		}
	}
	return ids, nil
}

func (m *mockBookingStore) ListForAccount(ctx context.Context, accountID string) ([]booking.Row, error) {
	var rows []booking.Row
	for _, b := range m.bookings {
		if b.AccountID != accountID {
			continue
		}
		e, err := m.events.GetByID(ctx, b.EventID)
		if err != nil {
			return nil, err
		}
		rows = append(rows, booking.Row{Booking: b, Event: e})
	}
	return rows, nil
}

type mockProfileStore struct {
	profiles map[string]domainProfile.Profile
}

func (m *mockProfileStore) GetByAccountID(_ context.Context, accountID string) (domainProfile.Profile, error) {
	p, ok := m.profiles[accountID]
	if !ok {
		return domainProfile.Profile{}, domainProfile.ErrNotFound
	}
	return p, nil
}

func makeEvent(id, createdBy string, capacity int, offset time.Duration) domainEvent.Event {
	return domainEvent.Event{
		ID: id, Name: "Event " + id, Description: "d", Location: "l",
		Date: baseTime.Add(offset), Capacity: capacity, CreatedBy: createdBy,
	}
}

func book(accountID, eventID string) domainBooking.Booking {
	return domainBooking.Booking{ID: accountID + "/" + eventID, AccountID: accountID, EventID: eventID, BookedAt: baseTime}
}
