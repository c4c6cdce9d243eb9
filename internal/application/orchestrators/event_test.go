package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"

	"eventbook/internal/domain/account"
	"eventbook/internal/domain/event"
	"eventbook/internal/domain/validation"
)

var validFields = event.Fields{
	Name:        "Go meetup",
	Description: "Talks and pizza",
	Location:    "Level 2",
	Date:        "2026-06-01T18:30",
	Capacity:    "20",
}

// TestExecuteCreateEvent verifies a valid form is persisted with the creator set.
func TestExecuteCreateEvent(t *testing.T) {
	store := newMockEventStore()
	e, err := ExecuteCreateEvent(context.Background(), CreateEventInput{Principal: owner, Fields: validFields},
		CreateEventDeps{EventStore: store, GenerateID: sequentialIDs("evt"), Now: testNow})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID != "evt-1" || e.CreatedBy != owner.ID || e.Capacity != 20 {
		t.Errorf("unexpected event %+v", e)
	}
	if _, ok := store.events["evt-1"]; !ok {
		t.Error("event not persisted")
	}
}

// TestExecuteCreateEvent_Invalid verifies field errors and the anonymous guard.
func TestExecuteCreateEvent_Invalid(t *testing.T) {
	store := newMockEventStore()
	deps := CreateEventDeps{EventStore: store, Now: testNow}

	bad := validFields
	bad.Capacity = "0"
	bad.Name = ""
	_, err := ExecuteCreateEvent(context.Background(), CreateEventInput{Principal: owner, Fields: bad}, deps)
	var errs validation.Errors
	if !errors.As(err, &errs) || !errs.Has("capacity") || !errs.Has("name") {
		t.Errorf("expected capacity and name errors, got %v", err)
	}

	_, err = ExecuteCreateEvent(context.Background(), CreateEventInput{Fields: validFields}, deps)
	if !errors.Is(err, ErrAuthenticationRequired) {
		t.Errorf("expected ErrAuthenticationRequired, got %v", err)
	}
	if len(store.events) != 0 {
		t.Error("nothing should be persisted")
	}
}

// TestExecuteUpdateEvent_Authorization verifies owner and staff may update and others may not.
func TestExecuteUpdateEvent_Authorization(t *testing.T) {
	tests := []struct {
		name      string
		principal account.Principal
		wantErr   error
	}{
		{"owner", owner, nil},
		{"staff", staff, nil},
		{"other user", guest, event.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockEventStore(sampleEvent("e1", owner.ID, 10))
			fields := validFields
			fields.Name = "Renamed by " + tt.name
			_, err := ExecuteUpdateEvent(context.Background(), UpdateEventInput{
				Principal: tt.principal, EventID: "e1", Fields: fields,
			}, UpdateEventDeps{EventStore: store, BookingStore: &mockBookingStore{}, Now: testNow})

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			renamed := store.events["e1"].Name == fields.Name
			if renamed != (tt.wantErr == nil) {
				t.Errorf("renamed=%v, want %v", renamed, tt.wantErr == nil)
			}
			if store.events["e1"].CreatedBy != owner.ID {
				t.Error("creator must never change")
			}
		})
	}
}

// TestExecuteUpdateEvent_NotFoundBeforeForbidden verifies lookup precedes authorization.
func TestExecuteUpdateEvent_NotFoundBeforeForbidden(t *testing.T) {
	_, err := ExecuteUpdateEvent(context.Background(), UpdateEventInput{Principal: guest, EventID: "missing", Fields: validFields},
		UpdateEventDeps{EventStore: newMockEventStore(), BookingStore: &mockBookingStore{}})
	if !errors.Is(err, event.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestExecuteUpdateEvent_CapacityBelowBookings verifies capacity cannot undercut bookings.
func TestExecuteUpdateEvent_CapacityBelowBookings(t *testing.T) {
	store := newMockEventStore(sampleEvent("e1", owner.ID, 5))
	bookings := &mockBookingStore{}
	bookings.seed("u1", "e1")
	bookings.seed("u2", "e1")
	bookings.seed("u3", "e1")

	fields := validFields
	fields.Capacity = "2"
	_, err := ExecuteUpdateEvent(context.Background(), UpdateEventInput{Principal: owner, EventID: "e1", Fields: fields},
		UpdateEventDeps{EventStore: store, BookingStore: bookings, Now: testNow})
	var errs validation.Errors
	if !errors.As(err, &errs) || !errs.Has("capacity") {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if store.events["e1"].Capacity != 5 {
		t.Error("capacity must be unchanged")
	}

	fields.Capacity = "3"
	if _, err := ExecuteUpdateEvent(context.Background(), UpdateEventInput{Principal: owner, EventID: "e1", Fields: fields},
		UpdateEventDeps{EventStore: store, BookingStore: bookings, Now: testNow}); err != nil {
		t.Fatalf("capacity equal to bookings should be allowed: %v", err)
	}
}

// TestExecuteDeleteEvent verifies authorization on delete.
func TestExecuteDeleteEvent(t *testing.T) {
	store := newMockEventStore(sampleEvent("e1", owner.ID, 10), sampleEvent("e2", owner.ID, 10))
	deps := DeleteEventDeps{EventStore: store}

	if err := ExecuteDeleteEvent(context.Background(), DeleteEventInput{Principal: guest, EventID: "e1"}, deps); !errors.Is(err, event.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, ok := store.events["e1"]; !ok {
		t.Fatal("forbidden delete removed the event")
	}
	if err := ExecuteDeleteEvent(context.Background(), DeleteEventInput{Principal: owner, EventID: "e1"}, deps); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := ExecuteDeleteEvent(context.Background(), DeleteEventInput{Principal: staff, EventID: "e2"}, deps); err != nil {
		t.Fatalf("staff delete: %v", err)
	}
	if err := ExecuteDeleteEvent(context.Background(), DeleteEventInput{Principal: owner, EventID: "e1"}, deps); !errors.Is(err, event.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// bookAfterCount lets more bookings land right after the orchestrator counts seats.
type bookAfterCount struct {
	*mockBookingStore
	late  []string
	calls int
}

func (b *bookAfterCount) CountForEvent(ctx context.Context, eventID string) (int, error) {
	n, err := b.mockBookingStore.CountForEvent(ctx, eventID)
	b.calls++
	if b.calls == 1 {
		for _, u := range b.late {
			b.seed(u, eventID)
		}
	}
	return n, err
}

// TestExecuteUpdateEvent_CapacityRecheckedOnWrite verifies bookings made between
// the seat count and the write still block a lower capacity.
func TestExecuteUpdateEvent_CapacityRecheckedOnWrite(t *testing.T) {
	bookings := &mockBookingStore{}
	bookings.seed("u1", "e1")
	store := newMockEventStore(sampleEvent("e1", owner.ID, 5))
	store.bookings = bookings
	counter := &bookAfterCount{mockBookingStore: bookings, late: []string{"u2", "u3"}}

	fields := validFields
	fields.Capacity = "2"
	_, err := ExecuteUpdateEvent(context.Background(), UpdateEventInput{Principal: owner, EventID: "e1", Fields: fields},
		UpdateEventDeps{EventStore: store, BookingStore: counter, Now: testNow})

	var errs validation.Errors
	if !errors.As(err, &errs) || !errs.Has("capacity") {
		t.Fatalf("expected capacity error, got %v", err)
	}
	if !strings.Contains(errs["capacity"][0], "3 seats") {
		t.Errorf("message should report the current count: %q", errs["capacity"][0])
	}
	if store.events["e1"].Capacity != 5 {
		t.Errorf("capacity changed to %d", store.events["e1"].Capacity)
	}
}
