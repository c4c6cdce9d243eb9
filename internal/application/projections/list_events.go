package projections

import (
	"context"
	"time"

	"eventbook/internal/domain/account"
	domainEvent "eventbook/internal/domain/event"
)

// ListEventsQuery carries query parameters. Principal may be anonymous.
type ListEventsQuery struct {
	Principal account.Principal
}

// EventRow is one event as shown on the listing page.
type EventRow struct {
	Event          domainEvent.Event
	Booked         int
	SeatsRemaining int
	FullyBooked    bool
	BookedByViewer bool
	CanModify      bool
	Past           bool
}

// ListEventsResult carries the query result.
type ListEventsResult struct {
	Events []EventRow
	// BookedIDs holds the events the principal has booked; empty when anonymous.
	BookedIDs map[string]bool
}

// ListEventsDeps holds dependencies for ListEvents.
type ListEventsDeps struct {
	EventStore   EventStore
	BookingStore BookingStore
	Now          func() time.Time
}

// QueryListEvents returns every event ordered by date with seat counts.
// PRE: none
// POST: rows follow the store's date order and include past events, flagged Past;
// viewer-specific flags are false for anonymous callers
func QueryListEvents(ctx context.Context, query ListEventsQuery, deps ListEventsDeps) (ListEventsResult, error) {
	events, err := deps.EventStore.List(ctx)
	if err != nil {
		return ListEventsResult{}, err
	}
	counts, err := deps.BookingStore.CountsByEvent(ctx)
	if err != nil {
		return ListEventsResult{}, err
	}

	result := ListEventsResult{BookedIDs: map[string]bool{}}
	if !query.Principal.IsAnonymous() {
		ids, err := deps.BookingStore.EventIDsForAccount(ctx, query.Principal.ID)
		if err != nil {
			return ListEventsResult{}, err
		}
		result.BookedIDs = ids
	}

	now := time.Now()
	if deps.Now != nil {
		now = deps.Now()
	}
	result.Events = make([]EventRow, 0, len(events))
	for _, e := range events {
		booked := counts[e.ID]
		result.Events = append(result.Events, EventRow{
			Event:          e,
			Booked:         booked,
			SeatsRemaining: e.SeatsRemaining(booked),
			FullyBooked:    e.IsFullyBooked(booked),
			BookedByViewer: result.BookedIDs[e.ID],
			CanModify:      e.CanBeModifiedBy(query.Principal),
			Past:           !e.Date.After(now),
		})
	}
	return result, nil
}
