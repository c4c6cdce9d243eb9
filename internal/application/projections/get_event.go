package projections

import (
	"context"
	"fmt"

	"eventbook/internal/domain/account"
	domainEvent "eventbook/internal/domain/event"
)

// GetEventQuery carries query parameters.
type GetEventQuery struct {
	Principal account.Principal
	EventID   string
}

// GetEventResult carries an event with its seat usage.
type GetEventResult struct {
	Event  domainEvent.Event
	Booked int
}

// GetEventDeps holds dependencies for GetEvent.
type GetEventDeps struct {
	EventStore   EventStore
	BookingStore BookingStore
}

// QueryEditableEvent loads an event the principal is allowed to modify.
// PRE: EventID is non-empty
// POST: errors are domainEvent.ErrNotFound or domainEvent.ErrForbidden, in that order
func QueryEditableEvent(ctx context.Context, query GetEventQuery, deps GetEventDeps) (GetEventResult, error) {
	e, err := deps.EventStore.GetByID(ctx, query.EventID)
	if err != nil {
		return GetEventResult{}, err
	}
	if !e.CanBeModifiedBy(query.Principal) {
		return GetEventResult{}, fmt.Errorf("event %q: %w", query.EventID, domainEvent.ErrForbidden)
	}
	booked, err := deps.BookingStore.CountForEvent(ctx, e.ID)
	if err != nil {
		return GetEventResult{}, err
	}
	return GetEventResult{Event: e, Booked: booked}, nil
}
