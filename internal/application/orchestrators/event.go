package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"eventbook/internal/domain/account"
	"eventbook/internal/domain/event"
	"eventbook/internal/domain/validation"
)

// EventStoreForOrchestrator defines the store interface needed by event orchestrators.
type EventStoreForOrchestrator interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
	Save(ctx context.Context, e event.Event) error
	Update(ctx context.Context, e event.Event) error
	Delete(ctx context.Context, id string) error
}

// BookingCounter reports how many seats of an event are taken.
type BookingCounter interface {
	CountForEvent(ctx context.Context, eventID string) (int, error)
}

// --- Create Event ---

// CreateEventInput carries input for the create event orchestrator.
type CreateEventInput struct {
	Principal account.Principal
	Fields    event.Fields
}

// CreateEventDeps holds dependencies for CreateEvent.
type CreateEventDeps struct {
	EventStore EventStoreForOrchestrator
	GenerateID func() string
	Now        func() time.Time
}

// ExecuteCreateEvent validates the form and persists a new event owned by the principal.
// PRE: Principal is authenticated
// POST: Event persisted with CreatedBy = Principal.ID, or validation.Errors returned
func ExecuteCreateEvent(ctx context.Context, input CreateEventInput, deps CreateEventDeps) (event.Event, error) {
	if input.Principal.IsAnonymous() {
		return event.Event{}, ErrAuthenticationRequired
	}
	now := clock(deps.Now)

	e := event.Event{
		ID:        newID(deps.GenerateID),
		CreatedBy: input.Principal.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := input.Fields.Apply(&e); err != nil {
		return event.Event{}, err
	}
	if err := deps.EventStore.Save(ctx, e); err != nil {
		return event.Event{}, err
	}

	zap.L().Info("event_created", zap.String("event_id", e.ID), zap.String("created_by", e.CreatedBy))
	return e, nil
}

// --- Update Event ---

// UpdateEventInput carries input for the update event orchestrator.
type UpdateEventInput struct {
	Principal account.Principal
	EventID   string
	Fields    event.Fields
}

// UpdateEventDeps holds dependencies for UpdateEvent.
type UpdateEventDeps struct {
	EventStore   EventStoreForOrchestrator
	BookingStore BookingCounter
	Now          func() time.Time
}

// ExecuteUpdateEvent applies the form to an existing event.
// PRE: Principal is authenticated
// POST: the event holds the new fields; errors are event.ErrNotFound,
// event.ErrForbidden or validation.Errors, checked in that order
// INVARIANT: capacity never drops below the seats already booked
func ExecuteUpdateEvent(ctx context.Context, input UpdateEventInput, deps UpdateEventDeps) (event.Event, error) {
	e, err := loadModifiable(ctx, deps.EventStore, input.Principal, input.EventID)
	if err != nil {
		return event.Event{}, err
	}

	if err := input.Fields.Apply(&e); err != nil {
		return event.Event{}, err
	}
	booked, err := deps.BookingStore.CountForEvent(ctx, e.ID)
	if err != nil {
		return event.Event{}, err
	}
	if e.Capacity < booked {
		return event.Event{}, capacityError(booked)
	}

	// The store re-checks capacity against bookings made since the count.
	e.UpdatedAt = clock(deps.Now)
	err = deps.EventStore.Update(ctx, e)
	if errors.Is(err, event.ErrCapacityBelowBooked) {
		if booked, err = deps.BookingStore.CountForEvent(ctx, e.ID); err != nil {
			return event.Event{}, err
		}
		return event.Event{}, capacityError(booked)
	}
	if err != nil {
		return event.Event{}, err
	}

	zap.L().Info("event_updated", zap.String("event_id", e.ID), zap.String("updated_by", input.Principal.ID))
	return e, nil
}

func capacityError(booked int) error {
	return validation.Errors{
		"capacity": {fmt.Sprintf("Capacity cannot be lower than the %d seats already booked.", booked)},
	}
}

// --- Delete Event ---

// DeleteEventInput carries input for the delete event orchestrator.
type DeleteEventInput struct {
	Principal account.Principal
	EventID   string
}

// DeleteEventDeps holds dependencies for DeleteEvent.
type DeleteEventDeps struct {
	EventStore EventStoreForOrchestrator
}

// ExecuteDeleteEvent removes an event and, through the schema, its bookings.
// PRE: Principal is authenticated
// POST: the event is gone; errors are event.ErrNotFound or event.ErrForbidden
func ExecuteDeleteEvent(ctx context.Context, input DeleteEventInput, deps DeleteEventDeps) error {
	e, err := loadModifiable(ctx, deps.EventStore, input.Principal, input.EventID)
	if err != nil {
		return err
	}
	if err := deps.EventStore.Delete(ctx, e.ID); err != nil {
		return err
	}

	zap.L().Info("event_deleted", zap.String("event_id", e.ID), zap.String("deleted_by", input.Principal.ID))
	return nil
}

// loadModifiable fetches an event and checks the principal may change it.
func loadModifiable(ctx context.Context, store EventStoreForOrchestrator, p account.Principal, id string) (event.Event, error) {
	if p.IsAnonymous() {
		return event.Event{}, ErrAuthenticationRequired
	}
	e, err := store.GetByID(ctx, id)
	if err != nil {
		return event.Event{}, err
	}
	if !e.CanBeModifiedBy(p) {
		zap.L().Info("event_access_denied", zap.String("event_id", id), zap.String("account_id", p.ID))
		return event.Event{}, fmt.Errorf("event %q: %w", id, event.ErrForbidden)
	}
	return e, nil
}
