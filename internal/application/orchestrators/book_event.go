package orchestrators

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"eventbook/internal/domain/account"
	"eventbook/internal/domain/booking"
	"eventbook/internal/domain/event"
	"eventbook/internal/domain/outbox"
)

// EventReader fetches a single event.
type EventReader interface {
	GetByID(ctx context.Context, id string) (event.Event, error)
}

// BookingStoreForBook defines the store interface needed by BookEvent.
type BookingStoreForBook interface {
	CountForEvent(ctx context.Context, eventID string) (int, error)
	Exists(ctx context.Context, accountID, eventID string) (bool, error)
	Create(ctx context.Context, b booking.Booking) error
}

// BookingNotifier is told about every confirmed booking.
type BookingNotifier interface {
	NotifyBookingConfirmed(ctx context.Context, c booking.Confirmation) error
}

// OutboxWriter queues a notification that could not be delivered.
type OutboxWriter interface {
	Save(ctx context.Context, e outbox.Entry) error
}

// BookEventInput carries input for the book event orchestrator.
type BookEventInput struct {
	Principal account.Principal
	EventID   string
}

// BookEventDeps holds dependencies for BookEvent.
type BookEventDeps struct {
	EventStore   EventReader
	BookingStore BookingStoreForBook
	Notifiers    []BookingNotifier
	Outbox       OutboxWriter // optional
	GenerateID   func() string
	Now          func() time.Time
}

// ExecuteBookEvent reserves a seat for the principal.
// PRE: Principal is authenticated
// POST: exactly one of OutcomeFull, OutcomeAlreadyBooked or OutcomeBooked;
// only OutcomeBooked changes state. A missing event returns event.ErrNotFound
// INVARIANT: a full event is reported as full even to an account that already holds a seat
func ExecuteBookEvent(ctx context.Context, input BookEventInput, deps BookEventDeps) (booking.Outcome, error) {
	if input.Principal.IsAnonymous() {
		return 0, ErrAuthenticationRequired
	}

	e, err := deps.EventStore.GetByID(ctx, input.EventID)
	if err != nil {
		return 0, err
	}

	booked, err := deps.BookingStore.CountForEvent(ctx, e.ID)
	if err != nil {
		return 0, err
	}
	if e.IsFullyBooked(booked) {
		logBooking(input, booking.OutcomeFull)
		return booking.OutcomeFull, nil
	}

	exists, err := deps.BookingStore.Exists(ctx, input.Principal.ID, e.ID)
	if err != nil {
		return 0, err
	}
	if exists {
		logBooking(input, booking.OutcomeAlreadyBooked)
		return booking.OutcomeAlreadyBooked, nil
	}

	b := booking.Booking{
		ID:        newID(deps.GenerateID),
		AccountID: input.Principal.ID,
		EventID:   e.ID,
		BookedAt:  clock(deps.Now),
	}
	err = deps.BookingStore.Create(ctx, b)
	switch {
	case errors.Is(err, booking.ErrAlreadyBooked):
		logBooking(input, booking.OutcomeAlreadyBooked)
		return booking.OutcomeAlreadyBooked, nil
	case errors.Is(err, booking.ErrEventFull):
		logBooking(input, booking.OutcomeFull)
		return booking.OutcomeFull, nil
	case err != nil:
		return 0, err
	}

	logBooking(input, booking.OutcomeBooked)
	notifyBooked(ctx, deps, booking.Confirmation{
		BookingID:     b.ID,
		AccountID:     input.Principal.ID,
		Username:      input.Principal.Username,
		Email:         input.Principal.Email,
		EventID:       e.ID,
		EventName:     e.Name,
		EventLocation: e.Location,
		EventDate:     e.Date,
		BookedAt:      b.BookedAt,
	})
	return booking.OutcomeBooked, nil
}

func logBooking(input BookEventInput, outcome booking.Outcome) {
	zap.L().Info("booking_event",
		zap.String("event_id", input.EventID),
		zap.String("account_id", input.Principal.ID),
		zap.Stringer("outcome", outcome),
	)
}

// notifyBooked fans the confirmation out. A failure never changes the
// booking outcome; it is logged and, for named notifiers, queued for retry.
func notifyBooked(ctx context.Context, deps BookEventDeps, c booking.Confirmation) {
	for _, n := range deps.Notifiers {
		if n == nil {
			continue
		}
		err := n.NotifyBookingConfirmed(ctx, c)
		if err == nil {
			continue
		}
		name := notifierName(n)
		zap.L().Warn("booking_notify_failed",
			zap.String("booking_id", c.BookingID),
			zap.String("notifier", name),
			zap.Error(err),
		)
		if deps.Outbox != nil && name != "" {
			enqueueNotification(ctx, deps, name, c, err)
		}
	}
}

func enqueueNotification(ctx context.Context, deps BookEventDeps, notifier string, c booking.Confirmation, cause error) {
	payload, err := json.Marshal(c)
	if err != nil {
		zap.L().Error("outbox_enqueue_failed", zap.String("booking_id", c.BookingID), zap.Error(err))
		return
	}
	now := clock(deps.Now)
	e := outbox.Entry{
		ID:              newID(deps.GenerateID),
		Notifier:        notifier,
		BookingID:       c.BookingID,
		Payload:         string(payload),
		Status:          outbox.StatusPending,
		Attempts:        1,
		LastAttemptedAt: now,
		CreatedAt:       now,
		ErrorMessage:    cause.Error(),
	}
	e.ScheduleNext(outbox.DefaultBaseDelay, outbox.DefaultMaxDelay)
	if err := e.Validate(); err != nil {
		zap.L().Error("outbox_enqueue_failed", zap.String("booking_id", c.BookingID), zap.Error(err))
		return
	}
	if err := deps.Outbox.Save(ctx, e); err != nil {
		zap.L().Error("outbox_enqueue_failed",
			zap.String("booking_id", c.BookingID),
			zap.String("notifier", notifier),
			zap.Error(err),
		)
		return
	}
	zap.L().Info("outbox_enqueued", zap.String("entry_id", e.ID), zap.String("notifier", notifier))
}

type namedNotifier interface {
	Name() string
}

func notifierName(n BookingNotifier) string {
	if named, ok := n.(namedNotifier); ok {
		return named.Name()
	}
	return ""
}
