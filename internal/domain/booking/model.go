package booking

import (
	"errors"
	"time"
)

// Domain errors
var (
	ErrAlreadyBooked = errors.New("you have already booked this event")
	ErrEventFull     = errors.New("this event is fully booked")
)

// Booking records one account's reservation of one event.
// INVARIANT: at most one Booking exists per (AccountID, EventID)
type Booking struct {
	ID        string
	AccountID string
	EventID   string
	BookedAt  time.Time
}

// Outcome is the result of a booking attempt.
type Outcome int

const (
	OutcomeBooked Outcome = iota
	OutcomeAlreadyBooked
	OutcomeFull
)

// String returns the outcome name used in logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeBooked:
		return "booked"
	case OutcomeAlreadyBooked:
		return "already_booked"
	case OutcomeFull:
		return "full"
	}
	return "unknown"
}

// Confirmation describes a successful booking to downstream notifiers.
type Confirmation struct {
	BookingID     string    `json:"booking_id"`
	AccountID     string    `json:"account_id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	EventID       string    `json:"event_id"`
	EventName     string    `json:"event_name"`
	EventLocation string    `json:"event_location"`
	EventDate     time.Time `json:"event_date"`
	BookedAt      time.Time `json:"booked_at"`
}

// Validate checks that the booking references both sides.
func (b *Booking) Validate() error {
	if b.AccountID == "" {
		return errors.New("booking has no account")
	}
	if b.EventID == "" {
		return errors.New("booking has no event")
	}
	return nil
}
