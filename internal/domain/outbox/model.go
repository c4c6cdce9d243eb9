// Package outbox holds booking notifications whose first delivery failed
// and are waiting to be retried.
package outbox

import (
	"errors"
	"time"
)

// Status constants for the entry lifecycle.
const (
	StatusPending  = "pending"
	StatusRetrying = "retrying"
	StatusDone     = "done"
	StatusFailed   = "failed"
)

// DefaultMaxAttempts applies when an entry is saved without a limit.
const DefaultMaxAttempts = 5

// Default retry backoff: DefaultBaseDelay doubled per attempt, capped at DefaultMaxDelay.
const (
	DefaultBaseDelay = 30 * time.Second
	DefaultMaxDelay  = time.Hour
)

// Domain errors.
var (
	ErrEmptyNotifier  = errors.New("notifier is required")
	ErrEmptyBookingID = errors.New("booking id is required")
	ErrEmptyPayload   = errors.New("payload is required")
	ErrNotFound       = errors.New("outbox entry not found")
)

// Entry is one undelivered booking confirmation for one notifier.
type Entry struct {
	ID              string
	Notifier        string // Name() of the notifier that failed
	BookingID       string
	Payload         string // JSON booking.Confirmation
	Status          string
	Attempts        int // includes the failed first delivery
	MaxAttempts     int
	LastAttemptedAt time.Time
	NextAttemptAt   time.Time // zero means due now
	CreatedAt       time.Time
	ErrorMessage    string
}

// Validate checks that the Entry can be replayed.
// PRE: Entry struct is populated
// POST: Returns nil if valid; a zero MaxAttempts is replaced by DefaultMaxAttempts
func (e *Entry) Validate() error {
	if e.Notifier == "" {
		return ErrEmptyNotifier
	}
	if e.BookingID == "" {
		return ErrEmptyBookingID
	}
	if e.Payload == "" {
		return ErrEmptyPayload
	}
	if e.CreatedAt.IsZero() {
		return errors.New("created_at must be set")
	}
	if e.MaxAttempts <= 0 {
		e.MaxAttempts = DefaultMaxAttempts
	}
	return nil
}

// CanRetry reports whether another delivery may be attempted.
func (e *Entry) CanRetry() bool {
	return (e.Status == StatusPending || e.Status == StatusRetrying) && e.Attempts < e.MaxAttempts
}

// IsTerminal reports whether the entry will never be attempted again.
func (e *Entry) IsTerminal() bool {
	return e.Status == StatusDone || e.Status == StatusFailed
}

// MarkAttempt records a delivery attempt made at now.
// POST: Attempts incremented, status retrying
func (e *Entry) MarkAttempt(now time.Time) {
	e.Attempts++
	e.LastAttemptedAt = now
	e.Status = StatusRetrying
}

// MarkSuccess marks the notification as delivered.
func (e *Entry) MarkSuccess() {
	e.Status = StatusDone
	e.ErrorMessage = ""
}

// MarkFailed records err. Once attempts are exhausted the entry is failed for good.
// POST: ErrorMessage set; Status is StatusFailed iff Attempts >= MaxAttempts
func (e *Entry) MarkFailed(err error) {
	e.ErrorMessage = err.Error()
	if e.Attempts >= e.MaxAttempts {
		e.Status = StatusFailed
	}
}

// NextRetryDelay is 2^attempts * baseDelay, capped at maxDelay.
func (e *Entry) NextRetryDelay(baseDelay, maxDelay time.Duration) time.Duration {
	if e.Attempts >= 30 {
		return maxDelay
	}
	delay := baseDelay * (1 << e.Attempts)
	if delay > maxDelay || delay <= 0 {
		return maxDelay
	}
	return delay
}

// ScheduleNext sets NextAttemptAt from the last attempt and the backoff.
// POST: NextAttemptAt is zero for terminal entries
func (e *Entry) ScheduleNext(baseDelay, maxDelay time.Duration) {
	if e.IsTerminal() {
		e.NextAttemptAt = time.Time{}
		return
	}
	if e.LastAttemptedAt.IsZero() {
		e.NextAttemptAt = e.CreatedAt
		return
	}
	e.NextAttemptAt = e.LastAttemptedAt.Add(e.NextRetryDelay(baseDelay, maxDelay))
}

// Due reports whether the entry may be attempted at now. A scheduled
// NextAttemptAt wins; otherwise the backoff runs from the last attempt.
func (e *Entry) Due(now time.Time, baseDelay, maxDelay time.Duration) bool {
	if !e.NextAttemptAt.IsZero() {
		return !now.Before(e.NextAttemptAt)
	}
	if e.LastAttemptedAt.IsZero() {
		return true
	}
	return !now.Before(e.LastAttemptedAt.Add(e.NextRetryDelay(baseDelay, maxDelay)))
}
