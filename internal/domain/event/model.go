package event

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"eventbook/internal/domain/account"
	"eventbook/internal/domain/validation"
)

// Field limits.
const (
	MaxNameLength        = 100
	MaxLocationLength    = 200
	MaxDescriptionLength = 10000
	MaxCapacity          = 100000
)

// DateLayout is the datetime-local form layout events are entered with.
const DateLayout = "2006-01-02T15:04"

// Domain errors
var (
	ErrNotFound            = errors.New("event not found")
	ErrForbidden           = errors.New("you do not have permission to modify this event")
	ErrCapacityBelowBooked = errors.New("capacity is below the seats already booked")
)

// Event is a scheduled gathering with a bounded number of seats.
type Event struct {
	ID          string
	Name        string
	Description string
	Location    string
	Date        time.Time
	Capacity    int
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Fields carries raw form input for creating or updating an Event.
type Fields struct {
	Name        string
	Description string
	Location    string
	Date        string
	Capacity    string
}

// FieldsFrom returns the form representation of e.
func FieldsFrom(e Event) Fields {
	return Fields{
		Name:        e.Name,
		Description: e.Description,
		Location:    e.Location,
		Date:        e.Date.Format(DateLayout),
		Capacity:    strconv.Itoa(e.Capacity),
	}
}

// Apply parses f and assigns the result to e.
// PRE: e is non-nil
// POST: on success every editable field of e is replaced; on failure e is unchanged
func (f Fields) Apply(e *Event) error {
	errs := validation.Errors{}
	next := *e
	next.Name = strings.TrimSpace(f.Name)
	next.Description = strings.TrimSpace(f.Description)
	next.Location = strings.TrimSpace(f.Location)

	if strings.TrimSpace(f.Date) == "" {
		errs.Add("date", "This field is required.")
	} else if d, err := ParseDate(f.Date); err != nil {
		errs.Add("date", "Enter a valid date/time.")
	} else {
		next.Date = d
	}

	if strings.TrimSpace(f.Capacity) == "" {
		errs.Add("capacity", "This field is required.")
	} else if n, err := strconv.Atoi(strings.TrimSpace(f.Capacity)); err != nil {
		errs.Add("capacity", "Enter a whole number.")
	} else {
		next.Capacity = n
	}

	if err := next.validateText(); err != nil {
		errs.Merge(err)
	}
	if !errs.Has("capacity") {
		if msg := checkCapacity(next.Capacity); msg != "" {
			errs.Add("capacity", msg)
		}
	}
	if len(errs) > 0 {
		return errs
	}
	*e = next
	return nil
}

// Validate checks every field of a fully populated Event.
// PRE: Event struct is populated
// POST: Returns nil if valid, validation.Errors otherwise
func (e *Event) Validate() error {
	errs := validation.Errors{}
	if err := e.validateText(); err != nil {
		errs.Merge(err)
	}
	if e.Date.IsZero() {
		errs.Add("date", "This field is required.")
	}
	if msg := checkCapacity(e.Capacity); msg != "" {
		errs.Add("capacity", msg)
	}
	if e.CreatedBy == "" {
		errs.Add("", "event has no creator")
	}
	return errs.Err()
}

// IsFullyBooked reports whether booked seats have reached capacity.
// INVARIANT: Event fields are not mutated
func (e *Event) IsFullyBooked(booked int) bool {
	return booked >= e.Capacity
}

// SeatsRemaining returns the number of unbooked seats, never negative.
func (e *Event) SeatsRemaining(booked int) int {
	if booked >= e.Capacity {
		return 0
	}
	return e.Capacity - booked
}

// CanBeModifiedBy reports whether p may update or delete the event.
// Only the creator and staff accounts qualify.
func (e *Event) CanBeModifiedBy(p account.Principal) bool {
	if p.IsAnonymous() {
		return false
	}
	return p.IsStaff || p.ID == e.CreatedBy
}

// ParseDate parses a datetime-local value, also accepting a space separator.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateLayout, "2006-01-02 15:04", "2006-01-02T15:04:05"} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New("invalid date: " + s)
}

func (e *Event) validateText() validation.Errors {
	errs := validation.Errors{}
	switch {
	case e.Name == "":
		errs.Add("name", "This field is required.")
	case len([]rune(e.Name)) > MaxNameLength:
		errs.Add("name", "Ensure this value has at most 100 characters.")
	}
	switch {
	case e.Location == "":
		errs.Add("location", "This field is required.")
	case len([]rune(e.Location)) > MaxLocationLength:
		errs.Add("location", "Ensure this value has at most 200 characters.")
	}
	switch {
	case e.Description == "":
		errs.Add("description", "This field is required.")
	case len([]rune(e.Description)) > MaxDescriptionLength:
		errs.Add("description", "Ensure this value has at most 10000 characters.")
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func checkCapacity(n int) string {
	if n < 1 {
		return "Ensure this value is greater than or equal to 1."
	}
	if n > MaxCapacity {
		return "Ensure this value is less than or equal to 100000."
	}
	return ""
}
