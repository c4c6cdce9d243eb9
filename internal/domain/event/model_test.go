package event_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"eventbook/internal/domain/account"
	"eventbook/internal/domain/event"
	"eventbook/internal/domain/validation"
)

func validFields() event.Fields {
	return event.Fields{
		Name:        "Go meetup",
		Description: "Talks and pizza",
		Location:    "Level 2, 10 Queen St",
		Date:        "2026-11-20T18:30",
		Capacity:    "40",
	}
}

// TestFieldsApply tests parsing of raw form input.
func TestFieldsApply(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(f *event.Fields)
		wantField string
	}{
		{name: "valid", mutate: func(f *event.Fields) {}},
		{name: "space separated date", mutate: func(f *event.Fields) { f.Date = "2026-11-20 18:30" }},
		{name: "missing name", mutate: func(f *event.Fields) { f.Name = "  " }, wantField: "name"},
		{name: "name too long", mutate: func(f *event.Fields) { f.Name = strings.Repeat("n", 101) }, wantField: "name"},
		{name: "location too long", mutate: func(f *event.Fields) { f.Location = strings.Repeat("l", 201) }, wantField: "location"},
		{name: "missing description", mutate: func(f *event.Fields) { f.Description = "" }, wantField: "description"},
		{name: "bad date", mutate: func(f *event.Fields) { f.Date = "next tuesday" }, wantField: "date"},
		{name: "missing date", mutate: func(f *event.Fields) { f.Date = "" }, wantField: "date"},
		{name: "zero capacity", mutate: func(f *event.Fields) { f.Capacity = "0" }, wantField: "capacity"},
		{name: "negative capacity", mutate: func(f *event.Fields) { f.Capacity = "-3" }, wantField: "capacity"},
		{name: "non numeric capacity", mutate: func(f *event.Fields) { f.Capacity = "lots" }, wantField: "capacity"},
		{name: "capacity over limit", mutate: func(f *event.Fields) { f.Capacity = "100001" }, wantField: "capacity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validFields()
			tt.mutate(&f)
			e := event.Event{ID: "e1", Name: "old"}
			err := f.Apply(&e)

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Apply() error = %v", err)
				}
				want := time.Date(2026, 11, 20, 18, 30, 0, 0, time.UTC)
				if !e.Date.Equal(want) {
					t.Errorf("Date = %v, want %v", e.Date, want)
				}
				if e.Capacity != 40 || e.ID != "e1" {
					t.Errorf("Apply() = %+v", e)
				}
				return
			}

			var errs validation.Errors
			if !errors.As(err, &errs) {
				t.Fatalf("Apply() error = %v, want validation.Errors", err)
			}
			if !errs.Has(tt.wantField) {
				t.Errorf("expected error on %q, got %v", tt.wantField, errs)
			}
			if e.Name != "old" {
				t.Errorf("event mutated on failure: %+v", e)
			}
		})
	}
}

// TestEventValidate tests validation of a populated Event.
func TestEventValidate(t *testing.T) {
	e := event.Event{
		Name: "x", Description: "y", Location: "z",
		Date: time.Now(), Capacity: 1, CreatedBy: "a1",
	}
	if err := e.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	e.CreatedBy = ""
	if err := e.Validate(); err == nil {
		t.Error("expected error without creator")
	}
}

// TestIsFullyBooked tests the capacity rule.
func TestIsFullyBooked(t *testing.T) {
	tests := []struct {
		capacity, booked int
		want             bool
		remaining        int
	}{
		{capacity: 1, booked: 0, want: false, remaining: 1},
		{capacity: 1, booked: 1, want: true, remaining: 0},
		{capacity: 3, booked: 2, want: false, remaining: 1},
		{capacity: 3, booked: 5, want: true, remaining: 0},
	}
	for _, tt := range tests {
		e := event.Event{Capacity: tt.capacity}
		if got := e.IsFullyBooked(tt.booked); got != tt.want {
			t.Errorf("IsFullyBooked(cap=%d, booked=%d) = %v, want %v", tt.capacity, tt.booked, got, tt.want)
		}
		if got := e.SeatsRemaining(tt.booked); got != tt.remaining {
			t.Errorf("SeatsRemaining(cap=%d, booked=%d) = %d, want %d", tt.capacity, tt.booked, got, tt.remaining)
		}
	}
}

// TestCanBeModifiedBy tests owner-or-staff authorization.
func TestCanBeModifiedBy(t *testing.T) {
	e := event.Event{CreatedBy: "owner"}

	tests := []struct {
		name string
		p    account.Principal
		want bool
	}{
		{name: "owner", p: account.Principal{ID: "owner"}, want: true},
		{name: "staff", p: account.Principal{ID: "admin", IsStaff: true}, want: true},
		{name: "other user", p: account.Principal{ID: "other"}, want: false},
		{name: "anonymous", p: account.Principal{}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := e.CanBeModifiedBy(tt.p); got != tt.want {
				t.Errorf("CanBeModifiedBy() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestFieldsFrom tests the round trip into form values.
func TestFieldsFrom(t *testing.T) {
	e := event.Event{
		Name: "n", Description: "d", Location: "l",
		Date:     time.Date(2026, 1, 2, 3, 4, 0, 0, time.UTC),
		Capacity: 12,
	}
	f := event.FieldsFrom(e)
	if f.Date != "2026-01-02T03:04" || f.Capacity != "12" {
		t.Errorf("FieldsFrom() = %+v", f)
	}
}
