package validation

import (
	"sort"
	"strings"
)

// Errors maps a form field name to the messages reported for it.
// The empty key "" holds errors that belong to the form as a whole.
type Errors map[string][]string

// Add appends a message for the given field.
// PRE: e is non-nil
// POST: msg is recorded under field
func (e Errors) Add(field, msg string) {
	e[field] = append(e[field], msg)
}

// Has reports whether any message was recorded for field.
func (e Errors) Has(field string) bool {
	return len(e[field]) > 0
}

// Get returns the first message for field, or "".
func (e Errors) Get(field string) string {
	if msgs := e[field]; len(msgs) > 0 {
		return msgs[0]
	}
	return ""
}

// Merge copies every message from other into e.
func (e Errors) Merge(other Errors) {
	for field, msgs := range other {
		e[field] = append(e[field], msgs...)
	}
}

// Error implements the error interface with a stable, field-sorted message.
func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		label := f
		if label == "" {
			label = "form"
		}
		parts = append(parts, label+": "+strings.Join(e[f], "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Err returns e as an error, or nil when nothing was recorded.
// INVARIANT: a nil error is never a non-nil interface holding an empty map
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}
