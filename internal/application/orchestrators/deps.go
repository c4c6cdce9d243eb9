package orchestrators

import (
	"time"

	"github.com/google/uuid"
)

// newID returns gen() or a random UUID when gen is nil.
func newID(gen func() string) string {
	if gen != nil {
		return gen()
	}
	return uuid.New().String()
}

// clock returns fn() or the current UTC time when fn is nil.
func clock(fn func() time.Time) time.Time {
	if fn != nil {
		return fn()
	}
	return time.Now().UTC()
}
