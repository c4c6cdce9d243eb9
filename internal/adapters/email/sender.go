package email

import (
	"context"
	"time"
)

// SendRequest is one message handed to a provider.
type SendRequest struct {
	To      []string
	From    string // falls back to the sender's default
	Subject string
	HTML    string
	Text    string
	ReplyTo string

	// IdempotencyKey makes repeated sends of the same message a no-op at the
	// provider. Outbox retries of one booking reuse the same key.
	IdempotencyKey string
	// Tags are provider-side labels, e.g. category and booking_id.
	Tags map[string]string
}

// SendResult is what the provider reported back.
type SendResult struct {
	MessageID string
	SentAt    time.Time
	Duplicate bool // the idempotency key had already been used
}

// Sender delivers email through an external provider.
type Sender interface {
	Send(ctx context.Context, req SendRequest) (SendResult, error)
}
