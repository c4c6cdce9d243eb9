package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"go.uber.org/zap"

	"eventbook/internal/domain/booking"
)

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<p>Hi {{.Username}},</p>
<p>Your seat for <strong>{{.EventName}}</strong> is confirmed.</p>
<ul>
  <li>When: {{.EventDate.Format "Mon 2 Jan 2006, 15:04"}} UTC</li>
  <li>Where: {{.EventLocation}}</li>
</ul>
<p>Booking reference: {{.BookingID}}</p>`))

// BookingMailer emails a confirmation to the account that booked.
type BookingMailer struct {
	sender Sender
	from   string
}

// NewBookingMailer creates a mailer that sends through sender.
func NewBookingMailer(sender Sender, from string) *BookingMailer {
	return &BookingMailer{sender: sender, from: from}
}

// Name identifies the notifier in logs.
func (m *BookingMailer) Name() string { return "email" }

// NotifyBookingConfirmed sends the confirmation email.
// PRE: c.Email is the booking account's address
// POST: one email is handed to the sender
func (m *BookingMailer) NotifyBookingConfirmed(ctx context.Context, c booking.Confirmation) error {
	if c.Email == "" {
		return errors.New("booking confirmation has no recipient")
	}
	var body bytes.Buffer
	if err := confirmationTemplate.Execute(&body, c); err != nil {
		return fmt.Errorf("render confirmation: %w", err)
	}
	res, err := m.sender.Send(ctx, SendRequest{
		To:      []string{c.Email},
		From:    m.from,
		Subject: "Booking confirmed: " + c.EventName,
		HTML:    body.String(),
		Text: fmt.Sprintf("Your seat for %s on %s at %s is confirmed. Reference: %s",
			c.EventName, c.EventDate.Format("2006-01-02 15:04"), c.EventLocation, c.BookingID),
		IdempotencyKey: ConfirmationKey(c.BookingID),
		Tags: map[string]string{
			"category":   "booking_confirmation",
			"booking_id": c.BookingID,
		},
	})
	if err != nil {
		return err
	}
	if res.Duplicate {
		zap.L().Info("booking_confirmation_already_sent", zap.String("booking_id", c.BookingID))
	}
	return nil
}

// ConfirmationKey is the idempotency key for a booking's confirmation email.
// Outbox retries of one booking share it, so the account gets one email.
func ConfirmationKey(bookingID string) string {
	return "booking-confirmation/" + bookingID
}
