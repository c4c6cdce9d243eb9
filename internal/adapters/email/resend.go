package email

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// ResendSender delivers booking mail through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender creates a sender using apiKey, defaulting From to from.
// PRE: apiKey is a valid Resend API key; from is a valid sender address
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// Send hands one message to Resend. With an IdempotencyKey, Resend drops
// a resend of the same key instead of delivering it twice.
// PRE: req has at least one recipient and a subject
// POST: returns the Resend message ID
func (s *ResendSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	params, opts := s.params(req)

	var (
		sent *resend.SendEmailResponse
		err  error
	)
	if opts != nil {
		sent, err = s.client.Emails.SendWithOptions(ctx, params, opts)
	} else {
		sent, err = s.client.Emails.SendWithContext(ctx, params)
	}
	if err != nil {
		return SendResult{}, fmt.Errorf("resend send %q: %w", req.Subject, err)
	}

	zap.L().Info("resend_sent",
		zap.String("message_id", sent.Id),
		zap.Strings("to", req.To),
		zap.String("idempotency_key", req.IdempotencyKey),
	)
	return SendResult{MessageID: sent.Id, SentAt: time.Now()}, nil
}

// params maps a SendRequest onto the Resend request. Tags are sorted so the
// payload is stable across retries.
func (s *ResendSender) params(req SendRequest) (*resend.SendEmailRequest, *resend.SendEmailOptions) {
	from := req.From
	if from == "" {
		from = s.from
	}
	params := &resend.SendEmailRequest{
		From:    from,
		To:      req.To,
		Subject: req.Subject,
		Html:    req.HTML,
		Text:    req.Text,
		ReplyTo: req.ReplyTo,
	}

	names := make([]string, 0, len(req.Tags))
	for name := range req.Tags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		params.Tags = append(params.Tags, resend.Tag{Name: name, Value: req.Tags[name]})
	}

	if req.IdempotencyKey == "" {
		return params, nil
	}
	return params, &resend.SendEmailOptions{IdempotencyKey: req.IdempotencyKey}
}
