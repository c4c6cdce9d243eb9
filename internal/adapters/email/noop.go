package email

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// NoopSender logs instead of delivering. It honours idempotency keys the
// way a provider would, so development runs show what retries would send.
type NoopSender struct {
	mu   sync.Mutex
	seen map[string]string // idempotency key -> message ID
}

// NewNoopSender creates a NoopSender.
func NewNoopSender() *NoopSender {
	return &NoopSender{seen: make(map[string]string)}
}

// Send logs the message. A repeated idempotency key returns the first
// message ID with Duplicate set.
func (s *NoopSender) Send(_ context.Context, req SendRequest) (SendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.seen[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		zap.L().Info("noop_email_duplicate", zap.String("idempotency_key", req.IdempotencyKey), zap.String("message_id", id))
		return SendResult{MessageID: id, SentAt: time.Now(), Duplicate: true}, nil
	}

	id := fmt.Sprintf("noop-%d", time.Now().UnixNano())
	if req.IdempotencyKey != "" {
		s.seen[req.IdempotencyKey] = id
	}
	zap.L().Info("noop_email_send", zap.Strings("to", req.To), zap.String("subject", req.Subject), zap.Any("tags", req.Tags))
	return SendResult{MessageID: id, SentAt: time.Now()}, nil
}
