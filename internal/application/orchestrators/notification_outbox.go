package orchestrators

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"eventbook/internal/domain/booking"
	"eventbook/internal/domain/outbox"
)

// OutboxStore is the persistence the outbox processor needs.
type OutboxStore interface {
	GetByID(ctx context.Context, id string) (outbox.Entry, error)
	Save(ctx context.Context, e outbox.Entry) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]outbox.Entry, error)
	PurgeDone(ctx context.Context, cutoff time.Time) (int64, error)
}

// OutboxProcessor redelivers booking notifications that failed on the request path.
type OutboxProcessor struct {
	store     OutboxStore
	notifiers map[string]BookingNotifier
	now       func() time.Time
	baseDelay time.Duration
	maxDelay  time.Duration
	batchSize int
	retention time.Duration
}

// NewOutboxProcessor indexes notifiers by Name(). Unnamed notifiers are ignored.
func NewOutboxProcessor(store OutboxStore, notifiers []BookingNotifier) *OutboxProcessor {
	byName := make(map[string]BookingNotifier, len(notifiers))
	for _, n := range notifiers {
		if n == nil {
			continue
		}
		if name := notifierName(n); name != "" {
			byName[name] = n
		}
	}
	return &OutboxProcessor{
		store:     store,
		notifiers: byName,
		now:       func() time.Time { return time.Now().UTC() },
		baseDelay: outbox.DefaultBaseDelay,
		maxDelay:  outbox.DefaultMaxDelay,
		batchSize: 20,
		retention: 7 * 24 * time.Hour,
	}
}

// OutboxResult counts what one ProcessPending pass did.
type OutboxResult struct {
	Delivered int
	Failed    int
	Skipped   int
}

// ProcessPending attempts every due entry in one batch.
// PRE: Context is valid
// POST: each due entry is delivered, rescheduled, or failed for good and saved
func (p *OutboxProcessor) ProcessPending(ctx context.Context) (OutboxResult, error) {
	var res OutboxResult
	now := p.now()
	entries, err := p.store.ListDue(ctx, now, p.batchSize)
	if err != nil {
		return res, fmt.Errorf("list due outbox entries: %w", err)
	}

	for _, entry := range entries {
		if !entry.Due(now, p.baseDelay, p.maxDelay) {
			res.Skipped++
			continue
		}
		delivered, err := p.deliver(ctx, entry)
		if err != nil {
			zap.L().Error("outbox_save_failed", zap.String("entry_id", entry.ID), zap.Error(err))
		}
		if delivered {
			res.Delivered++
		} else {
			res.Failed++
		}
	}
	return res, nil
}

// ProcessSingle retries one entry immediately, ignoring backoff.
// PRE: entryID is non-empty
// POST: entry delivered or its failure recorded; terminal entries are rejected
func (p *OutboxProcessor) ProcessSingle(ctx context.Context, entryID string) error {
	entry, err := p.store.GetByID(ctx, entryID)
	if err != nil {
		return fmt.Errorf("get outbox entry: %w", err)
	}
	if entry.IsTerminal() {
		return fmt.Errorf("entry %s is in terminal state and cannot be retried", entryID)
	}
	_, err = p.deliver(ctx, entry)
	return err
}

// deliver makes one attempt and persists the result.
// INVARIANT: the entry is saved exactly once per attempt
func (p *OutboxProcessor) deliver(ctx context.Context, entry outbox.Entry) (bool, error) {
	entry.MarkAttempt(p.now())

	err := p.send(ctx, entry)
	if err != nil {
		entry.MarkFailed(err)
		entry.ScheduleNext(p.baseDelay, p.maxDelay)
		zap.L().Warn("outbox_delivery_failed",
			zap.String("entry_id", entry.ID),
			zap.String("notifier", entry.Notifier),
			zap.Int("attempt", entry.Attempts),
			zap.String("status", entry.Status),
			zap.Error(err),
		)
	} else {
		entry.MarkSuccess()
		entry.ScheduleNext(p.baseDelay, p.maxDelay)
		zap.L().Info("outbox_delivered",
			zap.String("entry_id", entry.ID),
			zap.String("notifier", entry.Notifier),
			zap.Int("attempt", entry.Attempts),
		)
	}
	return err == nil, p.store.Save(ctx, entry)
}

func (p *OutboxProcessor) send(ctx context.Context, entry outbox.Entry) error {
	n, ok := p.notifiers[entry.Notifier]
	if !ok {
		return fmt.Errorf("no notifier registered as %q", entry.Notifier)
	}
	var c booking.Confirmation
	if err := json.Unmarshal([]byte(entry.Payload), &c); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	return n.NotifyBookingConfirmed(ctx, c)
}

// Purge drops delivered entries older than the retention window.
func (p *OutboxProcessor) Purge(ctx context.Context) (int64, error) {
	return p.store.PurgeDone(ctx, p.now().Add(-p.retention))
}

// Run processes the outbox every interval until ctx is cancelled.
// PRE: interval > 0
// POST: returns after ctx is done; an in-flight pass gets at most interval to finish
func (p *OutboxProcessor) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.tick(ctx, interval)
		case <-ctx.Done():
			zap.L().Info("outbox_worker_stopped")
			return
		}
	}
}

func (p *OutboxProcessor) tick(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, interval)
	defer cancel()

	res, err := p.ProcessPending(ctx)
	if err != nil {
		zap.L().Error("outbox_process_failed", zap.Error(err))
		return
	}
	if res.Delivered+res.Failed > 0 {
		zap.L().Info("outbox_processed",
			zap.Int("delivered", res.Delivered),
			zap.Int("failed", res.Failed),
			zap.Int("skipped", res.Skipped),
		)
	}
	if n, err := p.Purge(ctx); err != nil {
		zap.L().Warn("outbox_purge_failed", zap.Error(err))
	} else if n > 0 {
		zap.L().Debug("outbox_purged", zap.Int64("rows", n))
	}
}
