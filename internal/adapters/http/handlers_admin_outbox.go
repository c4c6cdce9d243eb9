package web

import (
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"eventbook/internal/adapters/http/middleware"
	"eventbook/internal/domain/outbox"
)

// handleAdminOutbox handles GET /admin/outbox
// Lists undelivered notifications with per-status counts.
func handleAdminOutbox(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if stores.OutboxStore == nil {
		renderError(w, r, http.StatusNotFound, "The notification outbox is disabled.")
		return
	}
	ctx := r.Context()

	limit := 50
	if n, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && n > 0 && n <= 100 {
		limit = n
	}

	var entries []outbox.Entry
	var err error
	status := r.URL.Query().Get("status")
	if status == outbox.StatusPending {
		entries, err = stores.OutboxStore.ListPending(ctx, limit)
	} else {
		status = outbox.StatusFailed
		entries, err = stores.OutboxStore.ListFailed(ctx, limit)
	}
	if err != nil {
		internalError(w, r, err)
		return
	}
	counts, err := stores.OutboxStore.CountByStatus(ctx)
	if err != nil {
		internalError(w, r, err)
		return
	}

	renderTemplate(w, r, http.StatusOK, "admin_outbox.html", map[string]any{
		"Entries": entries,
		"Counts":  counts,
		"Status":  status,
	})
}

// handleAdminOutboxRetry handles POST /admin/outbox/{id}/retry
func handleAdminOutboxRetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if outboxProcessor == nil {
		renderError(w, r, http.StatusNotFound, "The notification outbox is disabled.")
		return
	}

	id := r.PathValue("id")
	err := outboxProcessor.ProcessSingle(r.Context(), id)
	if errors.Is(err, outbox.ErrNotFound) {
		renderError(w, r, http.StatusNotFound, "That notification does not exist.")
		return
	}

	sess, _ := middleware.GetSessionFromContext(r.Context())
	zap.L().Info("outbox_manual_retry",
		zap.String("entry_id", id),
		zap.String("account_id", sess.AccountID),
		zap.Bool("ok", err == nil),
	)
	if err != nil {
		redirectWithFlash(w, r, "/admin/outbox", "error", "Retry failed: "+err.Error())
		return
	}
	entry, getErr := stores.OutboxStore.GetByID(r.Context(), id)
	if getErr == nil && entry.Status == outbox.StatusDone {
		redirectWithFlash(w, r, "/admin/outbox", "success", "Notification delivered.")
		return
	}
	redirectWithFlash(w, r, "/admin/outbox", "error", "Delivery failed again; it stays queued.")
}
