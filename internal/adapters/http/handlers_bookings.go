package web

import (
	"net/http"

	"go.uber.org/zap"

	"eventbook/internal/adapters/http/middleware"
	"eventbook/internal/application/orchestrators"
	"eventbook/internal/application/projections"
	"eventbook/internal/domain/booking"
)

// handleEventBook handles POST /events/{id}/book
func handleEventBook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	outcome, err := orchestrators.ExecuteBookEvent(r.Context(), orchestrators.BookEventInput{
		Principal: middleware.PrincipalFromContext(r.Context()),
		EventID:   r.PathValue("id"),
	}, orchestrators.BookEventDeps{
		EventStore:   stores.EventStore,
		BookingStore: stores.BookingStore,
		Notifiers:    notifiers,
		Outbox:       outboxWriter(),
		GenerateID:   generateID,
		Now:          timeNow,
	})
	if eventError(w, r, err) {
		return
	}

	switch outcome {
	case booking.OutcomeFull:
		redirectWithFlash(w, r, "/", middleware.FlashError, "This event is fully booked.")
	case booking.OutcomeAlreadyBooked:
		redirectWithFlash(w, r, "/", middleware.FlashInfo, "You have already booked this event.")
	case booking.OutcomeBooked:
		redirectWithFlash(w, r, "/", middleware.FlashSuccess, "Event booked successfully!")
	default:
		zap.L().Error("booking_unknown_outcome", zap.Stringer("outcome", outcome))
		http.Redirect(w, r, "/", http.StatusSeeOther)
	}
}

// handleMyBookings handles GET /bookings
func handleMyBookings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	booked, err := projections.QueryMyBookings(r.Context(), projections.MyBookingsQuery{
		Principal: middleware.PrincipalFromContext(r.Context()),
	}, projections.MyBookingsDeps{
		BookingStore: stores.BookingStore,
		Now:          timeNow,
	})
	if err != nil {
		internalError(w, r, err)
		return
	}
	renderTemplate(w, r, http.StatusOK, "my_bookings.html", map[string]any{
		"Bookings": booked,
	})
}

// outboxWriter returns the outbox store, or nil when the outbox is disabled.
func outboxWriter() orchestrators.OutboxWriter {
	if stores.OutboxStore == nil {
		return nil
	}
	return stores.OutboxStore
}
