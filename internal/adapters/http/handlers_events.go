package web

import (
	"errors"
	"net/http"

	"eventbook/internal/adapters/http/middleware"
	"eventbook/internal/application/orchestrators"
	"eventbook/internal/application/projections"
	"eventbook/internal/domain/event"
	"eventbook/internal/domain/validation"
)

// eventError renders the page matching a lookup or authorization failure.
// Returns false when err is nil.
func eventError(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, event.ErrNotFound):
		renderError(w, r, http.StatusNotFound, "That event does not exist.")
	case errors.Is(err, event.ErrForbidden):
		renderError(w, r, http.StatusForbidden, "You do not have permission to modify this event.")
	default:
		internalError(w, r, err)
	}
	return true
}

func eventFields(r *http.Request) event.Fields {
	return event.Fields{
		Name:        r.PostFormValue("name"),
		Description: r.PostFormValue("description"),
		Location:    r.PostFormValue("location"),
		Date:        r.PostFormValue("date"),
		Capacity:    r.PostFormValue("capacity"),
	}
}

// handleEventList handles GET / and GET /events
func handleEventList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	result, err := projections.QueryListEvents(r.Context(), projections.ListEventsQuery{
		Principal: middleware.PrincipalFromContext(r.Context()),
	}, projections.ListEventsDeps{
		EventStore:   stores.EventStore,
		BookingStore: stores.BookingStore,
		Now:          timeNow,
	})
	if err != nil {
		internalError(w, r, err)
		return
	}
	renderTemplate(w, r, http.StatusOK, "event_list.html", map[string]any{
		"Events":    result.Events,
		"BookedIDs": result.BookedIDs,
	})
}

// handleEventNew handles GET (form) and POST (create) for /events/new
func handleEventNew(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		renderTemplate(w, r, http.StatusOK, "event_form.html", map[string]any{
			"Form":   event.Fields{},
			"Errors": validation.Errors{},
		})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		fields := eventFields(r)
		_, err := orchestrators.ExecuteCreateEvent(r.Context(), orchestrators.CreateEventInput{
			Principal: middleware.PrincipalFromContext(r.Context()),
			Fields:    fields,
		}, orchestrators.CreateEventDeps{
			EventStore: stores.EventStore,
			GenerateID: generateID,
			Now:        timeNow,
		})
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			renderTemplate(w, r, http.StatusUnprocessableEntity, "event_form.html", map[string]any{
				"Form":   fields,
				"Errors": verrs,
			})
			return
		}
		if err != nil {
			internalError(w, r, err)
			return
		}
		redirectWithFlash(w, r, "/", middleware.FlashSuccess, "Event created successfully!")
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleEventEdit handles GET (form) and POST (update) for /events/{id}/edit
func handleEventEdit(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())
	id := r.PathValue("id")

	switch r.Method {
	case http.MethodGet:
		result, err := projections.QueryEditableEvent(r.Context(), projections.GetEventQuery{
			Principal: principal,
			EventID:   id,
		}, projections.GetEventDeps{
			EventStore:   stores.EventStore,
			BookingStore: stores.BookingStore,
		})
		if eventError(w, r, err) {
			return
		}
		renderTemplate(w, r, http.StatusOK, "event_form.html", map[string]any{
			"Event":  result.Event,
			"Booked": result.Booked,
			"Form":   event.FieldsFrom(result.Event),
			"Errors": validation.Errors{},
		})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		fields := eventFields(r)
		_, err := orchestrators.ExecuteUpdateEvent(r.Context(), orchestrators.UpdateEventInput{
			Principal: principal,
			EventID:   id,
			Fields:    fields,
		}, orchestrators.UpdateEventDeps{
			EventStore:   stores.EventStore,
			BookingStore: stores.BookingStore,
			Now:          timeNow,
		})
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			renderTemplate(w, r, http.StatusUnprocessableEntity, "event_form.html", map[string]any{
				"Event":  event.Event{ID: id},
				"Form":   fields,
				"Errors": verrs,
			})
			return
		}
		if eventError(w, r, err) {
			return
		}
		redirectWithFlash(w, r, "/", middleware.FlashSuccess, "Event updated successfully!")
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleEventDelete handles GET (confirm) and POST (delete) for /events/{id}/delete
func handleEventDelete(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())
	id := r.PathValue("id")

	switch r.Method {
	case http.MethodGet:
		result, err := projections.QueryEditableEvent(r.Context(), projections.GetEventQuery{
			Principal: principal,
			EventID:   id,
		}, projections.GetEventDeps{
			EventStore:   stores.EventStore,
			BookingStore: stores.BookingStore,
		})
		if eventError(w, r, err) {
			return
		}
		renderTemplate(w, r, http.StatusOK, "event_confirm_delete.html", map[string]any{
			"Event":  result.Event,
			"Booked": result.Booked,
		})
	case http.MethodPost:
		err := orchestrators.ExecuteDeleteEvent(r.Context(), orchestrators.DeleteEventInput{
			Principal: principal,
			EventID:   id,
		}, orchestrators.DeleteEventDeps{
			EventStore: stores.EventStore,
		})
		if eventError(w, r, err) {
			return
		}
		redirectWithFlash(w, r, "/", middleware.FlashSuccess, "Event deleted successfully!")
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
