package web

import (
	"errors"
	"net/http"

	"eventbook/internal/adapters/http/middleware"
	"eventbook/internal/application/orchestrators"
	"eventbook/internal/domain/validation"
)

// handlePasswordChange handles GET (form) and POST (change) for /password
func handlePasswordChange(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		renderTemplate(w, r, http.StatusOK, "password_change.html", map[string]any{
			"Errors": validation.Errors{},
		})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		principal := middleware.PrincipalFromContext(r.Context())
		err := orchestrators.ExecuteChangePassword(r.Context(), orchestrators.ChangePasswordInput{
			Principal:       principal,
			CurrentPassword: r.PostFormValue("old_password"),
			NewPassword1:    r.PostFormValue("new_password1"),
			NewPassword2:    r.PostFormValue("new_password2"),
		}, orchestrators.ChangePasswordDeps{
			AccountStore: stores.AccountStore,
		})
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			renderTemplate(w, r, http.StatusUnprocessableEntity, "password_change.html", map[string]any{
				"Errors": verrs,
			})
			return
		}
		if err != nil {
			internalError(w, r, err)
			return
		}
		// The old session token is retired with the old password.
		if err := startSession(w, r, principal); err != nil {
			internalError(w, r, err)
			return
		}
		redirectWithFlash(w, r, "/profile", middleware.FlashSuccess, "Password changed successfully!")
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
