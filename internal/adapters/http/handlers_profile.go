package web

import (
	"errors"
	"net/http"

	"eventbook/internal/adapters/http/middleware"
	"eventbook/internal/application/orchestrators"
	"eventbook/internal/application/projections"
	"eventbook/internal/domain/validation"
)

// handleProfile handles GET (view) and POST (update) for /profile
func handleProfile(w http.ResponseWriter, r *http.Request) {
	principal := middleware.PrincipalFromContext(r.Context())

	switch r.Method {
	case http.MethodGet:
		result, err := projections.QueryGetProfile(r.Context(), principal, projections.GetProfileDeps{
			ProfileStore: stores.ProfileStore,
		})
		if err != nil {
			internalError(w, r, err)
			return
		}
		renderTemplate(w, r, http.StatusOK, "profile.html", map[string]any{
			"Profile":  result.Profile,
			"Bio":      result.Profile.Bio,
			"Location": result.Profile.Location,
			"Errors":   validation.Errors{},
		})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input := orchestrators.UpdateProfileInput{
			Principal: principal,
			Bio:       r.PostFormValue("bio"),
			Location:  r.PostFormValue("location"),
		}
		_, err := orchestrators.ExecuteUpdateProfile(r.Context(), input, orchestrators.UpdateProfileDeps{
			ProfileStore: stores.ProfileStore,
			Now:          timeNow,
		})
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			renderTemplate(w, r, http.StatusUnprocessableEntity, "profile.html", map[string]any{
				"Bio":      input.Bio,
				"Location": input.Location,
				"Errors":   verrs,
			})
			return
		}
		if err != nil {
			internalError(w, r, err)
			return
		}
		redirectWithFlash(w, r, "/profile", middleware.FlashSuccess, "Profile updated successfully!")
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}
