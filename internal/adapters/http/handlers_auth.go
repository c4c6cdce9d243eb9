package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"eventbook/internal/adapters/http/middleware"
	"eventbook/internal/application/orchestrators"
	"eventbook/internal/domain/account"
	"eventbook/internal/domain/validation"
)

// safeNext returns next if it is a same-site path, "/" otherwise.
func safeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "/"
	}
	return next
}

// startSession replaces any existing session with a new one for p.
// POST: the session cookie carries a fresh token
func startSession(w http.ResponseWriter, r *http.Request, p account.Principal) error {
	if old := middleware.SessionToken(r); old != "" {
		if err := sessions.Delete(r.Context(), old); err != nil {
			zap.L().Warn("session_delete_failed", zap.Error(err))
		}
	}
	token, err := sessions.Create(r.Context(), middleware.NewSession(p, timeNow()))
	if err != nil {
		return err
	}
	middleware.SetSessionCookie(w, token, sessionTTL, secureCookies)
	return nil
}

// handleRegister handles GET (form) and POST (sign up) for /register
func handleRegister(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		renderTemplate(w, r, http.StatusOK, "register.html", map[string]any{
			"Form":   orchestrators.RegisterInput{},
			"Errors": validation.Errors{},
		})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input := orchestrators.RegisterInput{
			Username:  r.PostFormValue("username"),
			Email:     r.PostFormValue("email"),
			Password1: r.PostFormValue("password1"),
			Password2: r.PostFormValue("password2"),
		}
		principal, err := orchestrators.ExecuteRegister(r.Context(), input, orchestrators.RegisterDeps{
			AccountStore: stores.AccountStore,
			GenerateID:   generateID,
			Now:          timeNow,
		})
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			input.Password1, input.Password2 = "", ""
			renderTemplate(w, r, http.StatusUnprocessableEntity, "register.html", map[string]any{
				"Form":   input,
				"Errors": verrs,
			})
			return
		}
		if err != nil {
			internalError(w, r, err)
			return
		}
		if err := startSession(w, r, principal); err != nil {
			internalError(w, r, err)
			return
		}
		redirectWithFlash(w, r, "/profile", middleware.FlashSuccess, "Account created successfully!")
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleLogin handles GET (form) and POST (sign in) for /login
func handleLogin(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		next := safeNext(r.URL.Query().Get("next"))
		if _, ok := middleware.GetSessionFromContext(r.Context()); ok {
			http.Redirect(w, r, next, http.StatusSeeOther)
			return
		}
		renderTemplate(w, r, http.StatusOK, "login.html", map[string]any{
			"Next": next,
		})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form submission", http.StatusBadRequest)
			return
		}
		input := orchestrators.LoginInput{
			Username: r.PostFormValue("username"),
			Password: r.PostFormValue("password"),
		}
		next := safeNext(r.PostFormValue("next"))

		principal, err := orchestrators.ExecuteLogin(r.Context(), input, orchestrators.LoginDeps{
			AccountStore: stores.AccountStore,
			Now:          timeNow,
		})
		if errors.Is(err, orchestrators.ErrInvalidCredentials) {
			renderTemplate(w, r, http.StatusOK, "login.html", map[string]any{
				"Next":     next,
				"Username": input.Username,
				"Flash":    middleware.Flash{Level: middleware.FlashError, Message: "Invalid credentials"},
			})
			return
		}
		if err != nil {
			internalError(w, r, err)
			return
		}
		if err := startSession(w, r, principal); err != nil {
			internalError(w, r, err)
			return
		}
		http.Redirect(w, r, next, http.StatusSeeOther)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleLogout handles GET and POST /logout
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if token := middleware.SessionToken(r); token != "" {
		if err := sessions.Delete(r.Context(), token); err != nil {
			internalError(w, r, err)
			return
		}
	}
	principal := middleware.PrincipalFromContext(r.Context())
	zap.L().Info("auth_event", zap.String("event", "logout"), zap.String("account_id", principal.ID))

	middleware.ClearSessionCookie(w, secureCookies)
	redirectWithFlash(w, r, "/login", middleware.FlashSuccess, "Logged out successfully!")
}
