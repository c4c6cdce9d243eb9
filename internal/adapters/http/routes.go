package web

import (
	"io/fs"
	"net/http"

	"eventbook/internal/adapters/http/middleware"
)

func registerRoutes(mux *http.ServeMux) {
	static, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	mux.HandleFunc("/healthz", handleHealth)

	// Public
	mux.HandleFunc("/{$}", handleEventList)
	mux.HandleFunc("/events", handleEventList)
	mux.HandleFunc("/register", handleRegister)
	mux.HandleFunc("/login", handleLogin)

	// Session required
	mux.Handle("/logout", authed(handleLogout))
	mux.Handle("/profile", authed(handleProfile))
	mux.Handle("/password", authed(handlePasswordChange))
	mux.Handle("/events/new", authed(handleEventNew))
	mux.Handle("/events/{id}/edit", authed(handleEventEdit))
	mux.Handle("/events/{id}/delete", authed(handleEventDelete))
	mux.Handle("/events/{id}/book", authed(handleEventBook))
	mux.Handle("/bookings", authed(handleMyBookings))

	// Staff only
	mux.Handle("/admin/perf", middleware.RequireStaff(http.HandlerFunc(handleAdminPerf)))
	mux.Handle("/admin/outbox", middleware.RequireStaff(http.HandlerFunc(handleAdminOutbox)))
	mux.Handle("/admin/outbox/{id}/retry", middleware.RequireStaff(http.HandlerFunc(handleAdminOutboxRetry)))

	mux.HandleFunc("/", handleNotFound)
}

func authed(h http.HandlerFunc) http.Handler {
	return middleware.RequireAuth(h)
}
