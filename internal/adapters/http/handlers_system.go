package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// handleHealth handles GET /healthz
func handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if healthCheck != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := healthCheck(ctx); err != nil {
			zap.L().Warn("health_check_failed", zap.Error(err))
			status, code = "unavailable", http.StatusServiceUnavailable
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}

// handleNotFound renders the 404 page for every unmatched path.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	renderError(w, r, http.StatusNotFound, "The page you were looking for does not exist.")
}

// handleAdminPerf handles GET /admin/perf
func handleAdminPerf(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if perfCollector == nil {
		renderError(w, r, http.StatusNotFound, "Performance collection is disabled.")
		return
	}

	window := time.Hour
	if mins, err := strconv.Atoi(r.URL.Query().Get("minutes")); err == nil && mins > 0 && mins <= 24*60 {
		window = time.Duration(mins) * time.Minute
	}
	summary := perfCollector.Summarize(timeNow().Add(-window), 10)
	renderTemplate(w, r, http.StatusOK, "admin_perf.html", map[string]any{
		"Summary": summary,
		"Window":  window,
		"Total":   perfCollector.Total(),
	})
}
