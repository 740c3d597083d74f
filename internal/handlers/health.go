package handlers

import (
	"net/http"
	"time"
)

// HealthHandler responds with service health information.
type HealthHandler struct {
	Environment string
	Started     time.Time
}

// Handle implements GET /healthz.
func (h HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{
		"status":      "ok",
		"environment": h.Environment,
		"uptime":      time.Since(h.Started).Round(time.Second).String(),
	}
	respondJSON(r.Context(), w, http.StatusOK, payload)
}
