package api

import (
	"net/http"
	"time"
)

type HealthHandler struct {
	env     string
	started time.Time
	now     func() time.Time
}

func NewHealthHandler(env string) *HealthHandler {
	return &HealthHandler{env: env, started: time.Now(), now: time.Now}
}

func (h *HealthHandler) Check(w http.ResponseWriter, _ *http.Request) {
	now := h.now()
	writeJSON(w, http.StatusOK, healthResponse{
		Success:     true,
		Message:     "Backend API is running!",
		Status:      "OK",
		Timestamp:   now.UTC().Format(time.RFC3339),
		Uptime:      now.Sub(h.started).Seconds(),
		Environment: h.env,
	})
}
