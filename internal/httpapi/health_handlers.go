package httpapi

import (
	"net/http"
	"time"

	"jobscout-engine/internal/scheduler"
)

type HealthHandler struct{}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"time": time.Now().UTC().Format(time.RFC3339),
	})
}

type StatusHandler struct {
	Runner *scheduler.Runner
}

func (h StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Runner.Status())
}
