package handlers

import (
	"net/http"
	"time"

	"taskboard/internal/http/dto"
)

type HealthHandler struct {
	environment string
	now         func() time.Time
}

func NewHealth(environment string, now func() time.Time) *HealthHandler {
	if now == nil {
		now = time.Now
	}
	return &HealthHandler{environment: environment, now: now}
}

// GET /health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.HealthResponse{
		Status:      "healthy",
		Timestamp:   h.now().UTC(),
		Environment: h.environment,
	})
}
