package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"taskboard/internal/http/dto"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeSuccess(w http.ResponseWriter, status int, data any, now time.Time) {
	writeJSON(w, status, dto.SuccessResponse{
		Success:   true,
		Data:      data,
		Timestamp: now.UTC(),
	})
}

func writeError(w http.ResponseWriter, status int, code, message string, details any, now time.Time) {
	writeJSON(w, status, dto.ErrorResponse{
		Success: false,
		Error: dto.ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
		Timestamp: now.UTC(),
	})
}

// NotFound answers any route the mux does not know.
func NotFound(now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, dto.CodeNotFound, "Route "+r.Method+" "+r.URL.Path+" not found", nil, now())
	}
}

// InternalError writes the generic 500 envelope.
func InternalError(w http.ResponseWriter, now time.Time) {
	writeError(w, http.StatusInternalServerError, dto.CodeInternalError, "An unexpected error occurred", nil, now)
}
