package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"financy/internal/core"
	flog "financy/internal/log"
	"financy/internal/middleware/trace"
	"financy/internal/storage"
)

type errorBody struct {
	Error any `json:"error"`
}

type fieldErrors struct {
	FieldErrors map[string][]string `json:"fieldErrors"`
}

type okBody struct {
	OK bool `json:"ok"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err, "status", status)
	}
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, okBody{OK: true})
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeError maps service errors to responses. Validation problems become
// 400 with per-field messages, missing rows 404, anything else a logged 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: fieldErrors{FieldErrors: verr.Fields}})
	case errors.Is(err, storage.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, errInvalidID):
		writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			flog.FieldError, err,
			flog.FieldMethod, r.Method,
			flog.FieldPath, r.URL.Path,
			flog.FieldRequestID, trace.RequestID(r.Context()))
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}
