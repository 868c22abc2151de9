package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/holdline/reservation-engine/internal/engine"
	myLogger "github.com/holdline/reservation-engine/internal/logger"
)

// errorBody is the JSON shape returned for every non-2xx response.
type errorBody struct {
	Error       string `json:"error"`
	Message     string `json:"message,omitempty"`
	Available   int64  `json:"available,omitempty"`
	ExistingQty int64  `json:"existing_qty,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
	Timestamp   string `json:"timestamp"`
}

// writeEngineError maps an engine.OperationError (or raw sentinel) to
// the HTTP status the spec's error taxonomy implies.
func writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	logger := myLogger.FromContext(r.Context(), "api")

	var opErr *engine.OperationError
	category := err
	var available, existingQty int64
	if errors.As(err, &opErr) {
		category = opErr.Category
		available = opErr.Available
		existingQty = opErr.ExistingQty
	}

	status := http.StatusInternalServerError
	label := "internal"
	switch {
	case errors.Is(category, engine.ErrBadRequest):
		status, label = http.StatusBadRequest, "bad_request"
	case errors.Is(category, engine.ErrInsufficient):
		status, label = http.StatusConflict, "insufficient"
	case errors.Is(category, engine.ErrConflict):
		status, label = http.StatusConflict, "conflict"
	case errors.Is(category, engine.ErrNotFound):
		status, label = http.StatusNotFound, "not_found"
	case errors.Is(category, engine.ErrUnavailable):
		status, label = http.StatusServiceUnavailable, "unavailable"
	case errors.Is(category, engine.ErrInternal):
		status, label = http.StatusInternalServerError, "internal"
		logger.Error("internal invariant violation surfaced to client", "error", err, "alert", true)
	}

	writeJSON(w, status, errorBody{
		Error:       label,
		Message:     err.Error(),
		Available:   available,
		ExistingQty: existingQty,
		RequestID:   requestIDFrom(r),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func requestIDFrom(r *http.Request) string {
	if id, ok := r.Context().Value(myLogger.RequestIDKey).(string); ok {
		return id
	}
	return ""
}
