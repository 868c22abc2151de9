package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/holdline/reservation-engine/internal/engine"
)

// Reserve handles POST /v1/reserve.
func (h *Handler) Reserve(w http.ResponseWriter, r *http.Request) {
	var req ReserveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	resp, err := h.Engine.Reserve(r.Context(), engine.ReserveRequest{
		SKU:        req.SKU,
		CartID:     req.CartID,
		Qty:        req.Qty,
		TTLSeconds: req.TTLSeconds,
	})
	if err != nil {
		if h.Metrics != nil {
			h.Metrics.RecordReserve(statusLabel(err))
		}
		writeEngineError(w, r, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.RecordReserve("ok")
	}

	writeJSON(w, http.StatusOK, ReserveResponse{
		HoldID:         resp.HoldID,
		ExpiresAt:      resp.ExpiresAt,
		AvailableAfter: resp.AvailableAfter,
		Idempotent:     resp.Idempotent,
	})
}

// Extend handles POST /v1/extend.
func (h *Handler) Extend(w http.ResponseWriter, r *http.Request) {
	var req ExtendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	resp, err := h.Engine.Extend(r.Context(), engine.ExtendRequest{
		CartID:     req.CartID,
		SKU:        req.SKU,
		AddSeconds: req.AddSeconds,
	})
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ExtendResponse{NewExpiresAt: resp.NewExpiresAt})
}

// Commit handles POST /v1/commit.
func (h *Handler) Commit(w http.ResponseWriter, r *http.Request) {
	var req CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	resp, err := h.Engine.Commit(r.Context(), engine.CommitRequest{CartID: req.CartID, SKU: req.SKU})
	if err != nil {
		if h.Metrics != nil {
			h.Metrics.RecordCommit(statusLabel(err))
		}
		writeEngineError(w, r, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.RecordCommit("ok")
	}

	writeJSON(w, http.StatusOK, CommitResponse{ConsumedQty: resp.ConsumedQty, NewTotal: resp.NewTotal})
}

// Release handles POST /v1/release.
func (h *Handler) Release(w http.ResponseWriter, r *http.Request) {
	var req ReleaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "bad_request", Message: "invalid JSON body"})
		return
	}

	resp, err := h.Engine.Release(r.Context(), engine.ReleaseRequest{CartID: req.CartID, SKU: req.SKU})
	if err != nil {
		writeEngineError(w, r, err)
		return
	}
	if h.Metrics != nil {
		h.Metrics.RecordRelease("manual")
	}

	writeJSON(w, http.StatusOK, ReleaseResponse{ReleasedQty: resp.ReleasedQty, Absent: resp.Absent})
}

// Snapshot handles GET /v1/skus/{sku}/snapshot.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	sku := chi.URLParam(r, "sku")

	resp, err := h.Engine.Snapshot(r.Context(), engine.SnapshotRequest{SKU: sku})
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, SnapshotResponse{
		Total:     resp.Total,
		Reserved:  resp.Reserved,
		Available: resp.Available,
	})
}

// Events handles GET /v1/events?limit=N.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			limit = parsed
		}
	}

	records, err := h.Engine.Events(r.Context(), engine.EventsRequest{Limit: limit})
	if err != nil {
		writeEngineError(w, r, err)
		return
	}

	out := make([]EventResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, EventResponse{
			Timestamp: rec.Timestamp,
			Kind:      rec.Kind,
			SKU:       rec.SKU,
			CartID:    rec.CartID,
			Qty:       rec.Qty,
		})
	}

	writeJSON(w, http.StatusOK, out)
}

func statusLabel(err error) string {
	if opErr, ok := err.(interface{ Unwrap() error }); ok {
		switch opErr.Unwrap() {
		case engine.ErrBadRequest:
			return "bad_request"
		case engine.ErrInsufficient:
			return "insufficient"
		case engine.ErrConflict:
			return "conflict"
		case engine.ErrNotFound:
			return "not_found"
		case engine.ErrUnavailable:
			return "unavailable"
		}
	}
	return "internal"
}
