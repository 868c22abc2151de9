// Package api is a thin chi-based HTTP surface over internal/engine.
// HTTP transport and request parsing are not part of the reservation
// engine itself; this package only marshals requests/responses and
// forwards to engine operations so the engine is runnable end to end.
package api

import (
	"github.com/holdline/reservation-engine/internal/acs"
	"github.com/holdline/reservation-engine/internal/dss"
	"github.com/holdline/reservation-engine/internal/engine"
	"github.com/holdline/reservation-engine/internal/observability"
)

// Handler wires the engine and its stores to HTTP.
type Handler struct {
	Engine  *engine.Engine
	Counter *acs.Store
	Durable *dss.Store
	Metrics *observability.Metrics
}

// NewHandler builds a Handler.
func NewHandler(eng *engine.Engine, counter *acs.Store, durable *dss.Store, metrics *observability.Metrics) *Handler {
	return &Handler{Engine: eng, Counter: counter, Durable: durable, Metrics: metrics}
}

// ReserveRequest is the wire shape for POST /v1/reserve.
type ReserveRequest struct {
	SKU        string `json:"sku"`
	CartID     string `json:"cart_id"`
	Qty        int64  `json:"qty"`
	TTLSeconds int64  `json:"ttl_seconds"`
}

// ReserveResponse is the wire shape for a successful reserve.
type ReserveResponse struct {
	HoldID         string `json:"hold_id"`
	ExpiresAt      int64  `json:"expires_at"`
	AvailableAfter int64  `json:"available_after"`
	Idempotent     bool   `json:"idempotent"`
}

// ExtendRequest is the wire shape for POST /v1/extend.
type ExtendRequest struct {
	CartID     string `json:"cart_id"`
	SKU        string `json:"sku"`
	AddSeconds int64  `json:"add_seconds"`
}

// ExtendResponse is the wire shape for a successful extend.
type ExtendResponse struct {
	NewExpiresAt int64 `json:"new_expires_at"`
}

// CommitRequest is the wire shape for POST /v1/commit.
type CommitRequest struct {
	CartID string `json:"cart_id"`
	SKU    string `json:"sku"`
}

// CommitResponse is the wire shape for a successful commit.
type CommitResponse struct {
	ConsumedQty int64 `json:"consumed_qty"`
	NewTotal    int64 `json:"new_total"`
}

// ReleaseRequest is the wire shape for POST /v1/release.
type ReleaseRequest struct {
	CartID string `json:"cart_id"`
	SKU    string `json:"sku"`
}

// ReleaseResponse is the wire shape for a successful release.
type ReleaseResponse struct {
	ReleasedQty int64 `json:"released_qty,omitempty"`
	Absent      bool  `json:"absent,omitempty"`
}

// SnapshotResponse is the wire shape for GET /v1/skus/{sku}/snapshot.
type SnapshotResponse struct {
	Total     int64 `json:"total"`
	Reserved  int64 `json:"reserved"`
	Available int64 `json:"available"`
}

// EventResponse is one entry in the GET /v1/events response.
type EventResponse struct {
	Timestamp int64  `json:"ts"`
	Kind      string `json:"kind"`
	SKU       string `json:"sku"`
	CartID    string `json:"cart_id"`
	Qty       int64  `json:"qty"`
}
