package engine

import (
	"context"

	"github.com/holdline/reservation-engine/internal/acs"
	myLogger "github.com/holdline/reservation-engine/internal/logger"
)

// Reserve atomically checks availability and creates a hold, or, on a
// replay with an identical quantity, refreshes the existing hold's
// expiry. A replay with a different quantity is rejected as a conflict
// rather than silently accepted.
func (e *Engine) Reserve(ctx context.Context, req ReserveRequest) (ReserveResponse, error) {
	logger := myLogger.FromContext(ctx, "engine")

	if req.Qty <= 0 {
		return ReserveResponse{}, badRequest("qty must be positive")
	}
	if req.TTLSeconds <= 0 {
		return ReserveResponse{}, badRequest("ttl_seconds must be positive")
	}
	if err := validateID("cart_id", req.CartID, e.opts.StrictIDValidation); err != nil {
		return ReserveResponse{}, err
	}
	if err := validateID("sku", req.SKU, e.opts.StrictIDValidation); err != nil {
		return ReserveResponse{}, err
	}

	now := e.nowMS()
	out, err := e.counters.Reserve(ctx, req.SKU, req.CartID, req.Qty, req.TTLSeconds*1000, now)
	if err != nil {
		logger.Error("reserve | acs call failed", "sku", req.SKU, "cart_id", req.CartID, "error", err)
		return ReserveResponse{}, unavailable(err.Error())
	}

	switch out.Status {
	case acs.ReserveOK:
		return ReserveResponse{
			HoldID:         out.HoldID,
			ExpiresAt:      out.ExpiresAt,
			AvailableAfter: out.AvailableAfter,
			Idempotent:     out.Idempotent,
		}, nil
	case acs.ReserveInsufficient:
		return ReserveResponse{}, insufficient(out.AvailableAfter)
	case acs.ReserveConflict:
		return ReserveResponse{}, conflict(out.ExistingQty)
	default:
		return ReserveResponse{}, internalErr("unrecognized reserve status")
	}
}
