package engine

import (
	"context"

	"github.com/holdline/reservation-engine/internal/acs"
)

// Release drops a hold and restores its reserved quantity. It is
// idempotent: releasing an absent hold is a no-op, not an error, so
// callers can retry release freely.
func (e *Engine) Release(ctx context.Context, req ReleaseRequest) (ReleaseResponse, error) {
	if err := validateID("cart_id", req.CartID, e.opts.StrictIDValidation); err != nil {
		return ReleaseResponse{}, err
	}
	if err := validateID("sku", req.SKU, e.opts.StrictIDValidation); err != nil {
		return ReleaseResponse{}, err
	}

	return e.release(ctx, req.SKU, req.CartID, acs.ReleaseReasonManual)
}

// ReleaseExpired is the reaper's entry point: same idempotent release,
// tagged in the event log as an expiry rather than a manual cancel.
func (e *Engine) ReleaseExpired(ctx context.Context, req ReleaseRequest) (ReleaseResponse, error) {
	if err := validateID("cart_id", req.CartID, e.opts.StrictIDValidation); err != nil {
		return ReleaseResponse{}, err
	}
	if err := validateID("sku", req.SKU, e.opts.StrictIDValidation); err != nil {
		return ReleaseResponse{}, err
	}

	return e.release(ctx, req.SKU, req.CartID, acs.ReleaseReasonExpired)
}

func (e *Engine) release(ctx context.Context, sku, cartID string, reason acs.ReleaseReason) (ReleaseResponse, error) {
	out, err := e.counters.Release(ctx, sku, cartID, reason)
	if err != nil {
		return ReleaseResponse{}, unavailable(err.Error())
	}

	return ReleaseResponse{ReleasedQty: out.ReleasedQty, Absent: out.Absent}, nil
}
