package engine

import (
	"context"

	"github.com/holdline/reservation-engine/internal/acs"
)

// Extend pushes a hold's expiry forward. The new expiry is computed as
// max(current_expires_at, now) + add_seconds, so a hold that already
// expired is not resurrected into the past.
func (e *Engine) Extend(ctx context.Context, req ExtendRequest) (ExtendResponse, error) {
	if req.AddSeconds <= 0 {
		return ExtendResponse{}, badRequest("add_seconds must be positive")
	}
	if err := validateID("cart_id", req.CartID, e.opts.StrictIDValidation); err != nil {
		return ExtendResponse{}, err
	}
	if err := validateID("sku", req.SKU, e.opts.StrictIDValidation); err != nil {
		return ExtendResponse{}, err
	}

	out, err := e.counters.Extend(ctx, req.SKU, req.CartID, req.AddSeconds*1000, e.nowMS())
	if err != nil {
		return ExtendResponse{}, unavailable(err.Error())
	}

	switch out.Status {
	case acs.ExtendOK:
		return ExtendResponse{NewExpiresAt: out.NewExpiresAt}, nil
	case acs.ExtendNotFound:
		return ExtendResponse{}, notFound()
	default:
		return ExtendResponse{}, internalErr("unrecognized extend status")
	}
}
