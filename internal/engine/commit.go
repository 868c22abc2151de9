package engine

import (
	"context"
	"time"

	"github.com/holdline/reservation-engine/internal/acs"
	myLogger "github.com/holdline/reservation-engine/internal/logger"
)

// Commit is the only cross-store operation. Ordering is fixed:
// the durable store's conditional decrement runs first, and the
// counter store's local commit runs second. Reversing the order would
// let a subsequent reserve see freed capacity before the durable store
// confirms the sale, risking oversell under contention.
func (e *Engine) Commit(ctx context.Context, req CommitRequest) (CommitResponse, error) {
	logger := myLogger.FromContext(ctx, "engine")

	if err := validateID("cart_id", req.CartID, e.opts.StrictIDValidation); err != nil {
		return CommitResponse{}, err
	}
	if err := validateID("sku", req.SKU, e.opts.StrictIDValidation); err != nil {
		return CommitResponse{}, err
	}

	// Step 1: read-only lookup. Nothing is mutated yet.
	hold, found, err := e.counters.GetHold(ctx, req.SKU, req.CartID)
	if err != nil {
		return CommitResponse{}, unavailable(err.Error())
	}
	if !found {
		return CommitResponse{}, notFound()
	}

	// Step 2: durable-store decrement. On a zero-row conflict, the
	// hold is compensated away here; the caller sees a 409-equivalent
	// and the hold does not leak. On a transport error, nothing is
	// mutated anywhere and the lease will eventually expire.
	decRes, err := e.durable.DecrementTotal(ctx, req.SKU, hold.Qty)
	if err != nil {
		logger.Warn("commit | durable store unreachable, leaving hold to lease expiry",
			"sku", req.SKU, "cart_id", req.CartID)
		return CommitResponse{}, unavailable(err.Error())
	}
	if !decRes.Applied {
		if relErr := e.compensateRelease(ctx, req.SKU, req.CartID); relErr != nil {
			logger.Error("commit | compensating release failed after durable conflict",
				"sku", req.SKU, "cart_id", req.CartID, "error", relErr)
		}
		return CommitResponse{}, conflict(hold.Qty)
	}

	// Step 3: counter-store local commit, retried with bounded backoff
	// on transient failure. The durable store has already settled, so
	// retrying here is safe even though the script is not idempotent
	// once the hold is gone — a not_found on retry means the reaper
	// already released it, and is treated as success.
	consumedQty, err := e.commitLocalWithRetry(ctx, req.SKU, req.CartID, hold.Qty)
	if err != nil {
		logger.Error("commit | divergence: durable store advanced but counter store still holds reservation; lease expiry and replicator mirroring will converge",
			"sku", req.SKU, "cart_id", req.CartID, "alert", true)
		return CommitResponse{}, unavailable(err.Error())
	}

	return CommitResponse{ConsumedQty: consumedQty, NewTotal: decRes.NewTotal}, nil
}

func (e *Engine) compensateRelease(ctx context.Context, sku, cartID string) error {
	_, err := e.counters.Release(ctx, sku, cartID, acs.ReleaseReasonManual)
	return err
}

func (e *Engine) commitLocalWithRetry(ctx context.Context, sku, cartID string, fallbackQty int64) (int64, error) {
	var lastErr error
	delay := e.opts.CommitRetryBaseDelay

	for attempt := 0; attempt < e.opts.CommitRetryAttempts; attempt++ {
		out, err := e.counters.CommitLocal(ctx, sku, cartID)
		if err == nil {
			switch out.Status {
			case acs.CommitLocalOK:
				return out.ConsumedQty, nil
			case acs.CommitLocalNotFound:
				// Reaped between step 1 and step 3: the durable
				// decrement already stands and the lease expiry has
				// already released the reservation. Treat as success.
				return fallbackQty, nil
			}
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return 0, lastErr
}
