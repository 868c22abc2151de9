// Package reaper sweeps expired holds out of the Atomic Counter Store.
package reaper

import (
	"context"
	"time"

	"github.com/holdline/reservation-engine/internal/acs"
	"github.com/holdline/reservation-engine/internal/engine"
	myLogger "github.com/holdline/reservation-engine/internal/logger"
)

// ExpiryReader is the narrow read the reaper needs from the counter
// store: the set of holds due for release, ordered by expiry.
type ExpiryReader interface {
	DueHolds(ctx context.Context, nowMS int64, limit int) ([]acs.ExpiringHold, error)
}

// Releaser is the narrow write the reaper needs: releasing one hold by
// cart/SKU, tagged with the reason for the event log.
type Releaser interface {
	ReleaseExpired(ctx context.Context, req engine.ReleaseRequest) (engine.ReleaseResponse, error)
}

// Reaper periodically sweeps expired holds. It never touches the
// durable store: an outage there has no effect on the reaper's
// correctness.
type Reaper struct {
	expiry   ExpiryReader
	release  Releaser
	interval time.Duration
	batch    int
}

// New builds a Reaper. interval and batch come straight from
// configuration (reaper_interval_ms, reaper_batch).
func New(expiry ExpiryReader, release Releaser, interval time.Duration, batch int) *Reaper {
	return &Reaper{expiry: expiry, release: release, interval: interval, batch: batch}
}

// Run sweeps on a fixed interval until ctx is cancelled. On
// cancellation it finishes the sweep already in progress before
// returning, so a batch is never left half-released.
func (r *Reaper) Run(ctx context.Context) {
	logger := myLogger.FromContext(ctx, "reaper")
	logger.Info("reaper | starting", "interval", r.interval, "batch", r.batch)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep(ctx)
		case <-ctx.Done():
			logger.Info("reaper | context cancelled, stopping after current sweep")
			return
		}
	}
}

// sweep releases every hold due at the time the sweep started, in
// ascending expiry order, up to the configured batch size. A
// disconnected counter store aborts the sweep; the next tick retries.
func (r *Reaper) sweep(ctx context.Context) {
	logger := myLogger.FromContext(ctx, "reaper")

	nowMS := time.Now().UnixMilli()
	due, err := r.expiry.DueHolds(ctx, nowMS, r.batch)
	if err != nil {
		logger.Warn("reaper | failed to read expiry index, will retry next tick", "error", err)
		return
	}
	if len(due) == 0 {
		return
	}

	for _, hold := range due {
		resp, err := r.release.ReleaseExpired(ctx, engine.ReleaseRequest{CartID: hold.CartID, SKU: hold.SKU})
		if err != nil {
			logger.Error("reaper | release failed", "cart_id", hold.CartID, "sku", hold.SKU, "error", err)
			continue
		}
		if !resp.Absent {
			logger.Info("reaper | released expired hold", "cart_id", hold.CartID, "sku", hold.SKU, "qty", resp.ReleasedQty)
		}
	}
}
