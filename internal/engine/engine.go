package engine

import (
	"context"
	"time"

	"github.com/holdline/reservation-engine/internal/acs"
	"github.com/holdline/reservation-engine/internal/dss"
)

// CounterStore is the narrow capability the engine needs from the
// Atomic Counter Store. It is not a shared transaction handle: each
// method is independently atomic on the server side.
type CounterStore interface {
	GetHold(ctx context.Context, sku, cartID string) (acs.Hold, bool, error)
	Reserve(ctx context.Context, sku, cartID string, qty, ttlMS, nowMS int64) (acs.ReserveOutcome, error)
	Extend(ctx context.Context, sku, cartID string, addMS, nowMS int64) (acs.ExtendOutcome, error)
	CommitLocal(ctx context.Context, sku, cartID string) (acs.CommitLocalOutcome, error)
	Release(ctx context.Context, sku, cartID string, reason acs.ReleaseReason) (acs.ReleaseOutcome, error)
	Snapshot(ctx context.Context, sku string) (acs.Counters, error)
	Events(ctx context.Context, limit int) ([]acs.Event, error)
}

// DurableStock is the narrow capability the engine needs from the
// Durable Stock Store.
type DurableStock interface {
	DecrementTotal(ctx context.Context, sku string, qty int64) (dss.DecrementResult, error)
}

// Clock abstracts wall-clock time so tests can control expiry math.
type Clock func() time.Time

// Options configures an Engine.
type Options struct {
	StrictIDValidation   bool
	CommitRetryAttempts  int
	CommitRetryBaseDelay time.Duration
	Clock                Clock
}

// Engine orchestrates reserve/extend/commit/release/snapshot/events
// against a CounterStore and a DurableStock. It holds no locks of its
// own; all mutual exclusion is delegated to the counter store's
// single-threaded script execution against the keys a script touches.
type Engine struct {
	counters CounterStore
	durable  DurableStock
	opts     Options
}

// New builds an Engine. Defaults are applied when CommitRetryAttempts,
// CommitRetryBaseDelay or Clock is zero; StrictIDValidation is used as
// given.
func New(counters CounterStore, durable DurableStock, opts Options) *Engine {
	if opts.CommitRetryAttempts <= 0 {
		opts.CommitRetryAttempts = 3
	}
	if opts.CommitRetryBaseDelay <= 0 {
		opts.CommitRetryBaseDelay = 50 * time.Millisecond
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Engine{counters: counters, durable: durable, opts: opts}
}

func (e *Engine) nowMS() int64 {
	return e.opts.Clock().UnixMilli()
}

// validateID enforces non-emptiness always, and, under strict
// validation, that a SKU never contains ':' — the hold identifier
// format (cart_id:sku) relies on splitting at the last colon.
func validateID(field, value string, strict bool) error {
	if value == "" {
		return badRequest(field + " must not be empty")
	}
	if !strict || field != "sku" {
		return nil
	}
	for _, r := range value {
		if r == ':' {
			return badRequest(field + " must not contain ':'")
		}
	}
	return nil
}
