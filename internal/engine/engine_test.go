package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holdline/reservation-engine/internal/acs"
	"github.com/holdline/reservation-engine/internal/dss"
)

// fakeCounters is an in-memory stand-in for the Atomic Counter Store,
// used to exercise engine orchestration without a live Redis.
type fakeCounters struct {
	holds        map[string]acs.Hold
	available    int64
	reserveErr   error
	commitErr    error
	commitStatus acs.CommitLocalStatus
	commitCalls  int
	releaseCalls []acs.ReleaseReason
	getHoldErr   error
}

func newFakeCounters(available int64) *fakeCounters {
	return &fakeCounters{
		holds:        make(map[string]acs.Hold),
		available:    available,
		commitStatus: acs.CommitLocalOK,
	}
}

func (f *fakeCounters) GetHold(ctx context.Context, sku, cartID string) (acs.Hold, bool, error) {
	if f.getHoldErr != nil {
		return acs.Hold{}, false, f.getHoldErr
	}
	h, ok := f.holds[acs.HoldID(cartID, sku)]
	return h, ok, nil
}

func (f *fakeCounters) Reserve(ctx context.Context, sku, cartID string, qty, ttlMS, nowMS int64) (acs.ReserveOutcome, error) {
	if f.reserveErr != nil {
		return acs.ReserveOutcome{}, f.reserveErr
	}
	id := acs.HoldID(cartID, sku)
	if existing, ok := f.holds[id]; ok {
		if existing.Qty == qty {
			existing.ExpiresAt = nowMS + ttlMS
			f.holds[id] = existing
			return acs.ReserveOutcome{Status: acs.ReserveOK, HoldID: id, ExpiresAt: existing.ExpiresAt, Idempotent: true, ExistingQty: existing.Qty}, nil
		}
		return acs.ReserveOutcome{Status: acs.ReserveConflict, ExistingQty: existing.Qty}, nil
	}
	if f.available < qty {
		return acs.ReserveOutcome{Status: acs.ReserveInsufficient, AvailableAfter: f.available}, nil
	}
	f.available -= qty
	f.holds[id] = acs.Hold{CartID: cartID, SKU: sku, Qty: qty, ExpiresAt: nowMS + ttlMS, CreatedAt: nowMS}
	return acs.ReserveOutcome{Status: acs.ReserveOK, HoldID: id, ExpiresAt: nowMS + ttlMS, AvailableAfter: f.available}, nil
}

func (f *fakeCounters) Extend(ctx context.Context, sku, cartID string, addMS, nowMS int64) (acs.ExtendOutcome, error) {
	id := acs.HoldID(cartID, sku)
	h, ok := f.holds[id]
	if !ok {
		return acs.ExtendOutcome{Status: acs.ExtendNotFound}, nil
	}
	base := h.ExpiresAt
	if nowMS > base {
		base = nowMS
	}
	h.ExpiresAt = base + addMS
	f.holds[id] = h
	return acs.ExtendOutcome{Status: acs.ExtendOK, NewExpiresAt: h.ExpiresAt}, nil
}

func (f *fakeCounters) CommitLocal(ctx context.Context, sku, cartID string) (acs.CommitLocalOutcome, error) {
	f.commitCalls++
	if f.commitErr != nil {
		err := f.commitErr
		f.commitErr = nil
		return acs.CommitLocalOutcome{}, err
	}
	id := acs.HoldID(cartID, sku)
	h, ok := f.holds[id]
	if !ok {
		return acs.CommitLocalOutcome{Status: acs.CommitLocalNotFound}, nil
	}
	delete(f.holds, id)
	if f.commitStatus == acs.CommitLocalNotFound {
		return acs.CommitLocalOutcome{Status: acs.CommitLocalNotFound}, nil
	}
	return acs.CommitLocalOutcome{Status: acs.CommitLocalOK, ConsumedQty: h.Qty}, nil
}

func (f *fakeCounters) Release(ctx context.Context, sku, cartID string, reason acs.ReleaseReason) (acs.ReleaseOutcome, error) {
	f.releaseCalls = append(f.releaseCalls, reason)
	id := acs.HoldID(cartID, sku)
	h, ok := f.holds[id]
	if !ok {
		return acs.ReleaseOutcome{Absent: true}, nil
	}
	delete(f.holds, id)
	f.available += h.Qty
	return acs.ReleaseOutcome{ReleasedQty: h.Qty}, nil
}

func (f *fakeCounters) Snapshot(ctx context.Context, sku string) (acs.Counters, error) {
	return acs.Counters{Total: f.available, Reserved: 0}, nil
}

func (f *fakeCounters) Events(ctx context.Context, limit int) ([]acs.Event, error) {
	return nil, nil
}

// fakeDurable is an in-memory stand-in for the Durable Stock Store.
type fakeDurable struct {
	total      int64
	decErr     error
	applyCount int
}

func (f *fakeDurable) DecrementTotal(ctx context.Context, sku string, qty int64) (dss.DecrementResult, error) {
	f.applyCount++
	if f.decErr != nil {
		return dss.DecrementResult{}, f.decErr
	}
	if f.total < qty {
		return dss.DecrementResult{Applied: false}, nil
	}
	f.total -= qty
	return dss.DecrementResult{Applied: true, NewTotal: f.total}, nil
}

func testEngine(counters CounterStore, durable DurableStock) *Engine {
	return New(counters, durable, Options{
		CommitRetryAttempts:  3,
		CommitRetryBaseDelay: time.Millisecond,
		Clock:                func() time.Time { return time.Unix(1_700_000_000, 0) },
	})
}

func TestReserveCreatesHold(t *testing.T) {
	counters := newFakeCounters(10)
	e := testEngine(counters, &fakeDurable{total: 10})

	resp, err := e.Reserve(context.Background(), ReserveRequest{SKU: "sku-1", CartID: "cart-1", Qty: 3, TTLSeconds: 60})
	require.NoError(t, err)
	assert.False(t, resp.Idempotent)
	assert.Equal(t, "cart-1:sku-1", resp.HoldID)
}

func TestReserveIdempotentReplaySameQty(t *testing.T) {
	counters := newFakeCounters(10)
	e := testEngine(counters, &fakeDurable{total: 10})
	ctx := context.Background()

	_, err := e.Reserve(ctx, ReserveRequest{SKU: "sku-1", CartID: "cart-1", Qty: 3, TTLSeconds: 60})
	require.NoError(t, err)

	resp, err := e.Reserve(ctx, ReserveRequest{SKU: "sku-1", CartID: "cart-1", Qty: 3, TTLSeconds: 60})
	require.NoError(t, err)
	assert.True(t, resp.Idempotent)
}

func TestReserveDifferentQtyIsConflict(t *testing.T) {
	counters := newFakeCounters(10)
	e := testEngine(counters, &fakeDurable{total: 10})
	ctx := context.Background()

	_, err := e.Reserve(ctx, ReserveRequest{SKU: "sku-1", CartID: "cart-1", Qty: 3, TTLSeconds: 60})
	require.NoError(t, err)

	_, err = e.Reserve(ctx, ReserveRequest{SKU: "sku-1", CartID: "cart-1", Qty: 5, TTLSeconds: 60})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))
	var opErr *OperationError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, int64(3), opErr.ExistingQty)
}

func TestReserveInsufficientStock(t *testing.T) {
	counters := newFakeCounters(2)
	e := testEngine(counters, &fakeDurable{total: 2})

	_, err := e.Reserve(context.Background(), ReserveRequest{SKU: "sku-1", CartID: "cart-1", Qty: 5, TTLSeconds: 60})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficient))
}

func TestReserveValidation(t *testing.T) {
	e := testEngine(newFakeCounters(10), &fakeDurable{total: 10})
	ctx := context.Background()

	cases := []ReserveRequest{
		{SKU: "", CartID: "cart-1", Qty: 1, TTLSeconds: 60},
		{SKU: "sku-1", CartID: "", Qty: 1, TTLSeconds: 60},
		{SKU: "sku-1", CartID: "cart-1", Qty: 0, TTLSeconds: 60},
		{SKU: "sku-1", CartID: "cart-1", Qty: 1, TTLSeconds: 0},
	}
	for _, req := range cases {
		_, err := e.Reserve(ctx, req)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrBadRequest))
	}
}

func TestReserveStrictSKUColonRejected(t *testing.T) {
	e := New(newFakeCounters(10), &fakeDurable{total: 10}, Options{StrictIDValidation: true})
	_, err := e.Reserve(context.Background(), ReserveRequest{SKU: "sku:1", CartID: "cart-1", Qty: 1, TTLSeconds: 60})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadRequest))
}

func TestExtendPushesExpiryForward(t *testing.T) {
	counters := newFakeCounters(10)
	e := testEngine(counters, &fakeDurable{total: 10})
	ctx := context.Background()

	reserveResp, err := e.Reserve(ctx, ReserveRequest{SKU: "sku-1", CartID: "cart-1", Qty: 1, TTLSeconds: 60})
	require.NoError(t, err)

	resp, err := e.Extend(ctx, ExtendRequest{CartID: "cart-1", SKU: "sku-1", AddSeconds: 30})
	require.NoError(t, err)
	assert.Greater(t, resp.NewExpiresAt, reserveResp.ExpiresAt)
}

func TestExtendNotFound(t *testing.T) {
	e := testEngine(newFakeCounters(10), &fakeDurable{total: 10})
	_, err := e.Extend(context.Background(), ExtendRequest{CartID: "cart-1", SKU: "sku-1", AddSeconds: 30})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCommitDecrementsDurableThenLocal(t *testing.T) {
	counters := newFakeCounters(10)
	durable := &fakeDurable{total: 10}
	e := testEngine(counters, durable)
	ctx := context.Background()

	_, err := e.Reserve(ctx, ReserveRequest{SKU: "sku-1", CartID: "cart-1", Qty: 4, TTLSeconds: 60})
	require.NoError(t, err)

	resp, err := e.Commit(ctx, CommitRequest{CartID: "cart-1", SKU: "sku-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), resp.ConsumedQty)
	assert.Equal(t, int64(6), resp.NewTotal)
	assert.Equal(t, 1, counters.commitCalls)
}

func TestCommitNotFoundHold(t *testing.T) {
	e := testEngine(newFakeCounters(10), &fakeDurable{total: 10})
	_, err := e.Commit(context.Background(), CommitRequest{CartID: "cart-1", SKU: "sku-1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCommitCompensatesReleaseOnDurableConflict(t *testing.T) {
	counters := newFakeCounters(10)
	durable := &fakeDurable{total: 2} // less than the hold's qty
	e := testEngine(counters, durable)
	ctx := context.Background()

	_, err := e.Reserve(ctx, ReserveRequest{SKU: "sku-1", CartID: "cart-1", Qty: 4, TTLSeconds: 60})
	require.NoError(t, err)

	_, err = e.Commit(ctx, CommitRequest{CartID: "cart-1", SKU: "sku-1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConflict))

	require.Len(t, counters.releaseCalls, 1)
	assert.Equal(t, acs.ReleaseReasonManual, counters.releaseCalls[0])
	_, stillHeld, _ := counters.GetHold(ctx, "sku-1", "cart-1")
	assert.False(t, stillHeld)
}

func TestCommitRetriesTransientLocalFailureThenSucceeds(t *testing.T) {
	counters := newFakeCounters(10)
	durable := &fakeDurable{total: 10}
	e := testEngine(counters, durable)
	ctx := context.Background()

	_, err := e.Reserve(ctx, ReserveRequest{SKU: "sku-1", CartID: "cart-1", Qty: 2, TTLSeconds: 60})
	require.NoError(t, err)

	counters.commitErr = acs.ErrUnavailable

	resp, err := e.Commit(ctx, CommitRequest{CartID: "cart-1", SKU: "sku-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), resp.ConsumedQty)
	assert.Equal(t, 2, counters.commitCalls) // one failure, one success
}

func TestCommitLocalNotFoundAfterDurableAppliedIsSuccess(t *testing.T) {
	counters := newFakeCounters(10)
	durable := &fakeDurable{total: 10}
	e := testEngine(counters, durable)
	ctx := context.Background()

	_, err := e.Reserve(ctx, ReserveRequest{SKU: "sku-1", CartID: "cart-1", Qty: 3, TTLSeconds: 60})
	require.NoError(t, err)

	// Simulate the reaper racing ahead and releasing the hold between
	// step 1 (GetHold, which already succeeded above) and step 3
	// (CommitLocal), which now reports the hold gone even though it is
	// still present in the fake's map.
	counters.commitStatus = acs.CommitLocalNotFound

	resp, err := e.Commit(ctx, CommitRequest{CartID: "cart-1", SKU: "sku-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), resp.ConsumedQty) // falls back to the hold's qty read in step 1
}

func TestReleaseIsIdempotentOnAbsentHold(t *testing.T) {
	e := testEngine(newFakeCounters(10), &fakeDurable{total: 10})
	resp, err := e.Release(context.Background(), ReleaseRequest{CartID: "cart-1", SKU: "sku-1"})
	require.NoError(t, err)
	assert.True(t, resp.Absent)
}

func TestReleaseRestoresAvailability(t *testing.T) {
	counters := newFakeCounters(10)
	e := testEngine(counters, &fakeDurable{total: 10})
	ctx := context.Background()

	_, err := e.Reserve(ctx, ReserveRequest{SKU: "sku-1", CartID: "cart-1", Qty: 4, TTLSeconds: 60})
	require.NoError(t, err)

	resp, err := e.Release(ctx, ReleaseRequest{CartID: "cart-1", SKU: "sku-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(4), resp.ReleasedQty)
	assert.False(t, resp.Absent)
	assert.Equal(t, int64(10), counters.available)
}

func TestReleaseExpiredTagsReasonExpired(t *testing.T) {
	counters := newFakeCounters(10)
	e := testEngine(counters, &fakeDurable{total: 10})
	ctx := context.Background()

	_, err := e.Reserve(ctx, ReserveRequest{SKU: "sku-1", CartID: "cart-1", Qty: 1, TTLSeconds: 60})
	require.NoError(t, err)

	_, err = e.ReleaseExpired(ctx, ReleaseRequest{CartID: "cart-1", SKU: "sku-1"})
	require.NoError(t, err)

	require.Len(t, counters.releaseCalls, 1)
	assert.Equal(t, acs.ReleaseReasonExpired, counters.releaseCalls[0])
}

func TestSnapshotReportsAvailable(t *testing.T) {
	counters := newFakeCounters(10)
	e := testEngine(counters, &fakeDurable{total: 10})

	resp, err := e.Snapshot(context.Background(), SnapshotRequest{SKU: "sku-1"})
	require.NoError(t, err)
	assert.Equal(t, int64(10), resp.Total)
	assert.Equal(t, int64(10), resp.Available)
}

func TestEventsRejectsNonPositiveLimit(t *testing.T) {
	e := testEngine(newFakeCounters(10), &fakeDurable{total: 10})
	_, err := e.Events(context.Background(), EventsRequest{Limit: 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrBadRequest))
}
