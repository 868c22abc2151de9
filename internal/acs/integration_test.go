//go:build integration

package acs

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testStore *Store

func TestMain(m *testing.M) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	ctx := context.Background()
	testStore = NewStore(ctx, Options{Address: addr, EventsEnabled: true, EventsStream: "inv:events:test"})
	if err := testStore.HealthCheck(ctx); err != nil {
		os.Exit(0) // no Redis reachable, skip the suite rather than fail CI without a broker
	}

	code := m.Run()
	testStore.Close()
	os.Exit(code)
}

func seedTotal(t *testing.T, sku string, total int64) {
	t.Helper()
	require.NoError(t, testStore.MirrorTotal(context.Background(), sku, total))
}

func TestIntegrationReserveThenCommitLocal(t *testing.T) {
	ctx := context.Background()
	sku := "it-sku-reserve-commit"
	seedTotal(t, sku, 10)

	out, err := testStore.Reserve(ctx, sku, "cart-a", 3, 60_000, time.Now().UnixMilli())
	require.NoError(t, err)
	require.Equal(t, ReserveOK, out.Status)

	commitOut, err := testStore.CommitLocal(ctx, sku, "cart-a")
	require.NoError(t, err)
	require.Equal(t, CommitLocalOK, commitOut.Status)
	require.Equal(t, int64(3), commitOut.ConsumedQty)

	_, found, err := testStore.GetHold(ctx, sku, "cart-a")
	require.NoError(t, err)
	require.False(t, found)
}

func TestIntegrationReserveIdempotentReplay(t *testing.T) {
	ctx := context.Background()
	sku := "it-sku-replay"
	seedTotal(t, sku, 10)
	now := time.Now().UnixMilli()

	first, err := testStore.Reserve(ctx, sku, "cart-b", 4, 60_000, now)
	require.NoError(t, err)
	require.Equal(t, ReserveOK, first.Status)

	second, err := testStore.Reserve(ctx, sku, "cart-b", 4, 60_000, now+1000)
	require.NoError(t, err)
	require.Equal(t, ReserveOK, second.Status)
	require.True(t, second.Idempotent)
	require.Greater(t, second.ExpiresAt, first.ExpiresAt)
}

func TestIntegrationReserveConflictOnQtyChange(t *testing.T) {
	ctx := context.Background()
	sku := "it-sku-conflict"
	seedTotal(t, sku, 10)
	now := time.Now().UnixMilli()

	_, err := testStore.Reserve(ctx, sku, "cart-c", 2, 60_000, now)
	require.NoError(t, err)

	second, err := testStore.Reserve(ctx, sku, "cart-c", 5, 60_000, now)
	require.NoError(t, err)
	require.Equal(t, ReserveConflict, second.Status)
	require.Equal(t, int64(2), second.ExistingQty)
}

func TestIntegrationReleaseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	sku := "it-sku-release"

	out, err := testStore.Release(ctx, sku, "cart-no-such-hold", ReleaseReasonManual)
	require.NoError(t, err)
	require.True(t, out.Absent)
}

func TestIntegrationDueHoldsOrdersByExpiry(t *testing.T) {
	ctx := context.Background()
	sku := "it-sku-due"
	seedTotal(t, sku, 10)
	now := time.Now().UnixMilli()

	_, err := testStore.Reserve(ctx, sku, "cart-due-1", 1, 1_000, now-2_000)
	require.NoError(t, err)
	_, err = testStore.Reserve(ctx, sku, "cart-due-2", 1, 1_000, now-1_000)
	require.NoError(t, err)

	due, err := testStore.DueHolds(ctx, now+10_000, 10)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(due), 2)

	first, second := -1, -1
	for i, h := range due {
		switch {
		case h.SKU == sku && h.CartID == "cart-due-1":
			first = i
		case h.SKU == sku && h.CartID == "cart-due-2":
			second = i
		}
	}
	require.NotEqual(t, -1, first)
	require.NotEqual(t, -1, second)
	require.Less(t, first, second)
}
