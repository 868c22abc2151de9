package acs

import "testing"

func TestHoldID(t *testing.T) {
	got := HoldID("cart-1", "sku-42")
	want := "cart-1:sku-42"
	if got != want {
		t.Fatalf("HoldID() = %q, want %q", got, want)
	}
}

func TestCountersAvailable(t *testing.T) {
	c := Counters{Total: 10, Reserved: 4}
	if got := c.Available(); got != 6 {
		t.Fatalf("Available() = %d, want 6", got)
	}
}

func TestCountersAvailableCanGoNegativeOnOverReserve(t *testing.T) {
	c := Counters{Total: 5, Reserved: 8}
	if got := c.Available(); got != -3 {
		t.Fatalf("Available() = %d, want -3", got)
	}
}
