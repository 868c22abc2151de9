package acs

import (
	"errors"
	"testing"

	"github.com/gomodule/redigo/redis"
)

func TestSplitMemberSplitsAtLastColon(t *testing.T) {
	cases := []struct {
		member     string
		wantCart   string
		wantSKU    string
		wantOK     bool
	}{
		{"cart-1:sku-1", "cart-1", "sku-1", true},
		{"tenant:cart-1:sku-1", "tenant:cart-1", "sku-1", true},
		{"no-colon-here", "", "", false},
	}

	for _, tc := range cases {
		cartID, sku, ok := splitMember(tc.member)
		if ok != tc.wantOK {
			t.Fatalf("splitMember(%q) ok = %v, want %v", tc.member, ok, tc.wantOK)
		}
		if !ok {
			continue
		}
		if cartID != tc.wantCart || sku != tc.wantSKU {
			t.Fatalf("splitMember(%q) = (%q, %q), want (%q, %q)", tc.member, cartID, sku, tc.wantCart, tc.wantSKU)
		}
	}
}

func TestClassifyScriptErr(t *testing.T) {
	if err := classifyScriptErr(nil); err != nil {
		t.Fatalf("classifyScriptErr(nil) = %v, want nil", err)
	}

	redisErr := redis.Error("ERR internal: reserved counter overflow")
	if got := classifyScriptErr(redisErr); !errors.Is(got, ErrInternal) {
		t.Fatalf("classifyScriptErr(redis.Error) = %v, want ErrInternal", got)
	}

	if got := classifyScriptErr(errors.New("dial tcp: connection refused")); !errors.Is(got, ErrUnavailable) {
		t.Fatalf("classifyScriptErr(transport err) = %v, want ErrUnavailable", got)
	}
}

func TestHoldIDRoundTripsThroughSplitMember(t *testing.T) {
	member := HoldID("cart-99", "sku-7")
	cartID, sku, ok := splitMember(member)
	if !ok || cartID != "cart-99" || sku != "sku-7" {
		t.Fatalf("round trip failed: cartID=%q sku=%q ok=%v", cartID, sku, ok)
	}
}
