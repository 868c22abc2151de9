package acs

import (
	"context"
	"fmt"

	"github.com/gomodule/redigo/redis"

	myLogger "github.com/holdline/reservation-engine/internal/logger"
)

// Reserve executes the RESERVE script: creates a new hold, or, on a
// replay with an identical quantity, idempotently refreshes its expiry.
func (s *Store) Reserve(ctx context.Context, sku, cartID string, qty, ttlMS, nowMS int64) (ReserveOutcome, error) {
	logger := myLogger.FromContext(ctx, "acs")

	conn := s.pool.Get()
	defer conn.Close()

	member := HoldID(cartID, sku)
	reply, err := redis.Values(conn.Do("EVAL", reserveScript, 4,
		invKey(sku), holdKey(cartID, sku), expiryIndexKey, s.eventsStream,
		qty, ttlMS, nowMS, member, cartID, sku, eventsEnabledArg(s.eventsEnabled),
	))
	if err != nil {
		return ReserveOutcome{}, classifyScriptErr(err)
	}

	var raw [5]int64
	if _, err := redis.Scan(reply, &raw[0], &raw[1], &raw[2], &raw[3], &raw[4]); err != nil {
		logger.Error("acs reserve | malformed script reply", "error", err)
		return ReserveOutcome{}, ErrInternal
	}

	out := ReserveOutcome{
		Status:         ReserveStatus(raw[0]),
		HoldID:         member,
		ExpiresAt:      raw[1],
		AvailableAfter: raw[2],
		Idempotent:     raw[3] == 1,
		ExistingQty:    raw[4],
	}
	logger.Debug("acs reserve", "sku", sku, "cart_id", cartID, "status", out.Status)
	return out, nil
}

// Extend executes the EXTEND script, pushing a hold's expiry forward.
func (s *Store) Extend(ctx context.Context, sku, cartID string, addMS, nowMS int64) (ExtendOutcome, error) {
	logger := myLogger.FromContext(ctx, "acs")

	conn := s.pool.Get()
	defer conn.Close()

	member := HoldID(cartID, sku)
	reply, err := redis.Values(conn.Do("EVAL", extendScript, 3,
		holdKey(cartID, sku), expiryIndexKey, s.eventsStream,
		addMS, nowMS, member, cartID, sku, eventsEnabledArg(s.eventsEnabled),
	))
	if err != nil {
		return ExtendOutcome{}, classifyScriptErr(err)
	}

	var raw [2]int64
	if _, err := redis.Scan(reply, &raw[0], &raw[1]); err != nil {
		logger.Error("acs extend | malformed script reply", "error", err)
		return ExtendOutcome{}, ErrInternal
	}

	return ExtendOutcome{
		Status:       ExtendStatus(raw[0]),
		NewExpiresAt: raw[1],
	}, nil
}

// CommitLocal executes the COMMIT_LOCAL script: decrements reserved and
// deletes the hold. It never touches total.
func (s *Store) CommitLocal(ctx context.Context, sku, cartID string) (CommitLocalOutcome, error) {
	logger := myLogger.FromContext(ctx, "acs")

	conn := s.pool.Get()
	defer conn.Close()

	member := HoldID(cartID, sku)
	reply, err := redis.Values(conn.Do("EVAL", commitLocalScript, 4,
		invKey(sku), holdKey(cartID, sku), expiryIndexKey, s.eventsStream,
		member, cartID, sku, eventsEnabledArg(s.eventsEnabled),
	))
	if err != nil {
		return CommitLocalOutcome{}, classifyScriptErr(err)
	}

	var raw [2]int64
	if _, err := redis.Scan(reply, &raw[0], &raw[1]); err != nil {
		logger.Error("acs commit_local | malformed script reply", "error", err)
		return CommitLocalOutcome{}, ErrInternal
	}

	return CommitLocalOutcome{
		Status:      CommitLocalStatus(raw[0]),
		ConsumedQty: raw[1],
	}, nil
}

// Release executes the RELEASE script: idempotently drops a hold and
// restores its reserved quantity.
func (s *Store) Release(ctx context.Context, sku, cartID string, reason ReleaseReason) (ReleaseOutcome, error) {
	logger := myLogger.FromContext(ctx, "acs")

	conn := s.pool.Get()
	defer conn.Close()

	member := HoldID(cartID, sku)
	reply, err := redis.Values(conn.Do("EVAL", releaseScript, 4,
		invKey(sku), holdKey(cartID, sku), expiryIndexKey, s.eventsStream,
		member, cartID, sku, string(reason), eventsEnabledArg(s.eventsEnabled),
	))
	if err != nil {
		return ReleaseOutcome{}, classifyScriptErr(err)
	}

	var raw [2]int64
	if _, err := redis.Scan(reply, &raw[0], &raw[1]); err != nil {
		logger.Error("acs release | malformed script reply", "error", err)
		return ReleaseOutcome{}, ErrInternal
	}

	return ReleaseOutcome{
		Absent:      raw[0] == 1,
		ReleasedQty: raw[1],
	}, nil
}

// GetHold reads a hold record without scripting. It is used by the
// commit protocol's read-only lookup step, before the durable store is
// touched.
func (s *Store) GetHold(ctx context.Context, sku, cartID string) (Hold, bool, error) {
	conn := s.pool.Get()
	defer conn.Close()

	reply, err := redis.StringMap(conn.Do("HGETALL", holdKey(cartID, sku)))
	if err != nil {
		return Hold{}, false, ErrUnavailable
	}
	if len(reply) == 0 {
		return Hold{}, false, nil
	}

	h := Hold{CartID: cartID, SKU: sku}
	fmt.Sscanf(reply["qty"], "%d", &h.Qty)
	fmt.Sscanf(reply["expires_at"], "%d", &h.ExpiresAt)
	fmt.Sscanf(reply["created_at"], "%d", &h.CreatedAt)
	return h, true, nil
}

// Snapshot reads a SKU's counters without scripting. The result is
// eventually consistent: it may be stale by one in-flight script
// execution against the same SKU.
func (s *Store) Snapshot(ctx context.Context, sku string) (Counters, error) {
	conn := s.pool.Get()
	defer conn.Close()

	reply, err := redis.StringMap(conn.Do("HGETALL", invKey(sku)))
	if err != nil {
		return Counters{}, ErrUnavailable
	}
	if len(reply) == 0 {
		return Counters{}, nil
	}

	var c Counters
	fmt.Sscanf(reply["total"], "%d", &c.Total)
	fmt.Sscanf(reply["reserved"], "%d", &c.Reserved)
	return c, nil
}

// DueHolds returns up to limit holds whose expires_at is <= nowMS,
// ordered by expiry ascending, for the reaper's sweep.
func (s *Store) DueHolds(ctx context.Context, nowMS int64, limit int) ([]ExpiringHold, error) {
	conn := s.pool.Get()
	defer conn.Close()

	members, err := redis.Strings(conn.Do("ZRANGEBYSCORE", expiryIndexKey, "-inf", nowMS, "LIMIT", 0, limit))
	if err != nil {
		return nil, ErrUnavailable
	}

	holds := make([]ExpiringHold, 0, len(members))
	for _, member := range members {
		cartID, sku, ok := splitMember(member)
		if !ok {
			continue
		}
		holds = append(holds, ExpiringHold{CartID: cartID, SKU: sku})
	}
	return holds, nil
}

// Events returns the last limit entries from the event log, newest
// first within the returned page.
func (s *Store) Events(ctx context.Context, limit int) ([]Event, error) {
	if !s.eventsEnabled {
		return nil, nil
	}

	conn := s.pool.Get()
	defer conn.Close()

	entries, err := redis.Values(conn.Do("XREVRANGE", s.eventsStream, "+", "-", "COUNT", limit))
	if err != nil {
		return nil, ErrUnavailable
	}

	events := make([]Event, 0, len(entries))
	for _, raw := range entries {
		entry, ok := raw.([]interface{})
		if !ok || len(entry) != 2 {
			continue
		}
		fields, err := redis.StringMap(entry[1], nil)
		if err != nil {
			continue
		}
		var qty, ts int64
		fmt.Sscanf(fields["qty"], "%d", &qty)
		fmt.Sscanf(fields["ts"], "%d", &ts)
		events = append(events, Event{
			Timestamp: ts,
			Kind:      EventKind(fields["kind"]),
			SKU:       fields["sku"],
			CartID:    fields["cart_id"],
			Qty:       qty,
			Reason:    fields["reason"],
		})
	}
	return events, nil
}

// MirrorTotal writes the durable store's authoritative total into the
// counter store's read-only projection. This stands in for the
// external replicator described in the design: the reservation engine
// itself never calls this, preserving the no-feedback-loop invariant.
func (s *Store) MirrorTotal(ctx context.Context, sku string, total int64) error {
	conn := s.pool.Get()
	defer conn.Close()

	_, err := conn.Do("HSET", invKey(sku), "total", total)
	if err != nil {
		return ErrUnavailable
	}
	return nil
}

func splitMember(member string) (cartID, sku string, ok bool) {
	for i := len(member) - 1; i >= 0; i-- {
		if member[i] == ':' {
			return member[:i], member[i+1:], true
		}
	}
	return "", "", false
}

func classifyScriptErr(err error) error {
	if err == nil {
		return nil
	}
	if redisErr, isRedisErr := err.(redis.Error); isRedisErr {
		_ = redisErr
		return ErrInternal
	}
	return ErrUnavailable
}
