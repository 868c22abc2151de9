package acs

// Lua scripts for atomic counter-store operations. Each script executes
// to completion on the server without interleaving against any other
// script touching the same keys; no client-side compare-and-swap loop
// is used anywhere in this package.
const (
	// reserveScript creates or idempotently refreshes a hold.
	// KEYS:  [1] inv:{sku} hash, [2] hold:{cart_id}:{sku} hash,
	//        [3] holds:exp zset, [4] event stream key
	// ARGV:  [1] qty, [2] ttl_ms, [3] now_ms, [4] member (cart_id:sku),
	//        [5] cart_id, [6] sku, [7] events_enabled (1/0)
	// Returns: {status, expires_at, available_after, idempotent, existing_qty}
	// status: 0=ok, 1=insufficient, 2=conflict
	reserveScript = `
		local inv_key = KEYS[1]
		local hold_key = KEYS[2]
		local exp_key = KEYS[3]
		local events_key = KEYS[4]

		local qty = tonumber(ARGV[1])
		local ttl_ms = tonumber(ARGV[2])
		local now_ms = tonumber(ARGV[3])
		local member = ARGV[4]
		local cart_id = ARGV[5]
		local sku = ARGV[6]
		local events_enabled = ARGV[7] == '1'

		local existing_qty = redis.call('HGET', hold_key, 'qty')
		if existing_qty then
			existing_qty = tonumber(existing_qty)
			if existing_qty == qty then
				local new_expires = now_ms + ttl_ms
				redis.call('HSET', hold_key, 'expires_at', new_expires)
				redis.call('ZADD', exp_key, new_expires, member)
				return {0, new_expires, -1, 1, existing_qty}
			end
			return {2, 0, 0, 0, existing_qty}
		end

		local total = tonumber(redis.call('HGET', inv_key, 'total') or '0')
		local reserved = tonumber(redis.call('HGET', inv_key, 'reserved') or '0')
		local available = total - reserved
		if available < qty then
			return {1, 0, available, 0, 0}
		end

		local new_reserved = reserved + qty
		if new_reserved < reserved then
			return redis.error_reply('internal: reserved counter overflow')
		end

		redis.call('HSET', inv_key, 'reserved', new_reserved)
		local expires_at = now_ms + ttl_ms
		redis.call('HSET', hold_key, 'qty', qty, 'expires_at', expires_at, 'created_at', now_ms)
		redis.call('ZADD', exp_key, expires_at, member)

		if events_enabled then
			redis.call('XADD', events_key, '*', 'kind', 'hold_created', 'sku', sku, 'cart_id', cart_id, 'qty', qty, 'ts', now_ms)
		end

		local available_after = total - new_reserved
		return {0, expires_at, available_after, 0, 0}
	`

	// extendScript pushes a hold's expiry forward.
	// KEYS:  [1] hold:{cart_id}:{sku} hash, [2] holds:exp zset, [3] event stream key
	// ARGV:  [1] add_ms, [2] now_ms, [3] member, [4] cart_id, [5] sku, [6] events_enabled
	// Returns: {status, new_expires_at}; status: 0=ok, 1=not_found
	extendScript = `
		local hold_key = KEYS[1]
		local exp_key = KEYS[2]
		local events_key = KEYS[3]

		local add_ms = tonumber(ARGV[1])
		local now_ms = tonumber(ARGV[2])
		local member = ARGV[3]
		local cart_id = ARGV[4]
		local sku = ARGV[5]
		local events_enabled = ARGV[6] == '1'

		local current_expires = redis.call('HGET', hold_key, 'expires_at')
		if not current_expires then
			return {1, 0}
		end

		current_expires = tonumber(current_expires)
		local base = current_expires
		if now_ms > base then
			base = now_ms
		end
		local new_expires = base + add_ms

		redis.call('HSET', hold_key, 'expires_at', new_expires)
		redis.call('ZADD', exp_key, new_expires, member)

		if events_enabled then
			redis.call('XADD', events_key, '*', 'kind', 'hold_extended', 'sku', sku, 'cart_id', cart_id, 'qty', 0, 'ts', now_ms)
		end

		return {0, new_expires}
	`

	// commitLocalScript consumes a hold's reservation without touching total.
	// KEYS:  [1] inv:{sku} hash, [2] hold:{cart_id}:{sku} hash,
	//        [3] holds:exp zset, [4] event stream key
	// ARGV:  [1] member, [2] cart_id, [3] sku, [4] events_enabled
	// Returns: {status, consumed_qty}; status: 0=ok, 1=not_found
	commitLocalScript = `
		local inv_key = KEYS[1]
		local hold_key = KEYS[2]
		local exp_key = KEYS[3]
		local events_key = KEYS[4]

		local member = ARGV[1]
		local cart_id = ARGV[2]
		local sku = ARGV[3]
		local events_enabled = ARGV[4] == '1'

		local qty = redis.call('HGET', hold_key, 'qty')
		if not qty then
			return {1, 0}
		end
		qty = tonumber(qty)

		local reserved = tonumber(redis.call('HGET', inv_key, 'reserved') or '0')
		local new_reserved = reserved - qty
		if new_reserved < 0 then
			new_reserved = 0
		end
		redis.call('HSET', inv_key, 'reserved', new_reserved)
		redis.call('DEL', hold_key)
		redis.call('ZREM', exp_key, member)

		if events_enabled then
			redis.call('XADD', events_key, '*', 'kind', 'hold_committed', 'sku', sku, 'cart_id', cart_id, 'qty', qty, 'ts', redis.call('TIME')[1])
		end

		return {0, qty}
	`

	// releaseScript drops a hold and restores its reserved quantity.
	// KEYS:  [1] inv:{sku} hash, [2] hold:{cart_id}:{sku} hash,
	//        [3] holds:exp zset, [4] event stream key
	// ARGV:  [1] member, [2] cart_id, [3] sku, [4] reason, [5] events_enabled
	// Returns: {absent, released_qty}; absent: 1 if no hold existed
	releaseScript = `
		local inv_key = KEYS[1]
		local hold_key = KEYS[2]
		local exp_key = KEYS[3]
		local events_key = KEYS[4]

		local member = ARGV[1]
		local cart_id = ARGV[2]
		local sku = ARGV[3]
		local reason = ARGV[4]
		local events_enabled = ARGV[5] == '1'

		local qty = redis.call('HGET', hold_key, 'qty')
		if not qty then
			return {1, 0}
		end
		qty = tonumber(qty)

		local reserved = tonumber(redis.call('HGET', inv_key, 'reserved') or '0')
		local new_reserved = reserved - qty
		if new_reserved < 0 then
			new_reserved = 0
		end
		redis.call('HSET', inv_key, 'reserved', new_reserved)
		redis.call('DEL', hold_key)
		redis.call('ZREM', exp_key, member)

		if events_enabled then
			redis.call('XADD', events_key, '*', 'kind', 'hold_released', 'sku', sku, 'cart_id', cart_id, 'qty', qty, 'reason', reason, 'ts', redis.call('TIME')[1])
		end

		return {0, qty}
	`
)
