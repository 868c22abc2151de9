package acs

import (
	"context"
	"time"

	"github.com/gomodule/redigo/redis"

	myLogger "github.com/holdline/reservation-engine/internal/logger"
)

// Store is the Atomic Counter Store client: an in-memory key-value
// store reached through server-side Lua scripts, holding the live
// reserved counters, per-cart holds, and the expiry index.
type Store struct {
	pool          *redis.Pool
	eventsEnabled bool
	eventsStream  string
}

// Options configures a new Store.
type Options struct {
	Address       string
	EventsEnabled bool
	EventsStream  string
}

// NewStore builds a Store backed by a connection pool. It does not dial:
// the pool lazily dials connections on first use, matching the rest of
// this package's non-blocking posture.
func NewStore(ctx context.Context, opts Options) *Store {
	logger := myLogger.FromContext(ctx, "acs")

	pool := &redis.Pool{
		MaxIdle:         1000,
		MaxActive:       2000,
		IdleTimeout:     240 * time.Second,
		Wait:            true,
		MaxConnLifetime: 10 * time.Minute,

		Dial: func() (redis.Conn, error) {
			logger.Info("acs | dialing", "address", opts.Address)
			return redis.Dial("tcp", opts.Address,
				redis.DialConnectTimeout(5*time.Second),
				redis.DialReadTimeout(3*time.Second),
				redis.DialWriteTimeout(3*time.Second),
			)
		},

		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}

	stream := opts.EventsStream
	if stream == "" {
		stream = "inv:events"
	}

	return &Store{
		pool:          pool,
		eventsEnabled: opts.EventsEnabled,
		eventsStream:  stream,
	}
}

// HealthCheck verifies the counter store connection is alive.
func (s *Store) HealthCheck(ctx context.Context) error {
	conn := s.pool.Get()
	defer conn.Close()

	_, err := conn.Do("PING")
	if err != nil {
		return ErrUnavailable
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

func invKey(sku string) string {
	return "inv:" + sku
}

func holdKey(cartID, sku string) string {
	return "hold:" + cartID + ":" + sku
}

const expiryIndexKey = "holds:exp"

func eventsEnabledArg(enabled bool) string {
	if enabled {
		return "1"
	}
	return "0"
}
