// Package dss implements the Durable Stock Store: the transactional
// database holding the authoritative (sku, total) pairs. Holds are
// never persisted here; they belong exclusively to the counter store.
package dss

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/lib/pq"

	myLogger "github.com/holdline/reservation-engine/internal/logger"
)

// ErrNotFound is returned when a SKU has no row in the inventory table.
var ErrNotFound = errors.New("dss: sku not found")

// ErrUnavailable wraps a transport-level database failure.
var ErrUnavailable = errors.New("dss: store unavailable")

// Store is the Durable Stock Store client.
type Store struct {
	db *sql.DB
}

// NewStore opens a connection pool to the durable store and verifies
// it is reachable.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(25)
	db.SetMaxOpenConns(100)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// HealthCheck verifies the durable store connection is alive.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateSchema creates the tables the engine owns. Orders and
// order_items belong to surrounding systems and are not created here.
func (s *Store) CreateSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS skus (
		id   VARCHAR(64) PRIMARY KEY,
		name VARCHAR(255) NOT NULL
	);

	CREATE TABLE IF NOT EXISTS inventory (
		sku_id VARCHAR(64) PRIMARY KEY REFERENCES skus(id),
		total  BIGINT NOT NULL CHECK (total >= 0)
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// SeedStock inserts or overwrites a SKU's authoritative total. This is
// a setup helper for demos and tests, not an engine operation.
func (s *Store) SeedStock(ctx context.Context, sku, name string, total int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO skus (id, name) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
		sku, name); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO inventory (sku_id, total) VALUES ($1, $2)
		 ON CONFLICT (sku_id) DO UPDATE SET total = EXCLUDED.total`,
		sku, total); err != nil {
		return err
	}

	return tx.Commit()
}

// GetTotal reads a SKU's current authoritative total.
func (s *Store) GetTotal(ctx context.Context, sku string) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx, "SELECT total FROM inventory WHERE sku_id = $1", sku).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, ErrUnavailable
	}
	return total, nil
}

// DecrementResult reports the outcome of a conditional decrement.
type DecrementResult struct {
	Applied  bool
	NewTotal int64
}

// DecrementTotal performs the commit protocol's durable-store step: a
// conditional decrement that only applies when enough stock remains.
// Ordering is fixed by the caller (internal/engine) to run this before
// any counter-store mutation.
func (s *Store) DecrementTotal(ctx context.Context, sku string, qty int64) (DecrementResult, error) {
	logger := myLogger.FromContext(ctx, "dss")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return DecrementResult{}, ErrUnavailable
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE inventory SET total = total - $1 WHERE sku_id = $2 AND total >= $1",
		qty, sku)
	if err != nil {
		logger.Error("dss decrement | exec failed", "sku", sku, "error", err)
		return DecrementResult{}, ErrUnavailable
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return DecrementResult{}, ErrUnavailable
	}

	if rows == 0 {
		if err := tx.Commit(); err != nil {
			return DecrementResult{}, ErrUnavailable
		}
		return DecrementResult{Applied: false}, nil
	}

	var newTotal int64
	if err := tx.QueryRowContext(ctx, "SELECT total FROM inventory WHERE sku_id = $1", sku).Scan(&newTotal); err != nil {
		return DecrementResult{}, ErrUnavailable
	}

	if err := tx.Commit(); err != nil {
		return DecrementResult{}, ErrUnavailable
	}

	logger.Debug("dss decrement | applied", "sku", sku, "qty", qty, "new_total", newTotal)
	return DecrementResult{Applied: true, NewTotal: newTotal}, nil
}
