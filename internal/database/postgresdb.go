package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// PostgresDB implements the Store interface on a Postgres table.
type PostgresDB struct {
	pool   *pgxpool.Pool
	logger *logrus.Logger
}

// NewPostgresDB opens a small pgx pool and ensures the kv table exists.
func NewPostgresDB(ctx context.Context, connString string, logger *logrus.Logger) (*PostgresDB, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	// history is a single small row; a tiny pool is plenty
	cfg.MaxConns = 4
	cfg.MinConns = 1
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if logger == nil {
		logger = logrus.StandardLogger()
	}

	p := &PostgresDB{pool: pool, logger: logger}
	if err := p.Initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return p, nil
}

// Initialize creates the kv table if it is missing.
func (p *PostgresDB) Initialize(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS kv (
  key TEXT PRIMARY KEY,
  value BYTEA NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`
	if _, err := p.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("create kv table: %w", err)
	}
	return nil
}

// Read returns the value stored under key.
func (p *PostgresDB) Read(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := p.pool.QueryRow(ctx, `SELECT value FROM kv WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("read key %s: %w", key, err)
	}
	return value, nil
}

// Write upserts value under key.
func (p *PostgresDB) Write(ctx context.Context, key string, value []byte) error {
	const query = `
INSERT INTO kv (key, value, updated_at)
VALUES ($1, $2, now())
ON CONFLICT (key)
DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at;
`
	if _, err := p.pool.Exec(ctx, query, key, value); err != nil {
		p.logger.WithError(err).WithField("key", key).Error("Failed to write key")
		return fmt.Errorf("write key %s: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (p *PostgresDB) Delete(ctx context.Context, key string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM kv WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete key %s: %w", key, err)
	}
	return nil
}

// Close releases the pool.
func (p *PostgresDB) Close(context.Context) error {
	p.pool.Close()
	return nil
}
