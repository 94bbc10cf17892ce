package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Store is a process-wide key/value persistence facility. Values are opaque
// bytes; callers own their serialization.
type Store interface {
	// Read returns the value stored under key, or ErrKeyNotFound.
	Read(ctx context.Context, key string) ([]byte, error)

	// Write stores value under key, replacing any previous value.
	Write(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Close(ctx context.Context) error
}

var ErrKeyNotFound = errors.New("key not found")

// Open initializes the Store selected by cfg.Type.
func Open(ctx context.Context, cfg *DatabaseConfig, logger *logrus.Logger) (Store, error) {
	switch cfg.Type {
	case "bolt":
		return NewBoltDB(cfg.Path, logger)
	case "sqlite":
		return NewSQLiteDB(ctx, cfg.Path, logger)
	case "redis":
		return NewRedisDB(ctx, cfg)
	case "postgres":
		return NewPostgresDB(ctx, cfg.PostgresDSN, logger)
	case "memory":
		return NewMemoryDB(), nil
	default:
		return nil, fmt.Errorf("unsupported DATABASE_TYPE: %s", cfg.Type)
	}
}
