package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"
)

var kvBucket = []byte("KV")

// BoltDB implements the Store interface using bbolt.
type BoltDB struct {
	db     *bbolt.DB
	path   string
	logger *logrus.Logger
}

// NewBoltDB opens (or creates) the bbolt file at path.
func NewBoltDB(path string, logger *logrus.Logger) (*BoltDB, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt database: %w", err)
	}

	boltDB := &BoltDB{
		db:     db,
		path:   path,
		logger: logger,
	}

	if err := boltDB.Initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return boltDB, nil
}

// Initialize sets up the necessary buckets.
func (b *BoltDB) Initialize() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(kvBucket)
		if err != nil {
			return fmt.Errorf("create KV bucket: %v", err)
		}
		return nil
	})
}

// Read returns a copy of the value stored under key.
func (b *BoltDB) Read(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(kvBucket)
		if bucket == nil {
			return fmt.Errorf("KV bucket does not exist")
		}
		val := bucket.Get([]byte(key))
		if val == nil {
			return ErrKeyNotFound
		}
		// val is only valid for the lifetime of the transaction
		value = append([]byte(nil), val...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Write stores value under key.
func (b *BoltDB) Write(ctx context.Context, key string, value []byte) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(kvBucket)
		if bucket == nil {
			return fmt.Errorf("KV bucket does not exist")
		}
		return bucket.Put([]byte(key), value)
	})
	if err != nil {
		return fmt.Errorf("failed to write key %s to BoltDB: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (b *BoltDB) Delete(ctx context.Context, key string) error {
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(kvBucket)
		if bucket == nil {
			return fmt.Errorf("KV bucket does not exist")
		}
		return bucket.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("failed to delete key %s from BoltDB: %w", key, err)
	}
	return nil
}

// Close closes the bolt file.
func (b *BoltDB) Close(ctx context.Context) error {
	if b.logger != nil {
		b.logger.WithField("path", b.path).Debug("Closing BoltDB")
	}
	return b.db.Close()
}
