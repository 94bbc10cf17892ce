package database

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(&bytes.Buffer{})
	return logger
}

// exerciseStore runs the behaviour every Store backend must share.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	_, err := store.Read(ctx, "missing")
	assert.True(t, errors.Is(err, ErrKeyNotFound), "expected ErrKeyNotFound, got %v", err)

	require.NoError(t, store.Write(ctx, "history", []byte(`[1]`)))
	val, err := store.Read(ctx, "history")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[1]`), val)

	require.NoError(t, store.Write(ctx, "history", []byte(`[1,2]`)))
	val, err = store.Read(ctx, "history")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[1,2]`), val)

	// mutating the returned slice must not leak into the store
	val[0] = 'x'
	again, err := store.Read(ctx, "history")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[1,2]`), again)

	require.NoError(t, store.Delete(ctx, "history"))
	_, err = store.Read(ctx, "history")
	assert.True(t, errors.Is(err, ErrKeyNotFound))

	assert.NoError(t, store.Delete(ctx, "history"), "deleting a missing key")
}

func TestMemoryDB(t *testing.T) {
	exerciseStore(t, NewMemoryDB())
}

func TestBoltDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	store, err := NewBoltDB(path, newTestLogger())
	require.NoError(t, err)
	defer store.Close(context.Background())

	exerciseStore(t, store)
}

func TestBoltDBSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reopen.db")

	store, err := NewBoltDB(path, newTestLogger())
	require.NoError(t, err)
	require.NoError(t, store.Write(ctx, "k", []byte("v")))
	require.NoError(t, store.Close(ctx))

	store, err = NewBoltDB(path, newTestLogger())
	require.NoError(t, err)
	defer store.Close(ctx)

	val, err := store.Read(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)
}

func TestSQLiteDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sqlite")
	store, err := NewSQLiteDB(context.Background(), path, newTestLogger())
	require.NoError(t, err)
	defer store.Close(context.Background())

	exerciseStore(t, store)
}

func TestPostgresDB(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	store, err := NewPostgresDB(ctx, dsn, newTestLogger())
	require.NoError(t, err)
	defer store.Close(ctx)

	require.NoError(t, store.Delete(ctx, "history"))
	exerciseStore(t, store)
}

func TestRedisDB(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	ctx := context.Background()
	store, err := NewRedisDB(ctx, &DatabaseConfig{RedisAddr: addr})
	require.NoError(t, err)
	defer store.Close(ctx)

	require.NoError(t, store.Delete(ctx, "history"))
	exerciseStore(t, store)
}

func TestOpenMemory(t *testing.T) {
	store, err := Open(context.Background(), &DatabaseConfig{Type: "memory"}, newTestLogger())
	require.NoError(t, err)
	assert.IsType(t, &MemoryDB{}, store)
}

func TestOpenUnsupported(t *testing.T) {
	_, err := Open(context.Background(), &DatabaseConfig{Type: "mongo"}, newTestLogger())
	assert.Error(t, err)
}
