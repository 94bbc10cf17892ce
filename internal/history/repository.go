package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/y0ug/scanvault/internal/database"
	"github.com/y0ug/scanvault/internal/models"
)

// DefaultKey is the Store key that holds the persisted history.
const DefaultKey = "scanHistory"

// Repository is the single owner of the persisted history.
type Repository interface {
	// Load returns the stored elements still encoded, so that the cache can
	// normalize each one. An absent history is (nil, nil).
	Load(ctx context.Context) ([]json.RawMessage, error)

	// Save replaces the stored history.
	Save(ctx context.Context, results []models.ScanResult) error

	// Clear removes the stored history entirely.
	Clear(ctx context.Context) error
}

// StoreRepository keeps the history as one JSON array under a Store key.
type StoreRepository struct {
	Store database.Store
	Key   string
}

// NewStoreRepository returns a repository on store using DefaultKey.
func NewStoreRepository(store database.Store) *StoreRepository {
	return &StoreRepository{Store: store, Key: DefaultKey}
}

func (r *StoreRepository) Load(ctx context.Context) ([]json.RawMessage, error) {
	data, err := r.Store.Read(ctx, r.Key)
	if err != nil {
		if errors.Is(err, database.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	return elems, nil
}

func (r *StoreRepository) Save(ctx context.Context, results []models.ScanResult) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := r.Store.Write(ctx, r.Key, data); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

func (r *StoreRepository) Clear(ctx context.Context) error {
	if err := r.Store.Delete(ctx, r.Key); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}
