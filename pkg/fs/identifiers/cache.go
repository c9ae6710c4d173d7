package identifiers

import (
	"context"

	"github.com/oneconcern/cairn/pkg/errors"
	"github.com/oneconcern/cairn/pkg/storage"
	"github.com/oneconcern/cairn/pkg/storage/status"
)

// Cache holds items locally, by identifier. Items are never shared with the block store.
type Cache interface {
	GetItem(ctx context.Context, id string) ([]byte, bool, error)
	SetItem(ctx context.Context, id string, value []byte) error
	RemoveItem(ctx context.Context, id string) error
}

// NewCache builds a local cache on top of a storage backend
func NewCache(store storage.Store) Cache {
	return &storeCache{store: store}
}

type storeCache struct {
	store storage.Store
}

func (c *storeCache) GetItem(ctx context.Context, id string) ([]byte, bool, error) {
	data, err := storage.ReadAll(ctx, c.store, id)
	if err != nil {
		if errors.Is(err, status.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (c *storeCache) SetItem(ctx context.Context, id string, value []byte) error {
	return storage.PutBytes(ctx, c.store, id, value, storage.OverWrite)
}

func (c *storeCache) RemoveItem(ctx context.Context, id string) error {
	err := c.store.Delete(ctx, id)
	if err != nil && !errors.Is(err, status.ErrNotFound) {
		return err
	}
	return nil
}
