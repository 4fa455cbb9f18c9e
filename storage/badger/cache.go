package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/doxa/ai"
	"github.com/poiesic/doxa/storage"
)

// EmbeddingCache stores embedding vectors keyed by ai.CacheKey.
type EmbeddingCache struct {
	backend *Backend
}

var _ ai.VectorCache = (*EmbeddingCache)(nil)

// NewEmbeddingCache creates an EmbeddingCache on an open backend.
func NewEmbeddingCache(backend *Backend) *EmbeddingCache {
	return &EmbeddingCache{backend: backend}
}

// GetVector returns the cached vector for key, if any.
func (c *EmbeddingCache) GetVector(ctx context.Context, key []byte) ([]float32, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	var vector []float32
	err := c.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeEmbeddingKey(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			vector, err = storage.UnmarshalVector(val)
			return err
		})
	}, false)

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return vector, true, nil
}

// PutVector caches vector under key.
func (c *EmbeddingCache) PutVector(ctx context.Context, key []byte, vector []float32) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return c.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeEmbeddingKey(key), storage.MarshalVector(vector)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}
