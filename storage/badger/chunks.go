package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/doxa/core"
	"github.com/poiesic/doxa/storage"
)

// ChunkRepository implements storage.ChunkStore for BadgerDB.
type ChunkRepository struct {
	backend *Backend
	owned   bool // Close also closes the backend
}

var _ storage.ChunkStore = (*ChunkRepository)(nil)

// NewChunkRepository creates a ChunkRepository on an open backend.
// The caller keeps ownership of the backend.
func NewChunkRepository(backend *Backend) *ChunkRepository {
	return &ChunkRepository{backend: backend}
}

// NewRepository opens a BadgerDB directory and returns a store that owns it.
func NewRepository(path string) (storage.ChunkStore, error) {
	backend, err := OpenBackend(path, false)
	if err != nil {
		return nil, err
	}
	return &ChunkRepository{backend: backend, owned: true}, nil
}

// Close releases the backend if the repository owns it.
func (r *ChunkRepository) Close() error {
	if r.owned && !r.backend.IsClosed() {
		return r.backend.Close()
	}
	return nil
}

// Insert writes a chunk together with its figure index and identity entries.
func (r *ChunkRepository) Insert(ctx context.Context, chunk *core.Chunk) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := core.ValidateChunk(chunk); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrInvalidQuery, err)
	}
	if chunk.CreatedAt.IsZero() {
		chunk.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}

	value := storage.MarshalChunk(chunk)

	return r.backend.WithTx(func(tx *badger.Txn) error {
		identityKey := makeIdentityKey(chunk.FigureID, chunk.ContentHash)
		if chunk.ContentHash != "" {
			found, err := exists(tx, identityKey)
			if err != nil {
				return err
			}
			if found {
				return storage.ErrDuplicateKey
			}
		}

		key := makeChunkKey(chunk.FigureID, chunk.PaperTitle, chunk.ChunkIndex)
		found, err := exists(tx, key)
		if err != nil {
			return err
		}
		if found {
			return fmt.Errorf("%w: %s index %d", storage.ErrIndexConflict, chunk.PaperTitle, chunk.ChunkIndex)
		}

		if err := tx.Set(key, value); err != nil {
			return err
		}
		if err := tx.Set(makeFigureIndexKey(chunk.FigureID, chunk.PaperTitle, chunk.ChunkIndex), key); err != nil {
			return err
		}
		if chunk.ContentHash != "" {
			if err := tx.Set(identityKey, key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// MaxIndex returns the largest chunk index within scope.
func (r *ChunkRepository) MaxIndex(ctx context.Context, scope core.Scope) (int, bool, error) {
	if err := core.ValidateScope(scope); err != nil {
		return 0, false, fmt.Errorf("%w: %w", storage.ErrInvalidQuery, err)
	}

	var (
		index int
		found bool
	)
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if scope.PaperTitle != "" {
			key := lastKeyWithPrefix(tx, makeChunkPaperPrefix(scope.FigureID, scope.PaperTitle))
			if key == nil {
				return nil
			}
			_, idx, err := parseChunkKey(key)
			if err != nil {
				return err
			}
			index, found = idx, true
			return nil
		}

		prefix := makeFigureIndexPrefix(scope.FigureID)
		key := lastKeyWithPrefix(tx, prefix)
		if key == nil {
			return nil
		}
		idx, err := storage.UnmarshalIndex(key[len(prefix):])
		if err != nil {
			return err
		}
		index, found = idx, true
		return nil
	}, false)

	return index, found, err
}

// Scopes lists the scopes present in the store.
func (r *ChunkRepository) Scopes(ctx context.Context, byPaper bool) ([]core.Scope, error) {
	var scopes []core.Scope

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(chunkRecordPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		var last core.Scope
		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			scope, _, err := parseChunkKey(iter.Item().Key())
			if err != nil {
				return err
			}
			if !byPaper {
				scope.PaperTitle = ""
			}
			if len(scopes) > 0 && scope == last {
				continue
			}
			scopes = append(scopes, scope)
			last = scope
		}
		return nil
	}, false)

	return scopes, err
}

// ScopeStats summarizes the chunks stored within scope.
func (r *ChunkRepository) ScopeStats(ctx context.Context, scope core.Scope) (*core.ScopeStats, error) {
	if err := core.ValidateScope(scope); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidQuery, err)
	}

	stats := &core.ScopeStats{Scope: scope}
	indices := make(map[int]struct{})

	prefix := makeChunkFigurePrefix(scope.FigureID)
	if scope.PaperTitle != "" {
		prefix = makeChunkPaperPrefix(scope.FigureID, scope.PaperTitle)
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var chunk *core.Chunk
			err := iter.Item().Value(func(val []byte) error {
				var err error
				chunk, err = storage.UnmarshalChunk(val)
				return err
			})
			if err != nil {
				return err
			}

			if stats.Count == 0 || chunk.ChunkIndex < stats.MinIndex {
				stats.MinIndex = chunk.ChunkIndex
			}
			if stats.Count == 0 || chunk.ChunkIndex > stats.MaxIndex {
				stats.MaxIndex = chunk.ChunkIndex
			}
			stats.Count++
			indices[chunk.ChunkIndex] = struct{}{}
			stats.AddDimension(len(chunk.Embedding))
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	stats.DistinctIndices = len(indices)
	return stats, nil
}

// Chunks returns every chunk within scope in key order.
func (r *ChunkRepository) Chunks(ctx context.Context, scope core.Scope) ([]*core.Chunk, error) {
	prefix := makeChunkFigurePrefix(scope.FigureID)
	if scope.PaperTitle != "" {
		prefix = makeChunkPaperPrefix(scope.FigureID, scope.PaperTitle)
	}

	var chunks []*core.Chunk
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				chunk, err := storage.UnmarshalChunk(val)
				if err != nil {
					return err
				}
				chunks = append(chunks, chunk)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)

	return chunks, err
}
