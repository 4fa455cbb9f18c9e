package storage

import (
	"context"

	"github.com/poiesic/doxa/core"
)

// ChunkRepository is the persistence contract the ingestion pipeline consumes.
// Implementations must be thread-safe and support concurrent access.
type ChunkRepository interface {
	// Insert writes one chunk.
	// Returns ErrDuplicateKey if a chunk with the same identity (figure and
	// content hash) is already stored, ErrIndexConflict if the chunk's index
	// is already taken in its (figure, paper) scope, or another error.
	Insert(ctx context.Context, chunk *core.Chunk) error

	// MaxIndex returns the largest chunk index stored within scope.
	// The boolean is false when the scope holds no chunks.
	// An empty scope.PaperTitle covers every paper of the figure.
	MaxIndex(ctx context.Context, scope core.Scope) (int, bool, error)

	// Close releases resources held by the repository.
	Close() error
}

// ChunkAuditor provides read-only statistics used to verify a corpus after ingestion.
type ChunkAuditor interface {
	// Scopes lists every scope present in the store, ordered by figure then paper.
	// With byPaper false, one figure-wide scope is returned per figure.
	Scopes(ctx context.Context, byPaper bool) ([]core.Scope, error)

	// ScopeStats summarizes the chunks stored within scope.
	ScopeStats(ctx context.Context, scope core.Scope) (*core.ScopeStats, error)
}

// ChunkStore is implemented by every backend.
type ChunkStore interface {
	ChunkRepository
	ChunkAuditor
}
