package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/poiesic/doxa/core"
	"github.com/poiesic/doxa/storage"
)

const (
	defaultConnectAttempts = 5
	defaultRetryDelay      = 500 * time.Millisecond
)

// dbtx is the subset of the pool used by the store.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store implements storage.ChunkStore on PostgreSQL.
type Store struct {
	db     dbtx
	pool   *pgxpool.Pool
	closed atomic.Bool
	logger *slog.Logger
}

var _ storage.ChunkStore = (*Store)(nil)

type options struct {
	connectAttempts int
	retryDelay      time.Duration
	maxConns        int32
	logger          *slog.Logger
}

// Option configures Open.
type Option func(*options)

// WithConnectAttempts sets how many times the initial ping is tried.
func WithConnectAttempts(n int) Option {
	return func(o *options) {
		o.connectAttempts = n
	}
}

// WithRetryDelay sets the base delay between connection attempts.
func WithRetryDelay(d time.Duration) Option {
	return func(o *options) {
		o.retryDelay = d
	}
}

// WithMaxConns caps the pool size.
func WithMaxConns(n int32) Option {
	return func(o *options) {
		o.maxConns = n
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Open connects a pool to dsn and waits until the database answers.
// Every pooled connection has the pgvector types registered.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	o := &options{
		connectAttempts: defaultConnectAttempts,
		retryDelay:      defaultRetryDelay,
		logger:          slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}

	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid database url: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	if o.maxConns > 0 {
		cfg.MaxConns = o.maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	err = retryWithBackoff(ctx, func() error {
		return pool.Ping(ctx)
	}, o.connectAttempts, o.retryDelay)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}

	store := newStore(pool, o.logger)
	store.pool = pool
	store.logger.Debug("connected", "host", cfg.ConnConfig.Host, "database", cfg.ConnConfig.Database)
	return store, nil
}

func newStore(db dbtx, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		db:     db,
		logger: logger.With("component", "postgres"),
	}
}

// Close releases the pool. Further calls return storage.ErrStorageClosed.
func (s *Store) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

const insertChunkSQL = `INSERT INTO paper_chunks (
	figure_id, author, paper_title, content, embedding, chunk_index,
	position_id, domain, philosophical_engagements, source_work,
	significance, content_hash, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

// Insert writes one chunk row.
func (s *Store) Insert(ctx context.Context, chunk *core.Chunk) error {
	if s.closed.Load() {
		return storage.ErrStorageClosed
	}
	if err := core.ValidateChunk(chunk); err != nil {
		return fmt.Errorf("%w: %w", storage.ErrInvalidQuery, err)
	}
	if chunk.CreatedAt.IsZero() {
		chunk.CreatedAt = time.Now().UTC()
	}

	engagements, err := storage.MarshalEngagements(chunk.Engagements)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(ctx, insertChunkSQL,
		chunk.FigureID,
		chunk.Author,
		chunk.PaperTitle,
		chunk.Content,
		pgvector.NewVector(chunk.Embedding),
		chunk.ChunkIndex,
		chunk.PositionID,
		chunk.Domain,
		engagements,
		chunk.SourceWork,
		chunk.Significance,
		chunk.ContentHash,
		chunk.CreatedAt,
	)
	return mapError(err)
}

const maxIndexSQL = `SELECT MAX(chunk_index) FROM paper_chunks
WHERE figure_id = $1 AND ($2::text = '' OR paper_title = $2)`

// MaxIndex returns the largest chunk index within scope.
func (s *Store) MaxIndex(ctx context.Context, scope core.Scope) (int, bool, error) {
	if s.closed.Load() {
		return 0, false, storage.ErrStorageClosed
	}
	if err := core.ValidateScope(scope); err != nil {
		return 0, false, fmt.Errorf("%w: %w", storage.ErrInvalidQuery, err)
	}

	var maxIndex *int
	if err := s.db.QueryRow(ctx, maxIndexSQL, scope.FigureID, scope.PaperTitle).Scan(&maxIndex); err != nil {
		return 0, false, err
	}
	if maxIndex == nil {
		return 0, false, nil
	}
	return *maxIndex, true, nil
}

const (
	figureScopesSQL = `SELECT DISTINCT figure_id, '' FROM paper_chunks ORDER BY 1`
	paperScopesSQL  = `SELECT DISTINCT figure_id, paper_title FROM paper_chunks ORDER BY 1, 2`
)

// Scopes lists the scopes present in the table.
func (s *Store) Scopes(ctx context.Context, byPaper bool) ([]core.Scope, error) {
	if s.closed.Load() {
		return nil, storage.ErrStorageClosed
	}

	query := figureScopesSQL
	if byPaper {
		query = paperScopesSQL
	}

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scopes []core.Scope
	for rows.Next() {
		var scope core.Scope
		if err := rows.Scan(&scope.FigureID, &scope.PaperTitle); err != nil {
			return nil, err
		}
		scopes = append(scopes, scope)
	}
	return scopes, rows.Err()
}

const (
	scopeCountsSQL = `SELECT COUNT(*), COALESCE(MIN(chunk_index), 0), COALESCE(MAX(chunk_index), 0), COUNT(DISTINCT chunk_index)
FROM paper_chunks
WHERE figure_id = $1 AND ($2::text = '' OR paper_title = $2)`

	scopeDimensionsSQL = `SELECT DISTINCT vector_dims(embedding) FROM paper_chunks
WHERE figure_id = $1 AND ($2::text = '' OR paper_title = $2)
ORDER BY 1`
)

// ScopeStats summarizes the rows within scope.
func (s *Store) ScopeStats(ctx context.Context, scope core.Scope) (*core.ScopeStats, error) {
	if s.closed.Load() {
		return nil, storage.ErrStorageClosed
	}
	if err := core.ValidateScope(scope); err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrInvalidQuery, err)
	}

	stats := &core.ScopeStats{Scope: scope}
	err := s.db.QueryRow(ctx, scopeCountsSQL, scope.FigureID, scope.PaperTitle).
		Scan(&stats.Count, &stats.MinIndex, &stats.MaxIndex, &stats.DistinctIndices)
	if err != nil {
		return nil, err
	}
	if stats.Count == 0 {
		return stats, nil
	}

	rows, err := s.db.Query(ctx, scopeDimensionsSQL, scope.FigureID, scope.PaperTitle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var dim int
		if err := rows.Scan(&dim); err != nil {
			return nil, err
		}
		stats.AddDimension(dim)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}
