// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package doxa ingests curated position statements into a retrieval corpus.
//
// Database wires a chunk store, an embedding service and an optional
// embedding cache from one configuration:
//
//	cfg, _ := config.Load("doxa.yaml")
//	cfg.ApplyEnv(os.LookupEnv)
//	db, err := doxa.NewDatabase(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	result, err := db.Ingest(ctx, statements)
package doxa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/doxa/ai"
	"github.com/poiesic/doxa/ai/openai"
	"github.com/poiesic/doxa/audit"
	"github.com/poiesic/doxa/config"
	"github.com/poiesic/doxa/core"
	"github.com/poiesic/doxa/ingestion"
	"github.com/poiesic/doxa/metrics"
	"github.com/poiesic/doxa/storage"
	"github.com/poiesic/doxa/storage/badger"
	"github.com/poiesic/doxa/storage/postgres"
)

type Database struct {
	config       *config.AppConfig
	store        storage.ChunkStore
	embedder     ai.Embedder
	cache        *ai.CachingEmbedder
	cacheBackend *badger.Backend
	metrics      *metrics.Metrics
	logger       *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	store    storage.ChunkStore
	embedder ai.Embedder
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// WithStore uses store instead of opening the configured backend.
// The Database takes ownership and closes it.
func WithStore(store storage.ChunkStore) DatabaseOption {
	return func(o *databaseOptions) {
		o.store = store
	}
}

// WithEmbedder uses embedder instead of the configured service.
func WithEmbedder(embedder ai.Embedder) DatabaseOption {
	return func(o *databaseOptions) {
		o.embedder = embedder
	}
}

// WithMetrics reports pipeline outcomes to m.
func WithMetrics(m *metrics.Metrics) DatabaseOption {
	return func(o *databaseOptions) {
		o.metrics = m
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		o.logger = logger
	}
}

func NewDatabase(ctx context.Context, cfg *config.AppConfig, opts ...DatabaseOption) (*Database, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	options := &databaseOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	db := &Database{
		config:  cfg,
		metrics: options.metrics,
		logger:  options.logger.With("component", "database"),
	}

	// Open store
	store := options.store
	if store == nil {
		var err error
		store, err = OpenStore(ctx, cfg, options.logger)
		if err != nil {
			return nil, err
		}
	}
	db.store = store

	// Create embedder
	embedder := options.embedder
	if embedder == nil {
		var err error
		embedder, err = openai.NewEmbedder(cfg.AIConfig())
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	// Wrap with the embedding cache
	if cfg.Storage.CachePath != "" {
		backend, err := badger.OpenBackend(cfg.Storage.CachePath, false)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to open embedding cache: %w", err)
		}
		db.cache = ai.NewCachingEmbedder(embedder, badger.NewEmbeddingCache(backend), cacheNamespace(cfg))
		db.cacheBackend = backend
		embedder = db.cache
	}
	db.embedder = embedder

	return db, nil
}

// OpenStore opens the chunk store selected by cfg.
func OpenStore(ctx context.Context, cfg *config.AppConfig, logger *slog.Logger) (storage.ChunkStore, error) {
	switch cfg.Storage.Backend {
	case config.BackendPostgres:
		return postgres.Open(ctx, cfg.Storage.DatabaseURL,
			postgres.WithMaxConns(cfg.Storage.MaxConns),
			postgres.WithLogger(logger))
	case config.BackendBadger:
		return badger.NewRepository(cfg.Storage.BadgerPath)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func (db *Database) Close() error {
	var errs []error

	if db.cache != nil {
		hits, misses := db.cache.Stats()
		db.logger.Debug("embedding cache", "hits", hits, "misses", misses)
	}
	if db.cacheBackend != nil {
		if err := db.cacheBackend.Close(); err != nil {
			db.logger.Error("error closing embedding cache", "err", err)
			errs = append(errs, err)
		}
	}
	if err := db.store.Close(); err != nil {
		db.logger.Error("error closing chunk store", "err", err)
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (db *Database) Store() storage.ChunkStore {
	return db.store
}

func (db *Database) Embedder() ai.Embedder {
	return db.embedder
}

// NewIngestionPipeline builds a pipeline from the configuration. opts are
// applied last and override configured values.
func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	configured, err := db.config.PipelineOptions()
	if err != nil {
		return nil, err
	}

	all := append(configured, ingestion.WithLogger(db.logger))
	if db.metrics != nil {
		all = append(all, ingestion.WithRecorder(db.metrics))
	}
	all = append(all, opts...)

	return ingestion.NewPipeline(db.store, db.embedder, all...)
}

// Ingest runs statements through a new pipeline.
func (db *Database) Ingest(ctx context.Context, statements []core.PositionStatement, opts ...ingestion.Option) (*core.Result, error) {
	pipeline, err := db.NewIngestionPipeline(opts...)
	if err != nil {
		return nil, err
	}
	return pipeline.Run(ctx, statements)
}

// Audit verifies every scope of the store against the configuration.
func (db *Database) Audit(ctx context.Context, opts ...audit.Option) (*audit.Report, error) {
	configured := []audit.Option{
		audit.WithByPaper(db.config.Ingestion.ScopeMode == ingestion.ScopeByPaper.String()),
		audit.WithDimensions(db.config.Embedding.Dimensions),
		audit.WithLogger(db.logger),
	}

	auditor, err := audit.NewAuditor(db.store, append(configured, opts...)...)
	if err != nil {
		return nil, err
	}
	defer auditor.Release()

	return auditor.Run(ctx)
}

// cacheNamespace separates cached vectors by everything that changes what
// the service is sent or returns. Cache keys hash the untruncated text.
func cacheNamespace(cfg *config.AppConfig) string {
	return fmt.Sprintf("%s:%d:%d", cfg.Embedding.Model, cfg.Embedding.Dimensions, cfg.Embedding.MaxInputChars)
}
