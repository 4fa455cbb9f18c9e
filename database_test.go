package doxa

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/poiesic/doxa/ai/mock"
	"github.com/poiesic/doxa/config"
	"github.com/poiesic/doxa/core"
	"github.com/poiesic/doxa/ingestion"
	"github.com/poiesic/doxa/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func badgerConfig(t *testing.T) *config.AppConfig {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Backend = config.BackendBadger
	cfg.Storage.BadgerPath = filepath.Join(t.TempDir(), "chunks")
	return cfg
}

func testStatements() []core.PositionStatement {
	return []core.PositionStatement{
		{Text: "Human action is purposeful behavior.", Topic: "Praxeology", SourceWork: "Human Action", Author: "Ludwig von Mises"},
		{Text: "Economic calculation requires market prices.", Topic: "Socialism", SourceWork: "Socialism", Author: "Ludwig von Mises"},
	}
}

func TestNewDatabase(t *testing.T) {
	t.Run("create new database", func(t *testing.T) {
		embedder := mock.NewMockEmbedder()
		db, err := NewDatabase(context.Background(), badgerConfig(t), WithEmbedder(embedder))
		require.NoError(t, err)
		require.NotNil(t, db)
		defer db.Close()

		assert.NotNil(t, db.Store())
		assert.Equal(t, embedder, db.Embedder())
		assert.Nil(t, db.cache)
		assert.NotNil(t, db.logger)
	})

	t.Run("error with invalid path", func(t *testing.T) {
		tmpFile := filepath.Join(t.TempDir(), "not_a_dir")
		require.NoError(t, os.WriteFile(tmpFile, []byte("test"), 0644))

		cfg := badgerConfig(t)
		cfg.Storage.BadgerPath = tmpFile
		db, err := NewDatabase(context.Background(), cfg, WithEmbedder(mock.NewMockEmbedder()))
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("error without api key", func(t *testing.T) {
		db, err := NewDatabase(context.Background(), badgerConfig(t))
		assert.ErrorContains(t, err, "APIKey is required")
		assert.Nil(t, db)
	})

	t.Run("error with unknown backend", func(t *testing.T) {
		cfg := badgerConfig(t)
		cfg.Storage.Backend = "sqlite"
		_, err := NewDatabase(context.Background(), cfg, WithEmbedder(mock.NewMockEmbedder()))
		assert.ErrorContains(t, err, "unknown storage backend")
	})
}

func TestDatabase_Close(t *testing.T) {
	cfg := badgerConfig(t)
	cfg.Storage.CachePath = filepath.Join(t.TempDir(), "cache")

	db, err := NewDatabase(context.Background(), cfg, WithEmbedder(mock.NewMockEmbedder()))
	require.NoError(t, err)
	require.NotNil(t, db.cacheBackend)

	assert.NoError(t, db.Close())
	assert.True(t, db.cacheBackend.IsClosed())
}

func TestDatabase_IngestAndAudit(t *testing.T) {
	ctx := context.Background()
	cfg := badgerConfig(t)
	cfg.Storage.CachePath = filepath.Join(t.TempDir(), "cache")

	embedder := mock.NewMockEmbedder()
	m := metrics.New()
	db, err := NewDatabase(ctx, cfg, WithEmbedder(embedder), WithMetrics(m))
	require.NoError(t, err)
	defer db.Close()

	result, err := db.Ingest(ctx, testStatements(), ingestion.WithThrottle(ingestion.NoopThrottle{}))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Persisted)
	assert.Equal(t, 2, embedder.CallCount())

	// A re-run is served from the cache and skipped by the store.
	result, err = db.Ingest(ctx, testStatements(), ingestion.WithThrottle(ingestion.NoopThrottle{}))
	require.NoError(t, err)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 2, embedder.CallCount())

	hits, misses := db.cache.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(2), misses)

	expected := `
# HELP doxa_statements_total Statements that reached a terminal state, by state.
# TYPE doxa_statements_total counter
doxa_statements_total{state="duplicate_skipped"} 2
doxa_statements_total{state="persisted"} 2
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry, strings.NewReader(expected), "doxa_statements_total"))

	report, err := db.Audit(ctx)
	require.NoError(t, err)
	assert.True(t, report.OK())
	require.Len(t, report.Scopes, 1)
	assert.Equal(t, "ludwig-von-mises", report.Scopes[0].Scope.FigureID)
	assert.Equal(t, 2, report.Scopes[0].Count)
}

func TestDatabase_PipelineUsesConfig(t *testing.T) {
	ctx := context.Background()
	cfg := badgerConfig(t)
	cfg.Ingestion.ScopeMode = "paper"
	cfg.Ingestion.StartIndex = 1
	cfg.Ingestion.MaxPersisted = 1

	db, err := NewDatabase(ctx, cfg, WithEmbedder(mock.NewMockEmbedder()))
	require.NoError(t, err)
	defer db.Close()

	result, err := db.Ingest(ctx, testStatements())
	require.NoError(t, err)
	assert.True(t, result.Limited)
	assert.Equal(t, 1, result.Persisted)

	maxIndex, found, err := db.Store().MaxIndex(ctx, core.Scope{FigureID: "ludwig-von-mises", PaperTitle: "Human Action"})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 1, maxIndex)

	cfg.Ingestion.ScopeMode = "chapter"
	_, err = db.NewIngestionPipeline()
	assert.Error(t, err)
}

func TestDatabase_CacheSeparatesInputCeilings(t *testing.T) {
	ctx := context.Background()
	cachePath := filepath.Join(t.TempDir(), "cache")
	embedder := mock.NewMockEmbedder()

	ingest := func(maxInputChars int) (hits, misses int64) {
		t.Helper()
		cfg := badgerConfig(t)
		cfg.Storage.CachePath = cachePath
		cfg.Embedding.MaxInputChars = maxInputChars

		db, err := NewDatabase(ctx, cfg, WithEmbedder(embedder))
		require.NoError(t, err)
		defer db.Close()

		_, err = db.Ingest(ctx, testStatements(), ingestion.WithThrottle(ingestion.NoopThrottle{}))
		require.NoError(t, err)
		return db.cache.Stats()
	}

	_, misses := ingest(8000)
	assert.Equal(t, int64(2), misses)

	// Same ceiling, fresh store: every vector comes from the cache.
	hits, _ := ingest(8000)
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, 2, embedder.CallCount())

	// A different ceiling truncates differently and must not reuse them.
	hits, misses = ingest(10)
	assert.Zero(t, hits)
	assert.Equal(t, int64(2), misses)
	assert.Equal(t, 4, embedder.CallCount())
}
