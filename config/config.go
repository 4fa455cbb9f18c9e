// Package config loads the run configuration of the doxa tools.
//
// Values come from a YAML file, then from the environment (optionally seeded
// from a .env file), then from command-line flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/poiesic/doxa/ai"
	"github.com/poiesic/doxa/corpus"
	"github.com/poiesic/doxa/ingestion"
	"gopkg.in/yaml.v3"
)

// Storage backends.
const (
	BackendPostgres = "postgres"
	BackendBadger   = "badger"
)

// Environment variables read by ApplyEnv.
const (
	EnvDatabaseURL    = "DATABASE_URL"
	EnvAPIKey         = "OPENAI_API_KEY"
	EnvBaseURL        = "OPENAI_BASE_URL"
	EnvEmbeddingModel = "EMBEDDING_MODEL"
)

// StorageConfig selects where chunks are written.
type StorageConfig struct {
	Backend     string `yaml:"backend"`
	DatabaseURL string `yaml:"database_url"`
	MaxConns    int32  `yaml:"max_conns"`
	BadgerPath  string `yaml:"badger_path"`
	// CachePath holds a Badger embedding cache. Empty disables caching.
	CachePath string `yaml:"cache_path"`
}

// EmbeddingConfig configures the embedding service.
type EmbeddingConfig struct {
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	Model         string        `yaml:"model"`
	Dimensions    int           `yaml:"dimensions"`
	MaxInputChars int           `yaml:"max_input_chars"`
	Timeout       time.Duration `yaml:"timeout"`
}

// IngestionConfig configures the pipeline.
type IngestionConfig struct {
	ScopeMode      string        `yaml:"scope_mode"`
	StartIndex     int           `yaml:"start_index"`
	EmbeddingText  string        `yaml:"embedding_text"`
	DisplayContent string        `yaml:"display_content"`
	PaceEvery      int           `yaml:"pace_every"`
	PaceDelay      time.Duration `yaml:"pace_delay"`
	// RatePerSecond replaces fixed pacing with a token bucket when set.
	RatePerSecond float64 `yaml:"rate_per_second"`
	ProgressEvery int     `yaml:"progress_every"`
	MaxPersisted  int     `yaml:"max_persisted"`
	MaxFailures   int     `yaml:"max_failures"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// AppConfig is the root configuration.
type AppConfig struct {
	Storage   StorageConfig   `yaml:"storage"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// Default returns the configuration used when no file is given.
func Default() *AppConfig {
	cfg := &AppConfig{}
	applyDefaults(cfg)
	return cfg
}

// Load reads a config from path. An empty path or a missing file yields defaults.
func Load(path string) (*AppConfig, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}

	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored; existing variables are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overrides connection settings from the environment.
// lookup is usually os.LookupEnv.
func (c *AppConfig) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvDatabaseURL); ok && v != "" {
		c.Storage.DatabaseURL = v
	}
	if v, ok := lookup(EnvAPIKey); ok && v != "" {
		c.Embedding.APIKey = v
	}
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.Embedding.BaseURL = v
	}
	if v, ok := lookup(EnvEmbeddingModel); ok && v != "" {
		c.Embedding.Model = v
	}
}

// Validate checks the values that cannot be defaulted.
func (c *AppConfig) Validate() error {
	switch c.Storage.Backend {
	case BackendPostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("config: %s is required for the postgres backend", EnvDatabaseURL)
		}
	case BackendBadger:
		if c.Storage.BadgerPath == "" {
			return errors.New("config: storage.badger_path is required for the badger backend")
		}
	default:
		return fmt.Errorf("config: unknown storage backend %q", c.Storage.Backend)
	}

	if _, err := ingestion.ParseScopeMode(c.Ingestion.ScopeMode); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, ok := corpus.EmbeddingTextBuilderByName(c.Ingestion.EmbeddingText); !ok {
		return fmt.Errorf("config: unknown embedding_text %q", c.Ingestion.EmbeddingText)
	}
	if _, ok := corpus.DisplayContentBuilderByName(c.Ingestion.DisplayContent); !ok {
		return fmt.Errorf("config: unknown display_content %q", c.Ingestion.DisplayContent)
	}
	if c.Embedding.Dimensions < 0 {
		return errors.New("config: embedding.dimensions cannot be negative")
	}
	return nil
}

// AIConfig converts the embedding section for the ai package.
func (c *AppConfig) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.Embedding.BaseURL),
		ai.WithEmbeddingModel(c.Embedding.Model),
		ai.WithAPIKey(c.Embedding.APIKey),
		ai.WithDimensions(c.Embedding.Dimensions),
		ai.WithMaxInputChars(c.Embedding.MaxInputChars),
		ai.WithTimeout(c.Embedding.Timeout),
	)
}

// PipelineOptions converts the ingestion section into pipeline options.
func (c *AppConfig) PipelineOptions() ([]ingestion.Option, error) {
	mode, err := ingestion.ParseScopeMode(c.Ingestion.ScopeMode)
	if err != nil {
		return nil, err
	}
	text, ok := corpus.EmbeddingTextBuilderByName(c.Ingestion.EmbeddingText)
	if !ok {
		return nil, fmt.Errorf("unknown embedding_text %q", c.Ingestion.EmbeddingText)
	}
	display, ok := corpus.DisplayContentBuilderByName(c.Ingestion.DisplayContent)
	if !ok {
		return nil, fmt.Errorf("unknown display_content %q", c.Ingestion.DisplayContent)
	}

	var throttle ingestion.Throttle
	if c.Ingestion.RatePerSecond > 0 {
		throttle, err = ingestion.NewRateThrottle(c.Ingestion.RatePerSecond, 1)
	} else {
		throttle, err = ingestion.NewPacingThrottle(c.Ingestion.PaceEvery, c.Ingestion.PaceDelay)
	}
	if err != nil {
		return nil, err
	}

	return []ingestion.Option{
		ingestion.WithScopeMode(mode),
		ingestion.WithStartIndex(c.Ingestion.StartIndex),
		ingestion.WithEmbeddingText(text),
		ingestion.WithDisplayContent(display),
		ingestion.WithDimensions(c.Embedding.Dimensions),
		ingestion.WithThrottle(throttle),
		ingestion.WithMaxPersisted(c.Ingestion.MaxPersisted),
		ingestion.WithMaxFailures(c.Ingestion.MaxFailures),
	}, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = BackendPostgres
	}
	if cfg.Embedding.BaseURL == "" {
		cfg.Embedding.BaseURL = ai.DefaultEmbeddingHost
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = ai.DefaultEmbeddingModel
	}
	if cfg.Embedding.MaxInputChars == 0 {
		cfg.Embedding.MaxInputChars = ai.DefaultMaxInputChars
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 30 * time.Second
	}
	if cfg.Ingestion.ScopeMode == "" {
		cfg.Ingestion.ScopeMode = ingestion.ScopeByFigure.String()
	}
	if cfg.Ingestion.PaceEvery == 0 {
		cfg.Ingestion.PaceEvery = ingestion.DefaultPacingEvery
	}
	if cfg.Ingestion.PaceDelay == 0 {
		cfg.Ingestion.PaceDelay = ingestion.DefaultPacingDelay
	}
	if cfg.Ingestion.ProgressEvery == 0 {
		cfg.Ingestion.ProgressEvery = ingestion.DefaultProgressEvery
	}
}
