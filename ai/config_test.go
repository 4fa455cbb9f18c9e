package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "https://api.openai.com/v1", cfg.EmbeddingHost)
	assert.Equal(t, "text-embedding-ada-002", cfg.EmbeddingModel)
	assert.Equal(t, 8000, cfg.MaxInputChars)
	assert.True(t, cfg.StripNewLines)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Empty(t, cfg.APIKey)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.Equal(t, DefaultEmbeddingHost, cfg.EmbeddingHost)
		assert.Equal(t, DefaultEmbeddingModel, cfg.EmbeddingModel)
	})

	t.Run("with multiple options", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://localhost:11434"),
			WithEmbeddingModel("text-embedding-3-small"),
			WithAPIKey("sk-test"),
			WithDimensions(1536),
			WithMaxInputChars(4000),
			WithStripNewLines(false),
			WithTimeout(5*time.Second),
		)

		assert.Equal(t, "http://localhost:11434", cfg.EmbeddingHost)
		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, "sk-test", cfg.APIKey)
		assert.Equal(t, 1536, cfg.Dimensions)
		assert.Equal(t, 4000, cfg.MaxInputChars)
		assert.False(t, cfg.StripNewLines)
		assert.Equal(t, 5*time.Second, cfg.Timeout)
	})
}

func TestConfig_Normalize(t *testing.T) {
	tests := []struct {
		name string
		host string
		want string
	}{
		{"adds v1", "http://localhost:11434", "http://localhost:11434/v1"},
		{"trims trailing slash", "http://localhost:11434/", "http://localhost:11434/v1"},
		{"keeps v1", "https://api.openai.com/v1", "https://api.openai.com/v1"},
		{"empty stays empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{EmbeddingHost: tt.host, EmbeddingModel: "  m  "}
			cfg.Normalize()
			assert.Equal(t, tt.want, cfg.EmbeddingHost)
			assert.Equal(t, "m", cfg.EmbeddingModel)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return NewConfig(WithAPIKey("sk-test"))
	}

	t.Run("valid config", func(t *testing.T) {
		require.NoError(t, valid().Validate())
	})

	t.Run("missing host", func(t *testing.T) {
		cfg := valid()
		cfg.EmbeddingHost = ""
		assert.ErrorContains(t, cfg.Validate(), "EmbeddingHost is required")
	})

	t.Run("missing model", func(t *testing.T) {
		cfg := valid()
		cfg.EmbeddingModel = " "
		assert.ErrorContains(t, cfg.Validate(), "EmbeddingModel is required")
	})

	t.Run("missing api key", func(t *testing.T) {
		cfg := valid()
		cfg.APIKey = ""
		assert.ErrorContains(t, cfg.Validate(), "APIKey is required")
	})

	t.Run("negative dimensions", func(t *testing.T) {
		cfg := valid()
		cfg.Dimensions = -1
		assert.ErrorContains(t, cfg.Validate(), "Dimensions")
	})

	t.Run("normalizes before validating", func(t *testing.T) {
		cfg := valid()
		cfg.EmbeddingHost = "http://localhost:8080"
		require.NoError(t, cfg.Validate())
		assert.Equal(t, "http://localhost:8080/v1", cfg.EmbeddingHost)
	})
}

func TestConfig_SendsDimensions(t *testing.T) {
	assert.False(t, NewConfig(WithDimensions(1536)).SendsDimensions())
	assert.True(t, NewConfig(WithEmbeddingModel("text-embedding-3-large"), WithDimensions(1536)).SendsDimensions())
	assert.False(t, NewConfig(WithEmbeddingModel("text-embedding-3-large")).SendsDimensions())
}
