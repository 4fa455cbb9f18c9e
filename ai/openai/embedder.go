package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/poiesic/doxa/ai"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Embedder implements ai.Embedder using OpenAI-compatible embedding APIs.
type Embedder struct {
	embedder      embeddings.Embedder
	model         string
	maxInputChars int
	logger        *slog.Logger
}

// newEmbedder is an internal constructor that returns the concrete type.
func newEmbedder(config *ai.Config, httpClient *http.Client) (*Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}

	opts := []openai.Option{
		openai.WithBaseURL(config.EmbeddingHost),
		openai.WithToken(config.APIKey),
		openai.WithEmbeddingModel(config.EmbeddingModel),
		openai.WithHTTPClient(httpClient),
	}
	if config.SendsDimensions() {
		opts = append(opts, openai.WithEmbeddingDimensions(config.Dimensions))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, err
	}

	// Batch size 1 keeps one request per statement
	embedder, err := embeddings.NewEmbedder(client,
		embeddings.WithStripNewLines(config.StripNewLines),
		embeddings.WithBatchSize(1),
	)
	if err != nil {
		return nil, err
	}

	return &Embedder{
		embedder:      embedder,
		model:         config.EmbeddingModel,
		maxInputChars: config.MaxInputChars,
		logger:        slog.Default().With("component", "openai-embedder", "model", config.EmbeddingModel),
	}, nil
}

// NewEmbedder creates a new embedder using the provided configuration.
//
// Returns ai.Embedder interface to enforce abstraction.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	return newEmbedder(config, nil)
}

// NewEmbedderWithClient is NewEmbedder with a caller-supplied HTTP client.
func NewEmbedderWithClient(config *ai.Config, client *http.Client) (ai.Embedder, error) {
	return newEmbedder(config, client)
}

// EmbedText generates a vector embedding for a single text string.
// The text is truncated to the configured ceiling first; there is no retry.
func (e *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	input := ai.Truncate(text, e.maxInputChars)
	e.logger.Debug("generating embedding for single text", "length", len(text), "sent", len(input))

	vectors, err := e.embedder.EmbedDocuments(ctx, []string{input})
	if err != nil {
		e.logger.Error("failed to generate embedding", "err", err)
		return nil, classify(ctx, err)
	}

	if len(vectors) == 0 || len(vectors[0]) == 0 {
		e.logger.Warn("embedder returned empty result")
		return nil, &ai.ServiceError{Op: "embed", Err: ai.ErrEmptyEmbedding}
	}

	return vectors[0], nil
}

// EmbedTexts generates vector embeddings for multiple text strings.
func (e *Embedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	e.logger.Debug("generating embeddings for texts", "count", len(texts))

	inputs := make([]string, len(texts))
	for i, text := range texts {
		inputs[i] = ai.Truncate(text, e.maxInputChars)
	}

	vectors, err := e.embedder.EmbedDocuments(ctx, inputs)
	if err != nil {
		e.logger.Error("failed to generate embeddings", "count", len(texts), "err", err)
		return nil, classify(ctx, err)
	}

	if len(vectors) != len(texts) {
		return nil, &ai.ServiceError{
			Op:  "embed",
			Err: fmt.Errorf("%w: got %d vectors for %d texts", ai.ErrEmptyEmbedding, len(vectors), len(texts)),
		}
	}

	return vectors, nil
}

// classify wraps a langchaingo error in ai.ServiceError, taking the code
// from openai.MapError. Only authentication failures are fatal.
// Context cancellation is returned as-is so callers can stop the run.
func classify(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	se := &ai.ServiceError{Op: "embed", Err: err}

	var mapped *llms.Error
	if errors.As(openai.MapError(err), &mapped) {
		se.Code = string(mapped.Code)
		if mapped.Code == llms.ErrCodeAuthentication {
			se.Fatal = true
		}
	}
	if se.Fatal {
		se.Err = fmt.Errorf("%w: %w", ai.ErrUnauthorized, err)
	}

	return se
}
