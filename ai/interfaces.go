package ai

import "context"

// Embedder generates vector embeddings from text.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Input longer than the service ceiling is truncated first.
	// Failures are reported as *ServiceError.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorCache stores previously computed embeddings by key.
type VectorCache interface {
	// GetVector returns the cached vector for key, if present.
	GetVector(ctx context.Context, key []byte) ([]float32, bool, error)

	// PutVector stores a vector under key.
	PutVector(ctx context.Context, key []byte, vector []float32) error
}
