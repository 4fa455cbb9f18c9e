package mock

import (
	"context"
	"hash/fnv"

	"github.com/poiesic/doxa/ai"
)

// DefaultDimension is the vector length produced when Dimension is unset.
const DefaultDimension = 384

// MockEmbedder is a test double for ai.Embedder.
// It allows custom behavior injection via function fields.
type MockEmbedder struct {
	// EmbedTextFunc is called by EmbedText if set.
	// If nil, uses default deterministic behavior.
	EmbedTextFunc func(ctx context.Context, text string) ([]float32, error)

	// EmbedTextsFunc is called by EmbedTexts if set.
	// If nil, uses default deterministic behavior.
	EmbedTextsFunc func(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension is the length of generated vectors.
	Dimension int

	// MaxInputChars truncates input like a real service adapter would.
	MaxInputChars int

	callCount int
	inputs    []string
}

var _ ai.Embedder = (*MockEmbedder)(nil)

// NewMockEmbedder creates a mock embedder with default deterministic behavior.
// Note: Returns concrete type to allow test assertions.
func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{Dimension: DefaultDimension}
}

// EmbedText generates a deterministic embedding based on text hash.
func (m *MockEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	m.callCount++
	text = ai.Truncate(text, m.MaxInputChars)
	m.inputs = append(m.inputs, text)

	if m.EmbedTextFunc != nil {
		return m.EmbedTextFunc(ctx, text)
	}

	return generateDeterministicVector(text, m.dimension()), nil
}

// EmbedTexts generates deterministic embeddings for multiple texts.
func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.callCount++
	truncated := make([]string, len(texts))
	for i, text := range texts {
		truncated[i] = ai.Truncate(text, m.MaxInputChars)
	}
	m.inputs = append(m.inputs, truncated...)

	if m.EmbedTextsFunc != nil {
		return m.EmbedTextsFunc(ctx, truncated)
	}

	embeddings := make([][]float32, len(truncated))
	for i, text := range truncated {
		embeddings[i] = generateDeterministicVector(text, m.dimension())
	}
	return embeddings, nil
}

// CallCount returns the number of times any method was called.
func (m *MockEmbedder) CallCount() int {
	return m.callCount
}

// Inputs returns every text received, after truncation, in call order.
func (m *MockEmbedder) Inputs() []string {
	return m.inputs
}

// Reset clears the call count, recorded inputs and injected behavior.
func (m *MockEmbedder) Reset() {
	m.callCount = 0
	m.inputs = nil
	m.EmbedTextFunc = nil
	m.EmbedTextsFunc = nil
}

// Vector returns the default vector the mock produces for text.
func (m *MockEmbedder) Vector(text string) []float32 {
	return generateDeterministicVector(text, m.dimension())
}

func (m *MockEmbedder) dimension() int {
	if m.Dimension <= 0 {
		return DefaultDimension
	}
	return m.Dimension
}

// generateDeterministicVector creates a deterministic embedding vector from text.
// It uses FNV hash to ensure the same text always produces the same vector.
func generateDeterministicVector(text string, dim int) []float32 {
	h := fnv.New32a()
	h.Write([]byte(text))
	seed := h.Sum32()

	vector := make([]float32, dim)
	for i := 0; i < dim; i++ {
		seed = seed*1664525 + 1013904223 // LCG constants
		vector[i] = float32(seed%1000) / 1000.0
	}

	var sumSquares float32
	for _, v := range vector {
		sumSquares += v * v
	}
	if sumSquares > 0 {
		norm := float32(1.0) / sumSquares
		for i := range vector {
			vector[i] *= norm
		}
	}

	return vector
}
