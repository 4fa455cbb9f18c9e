package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/doxa/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embeddingRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions"`
}

type fakeService struct {
	mu       sync.Mutex
	requests []embeddingRequest
	status   int
	message  string
	vector   []float32
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req embeddingRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	f.requests = append(f.requests, req)
	status, message, vector := f.status, f.message, f.vector
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if status != 0 && status != http.StatusOK {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": message, "type": "error"},
		})
		return
	}

	data := make([]map[string]any, len(req.Input))
	for i := range req.Input {
		data[i] = map[string]any{"object": "embedding", "embedding": vector, "index": i}
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"object": "list",
		"data":   data,
		"model":  req.Model,
	})
}

func (f *fakeService) lastRequest(t *testing.T) embeddingRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.requests)
	return f.requests[len(f.requests)-1]
}

func newTestEmbedder(t *testing.T, svc *fakeService, opts ...ai.ConfigOption) ai.Embedder {
	t.Helper()
	server := httptest.NewServer(svc)
	t.Cleanup(server.Close)

	base := []ai.ConfigOption{
		ai.WithEmbeddingHost(server.URL),
		ai.WithAPIKey("sk-test"),
	}
	embedder, err := NewEmbedderWithClient(ai.NewConfig(append(base, opts...)...), server.Client())
	require.NoError(t, err)
	return embedder
}

func TestEmbedder_EmbedText(t *testing.T) {
	svc := &fakeService{vector: []float32{0.25, 0.5, 0.75}}
	embedder := newTestEmbedder(t, svc)

	vector, err := embedder.EmbedText(context.Background(), "[DOMAIN: Ethics] Virtue is a mean.")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 0.5, 0.75}, vector)

	req := svc.lastRequest(t)
	assert.Equal(t, "text-embedding-ada-002", req.Model)
	assert.Equal(t, []string{"[DOMAIN: Ethics] Virtue is a mean."}, req.Input)
	assert.Zero(t, req.Dimensions)
}

func TestEmbedder_TruncatesInput(t *testing.T) {
	svc := &fakeService{vector: []float32{1}}
	embedder := newTestEmbedder(t, svc, ai.WithMaxInputChars(10))

	long := strings.Repeat("x", 25)
	_, err := embedder.EmbedText(context.Background(), long)
	require.NoError(t, err)
	first := svc.lastRequest(t)

	_, err = embedder.EmbedText(context.Background(), long)
	require.NoError(t, err)
	second := svc.lastRequest(t)

	assert.Equal(t, []string{strings.Repeat("x", 10)}, first.Input)
	assert.Equal(t, first.Input, second.Input)
}

func TestEmbedder_SendsDimensionsForV3Models(t *testing.T) {
	svc := &fakeService{vector: []float32{1, 2}}
	embedder := newTestEmbedder(t, svc,
		ai.WithEmbeddingModel("text-embedding-3-small"),
		ai.WithDimensions(2),
	)

	_, err := embedder.EmbedText(context.Background(), "text")
	require.NoError(t, err)
	assert.Equal(t, 2, svc.lastRequest(t).Dimensions)
}

func TestEmbedder_ErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		message   string
		wantFatal bool
		wantCode  string
	}{
		{"invalid key is fatal", http.StatusUnauthorized, "Incorrect API key provided", true, "authentication"},
		{"bare 401 is fatal", http.StatusUnauthorized, "unauthorized", true, "authentication"},
		{"401 without auth wording is fatal", http.StatusUnauthorized, "Missing bearer token", true, "authentication"},
		{"rate limit is transient", http.StatusTooManyRequests, "Rate limit exceeded", false, "rate_limit"},
		{"quota is transient", http.StatusTooManyRequests, "You exceeded your current quota exceeded", false, "rate_limit"},
		{"server error is transient", http.StatusServiceUnavailable, "service unavailable", false, "provider_unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{status: tt.status, message: tt.message}
			embedder := newTestEmbedder(t, svc)

			_, err := embedder.EmbedText(context.Background(), "text")
			require.Error(t, err)

			var se *ai.ServiceError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.wantFatal, se.Fatal)
			assert.Equal(t, tt.wantFatal, ai.IsFatal(err))
			assert.Equal(t, tt.wantCode, se.Code)
			if tt.wantFatal {
				assert.ErrorIs(t, err, ai.ErrUnauthorized)
			}
		})
	}
}

func TestEmbedder_CanceledContext(t *testing.T) {
	svc := &fakeService{vector: []float32{1}}
	embedder := newTestEmbedder(t, svc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := embedder.EmbedText(ctx, "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ai.IsFatal(err))
}

func TestEmbedder_EmbedTexts(t *testing.T) {
	svc := &fakeService{vector: []float32{0.1, 0.2}}
	embedder := newTestEmbedder(t, svc, ai.WithMaxInputChars(3))

	vectors, err := embedder.EmbedTexts(context.Background(), []string{"alpha", "beta"})
	require.NoError(t, err)
	assert.Len(t, vectors, 2)
}

func TestNewEmbedder_InvalidConfig(t *testing.T) {
	_, err := NewEmbedder(ai.NewConfig())
	assert.ErrorContains(t, err, "APIKey is required")
}
