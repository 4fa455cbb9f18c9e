// Package mock provides a test double for ai.Embedder.
//
// MockEmbedder runs without any external service and returns deterministic
// vectors derived from an FNV hash of the (truncated) input text.
//
// # Usage in Tests
//
//	embedder := mock.NewMockEmbedder()
//	embedder.Dimension = 1536
//
//	// Inject a transient failure for one statement
//	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
//	    if strings.Contains(text, "B") {
//	        return nil, &ai.ServiceError{Op: "embed", Err: errors.New("timeout")}
//	    }
//	    return embedder.Vector(text), nil
//	}
//
//	// Check what was sent
//	count := embedder.CallCount()
//	inputs := embedder.Inputs()
package mock
