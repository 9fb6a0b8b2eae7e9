package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
// The implementation must match the model and version the collections were
// indexed with; this is enforced at startup by the collection manifest gate.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the
// decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// VectorConfig describes the embedding space a collection is indexed in.
type VectorConfig struct {
	Model      string
	Dimensions int
	Metric     string
}

// DefaultVectorConfig returns the configuration the ingestion jobs index
// with: MiniLM sentence embeddings, L2-normalized for cosine distance.
func DefaultVectorConfig() VectorConfig {
	return VectorConfig{
		Model:      "all-MiniLM-L6-v2",
		Dimensions: 384,
		Metric:     "cosine",
	}
}
