package recommend

import (
	"context"
	"time"

	"github.com/kailas-cloud/roomrank/internal/domain"
	"github.com/kailas-cloud/roomrank/internal/domain/candidate"
	"github.com/kailas-cloud/roomrank/internal/usecase/extract"
)

// Embedder produces the query vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Retriever returns nearest candidates from one collection, ordered by
// similarity descending.
type Retriever interface {
	Retrieve(ctx context.Context, collection string, vector []float32, k int) ([]candidate.Candidate, error)
}

// Extractor parses free text into structured constraints, best effort.
type Extractor interface {
	Extract(ctx context.Context, collection, rawText string) extract.Extraction
}

// Reranker attaches cross-encoder scores in place, best effort. The bool
// reports whether the vector-order fallback was taken.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []candidate.Candidate) ([]candidate.Candidate, bool)
}

// PairScorer attaches compatibility scores in place, best effort. The bool
// reports whether any pair took the neutral fallback.
type PairScorer interface {
	ScorePairs(ctx context.Context, profile string, candidates []candidate.Candidate) bool
}

// Weights are the aggregation channel weights. They are renormalized over
// the channels actually present, so they need not sum to 1 exactly.
type Weights struct {
	Vector float64
	Rerank float64
	Compat float64
}

// Params configures one recommendation pipeline.
type Params struct {
	Collection string
	RetrieveK  int
	PairLimit  int // 0 disables pair scoring (apartment path)
	TopK       int
	Timeout    time.Duration
	Weights    Weights
}
