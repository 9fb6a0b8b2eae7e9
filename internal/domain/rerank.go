package domain

import "context"

// RerankResult is one cross-encoder score; Index refers to the position in
// the submitted documents slice.
type RerankResult struct {
	Index int
	Score float64
}

// Reranker scores documents against a query with a cross-encoder model.
type Reranker interface {
	Rerank(ctx context.Context, query string, documents []string, topN int) ([]RerankResult, error)
}
