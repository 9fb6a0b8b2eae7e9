package domain

import "errors"

var (
	// ErrRetrieval signals that a collection is unreachable, missing, or its
	// index cannot be queried. Fatal for the request.
	ErrRetrieval = errors.New("retrieval failed")
	// ErrEmbedding signals an embedding provider failure. Fatal for the request.
	ErrEmbedding = errors.New("embedding failed")
	// ErrAggregation signals that a final ranking could not be assembled.
	ErrAggregation = errors.New("aggregation failed")
	// ErrNoMatches signals an empty result set after filtering. Surfaced as an
	// empty ranking with a reason, never as a hard failure.
	ErrNoMatches = errors.New("no matches")

	// ErrModelVersionMismatch signals that a collection was indexed with a
	// different embedding model, dimension, or metric than configured.
	ErrModelVersionMismatch = errors.New("embedding model version mismatch")
	// ErrCollectionNotFound signals a missing collection manifest.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrLLMProviderError signals a completion provider failure. Recovered
	// locally by the extractor and scorer fallbacks.
	ErrLLMProviderError = errors.New("llm provider error")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrRerankProviderError signals a rerank provider failure. Recovered by
	// falling back to vector ordering.
	ErrRerankProviderError = errors.New("rerank provider error")
	// ErrRerankIdentity signals that a reranker dropped or added candidates.
	ErrRerankIdentity = errors.New("reranker violated candidate identity")
)
