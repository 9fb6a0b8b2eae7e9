package domain

import "context"

type usageKey struct{}

// Usage collects token usage for a single recommendation request.
// The handler puts a mutable pointer into the context before calling the
// pipeline; embedder and completer decorators write into it; the handler
// reads it back for the response body.
type Usage struct {
	EmbeddingTokens int
	LLMTokens       int
}

// NewContextWithUsage returns a context with an embedded usage collector.
func NewContextWithUsage(ctx context.Context) (context.Context, *Usage) {
	u := &Usage{}
	return context.WithValue(ctx, usageKey{}, u), u
}

// UsageFromContext extracts the usage collector from context. Returns nil if
// not set; the Add methods are nil-safe so callers never need to check.
func UsageFromContext(ctx context.Context) *Usage {
	u, _ := ctx.Value(usageKey{}).(*Usage)
	return u
}

// AddEmbeddingTokens records embedding tokens consumed.
func (u *Usage) AddEmbeddingTokens(n int) {
	if u != nil {
		u.EmbeddingTokens += n
	}
}

// AddLLMTokens records completion tokens consumed.
func (u *Usage) AddLLMTokens(n int) {
	if u != nil {
		u.LLMTokens += n
	}
}
