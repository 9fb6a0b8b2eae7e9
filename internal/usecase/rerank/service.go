// Package rerank orchestrates cross-encoder reranking of filtered
// candidates. The reranker reorders, it never adds or removes: a response
// that does not cover exactly the submitted candidates is rejected and the
// pipeline falls back to vector order.
package rerank

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/roomrank/internal/domain"
	"github.com/kailas-cloud/roomrank/internal/domain/candidate"
)

// DefaultLimit caps how many candidates are submitted to the cross-encoder.
const DefaultLimit = 50

// Service submits candidates to the rerank API and attaches the scores.
type Service struct {
	api    domain.Reranker
	limit  int
	logger *zap.Logger
}

// New creates a rerank service. limit <= 0 falls back to DefaultLimit.
// A nil api disables reranking: candidates pass through in vector order
// without the degraded flag, and the rerank channel drops out of
// aggregation.
func New(api domain.Reranker, limit int, logger *zap.Logger) *Service {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Service{api: api, limit: limit, logger: logger}
}

// Rerank scores up to limit candidates against the query and attaches the
// scores in place. It returns the (possibly truncated) candidate slice and
// whether the fallback was taken. On any provider or identity failure the
// candidates keep their vector order with no rerank scores and the second
// return is true; reranking is never worth failing the request over.
func (s *Service) Rerank(ctx context.Context, query string, candidates []candidate.Candidate) ([]candidate.Candidate, bool) {
	if len(candidates) == 0 {
		return candidates, false
	}
	if len(candidates) > s.limit {
		candidates = candidates[:s.limit]
	}
	if s.api == nil {
		return candidates, false
	}

	documents := make([]string, len(candidates))
	for i := range candidates {
		documents[i] = candidates[i].SourceText()
	}

	results, err := s.api.Rerank(ctx, query, documents, len(documents))
	if err != nil {
		s.logger.Warn("rerank failed, keeping vector order", zap.Error(err))
		return candidates, true
	}

	if err := validateIdentity(results, len(candidates)); err != nil {
		s.logger.Warn("rerank response rejected, keeping vector order", zap.Error(err))
		return candidates, true
	}

	for _, r := range results {
		candidates[r.Index].SetRerankScore(r.Score)
	}

	return candidates, false
}

// validateIdentity checks the response covers each submitted candidate
// exactly once. Indexes out of range are caught at the transport; missing
// or duplicated ones are caught here.
func validateIdentity(results []domain.RerankResult, n int) error {
	if len(results) != n {
		return fmt.Errorf("rerank returned %d scores for %d candidates: %w",
			len(results), n, domain.ErrRerankIdentity)
	}

	seen := make([]bool, n)
	for _, r := range results {
		if r.Index < 0 || r.Index >= n {
			return fmt.Errorf("rerank index %d out of range: %w", r.Index, domain.ErrRerankIdentity)
		}
		if seen[r.Index] {
			return fmt.Errorf("rerank index %d duplicated: %w", r.Index, domain.ErrRerankIdentity)
		}
		seen[r.Index] = true
	}
	return nil
}
