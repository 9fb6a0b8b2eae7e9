// Package recommend orchestrates the recommendation pipeline: embed the
// query, retrieve nearest candidates (with constraint extraction running in
// parallel), filter, rerank, optionally score roommate pairs, aggregate and
// return the top-K ranking.
package recommend

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/roomrank/internal/domain"
	"github.com/kailas-cloud/roomrank/internal/domain/candidate"
	"github.com/kailas-cloud/roomrank/internal/domain/ranking"
	"github.com/kailas-cloud/roomrank/internal/logger"
	"github.com/kailas-cloud/roomrank/internal/metrics"
	"github.com/kailas-cloud/roomrank/internal/usecase/extract"
)

// Pipeline names, used as metric labels.
const (
	PipelineApartment = "apartment"
	PipelineRoommate  = "roommate"
)

// Service runs both recommendation pipelines.
type Service struct {
	embedder   Embedder
	retriever  Retriever
	extractor  Extractor
	reranker   Reranker
	scorer     PairScorer
	apartments Params
	roommates  Params
}

// New creates the recommendation service. scorer may be nil only if the
// roommate params disable pair scoring.
func New(embedder Embedder, retriever Retriever, extractor Extractor, reranker Reranker, scorer PairScorer, apartments, roommates Params) *Service {
	return &Service{
		embedder:   embedder,
		retriever:  retriever,
		extractor:  extractor,
		reranker:   reranker,
		scorer:     scorer,
		apartments: apartments,
		roommates:  roommates,
	}
}

// RecommendApartments ranks apartment listings against a free-text query.
func (s *Service) RecommendApartments(ctx context.Context, query string, topK int) (ranking.Ranking, error) {
	return s.run(ctx, PipelineApartment, s.apartments, query, topK)
}

// RecommendRoommates ranks roommate candidates against a free-text profile.
func (s *Service) RecommendRoommates(ctx context.Context, profile string, topK int) (ranking.Ranking, error) {
	return s.run(ctx, PipelineRoommate, s.roommates, profile, topK)
}

func (s *Service) run(ctx context.Context, pipeline string, p Params, query string, topK int) (ranking.Ranking, error) {
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}
	if topK <= 0 {
		topK = p.TopK
	}

	log := logger.FromContext(ctx)
	track := newTracker(pipeline, log)

	// Extraction has no data dependency on retrieval, only the LLM round
	// trip in common, so the two run concurrently.
	var (
		cands []candidate.Candidate
		ext   extract.Extraction
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		result, err := s.embedder.Embed(gctx, query)
		if err != nil {
			return fmt.Errorf("embed query: %w: %w", domain.ErrEmbedding, err)
		}
		track.to(stateEmbedded)

		cands, err = s.retriever.Retrieve(gctx, p.Collection, result.Embedding, p.RetrieveK)
		if err != nil {
			return err
		}
		track.to(stateRetrieved)
		return nil
	})
	g.Go(func() error {
		ext = s.extractor.Extract(gctx, p.Collection, query)
		return nil
	})
	if err := g.Wait(); err != nil {
		track.fail(err)
		metrics.PipelineRequestsTotal.WithLabelValues(pipeline, "failed").Inc()
		return ranking.Ranking{}, err
	}

	degraded := ext.Degraded
	if ext.Degraded {
		metrics.PipelineDegradedTotal.WithLabelValues(pipeline, "extract").Inc()
	}
	metrics.PipelineCandidates.WithLabelValues(pipeline, "retrieved").Observe(float64(len(cands)))

	survivors := filterCandidates(cands, ext)
	track.to(stateFiltered)
	metrics.PipelineCandidates.WithLabelValues(pipeline, "filtered").Observe(float64(len(survivors)))

	if len(survivors) == 0 {
		log.Info("no candidates survived filtering",
			zap.String("pipeline", pipeline), zap.Int("retrieved", len(cands)))
		metrics.PipelineRequestsTotal.WithLabelValues(pipeline, requestStatus(degraded)).Inc()
		return ranking.New(nil, topK, degraded), nil
	}

	survivors, rerankDegraded := s.reranker.Rerank(ctx, query, survivors)
	track.to(stateReranked)
	if rerankDegraded {
		degraded = true
		metrics.PipelineDegradedTotal.WithLabelValues(pipeline, "rerank").Inc()
	}

	if p.PairLimit > 0 {
		survivors = topByCurrentScores(survivors, p.PairLimit)
		if s.scorer.ScorePairs(ctx, query, survivors) {
			degraded = true
			metrics.PipelineDegradedTotal.WithLabelValues(pipeline, "compat").Inc()
		}
		track.to(stateScored)
	}

	if err := aggregate(survivors, p.Weights); err != nil {
		track.fail(err)
		metrics.PipelineRequestsTotal.WithLabelValues(pipeline, "failed").Inc()
		return ranking.Ranking{}, err
	}
	track.to(stateAggregated)

	result := ranking.New(survivors, topK, degraded)
	track.to(stateReturned)
	metrics.PipelineCandidates.WithLabelValues(pipeline, "returned").Observe(float64(result.Len()))
	metrics.PipelineRequestsTotal.WithLabelValues(pipeline, requestStatus(degraded)).Inc()

	return result, nil
}

// filterCandidates applies the constraint set, marking failures and
// returning the survivors. Filtering only ever excludes: adding constraints
// can never grow the result set.
func filterCandidates(cands []candidate.Candidate, ext extract.Extraction) []candidate.Candidate {
	survivors := make([]candidate.Candidate, 0, len(cands))
	for i := range cands {
		if !ext.Constraints.Matches(cands[i].Tags(), cands[i].Numerics()) {
			cands[i].FailFilters()
			continue
		}
		survivors = append(survivors, cands[i])
	}
	return survivors
}

// topByCurrentScores orders candidates by the best signal available so far
// (rerank score when present, vector score otherwise) and truncates to
// limit. Pair scoring is the most expensive stage; only the strongest
// candidates are worth an LLM round trip each.
func topByCurrentScores(cands []candidate.Candidate, limit int) []candidate.Candidate {
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := &cands[i], &cands[j]
		as, bs := a.VectorScore(), b.VectorScore()
		if a.RerankScore() != nil && b.RerankScore() != nil {
			as, bs = *a.RerankScore(), *b.RerankScore()
		}
		if as != bs {
			return as > bs
		}
		return a.ID() < b.ID()
	})
	if len(cands) > limit {
		cands = cands[:limit]
	}
	return cands
}

func requestStatus(degraded bool) string {
	if degraded {
		return "degraded"
	}
	return "ok"
}
