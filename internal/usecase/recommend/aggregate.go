package recommend

import (
	"fmt"

	"github.com/kailas-cloud/roomrank/internal/domain"
	"github.com/kailas-cloud/roomrank/internal/domain/candidate"
)

// neutralNorm is the normalized value when a channel carries no signal
// (every candidate scored the same): it contributes equally to everyone.
const neutralNorm = 0.5

// aggregate computes final scores in place: each channel is min-max
// normalized over the candidate set, then combined by the weights.
// Channel presence is all-or-nothing by pipeline construction; weights of
// absent channels are redistributed over the present ones. Aggregation is
// a pure function of already-attached scores.
func aggregate(candidates []candidate.Candidate, w Weights) error {
	if len(candidates) == 0 {
		return nil
	}

	hasRerank := candidates[0].RerankScore() != nil
	hasCompat := candidates[0].CompatScore() != nil

	wv, wr, wc := w.Vector, w.Rerank, w.Compat
	if !hasRerank {
		wr = 0
	}
	if !hasCompat {
		wc = 0
	}
	total := wv + wr + wc
	if total <= 0 {
		return fmt.Errorf("no scoring channel has weight: %w", domain.ErrAggregation)
	}
	wv, wr, wc = wv/total, wr/total, wc/total

	vector := normalize(candidates, func(c *candidate.Candidate) float64 { return c.VectorScore() })

	var rerank, compat []float64
	if hasRerank {
		rerank = normalize(candidates, func(c *candidate.Candidate) float64 { return *c.RerankScore() })
	}
	if hasCompat {
		compat = normalize(candidates, func(c *candidate.Candidate) float64 { return *c.CompatScore() })
	}

	for i := range candidates {
		final := wv * vector[i]
		if hasRerank {
			final += wr * rerank[i]
		}
		if hasCompat {
			final += wc * compat[i]
		}
		candidates[i].SetFinalScore(final)
	}

	return nil
}

// normalize min-max scales one channel into [0,1]. A constant channel has
// no ranking signal, so everyone gets the neutral value.
func normalize(candidates []candidate.Candidate, get func(*candidate.Candidate) float64) []float64 {
	lo, hi := get(&candidates[0]), get(&candidates[0])
	for i := 1; i < len(candidates); i++ {
		v := get(&candidates[i])
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	out := make([]float64, len(candidates))
	if hi == lo {
		for i := range out {
			out[i] = neutralNorm
		}
		return out
	}
	for i := range candidates {
		out[i] = (get(&candidates[i]) - lo) / (hi - lo)
	}
	return out
}
