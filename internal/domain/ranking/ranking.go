// Package ranking assembles the ordered result set returned to callers.
package ranking

import (
	"sort"

	"github.com/kailas-cloud/roomrank/internal/domain/candidate"
)

// ReasonNoMatches is the reason attached to an empty ranking when retrieval
// or filtering left no candidates.
const ReasonNoMatches = "no matches"

// Ranking is an ordered sequence of candidates, descending by final score,
// truncated to top-K. Ordering is total: ties break by vector score
// descending, then record ID ascending, so identical inputs always produce
// identical output.
type Ranking struct {
	results  []candidate.Candidate
	degraded bool
	reason   string
}

// New sorts candidates into a ranking and truncates to topK. Callers must
// pass only candidates that passed filtering and were fully aggregated.
func New(candidates []candidate.Candidate, topK int, degraded bool) Ranking {
	sorted := make([]candidate.Candidate, len(candidates))
	copy(sorted, candidates)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := &sorted[i], &sorted[j]
		if a.FinalScore() != b.FinalScore() {
			return a.FinalScore() > b.FinalScore()
		}
		if a.VectorScore() != b.VectorScore() {
			return a.VectorScore() > b.VectorScore()
		}
		return a.ID() < b.ID()
	})

	if topK > 0 && len(sorted) > topK {
		sorted = sorted[:topK]
	}

	r := Ranking{results: sorted, degraded: degraded}
	if len(sorted) == 0 {
		r.reason = ReasonNoMatches
	}
	return r
}

// Empty creates an empty ranking carrying an explicit reason.
func Empty(reason string) Ranking {
	return Ranking{reason: reason}
}

// Results returns the ordered candidates.
func (r Ranking) Results() []candidate.Candidate { return r.results }

// Len returns the number of results.
func (r Ranking) Len() int { return len(r.results) }

// Degraded reports whether any fallback was involved in building the ranking.
func (r Ranking) Degraded() bool { return r.degraded }

// Reason returns the explanation for an empty ranking, or "".
func (r Ranking) Reason() string { return r.reason }
