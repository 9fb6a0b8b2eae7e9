// Package candidate holds the per-request candidate result. Candidates are
// created when retrieval returns and live only until the ranking is built;
// nothing here is ever persisted.
package candidate

// Candidate is one retrieved record moving through the pipeline, accumulating
// scores stage by stage.
type Candidate struct {
	id          string
	sourceText  string
	tags        map[string]string
	numerics    map[string]float64
	vectorScore float64

	rerankScore *float64
	compatScore *float64
	rationale   string

	finalScore    float64
	passedFilters bool
	degraded      bool
}

// New creates a candidate from a retrieval hit. Filters have not run yet, so
// the candidate starts as passing.
func New(id string, vectorScore float64, sourceText string, tags map[string]string, numerics map[string]float64) Candidate {
	return Candidate{
		id:            id,
		vectorScore:   vectorScore,
		sourceText:    sourceText,
		tags:          tags,
		numerics:      numerics,
		passedFilters: true,
	}
}

// ID returns the stable record identifier.
func (c *Candidate) ID() string { return c.id }

// SourceText returns the record text the embedding was built from.
func (c *Candidate) SourceText() string { return c.sourceText }

// Tags returns the string metadata fields.
func (c *Candidate) Tags() map[string]string { return c.tags }

// Numerics returns the numeric metadata fields.
func (c *Candidate) Numerics() map[string]float64 { return c.numerics }

// VectorScore returns the retrieval similarity in [0,1].
func (c *Candidate) VectorScore() float64 { return c.vectorScore }

// RerankScore returns the cross-encoder score, nil before reranking or when
// the reranker degraded.
func (c *Candidate) RerankScore() *float64 { return c.rerankScore }

// CompatScore returns the compatibility score in [0,1], nil outside the
// roommate path.
func (c *Candidate) CompatScore() *float64 { return c.compatScore }

// Rationale returns the scorer's justification text, if any.
func (c *Candidate) Rationale() string { return c.rationale }

// FinalScore returns the aggregated score. Zero until aggregation runs.
func (c *Candidate) FinalScore() float64 { return c.finalScore }

// PassedFilters reports whether the candidate satisfied every constraint.
func (c *Candidate) PassedFilters() bool { return c.passedFilters }

// Degraded reports whether a fallback produced any of this candidate's scores.
func (c *Candidate) Degraded() bool { return c.degraded }

// SetRerankScore attaches the cross-encoder score.
func (c *Candidate) SetRerankScore(s float64) { c.rerankScore = &s }

// SetCompatScore attaches a compatibility score and its rationale.
func (c *Candidate) SetCompatScore(s float64, rationale string) {
	c.compatScore = &s
	c.rationale = rationale
}

// SetFinalScore attaches the aggregated score.
func (c *Candidate) SetFinalScore(s float64) { c.finalScore = s }

// FailFilters marks the candidate as excluded by constraints.
func (c *Candidate) FailFilters() { c.passedFilters = false }

// MarkDegraded flags that a fallback was involved in scoring this candidate.
func (c *Candidate) MarkDegraded() { c.degraded = true }
