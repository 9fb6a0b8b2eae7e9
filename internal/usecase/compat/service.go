// Package compat scores user/candidate roommate compatibility pairwise with
// an LLM. Pairs are independent, so they run concurrently under a bounded
// limit; a pair whose call fails or times out gets the neutral score instead
// of failing the request.
package compat

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/roomrank/internal/domain"
	"github.com/kailas-cloud/roomrank/internal/domain/candidate"
	"github.com/kailas-cloud/roomrank/internal/retry"
)

// NeutralScore is attached when a pair could not be scored: it neither
// promotes nor demotes the candidate in aggregation.
const NeutralScore = 0.5

// DefaultConcurrency bounds in-flight scoring calls per request.
const DefaultConcurrency = 4

// Completer is the LLM call the scorer depends on.
type Completer interface {
	Complete(ctx context.Context, prompt, schemaHint string) (domain.CompletionResult, error)
}

// Service scores roommate pairs.
type Service struct {
	llm         Completer
	concurrency int
	attempts    int
	backoff     time.Duration
	logger      *zap.Logger
}

// New creates a compatibility scoring service.
func New(llm Completer, concurrency, attempts int, backoff time.Duration, logger *zap.Logger) *Service {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Service{llm: llm, concurrency: concurrency, attempts: attempts, backoff: backoff, logger: logger}
}

const schemaHint = `{"score": 0.0, "rationale": "string"}`

type wireScore struct {
	Score     *float64 `json:"score"`
	Rationale string   `json:"rationale"`
}

// ScorePairs attaches a compatibility score in [0,1] to every candidate,
// scoring pairs concurrently up to the configured limit. It reports whether
// any pair took the neutral fallback.
func (s *Service) ScorePairs(ctx context.Context, profile string, candidates []candidate.Candidate) bool {
	if len(candidates) == 0 {
		return false
	}

	degraded := make([]bool, len(candidates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range candidates {
		i := i
		g.Go(func() error {
			c := &candidates[i]
			score, rationale, err := s.scorePair(gctx, profile, c)
			if err != nil {
				s.logger.Warn("pair scoring failed, using neutral score",
					zap.String("candidate", c.ID()), zap.Error(err))
				c.SetCompatScore(NeutralScore, "")
				c.MarkDegraded()
				degraded[i] = true
				return nil
			}
			c.SetCompatScore(score, rationale)
			return nil
		})
	}

	_ = g.Wait() // pair errors never propagate; each goroutine handled its own

	for _, d := range degraded {
		if d {
			return true
		}
	}
	return false
}

func (s *Service) scorePair(ctx context.Context, profile string, c *candidate.Candidate) (float64, string, error) {
	prompt := buildPrompt(profile, c)

	var text string
	err := retry.Do(ctx, s.attempts, s.backoff, func(ctx context.Context) error {
		result, callErr := s.llm.Complete(ctx, prompt, schemaHint)
		if callErr != nil {
			return callErr
		}
		domain.UsageFromContext(ctx).AddLLMTokens(result.TotalTokens)
		text = result.Text
		return nil
	})
	if err != nil {
		return 0, "", err
	}

	var parsed wireScore
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return 0, "", fmt.Errorf("unmarshal pair score: %w", err)
	}
	if parsed.Score == nil {
		return 0, "", fmt.Errorf("pair score missing from response")
	}

	return clamp(*parsed.Score), parsed.Rationale, nil
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func buildPrompt(profile string, c *candidate.Candidate) string {
	var traits strings.Builder

	tags := c.Tags()
	names := make([]string, 0, len(tags))
	for n := range tags {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		traits.WriteString("- " + strings.ReplaceAll(n, "_", " ") + ": " + tags[n] + "\n")
	}
	if traits.Len() == 0 {
		traits.WriteString(c.SourceText() + "\n")
	}

	return fmt.Sprintf(`You are matching roommates. Score how compatible the candidate below is
with the user, from 0.0 (incompatible) to 1.0 (highly compatible).

Consider:
- social and personality fit,
- tolerance for spontaneity / mess if relevant,
- dog-friendliness if relevant,
- sleep and noise compatibility if described.

If the user profile does not mention a dimension (e.g. dogs), ignore that
dimension entirely; do not penalize or reward it.

User profile:
"""%s"""

Candidate:
%s`, profile, traits.String())
}
