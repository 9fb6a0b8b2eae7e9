// Package extract turns a free-text query into a structured constraint set
// via an LLM call with a fixed response schema. Extraction is best-effort:
// any failure degrades to an empty (permissive) set so the request continues
// retrieval-only instead of blocking the user.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/roomrank/internal/domain"
	"github.com/kailas-cloud/roomrank/internal/domain/constraint"
	"github.com/kailas-cloud/roomrank/internal/domain/schema"
	"github.com/kailas-cloud/roomrank/internal/retry"
)

// Completer is the LLM call the extractor depends on.
type Completer interface {
	Complete(ctx context.Context, prompt, schemaHint string) (domain.CompletionResult, error)
}

// Extraction is the outcome of one extraction attempt. Degraded means the
// fallback (empty set) was taken and the final ranking must say so.
type Extraction struct {
	Constraints constraint.Set
	Degraded    bool
}

// Service extracts structured filters from raw query text.
type Service struct {
	llm      Completer
	attempts int
	backoff  time.Duration
	logger   *zap.Logger
}

// New creates an extraction service. attempts and backoff bound the retry
// loop around the LLM call.
func New(llm Completer, attempts int, backoff time.Duration, logger *zap.Logger) *Service {
	return &Service{llm: llm, attempts: attempts, backoff: backoff, logger: logger}
}

const schemaHint = `{"constraints": [{"field": "string", "eq": "string (optional)", "one_of": ["string"] , "gte": 0.0, "lte": 0.0}], "roommates": 0, "budget": 0.0}`

type wireConstraint struct {
	Field string   `json:"field"`
	Eq    string   `json:"eq,omitempty"`
	OneOf []string `json:"one_of,omitempty"`
	Gte   *float64 `json:"gte,omitempty"`
	Lte   *float64 `json:"lte,omitempty"`
}

type wireExtraction struct {
	Constraints []wireConstraint `json:"constraints"`
	Roommates   *int             `json:"roommates"`
	Budget      *float64         `json:"budget"`
}

// Extract parses rawText into constraints over the collection's declared
// fields. It never returns an error: malformed or unreachable LLM output
// yields the permissive empty set with Degraded set.
func (s *Service) Extract(ctx context.Context, collectionName, rawText string) Extraction {
	sch, ok := schema.ForCollection(collectionName)
	if !ok {
		s.logger.Warn("extraction skipped: unknown collection", zap.String("collection", collectionName))
		return Extraction{Constraints: constraint.Empty(), Degraded: true}
	}

	prompt := buildPrompt(sch, rawText)

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
		s.logger.Warn("extraction failed, falling back to empty constraint set",
			zap.String("collection", collectionName), zap.Error(err))
		return Extraction{Constraints: constraint.Empty(), Degraded: true}
	}

	parsed, err := parseExtraction(text)
	if err != nil {
		s.logger.Warn("extraction output unparseable, falling back to empty constraint set",
			zap.String("collection", collectionName), zap.Error(err))
		return Extraction{Constraints: constraint.Empty(), Degraded: true}
	}

	constraints := s.buildConstraints(parsed)

	set, err := constraint.NewSet(constraints)
	if err != nil {
		s.logger.Warn("extraction produced an invalid constraint set, falling back",
			zap.String("collection", collectionName), zap.Error(err))
		return Extraction{Constraints: constraint.Empty(), Degraded: true}
	}

	normalized, dropped := set.Normalize(sch)
	if len(dropped) > 0 {
		s.logger.Warn("dropped constraints on undeclared fields",
			zap.String("collection", collectionName), zap.Strings("fields", dropped))
	}

	return Extraction{Constraints: normalized}
}

// buildConstraints converts wire entries into domain constraints, skipping
// malformed ones, and derives the effective-budget price bound.
func (s *Service) buildConstraints(parsed wireExtraction) []constraint.Constraint {
	constraints := make([]constraint.Constraint, 0, len(parsed.Constraints)+1)

	for _, w := range parsed.Constraints {
		c, err := buildConstraint(w)
		if err != nil {
			s.logger.Warn("skipping malformed constraint", zap.String("field", w.Field), zap.Error(err))
			continue
		}
		constraints = append(constraints, c)
	}

	// The stated budget is per person; the whole group rents the place, so
	// the listing price bound is budget * (roommates + 1).
	if parsed.Budget != nil && *parsed.Budget > 0 && parsed.Roommates != nil && *parsed.Roommates > 0 {
		effective := *parsed.Budget * float64(*parsed.Roommates+1)
		if c, err := constraint.NewRange("price", nil, &effective); err == nil {
			constraints = append(constraints, c)
		}
	}

	return constraints
}

func buildConstraint(w wireConstraint) (constraint.Constraint, error) {
	switch {
	case w.Gte != nil || w.Lte != nil:
		return constraint.NewRange(w.Field, w.Gte, w.Lte)
	case len(w.OneOf) > 0:
		return constraint.NewOneOf(w.Field, w.OneOf)
	default:
		return constraint.NewEq(w.Field, w.Eq)
	}
}

func parseExtraction(text string) (wireExtraction, error) {
	var parsed wireExtraction
	if err := json.Unmarshal([]byte(sanitizeJSON(text)), &parsed); err != nil {
		return wireExtraction{}, fmt.Errorf("unmarshal extraction: %w", err)
	}
	return parsed, nil
}

func buildPrompt(sch schema.Schema, rawText string) string {
	names := sch.Names()
	sort.Strings(names)

	var fields strings.Builder
	for _, n := range names {
		f, _ := sch.Field(n)
		switch f.Kind() {
		case schema.Numeric:
			fields.WriteString("- " + n + " (number: use gte/lte)\n")
		case schema.Flag:
			fields.WriteString("- " + n + ` (boolean: use eq with "true" or "false")` + "\n")
		default:
			fields.WriteString("- " + n + " (text: use eq, or one_of for several accepted values)\n")
		}
	}

	return fmt.Sprintf(`You are given a user request. Extract the explicit, hard requirements as
structured constraints.

Valid fields:
%s
Rules:
- Only include constraints that appear explicitly in the request.
- Do NOT invent constraints and do NOT include soft wishes (like "quiet"
  or "nice views") as constraints.
- If the user names multiple accepted values for one field (e.g. several
  neighborhoods), use one_of with all of them.
- roommates: the number of roommates, not counting the user. Omit if not
  stated.
- budget: the monthly budget per person. Omit if not stated.

User request:
"""%s"""`, fields.String(), rawText)
}
