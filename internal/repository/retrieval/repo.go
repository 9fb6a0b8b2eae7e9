// Package retrieval implements the candidate retriever: a KNN query against
// one collection's vector index, parsed into domain candidates.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kailas-cloud/roomrank/internal/db"
	"github.com/kailas-cloud/roomrank/internal/domain"
	"github.com/kailas-cloud/roomrank/internal/domain/candidate"
	"github.com/kailas-cloud/roomrank/internal/domain/schema"
)

// K bounds. Retrieval below MinK starves the reranker; above MaxK the
// downstream stages stop being cost-bounded.
const (
	MinK = 5
	MaxK = 200
)

// store is the consumer interface for retrieval (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// Repo implements usecase/recommend.Retriever.
type Repo struct {
	store store
}

// New creates a retrieval repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Retrieve runs a KNN query and returns candidates ordered by similarity.
// Fewer than k results is not an error; a missing or unreachable index is,
// surfaced as domain.ErrRetrieval. k is clamped to [MinK, MaxK].
func (r *Repo) Retrieve(ctx context.Context, collection string, vector []float32, k int) ([]candidate.Candidate, error) {
	sch, ok := schema.ForCollection(collection)
	if !ok {
		return nil, fmt.Errorf("unknown collection %q: %w", collection, domain.ErrRetrieval)
	}

	if k < MinK {
		k = MinK
	}
	if k > MaxK {
		k = MaxK
	}

	returnFields := append([]string{"__content", "__vector_score"}, sch.Names()...)

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    fmt.Sprintf("%s%s:idx", domain.KeyPrefix, collection),
		Vector:       vector,
		K:            k,
		ReturnFields: returnFields,
	})
	if err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil, fmt.Errorf("collection %s has no index: %w", collection, domain.ErrRetrieval)
		}
		return nil, fmt.Errorf("search knn %s: %w: %w", collection, domain.ErrRetrieval, err)
	}

	return parseCandidates(sr, collection, sch), nil
}

func parseCandidates(sr *db.SearchResult, collection string, sch schema.Schema) []candidate.Candidate {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	prefix := fmt.Sprintf("%s%s:", domain.KeyPrefix, collection)
	out := make([]candidate.Candidate, 0, len(sr.Entries))

	for _, entry := range sr.Entries {
		id := entry.Key
		if len(id) >= len(prefix) && id[:len(prefix)] == prefix {
			id = id[len(prefix):]
		}

		var content string
		tags := make(map[string]string)
		numerics := make(map[string]float64)

		for name, value := range entry.Fields {
			if name == "__content" {
				content = value
				continue
			}
			f, known := sch.Field(name)
			if !known {
				continue // fields outside the closed schema are not evaluated
			}
			if f.Kind() == schema.Numeric {
				if v, err := strconv.ParseFloat(value, 64); err == nil {
					numerics[name] = v
				}
				continue
			}
			tags[name] = value
		}

		out = append(out, candidate.New(id, entry.Score, content, tags, numerics))
	}

	return out
}
