// Package collection reads the per-collection manifests that the ingestion
// jobs write next to each index. The pipeline never creates or mutates
// collections; it only verifies at startup that a collection's embedding
// space matches the configured embedder.
package collection

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/roomrank/internal/domain"
)

// store is the consumer interface for manifest reads (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
}

// Manifest describes the embedding space a collection was indexed in.
type Manifest struct {
	name       string
	model      string
	dimensions int
	metric     string
}

// Name returns the collection name.
func (m Manifest) Name() string { return m.name }

// Model returns the embedding model the collection was indexed with.
func (m Manifest) Model() string { return m.model }

// Dimensions returns the embedding dimension.
func (m Manifest) Dimensions() int { return m.dimensions }

// Metric returns the similarity metric the index was built with.
func (m Manifest) Metric() string { return m.metric }

// CheckCompatible verifies the manifest against the configured embedder.
// Any mismatch is a configuration error: querying a collection with a
// different model, dimension, or metric silently produces garbage rankings,
// so this must fail fast at startup.
func (m Manifest) CheckCompatible(cfg domain.VectorConfig) error {
	if !strings.EqualFold(m.model, cfg.Model) {
		return fmt.Errorf("collection %s indexed with model %q, embedder configured with %q: %w",
			m.name, m.model, cfg.Model, domain.ErrModelVersionMismatch)
	}
	if m.dimensions != cfg.Dimensions {
		return fmt.Errorf("collection %s indexed with %d dimensions, embedder configured with %d: %w",
			m.name, m.dimensions, cfg.Dimensions, domain.ErrModelVersionMismatch)
	}
	if !strings.EqualFold(m.metric, cfg.Metric) {
		return fmt.Errorf("collection %s indexed with metric %q, embedder configured with %q: %w",
			m.name, m.metric, cfg.Metric, domain.ErrModelVersionMismatch)
	}
	return nil
}

// Repo implements manifest reads over the store.
type Repo struct {
	store store
}

// New creates a collection repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Get loads a collection manifest. A missing or empty manifest hash means
// the collection was never ingested.
func (r *Repo) Get(ctx context.Context, name string) (Manifest, error) {
	key := domain.KeyPrefix + "collections:" + name

	fields, err := r.store.HGetAll(ctx, key)
	if err != nil {
		return Manifest{}, fmt.Errorf("get manifest %s: %w", name, err)
	}
	if len(fields) == 0 {
		return Manifest{}, fmt.Errorf("collection %s: %w", name, domain.ErrCollectionNotFound)
	}

	m := Manifest{
		name:   name,
		model:  fields["model"],
		metric: fields["metric"],
	}
	if dimStr := fields["dimensions"]; dimStr != "" {
		dim, err := strconv.Atoi(dimStr)
		if err != nil {
			return Manifest{}, fmt.Errorf("collection %s: bad dimensions %q", name, dimStr)
		}
		m.dimensions = dim
	}
	return m, nil
}
