// Package rerank implements the cross-encoder rerank API client.
// The wire format follows the common /v1/rerank convention served by
// SiliconFlow, Jina, Cohere-compatible gateways and local TEI instances.
package rerank

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/roomrank/internal/domain"
	"github.com/kailas-cloud/roomrank/internal/metrics"
)

// Config holds the rerank provider settings.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	Logger  *zap.Logger
}

// Client calls the rerank API over HTTP.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *zap.Logger
}

// NewClient creates a rerank API client.
func NewClient(cfg *Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		logger:  cfg.Logger,
	}
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResponse struct {
	Results []struct {
		Index int     `json:"index"`
		Score float64 `json:"relevance_score"`
	} `json:"results"`
}

// Rerank scores documents against the query. Results come back in the
// provider's order; callers decide how to merge the scores. topN <= 0
// requests scores for every document.
func (c *Client) Rerank(ctx context.Context, query string, documents []string, topN int) ([]domain.RerankResult, error) {
	if len(documents) == 0 {
		return nil, nil
	}
	if topN <= 0 || topN > len(documents) {
		topN = len(documents)
	}

	body, err := json.Marshal(rerankRequest{
		Model:     c.model,
		Query:     query,
		Documents: documents,
		TopN:      topN,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rerank request: %w", err)
	}

	url := c.baseURL
	if strings.HasSuffix(url, "/v1") {
		url += "/rerank"
	} else {
		url += "/v1/rerank"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build rerank request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RerankRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return nil, fmt.Errorf("rerank request: %w: %w", err, domain.ErrRerankProviderError)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		metrics.RerankRequestsTotal.WithLabelValues(c.model, "error").Inc()
		detail, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if readErr != nil || len(detail) == 0 {
			return nil, fmt.Errorf("rerank API status %d: %w", resp.StatusCode, domain.ErrRerankProviderError)
		}
		return nil, fmt.Errorf("rerank API status %d: %s: %w", resp.StatusCode, string(detail), domain.ErrRerankProviderError)
	}

	var parsed rerankResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		metrics.RerankRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return nil, fmt.Errorf("decode rerank response: %w: %w", err, domain.ErrRerankProviderError)
	}

	results := make([]domain.RerankResult, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.Index < 0 || r.Index >= len(documents) {
			metrics.RerankRequestsTotal.WithLabelValues(c.model, "error").Inc()
			return nil, fmt.Errorf("rerank result index %d out of range: %w", r.Index, domain.ErrRerankProviderError)
		}
		results = append(results, domain.RerankResult{Index: r.Index, Score: r.Score})
	}

	metrics.RerankRequestsTotal.WithLabelValues(c.model, "success").Inc()

	return results, nil
}
