package rerank

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/roomrank/internal/domain"
)

func newTestClient(baseURL string) *Client {
	return NewClient(&Config{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Model:   "test-reranker",
		Logger:  zap.NewNop(),
	})
}

func TestRerank_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/rerank" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header: %q", got)
		}

		var req rerankRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "test-reranker" || req.Query != "quiet room" {
			t.Errorf("unexpected request: %+v", req)
		}
		if len(req.Documents) != 3 || req.TopN != 3 {
			t.Errorf("documents/top_n = %d/%d, expected 3/3", len(req.Documents), req.TopN)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": [
			{"index": 2, "relevance_score": 0.91},
			{"index": 0, "relevance_score": 0.40},
			{"index": 1, "relevance_score": 0.12}
		]}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	results, err := c.Rerank(context.Background(), "quiet room", []string{"a", "b", "c"}, 0)
	if err != nil {
		t.Fatalf("Rerank failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].Index != 2 || results[0].Score != 0.91 {
		t.Errorf("results[0] = %+v, expected index 2 score 0.91", results[0])
	}
}

func TestRerank_EmptyDocuments(t *testing.T) {
	c := newTestClient("http://unused")

	results, err := c.Rerank(context.Background(), "query", nil, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results != nil {
		t.Errorf("expected nil results for empty input, got %v", results)
	}
}

func TestRerank_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream unavailable"))
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	_, err := c.Rerank(context.Background(), "query", []string{"a"}, 1)
	if err == nil {
		t.Fatal("expected error for 502 response")
	}
	if !errors.Is(err, domain.ErrRerankProviderError) {
		t.Errorf("expected ErrRerankProviderError, got %v", err)
	}
}

func TestRerank_IndexOutOfRange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": [{"index": 5, "relevance_score": 0.5}]}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL)

	_, err := c.Rerank(context.Background(), "query", []string{"a", "b"}, 2)
	if err == nil {
		t.Fatal("expected error for out-of-range index")
	}
	if !errors.Is(err, domain.ErrRerankProviderError) {
		t.Errorf("expected ErrRerankProviderError, got %v", err)
	}
}

func TestRerank_V1BaseURL(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer server.Close()

	c := newTestClient(server.URL + "/v1")

	if _, err := c.Rerank(context.Background(), "query", []string{"a"}, 1); err != nil {
		t.Fatalf("Rerank failed: %v", err)
	}
	if gotPath != "/v1/rerank" {
		t.Errorf("path = %q, expected /v1/rerank", gotPath)
	}
}
