package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	chirouter "github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/roomrank/internal/domain"
	"github.com/kailas-cloud/roomrank/internal/domain/candidate"
	"github.com/kailas-cloud/roomrank/internal/domain/ranking"
	healthuc "github.com/kailas-cloud/roomrank/internal/usecase/health"
)

type mockRecommender struct {
	ranking  ranking.Ranking
	err      error
	gotQuery string
	gotTopK  int
}

func (m *mockRecommender) RecommendApartments(ctx context.Context, query string, topK int) (ranking.Ranking, error) {
	m.gotQuery, m.gotTopK = query, topK
	domain.UsageFromContext(ctx).AddEmbeddingTokens(7)
	domain.UsageFromContext(ctx).AddLLMTokens(20)
	return m.ranking, m.err
}

func (m *mockRecommender) RecommendRoommates(ctx context.Context, profile string, topK int) (ranking.Ranking, error) {
	m.gotQuery, m.gotTopK = profile, topK
	return m.ranking, m.err
}

type healthyPinger struct{ err error }

func (p *healthyPinger) Ping(ctx context.Context) error { return p.err }

func newTestRouter(rec *mockRecommender, dbErr error) http.Handler {
	srv := NewServer(rec, healthuc.New(&healthyPinger{err: dbErr}, nil), zap.NewNop())
	r := chirouter.NewRouter()
	srv.Routes(r)
	return r
}

func sampleRanking() ranking.Ranking {
	c1 := candidate.New("apt-1", 0.9, "bright flat",
		map[string]string{"district": "centro"}, map[string]float64{"price": 900})
	c1.SetRerankScore(0.8)
	c1.SetFinalScore(0.85)

	c2 := candidate.New("apt-2", 0.7, "terrace",
		map[string]string{"district": "retiro"}, map[string]float64{"price": 1400})
	c2.SetRerankScore(0.3)
	c2.SetFinalScore(0.41)

	return ranking.New([]candidate.Candidate{c1, c2}, 10, false)
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestApartments_Success(t *testing.T) {
	rec := &mockRecommender{ranking: sampleRanking()}
	router := newTestRouter(rec, nil)

	rr := postJSON(t, router, "/v1/recommendations/apartments",
		`{"query": "flat in centro", "top_k": 5}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rr.Code, rr.Body.String())
	}
	if rec.gotQuery != "flat in centro" || rec.gotTopK != 5 {
		t.Errorf("recommender got %q/%d", rec.gotQuery, rec.gotTopK)
	}

	var resp rankingResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}

	first := resp.Results[0]
	if first.ID != "apt-1" || first.FinalScore != 0.85 {
		t.Errorf("first result = %+v", first)
	}
	if first.RerankScore == nil || *first.RerankScore != 0.8 {
		t.Errorf("rerank score = %v", first.RerankScore)
	}
	if first.CompatibilityScore != nil {
		t.Error("apartment results must not carry a compatibility score")
	}
	if first.Metadata["district"] != "centro" {
		t.Errorf("metadata = %v", first.Metadata)
	}
	if price, ok := first.Metadata["price"].(float64); !ok || price != 900 {
		t.Errorf("price metadata = %v", first.Metadata["price"])
	}
	if resp.Usage.EmbeddingTokens != 7 || resp.Usage.LLMTokens != 20 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestApartments_EmptyRankingCarriesReason(t *testing.T) {
	rec := &mockRecommender{ranking: ranking.New(nil, 3, false)}
	router := newTestRouter(rec, nil)

	rr := postJSON(t, router, "/v1/recommendations/apartments", `{"query": "anything"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("empty ranking must be 200, got %d", rr.Code)
	}
	var resp rankingResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Reason != ranking.ReasonNoMatches {
		t.Errorf("reason = %q, want %q", resp.Reason, ranking.ReasonNoMatches)
	}
	if len(resp.Results) != 0 {
		t.Errorf("expected no results, got %d", len(resp.Results))
	}
}

func TestApartments_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty body", `{}`},
		{"blank query", `{"query": "   "}`},
		{"negative top_k", `{"query": "flat", "top_k": -1}`},
		{"huge top_k", `{"query": "flat", "top_k": 999}`},
		{"broken json", `{"query": `},
		{"oversized query", `{"query": "` + strings.Repeat("a", MaxQueryLen+1) + `"}`},
	}

	router := newTestRouter(&mockRecommender{ranking: sampleRanking()}, nil)

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := postJSON(t, router, "/v1/recommendations/apartments", tc.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rr.Code)
			}
			var resp errorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if resp.Code != codeBadRequest {
				t.Errorf("code = %q, want %q", resp.Code, codeBadRequest)
			}
		})
	}
}

func TestApartments_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"embedding", domain.ErrEmbedding, http.StatusBadGateway, codeProviderError},
		{"retrieval", domain.ErrRetrieval, http.StatusServiceUnavailable, codeStoreError},
		{"aggregation", domain.ErrAggregation, http.StatusInternalServerError, codeInternalError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, codeInternalError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&mockRecommender{err: tc.err}, nil)
			rr := postJSON(t, router, "/v1/recommendations/apartments", `{"query": "flat"}`)

			if rr.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tc.wantStatus)
			}
			var resp errorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if resp.Code != tc.wantCode {
				t.Errorf("code = %q, want %q", resp.Code, tc.wantCode)
			}
		})
	}
}

func TestRoommates_Success(t *testing.T) {
	c := candidate.New("stu-1", 0.9, "night owl", map[string]string{"name": "Ana"}, nil)
	c.SetRerankScore(0.7)
	c.SetCompatScore(0.95, "very compatible schedules")
	c.SetFinalScore(0.9)

	rec := &mockRecommender{ranking: ranking.New([]candidate.Candidate{c}, 3, true)}
	router := newTestRouter(rec, nil)

	rr := postJSON(t, router, "/v1/recommendations/roommates",
		`{"profile": "extroverted, spontaneous"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rr.Code, rr.Body.String())
	}
	if rec.gotQuery != "extroverted, spontaneous" {
		t.Errorf("recommender got %q", rec.gotQuery)
	}

	var resp rankingResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Degraded {
		t.Error("expected degraded flag preserved")
	}
	item := resp.Results[0]
	if item.CompatibilityScore == nil || *item.CompatibilityScore != 0.95 {
		t.Errorf("compat score = %v", item.CompatibilityScore)
	}
	if item.Rationale != "very compatible schedules" {
		t.Errorf("rationale = %q", item.Rationale)
	}
}

func TestRoommates_RequiresProfile(t *testing.T) {
	router := newTestRouter(&mockRecommender{}, nil)

	rr := postJSON(t, router, "/v1/recommendations/roommates", `{"profile": ""}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestHealth_OK(t *testing.T) {
	router := newTestRouter(&mockRecommender{}, nil)

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var resp struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != string(healthuc.Healthy) {
		t.Errorf("status = %q", resp.Status)
	}
}

func TestHealth_StoreDown(t *testing.T) {
	router := newTestRouter(&mockRecommender{}, errors.New("conn refused"))

	req := httptest.NewRequest("GET", "/health", http.NoBody)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
}
