// Package chi implements the HTTP API: the two recommendation endpoints,
// health and metrics, with bearer auth and JSON error bodies.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/roomrank/internal/domain"
	"github.com/kailas-cloud/roomrank/internal/domain/candidate"
	"github.com/kailas-cloud/roomrank/internal/domain/ranking"
	healthuc "github.com/kailas-cloud/roomrank/internal/usecase/health"
)

// MaxTopK caps how many results a single request may ask for.
const MaxTopK = 50

// MaxQueryLen caps the free-text input length in bytes.
const MaxQueryLen = 4096

// Recommender runs the recommendation pipelines.
type Recommender interface {
	RecommendApartments(ctx context.Context, query string, topK int) (ranking.Ranking, error)
	RecommendRoommates(ctx context.Context, profile string, topK int) (ranking.Ranking, error)
}

// Server handles the HTTP API.
type Server struct {
	recommender Recommender
	health      *healthuc.Service
	logger      *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(recommender Recommender, health *healthuc.Service, logger *zap.Logger) *Server {
	return &Server{recommender: recommender, health: health, logger: logger}
}

// Routes mounts all endpoints on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Route("/v1/recommendations", func(r chi.Router) {
		r.Post("/apartments", s.handleApartments)
		r.Post("/roommates", s.handleRoommates)
	})
}

type apartmentsRequest struct {
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type roommatesRequest struct {
	Profile string `json:"profile"`
	TopK    int    `json:"top_k"`
}

type resultItem struct {
	ID                 string         `json:"id"`
	VectorScore        float64        `json:"vector_score"`
	RerankScore        *float64       `json:"rerank_score,omitempty"`
	CompatibilityScore *float64       `json:"compatibility_score,omitempty"`
	FinalScore         float64        `json:"final_score"`
	Rationale          string         `json:"rationale,omitempty"`
	Metadata           map[string]any `json:"metadata,omitempty"`
}

type usagePayload struct {
	EmbeddingTokens int `json:"embedding_tokens"`
	LLMTokens       int `json:"llm_tokens"`
}

type rankingResponse struct {
	Results  []resultItem `json:"results"`
	Degraded bool         `json:"degraded"`
	Reason   string       `json:"reason,omitempty"`
	Usage    usagePayload `json:"usage"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes returned in the error body.
const (
	codeBadRequest    = "bad_request"
	codeUnauthorized  = "unauthorized"
	codeProviderError = "provider_error"
	codeStoreError    = "store_unavailable"
	codeInternalError = "internal_error"
)

// handleApartments handles POST /v1/recommendations/apartments.
func (s *Server) handleApartments(w http.ResponseWriter, r *http.Request) {
	var req apartmentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if !s.validateQuery(w, req.Query, "query", req.TopK) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	result, err := s.recommender.RecommendApartments(ctx, strings.TrimSpace(req.Query), req.TopK)
	if err != nil {
		s.handlePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rankingToResponse(result, usage))
}

// handleRoommates handles POST /v1/recommendations/roommates.
func (s *Server) handleRoommates(w http.ResponseWriter, r *http.Request) {
	var req roommatesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if !s.validateQuery(w, req.Profile, "profile", req.TopK) {
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	result, err := s.recommender.RecommendRoommates(ctx, strings.TrimSpace(req.Profile), req.TopK)
	if err != nil {
		s.handlePipelineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rankingToResponse(result, usage))
}

// handleHealth handles GET /health. An unhealthy store answers 503 so
// orchestrators stop routing traffic here.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

func (s *Server) validateQuery(w http.ResponseWriter, text, field string, topK int) bool {
	if strings.TrimSpace(text) == "" {
		writeError(w, http.StatusBadRequest, codeBadRequest, field+" is required")
		return false
	}
	if len(text) > MaxQueryLen {
		writeError(w, http.StatusBadRequest, codeBadRequest, field+" exceeds maximum length")
		return false
	}
	if topK < 0 || topK > MaxTopK {
		writeError(w, http.StatusBadRequest, codeBadRequest,
			"top_k must be between 1 and 50")
		return false
	}
	return true
}

func (s *Server) handlePipelineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmbedding),
		errors.Is(err, domain.ErrEmbeddingProviderError),
		errors.Is(err, domain.ErrLLMProviderError),
		errors.Is(err, domain.ErrRerankProviderError):
		writeError(w, http.StatusBadGateway, codeProviderError, "upstream provider failed")
	case errors.Is(err, domain.ErrRetrieval),
		errors.Is(err, domain.ErrCollectionNotFound):
		writeError(w, http.StatusServiceUnavailable, codeStoreError, "vector store unavailable")
	default:
		s.logger.Error("unhandled pipeline error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func rankingToResponse(r ranking.Ranking, usage *domain.Usage) rankingResponse {
	resp := rankingResponse{
		Results:  make([]resultItem, 0, r.Len()),
		Degraded: r.Degraded(),
		Reason:   r.Reason(),
		Usage: usagePayload{
			EmbeddingTokens: usage.EmbeddingTokens,
			LLMTokens:       usage.LLMTokens,
		},
	}
	for _, c := range r.Results() {
		resp.Results = append(resp.Results, candidateToItem(c))
	}
	return resp
}

func candidateToItem(c candidate.Candidate) resultItem {
	item := resultItem{
		ID:                 c.ID(),
		VectorScore:        c.VectorScore(),
		RerankScore:        c.RerankScore(),
		CompatibilityScore: c.CompatScore(),
		FinalScore:         c.FinalScore(),
		Rationale:          c.Rationale(),
	}

	if len(c.Tags()) > 0 || len(c.Numerics()) > 0 {
		item.Metadata = make(map[string]any, len(c.Tags())+len(c.Numerics()))
		for k, v := range c.Tags() {
			item.Metadata[k] = v
		}
		for k, v := range c.Numerics() {
			item.Metadata[k] = v
		}
	}

	return item
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
