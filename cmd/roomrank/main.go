package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/kailas-cloud/roomrank/internal/config"
	"github.com/kailas-cloud/roomrank/internal/db"
	dbRedis "github.com/kailas-cloud/roomrank/internal/db/redis"
	"github.com/kailas-cloud/roomrank/internal/domain"
	logpkg "github.com/kailas-cloud/roomrank/internal/logger"
	"github.com/kailas-cloud/roomrank/internal/metrics"
	collectionrepo "github.com/kailas-cloud/roomrank/internal/repository/collection"
	"github.com/kailas-cloud/roomrank/internal/repository/embcache"
	retrievalrepo "github.com/kailas-cloud/roomrank/internal/repository/retrieval"
	chiTransport "github.com/kailas-cloud/roomrank/internal/transport/chi"
	openaiProv "github.com/kailas-cloud/roomrank/internal/transport/openai"
	rerankapi "github.com/kailas-cloud/roomrank/internal/transport/rerank"
	"github.com/kailas-cloud/roomrank/internal/usecase/compat"
	"github.com/kailas-cloud/roomrank/internal/usecase/extract"
	healthuc "github.com/kailas-cloud/roomrank/internal/usecase/health"
	"github.com/kailas-cloud/roomrank/internal/usecase/recommend"
	rerankuc "github.com/kailas-cloud/roomrank/internal/usecase/rerank"
	"github.com/kailas-cloud/roomrank/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting roomrank API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
		zap.String("embedding_model", cfg.Embedding.Model),
		zap.String("llm_model", cfg.LLM.Model),
		zap.Bool("rerank_enabled", cfg.Rerank.Enabled),
	)

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Password: cfg.Database.Password,
	})
	if err != nil {
		logger.Fatal("Failed to create database store", zap.Error(err))
	}
	defer store.Close()

	// Wait for database to be ready
	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Database not ready", zap.Error(err))
	}
	logger.Info("Connected to database")

	// Register pipeline metrics explicitly (no init())
	metrics.RegisterPipelineMetrics()

	// The collections must have been indexed in the same embedding space the
	// configured embedder produces. A mismatch silently ruins every ranking,
	// so it is fatal at startup, not at request time.
	vecCfg := domain.VectorConfig{
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Metric:     cfg.Embedding.Metric,
	}
	collRepo := collectionrepo.New(store)
	for _, name := range []string{"apartments", "students"} {
		manifest, err := collRepo.Get(ctx, name)
		if err != nil {
			logger.Fatal("Failed to load collection manifest",
				zap.String("collection", name), zap.Error(err))
		}
		if err := manifest.CheckCompatible(vecCfg); err != nil {
			logger.Fatal("Collection incompatible with configured embedder", zap.Error(err))
		}
	}
	logger.Info("Collection manifests verified",
		zap.String("model", vecCfg.Model),
		zap.Int("dimensions", vecCfg.Dimensions),
		zap.String("metric", vecCfg.Metric),
	)

	embedder, baseEmbedder := buildEmbedder(cfg, store, logger)

	completer := openaiProv.NewCompleter(&openaiProv.CompleterConfig{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Provider:    cfg.LLM.Provider,
		Logger:      logger,
	})

	// Rerank is optional infrastructure. A nil API puts the rerank stage in
	// pass-through mode rather than degraded mode.
	var rerankAPI domain.Reranker
	if cfg.Rerank.Enabled {
		rerankAPI = rerankapi.NewClient(&rerankapi.Config{
			BaseURL: cfg.Rerank.BaseURL,
			APIKey:  cfg.Rerank.APIKey,
			Model:   cfg.Rerank.Model,
			Timeout: time.Duration(cfg.Rerank.TimeoutSec) * time.Second,
			Logger:  logger,
		})
	}

	retryBase := time.Duration(cfg.LLM.RetryBaseMS) * time.Millisecond

	extractSvc := extract.New(completer, cfg.LLM.MaxAttempts, retryBase, logger)
	rerankSvc := rerankuc.New(rerankAPI, cfg.Rerank.MaxCandidates, logger)
	compatSvc := compat.New(completer,
		cfg.Pipelines.Roommates.PairConcurrency, cfg.LLM.MaxAttempts, retryBase, logger)

	recommendSvc := recommend.New(
		embedder,
		retrievalrepo.New(store),
		extractSvc,
		rerankSvc,
		compatSvc,
		pipelineParams("apartments", cfg.Pipelines.Apartments),
		pipelineParams("students", cfg.Pipelines.Roommates),
	)

	healthSvc := healthuc.New(store, newEmbeddingHealthChecker(baseEmbedder))

	server := chiTransport.NewServer(recommendSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// pipelineParams maps one pipeline's config onto the use case parameters.
func pipelineParams(collection string, p config.PipelineConfig) recommend.Params {
	return recommend.Params{
		Collection: collection,
		RetrieveK:  p.RetrieveK,
		PairLimit:  p.PairLimit,
		TopK:       p.TopK,
		Timeout:    time.Duration(p.TimeoutSec) * time.Second,
		Weights: recommend.Weights{
			Vector: p.Weights.Vector,
			Rerank: p.Weights.Rerank,
			Compat: p.Weights.Compat,
		},
	}
}

// buildEmbedder assembles the embedder chain: OpenAI provider wrapped in the
// query embedding cache. The base provider is returned separately for health
// checks, which must bypass the cache.
func buildEmbedder(cfg config.Config, store db.Store, logger *zap.Logger) (domain.Embedder, domain.Embedder) {
	base := openaiProv.NewEmbedder(&openaiProv.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})

	cached := embcache.New(base, store, cfg.Embedding.Model, metrics.EmbeddingCacheTotal, logger).
		WithTTL(time.Duration(cfg.Embedding.CacheTTLSec) * time.Second)

	return cached, base
}

// embeddingHealthChecker wraps domain.Embedder to implement health.EmbeddingChecker.
type embeddingHealthChecker struct {
	embedder domain.Embedder
}

func newEmbeddingHealthChecker(embedder domain.Embedder) *embeddingHealthChecker {
	return &embeddingHealthChecker{embedder: embedder}
}

func (h *embeddingHealthChecker) HealthCheck(ctx context.Context) error {
	if hc, ok := h.embedder.(domain.HealthChecker); ok {
		if err := hc.HealthCheck(ctx); err != nil {
			return fmt.Errorf("embedding health check: %w", err)
		}
	}
	return nil
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.Int64("content_length", r.ContentLength),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
