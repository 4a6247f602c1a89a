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

	"github.com/parklens/parklens/internal/breaker"
	"github.com/parklens/parklens/internal/config"
	dbRedis "github.com/parklens/parklens/internal/db/redis"
	logpkg "github.com/parklens/parklens/internal/logger"
	"github.com/parklens/parklens/internal/metrics"
	"github.com/parklens/parklens/internal/repository/reviews"
	"github.com/parklens/parklens/internal/repository/semcache"
	"github.com/parklens/parklens/internal/repository/vectorindex"
	chiTransport "github.com/parklens/parklens/internal/transport/chi"
	openaiTransport "github.com/parklens/parklens/internal/transport/openai"
	askuc "github.com/parklens/parklens/internal/usecase/ask"
	"github.com/parklens/parklens/internal/usecase/indexing"
	"github.com/parklens/parklens/internal/usecase/retrieval"
	"github.com/parklens/parklens/internal/version"
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

	logger.Info("Starting parklens API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("db_addrs", cfg.Database.Addrs),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterHTTPMetrics()
	metrics.RegisterRetrievalMetrics()
	metrics.RegisterCacheMetrics()
	metrics.RegisterBreakerMetrics()
	metrics.RegisterLLMMetrics()

	ctx := context.Background()

	// Review dataset is mandatory; everything else degrades.
	reviewStore := reviews.NewStore(cfg.Data.ReviewsCSV, logger)
	if err := reviewStore.Load(); err != nil {
		logger.Fatal("Failed to load reviews", zap.Error(err))
	}
	logger.Info("Loaded reviews", zap.Int("count", reviewStore.Count()))

	// Redis backs both the semantic cache and the vector index. When it is
	// not configured or not reachable the service runs keyword-only with no
	// cache instead of refusing to start.
	var store *dbRedis.Store
	if len(cfg.Database.Addrs) > 0 {
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Database.Addrs,
			Password: cfg.Database.Password,
		})
		if err != nil {
			logger.Warn("Failed to create database store, running degraded", zap.Error(err))
		} else if err := s.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
			logger.Warn("Database not ready, running degraded", zap.Error(err))
			s.Close()
		} else {
			store = s
			defer store.Close()
			logger.Info("Connected to database")
		}
	} else {
		logger.Warn("No database configured, running keyword-only without cache")
	}

	embedder := openaiTransport.NewEmbedder(&openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})
	generator := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		Logger:      logger,
	})

	// Semantic subsystem: vector index + startup embedding. An indexing
	// failure leaves the engine keyword-only, it never aborts startup.
	var semantic *retrieval.Retriever
	if store != nil {
		indexRepo := vectorindex.New(store, vectorindex.Config{
			IndexName:       cfg.Database.KeyPrefix + "reviews_idx",
			KeyPrefix:       cfg.Database.KeyPrefix,
			VectorDim:       cfg.Embedding.Dimensions,
			HNSWM:           cfg.Retrieval.HNSWM,
			HNSWEFConstruct: cfg.Retrieval.HNSWEFConstruct,
		}, logger)

		indexer := indexing.New(reviewStore, embedder, indexRepo, cfg.Embedding.BatchSize, logger)
		if _, err := indexer.Run(ctx); err != nil {
			logger.Warn("Vector indexing failed, running keyword-only", zap.Error(err))
		} else {
			semantic = retrieval.NewRetriever(embedder, indexRepo, logger)
		}
	}

	var semCache *semcache.Cache
	if store != nil {
		semCache = semcache.New(embedder, store, semcache.Config{
			KeyPrefix:           cfg.Database.KeyPrefix,
			SimilarityThreshold: cfg.Cache.SimilarityThreshold,
			TTL:                 time.Duration(cfg.Cache.TTLHours) * time.Hour,
		}, logger)
	}

	engine := retrieval.NewEngine(reviewStore, semantic, retrieval.Config{
		MaxResults:     cfg.Retrieval.MaxResults,
		KeywordWeight:  cfg.Retrieval.KeywordWeight,
		SemanticWeight: cfg.Retrieval.SemanticWeight,
	}, logger)

	breakers := breaker.NewRegistry()
	llmBreaker := breakers.GetOrCreate(breaker.Config{
		Name:             "llm",
		FailureThreshold: cfg.Breaker.FailureThreshold,
		Timeout:          time.Duration(cfg.Breaker.TimeoutSec) * time.Second,
		WindowSize:       cfg.Breaker.WindowSize,
		Logger:           logger,
	})

	// Pass nil interface (not typed nil pointer!) if the cache is not configured.
	var askCache askuc.Cache
	var cacheAdmin chiTransport.CacheAdmin
	if semCache != nil {
		askCache = semCache
		cacheAdmin = semCache
	}

	askSvc := askuc.New(engine, generator, askCache, llmBreaker, logger)

	health := func(context.Context) chiTransport.HealthReport {
		report := chiTransport.HealthReport{
			ReviewsLoaded:  reviewStore.Count(),
			SemanticSearch: engine.SemanticAvailable(),
			SemanticCache:  semCache != nil,
		}
		switch {
		case report.ReviewsLoaded == 0:
			report.Status = "unavailable"
		case !report.SemanticSearch || !report.SemanticCache:
			report.Status = "degraded"
		default:
			report.Status = "ok"
		}
		return report
	}

	server := chiTransport.NewServer(askSvc, cacheAdmin, breakers, health, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
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

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

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
