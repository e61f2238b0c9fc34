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
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/kailas-cloud/cvdex/internal/config"
	"github.com/kailas-cloud/cvdex/internal/domain"
	"github.com/kailas-cloud/cvdex/internal/extract"
	logpkg "github.com/kailas-cloud/cvdex/internal/logger"
	"github.com/kailas-cloud/cvdex/internal/metrics"
	"github.com/kailas-cloud/cvdex/internal/repository/blob"
	"github.com/kailas-cloud/cvdex/internal/repository/embcache"
	"github.com/kailas-cloud/cvdex/internal/repository/index"
	chiTransport "github.com/kailas-cloud/cvdex/internal/transport/chi"
	openaiTransport "github.com/kailas-cloud/cvdex/internal/transport/openai"
	healthuc "github.com/kailas-cloud/cvdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/cvdex/internal/usecase/ingest"
	queryuc "github.com/kailas-cloud/cvdex/internal/usecase/query"
	"github.com/kailas-cloud/cvdex/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.New(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting cvdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("blob_endpoint", cfg.Blob.Endpoint),
		zap.String("index_url", cfg.Index.URL),
	)

	ctx := context.Background()

	// Object store. The bucket is created when absent.
	blobs, err := blob.New(blob.Config{
		Endpoint:  cfg.Blob.Endpoint,
		AccessKey: cfg.Blob.AccessKey,
		SecretKey: cfg.Blob.SecretKey,
		UseSSL:    cfg.Blob.UseSSL,
		Bucket:    cfg.Blob.Bucket,
		Prefix:    cfg.Blob.Prefix,
	})
	if err != nil {
		logger.Fatal("Failed to create blob store", zap.Error(err))
	}
	if err := blobs.EnsureBucket(ctx); err != nil {
		logger.Fatal("Failed to ensure bucket", zap.Error(err))
	}
	logger.Info("Connected to object store", zap.String("bucket", cfg.Blob.Bucket))

	// Vector index. The collection is created when absent; an existing
	// collection with a different vector schema fails startup rather
	// than being silently dropped.
	idx := index.New(index.Config{
		URL:        cfg.Index.URL,
		APIKey:     cfg.Index.APIKey,
		Collection: cfg.Index.Collection,
		Dimensions: cfg.Embedding.Dimensions,
		Timeout:    time.Duration(cfg.Index.TimeoutSec) * time.Second,
	})
	if err := idx.EnsureCollection(ctx); err != nil {
		logger.Fatal("Failed to ensure collection", zap.Error(err))
	}
	logger.Info("Connected to vector index",
		zap.String("collection", cfg.Index.Collection),
		zap.Int("dimensions", cfg.Embedding.Dimensions),
	)

	metrics.RegisterPipelineMetrics()

	// Embedder chain — composition root
	var embedder domain.Embedder = openaiTransport.NewEmbedder(openaiTransport.EmbedderConfig{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Logger:     logger,
	})

	if len(cfg.Cache.Addrs) > 0 {
		cache, err := embcache.NewRedisStore(embcache.RedisConfig{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
			TTL:      time.Duration(cfg.Cache.TTLSec) * time.Second,
		})
		if err != nil {
			logger.Fatal("Failed to create embedding cache", zap.Error(err))
		}
		defer cache.Close()
		embedder = embcache.New(embedder, cache, metrics.EmbeddingCacheTotal, logger)
		logger.Info("Embedding cache enabled", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	chat := openaiTransport.NewChatClient(openaiTransport.ChatConfig{
		APIKey:  cfg.Chat.APIKey,
		BaseURL: cfg.Chat.BaseURL,
		Model:   cfg.Chat.Model,
		Logger:  logger,
	})

	// Use case services
	ingestSvc := ingestuc.New(blobs, extract.New(), embedder, idx, ingestuc.Limits{
		MaxArchiveEntries: cfg.Ingest.MaxArchiveEntries,
		MaxEntryBytes:     cfg.Ingest.MaxEntryBytes,
		MaxTotalBytes:     cfg.Ingest.MaxTotalBytes,
	}, logger)

	querySvc := queryuc.New(embedder, idx, chat, queryuc.Options{
		DefaultTopK: cfg.Search.TopK,
		MaxTopK:     cfg.Search.MaxTopK,
		ChatTopK:    cfg.Chat.TopK,
	}, logger)

	healthSvc := healthuc.New(map[string]healthuc.Checker{
		"blob":  blobs,
		"index": idx,
	})

	server := chiTransport.NewServer(ingestSvc, querySvc, healthSvc, cfg.Ingest.MaxUploadBytes, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
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
					_ = json.NewEncoder(w).Encode(map[string]any{
						"error": map[string]string{
							"code":    "internal_error",
							"message": "internal error",
						},
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
			ctx := logpkg.WithContext(r.Context(), reqLogger)

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
