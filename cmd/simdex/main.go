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

	"github.com/kailas-cloud/simdex/internal/config"
	"github.com/kailas-cloud/simdex/internal/db"
	dbRedis "github.com/kailas-cloud/simdex/internal/db/redis"
	"github.com/kailas-cloud/simdex/internal/domain"
	logpkg "github.com/kailas-cloud/simdex/internal/logger"
	"github.com/kailas-cloud/simdex/internal/metrics"
	"github.com/kailas-cloud/simdex/internal/repository/veccache"
	chiTransport "github.com/kailas-cloud/simdex/internal/transport/chi"
	openaiVec "github.com/kailas-cloud/simdex/internal/transport/openai"
	healthuc "github.com/kailas-cloud/simdex/internal/usecase/health"
	indexuc "github.com/kailas-cloud/simdex/internal/usecase/index"
	searchuc "github.com/kailas-cloud/simdex/internal/usecase/search"
	"github.com/kailas-cloud/simdex/internal/version"
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

	logger.Info("Starting simdex API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("data_dir", cfg.Storage.DataDir),
	)

	// Register metrics explicitly (no init())
	metrics.RegisterVectorizeMetrics()
	metrics.RegisterQueryMetrics()

	ctx := context.Background()

	// Optional vector cache store
	var store db.Store
	if len(cfg.Cache.Addrs) > 0 {
		store, err = dbRedis.NewStore(dbRedis.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			logger.Fatal("Failed to create cache store", zap.Error(err))
		}
		defer store.Close()

		timeout := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			logger.Fatal("Cache store not ready", zap.Error(err))
		}
		logger.Info("Connected to cache store", zap.Strings("addrs", cfg.Cache.Addrs))
	}

	// Optional remote vectorizer provider (decorated with the cache)
	var remote domain.Vectorizer
	var remoteName string
	if rc := cfg.Vectorizer.Remote; rc != nil {
		remote = buildRemoteVectorizer(rc, store, time.Duration(cfg.Cache.TTLHours)*time.Hour, logger)
		remoteName = rc.Name
		logger.Info("Remote vectorizer configured",
			zap.String("provider", rc.Name),
			zap.String("model", rc.Model),
			zap.Int("dimensions", rc.Dimensions),
		)
	}

	// Create use case services
	indexSvc := indexuc.New(cfg.Storage.DataDir, indexuc.Defaults{
		Topics:           cfg.Vectorizer.Topics,
		Seed:             cfg.Vectorizer.Seed,
		ShardCapacity:    cfg.Storage.ShardCapacity,
		DensityThreshold: cfg.Storage.DensityThreshold,
	}, remote, remoteName, logger)

	if err := indexSvc.LoadAll(); err != nil {
		logger.Fatal("Failed to load indexes", zap.Error(err))
	}

	searchSvc := searchuc.New(indexSvc)

	// Health service. Pass nil interfaces (not typed nil pointers!) for
	// unconfigured components. Go gotcha: (*Store)(nil) wrapped in Pinger != nil.
	var cachePinger healthuc.Pinger
	if store != nil {
		cachePinger = store
	}
	var vecChecker healthuc.VectorizerChecker
	if hc, ok := remote.(healthuc.VectorizerChecker); ok {
		vecChecker = hc
	}
	healthSvc := healthuc.New(cfg.Storage.DataDir, cachePinger, vecChecker)

	// Create chi server
	server := chiTransport.NewServer(indexSvc, searchSvc, healthSvc, logger)

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

	// Seal pending buffers so nothing is lost across restarts.
	if err := indexSvc.CloseAll(); err != nil {
		logger.Error("Error closing indexes", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// buildRemoteVectorizer assembles the decorator chain: OpenAI -> Cached.
func buildRemoteVectorizer(
	rc *config.RemoteProviderConfig,
	store db.Store,
	ttl time.Duration,
	logger *zap.Logger,
) domain.Vectorizer {
	base := openaiVec.NewVectorizer(&openaiVec.Config{
		APIKey:     rc.APIKey,
		BaseURL:    rc.BaseURL,
		Model:      rc.Model,
		Dimensions: rc.Dimensions,
		Provider:   rc.Name,
		Logger:     logger,
	})

	if store == nil {
		return base
	}
	scope := rc.Name + "/" + rc.Model
	return veccache.New(base, store, scope, ttl, metrics.VectorizeCacheTotal, logger)
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
