package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/dunamismax/pixelproxy/internal/api"
	"github.com/dunamismax/pixelproxy/internal/cache"
	"github.com/dunamismax/pixelproxy/internal/config"
	"github.com/dunamismax/pixelproxy/internal/fetch"
	"github.com/dunamismax/pixelproxy/internal/pipeline"
	"github.com/dunamismax/pixelproxy/internal/ratelimit"
	"github.com/dunamismax/pixelproxy/internal/telemetry"
	"github.com/dunamismax/pixelproxy/internal/transform"
)

func main() {
	cfg := config.Load()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.Lmsgprefix)

	ctx := context.Background()
	shutdownTracing, err := telemetry.Setup(ctx, telemetry.Config{
		ServiceName:  "pixelproxy",
		Exporter:     cfg.Trace.Exporter,
		OTLPEndpoint: cfg.Trace.OTLPEndpoint,
		OTLPInsecure: cfg.Trace.OTLPInsecure,
	}, logger)
	if err != nil {
		logger.Fatalf("tracing setup failed: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Printf("tracing shutdown error: %v", err)
		}
	}()

	if err := transform.Startup(); err != nil {
		logger.Fatalf("image runtime startup failed: %v", err)
	}
	defer transform.Shutdown()

	var redisClient redis.UniversalClient
	needsRedis := cfg.Cache.Backend == config.CacheBackendRedis || cfg.RateLimit.Requests > 0
	if needsRedis {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
	}

	store, err := buildCacheStore(ctx, cfg, redisClient)
	if err != nil {
		logger.Fatalf("cache store setup failed: %v", err)
	}
	logger.Printf("cache backend: %s", cfg.Cache.Backend)

	var limiter api.RateLimiter
	if cfg.RateLimit.Requests > 0 {
		limiter, err = ratelimit.NewFixedWindow(redisClient, cfg.RateLimit.Requests, cfg.RateLimit.Window, "")
		if err != nil {
			logger.Fatalf("rate limiter setup failed: %v", err)
		}
	}

	var tracer trace.Tracer
	if cfg.Trace.Exporter != "" && cfg.Trace.Exporter != "none" {
		tracer = otel.Tracer("pixelproxy/api")
	}

	transformer, err := transform.New()
	if err != nil {
		logger.Fatalf("transformer setup failed: %v", err)
	}

	proc := pipeline.New(logger, store, fetch.NewFetcher(), transformer)
	app := api.NewServer(logger, proc, limiter, tracer)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      app.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Printf("listening on %s", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Println("shutting down")
	if err := httpServer.Shutdown(drainCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	}
}

func buildCacheStore(ctx context.Context, cfg config.Config, redisClient redis.UniversalClient) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		return cache.NewRedisStore(redisClient), nil
	case config.CacheBackendS3:
		store, err := cache.NewObjectStore(cache.ObjectStoreConfig{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return cache.NewFileStore(cfg.Cache.Dir)
	}
}
