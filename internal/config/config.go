package config

import (
	"os"
	"strconv"
	"time"
)

const (
	CacheBackendFS    = "fs"
	CacheBackendRedis = "redis"
	CacheBackendS3    = "s3"
)

type Config struct {
	Server    ServerConfig
	Cache     CacheConfig
	Redis     RedisConfig
	Storage   StorageConfig
	RateLimit RateLimitConfig
	Trace     TraceConfig
}

type ServerConfig struct {
	Addr string
}

type CacheConfig struct {
	Backend string
	Dir     string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// RateLimitConfig caps requests per client per window. Requests <= 0
// disables the limiter.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

type TraceConfig struct {
	Exporter     string
	OTLPEndpoint string
	OTLPInsecure bool
}

func Load() Config {
	return Config{
		Server: ServerConfig{
			Addr: env("PIXELPROXY_ADDR", ":3000"),
		},
		Cache: CacheConfig{
			Backend: env("PIXELPROXY_CACHE_BACKEND", CacheBackendFS),
			Dir:     env("PIXELPROXY_CACHE_DIR", "cache"),
		},
		Redis: RedisConfig{
			Addr:     env("REDIS_ADDR", "localhost:6379"),
			Password: env("REDIS_PASSWORD", ""),
			DB:       envInt("REDIS_DB", 0),
		},
		Storage: StorageConfig{
			Endpoint:  env("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey: env("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey: env("MINIO_SECRET_KEY", "minioadmin"),
			Bucket:    env("MINIO_BUCKET", "pixelproxy-cache"),
			UseSSL:    envBool("MINIO_USE_SSL", false),
		},
		RateLimit: RateLimitConfig{
			Requests: envInt("PIXELPROXY_RATE_LIMIT", 0),
			Window:   time.Duration(envInt("PIXELPROXY_RATE_WINDOW_MS", 60000)) * time.Millisecond,
		},
		Trace: TraceConfig{
			Exporter:     env("PIXELPROXY_TRACE_EXPORTER", "none"),
			OTLPEndpoint: env("PIXELPROXY_OTLP_ENDPOINT", ""),
			OTLPInsecure: envBool("PIXELPROXY_OTLP_INSECURE", false),
		},
	}
}

func env(key, fallback string) string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	return value
}

func envInt(key string, fallback int) int {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	value := env(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}
