package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort string
	LogLevel string

	// Storage selects the snapshot backend: bolt, redis or memory.
	Storage       string
	BoltPath      string
	RedisAddr     string
	RedisPassword string

	// Empty KafkaBrokers disables order events.
	KafkaBrokers []string

	CatalogBaseURL string

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func Load() Config {
	// A missing .env is fine; env vars win either way.
	_ = godotenv.Load()

	return Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Storage:         getEnv("STORAGE", "bolt"),
		BoltPath:        getEnv("BOLT_PATH", "carts.db"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		KafkaBrokers:    getEnvList("KAFKA_BROKERS"),
		CatalogBaseURL:  getEnv("CATALOG_BASE_URL", "http://localhost:5000/api"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
