package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// RedisConfig holds connection settings for the optional Redis backend.
// An empty URL disables Redis; location tracking and list caching then fall
// back to in-memory implementations.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig holds settings for the audit event sink. Empty Brokers disables
// the Kafka sink; audit events then stay in the in-memory store.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// Config captures everything the server needs from the environment.
type Config struct {
	Addr        string
	DatabaseURL string
	Redis       RedisConfig
	Kafka       KafkaConfig

	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	// AdminEmails is the fixed administrator allow-list consumed by
	// status overrides and purge operations.
	AdminEmails []string

	// ProximityRadiusMeters gates endorsements and resolution confirmations.
	ProximityRadiusMeters float64

	// LocationMaxAge bounds how old a published coordinate may be before the
	// geolocation gate reports it unavailable.
	LocationMaxAge time.Duration

	// ListCacheTTL bounds how long the report list may be served from cache.
	ListCacheTTL time.Duration
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Addr:        envOr("RECLAMA_ADDR", ":8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers: splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			Topic:   envOr("KAFKA_AUDIT_TOPIC", "reclama.audit"),
		},
		// Default for development only - override in production.
		JWTSigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     envOr("JWT_ISSUER", "reclamacidade"),
		JWTAudience:   envOr("JWT_AUDIENCE", "reclamacidade-api"),

		AdminEmails: splitNonEmpty(os.Getenv("ADMIN_EMAILS")),

		ProximityRadiusMeters: envFloat("PROXIMITY_RADIUS_METERS", 100),
		LocationMaxAge:        envDuration("LOCATION_MAX_AGE", 2*time.Minute),
		ListCacheTTL:          envDuration("REPORT_LIST_CACHE_TTL", 30*time.Second),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitNonEmpty(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
