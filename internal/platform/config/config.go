// Package config builds process configuration from environment variables so
// main stays lean. Every knob has a development default; production overrides
// via CUSTOS_* variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the reference server needs at startup.
type Config struct {
	Addr            string
	AdminToken      string
	ShutdownTimeout time.Duration
	LogJSON         bool

	Postgres PostgresConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	JWT      JWTConfig

	// ServiceKeys holds "id:name:bcrypt-hash:role|role" entries for API-key
	// service accounts. Empty means no service accounts.
	ServiceKeys []string

	// ActorRoles holds "actor-id:role|role" grants layered on top of token
	// roles. Empty means tokens are the only role source.
	ActorRoles []string
}

// PostgresConfig configures the SQL pool. An empty DSN selects the in-memory
// stores.
type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the role-cache client. An empty URL disables Redis.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	RoleCacheTTL time.Duration
}

// KafkaConfig configures the audit relay and consumer. No brokers means the
// outbox is never relayed.
type KafkaConfig struct {
	Brokers []string
	Topic   string
	Group   string
}

// JWTConfig configures bearer-token actor resolution.
type JWTConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
	Leeway     time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Addr:            getEnv("CUSTOS_ADDR", ":8080"),
		AdminToken:      getEnv("CUSTOS_ADMIN_TOKEN", ""),
		ShutdownTimeout: getDuration("CUSTOS_SHUTDOWN_TIMEOUT", 10*time.Second),
		LogJSON:         getEnv("CUSTOS_LOG_FORMAT", "text") == "json",

		Postgres: PostgresConfig{
			DSN:             getEnv("CUSTOS_POSTGRES_DSN", ""),
			MaxOpenConns:    getInt("CUSTOS_POSTGRES_MAX_OPEN", 10),
			MaxIdleConns:    getInt("CUSTOS_POSTGRES_MAX_IDLE", 5),
			ConnMaxLifetime: getDuration("CUSTOS_POSTGRES_CONN_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          getEnv("CUSTOS_REDIS_URL", ""),
			PoolSize:     getInt("CUSTOS_REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("CUSTOS_REDIS_MIN_IDLE", 2),
			DialTimeout:  getDuration("CUSTOS_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("CUSTOS_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("CUSTOS_REDIS_WRITE_TIMEOUT", 3*time.Second),
			RoleCacheTTL: getDuration("CUSTOS_ROLE_CACHE_TTL", 5*time.Minute),
		},
		Kafka: KafkaConfig{
			Brokers: getList("CUSTOS_KAFKA_BROKERS"),
			Topic:   getEnv("CUSTOS_AUDIT_TOPIC", "custos.audit.events"),
			Group:   getEnv("CUSTOS_AUDIT_GROUP", "custos-audit-consumer"),
		},
		JWT: JWTConfig{
			// Development default - must be overridden in production.
			SigningKey: getEnv("CUSTOS_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:     getEnv("CUSTOS_JWT_ISSUER", "custos"),
			Audience:   getEnv("CUSTOS_JWT_AUDIENCE", "custos-api"),
			Leeway:     getDuration("CUSTOS_JWT_LEEWAY", 30*time.Second),
		},

		ServiceKeys: getList("CUSTOS_SERVICE_KEYS"),
		ActorRoles:  getList("CUSTOS_ACTOR_ROLES"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
