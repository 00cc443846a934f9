package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the portal.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Portal   PortalConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds the remote document store connection values.
// An empty DSN means the remote store is not configured.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values. An empty Addr keeps the local
// cache in process memory.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
	// Format is "json" or "console".
	Format string
}

// PortalConfig holds dashboard specific settings.
type PortalConfig struct {
	SeedFile          string
	DefaultUserID     string
	LocalLatencyMS    int
	PageCacheEnabled  bool
	PageCacheTTLSec   int
	RemoteTimeoutSec  int
	CacheKeyNamespace string
}

// Load reads configuration from environment variables, applying defaults
// where possible. Files are passed to godotenv; a missing file is ignored.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "maximo-version-portal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Portal: PortalConfig{
			SeedFile:          getEnv("PORTAL_SEED_FILE", "seed/portal.yaml"),
			DefaultUserID:     getEnv("PORTAL_DEFAULT_USER", "usr-admin"),
			LocalLatencyMS:    getEnvAsInt("LOCAL_LATENCY_MS", 0),
			PageCacheEnabled:  getEnvAsBool("PAGE_CACHE_ENABLED", true),
			PageCacheTTLSec:   getEnvAsInt("PAGE_CACHE_TTL_SECONDS", 300),
			RemoteTimeoutSec:  getEnvAsInt("REMOTE_TIMEOUT_SECONDS", 5),
			CacheKeyNamespace: getEnv("CACHE_KEY_NAMESPACE", "maximo-portal"),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// LocalLatency returns the simulated delay applied to in-memory cache calls.
func (p PortalConfig) LocalLatency() time.Duration {
	if p.LocalLatencyMS <= 0 {
		return 0
	}
	return time.Duration(p.LocalLatencyMS) * time.Millisecond
}

// PageCacheTTL returns how long rendered pages stay cached.
func (p PortalConfig) PageCacheTTL() time.Duration {
	if p.PageCacheTTLSec <= 0 {
		return 0
	}
	return time.Duration(p.PageCacheTTLSec) * time.Second
}

// RemoteTimeout bounds each call against the remote document store.
func (p PortalConfig) RemoteTimeout() time.Duration {
	if p.RemoteTimeoutSec <= 0 {
		return 0
	}
	return time.Duration(p.RemoteTimeoutSec) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
