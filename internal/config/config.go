package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Session backends.
const (
	SessionStorePostgres = "postgres"
	SessionStoreRedis    = "redis"
	SessionStoreMemory   = "memory"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	Port     string
	AppEnv   string
	LogLevel string

	AuthToken         string
	AuthRatePerMinute int
	TrustProxyHeaders bool
	DBURL             string
	DBMaxConns        int
	DBMinConns        int
	DBMaxIdleSecs     int
	DBMaxLifeSecs     int
	DBConnTimeoutSecs int
	DBStatementCache  int

	CatalogURL          string
	CatalogBearerToken  string
	CatalogLanguage     string
	CatalogTimeoutSecs  int
	OverviewPlaceholder string

	SessionStore        string
	SessionTTLHours     int
	SessionCookieSecure bool
	RedisAddr           string
	RedisPassword       string
	RedisDB             int

	ReadTimeoutSecs  int
	WriteTimeoutSecs int
	IdleTimeoutSecs  int
}

// Load reads configuration from environment variables, applying defaults and validation.
// A .env file (or the file named by ENV_FILE) is loaded first when present; variables
// already set in the environment win.
func Load() (Config, error) {
	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", envFile, err)
	}

	cfg := Config{
		Port:     getEnv("PORT", "8080"),
		AppEnv:   getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		AuthToken:         os.Getenv("AUTH_TOKEN"),
		AuthRatePerMinute: getEnvInt("AUTH_RATE_PER_MINUTE", 10),
		TrustProxyHeaders: getEnvBool("TRUST_PROXY_HEADERS", false),
		DBURL:             os.Getenv("DB_URL"),
		DBMaxConns:        getEnvInt("DB_MAX_CONNS", 20),
		DBMinConns:        getEnvInt("DB_MIN_CONNS", 2),
		DBMaxIdleSecs:     getEnvInt("DB_MAX_CONN_IDLE_SECS", 300),
		DBMaxLifeSecs:     getEnvInt("DB_MAX_CONN_LIFETIME_SECS", 3600),
		DBConnTimeoutSecs: getEnvInt("DB_CONN_TIMEOUT_SECS", 10),
		DBStatementCache:  getEnvInt("DB_STATEMENT_CACHE_CAPACITY", 256),

		CatalogURL:          getEnv("CATALOG_URL", "https://api.themoviedb.org/3"),
		CatalogBearerToken:  os.Getenv("CATALOG_BEARER_TOKEN"),
		CatalogLanguage:     os.Getenv("CATALOG_LANGUAGE"),
		CatalogTimeoutSecs:  getEnvInt("CATALOG_TIMEOUT_SECS", 10),
		OverviewPlaceholder: getEnv("CATALOG_OVERVIEW_PLACEHOLDER", "No overview available."),

		SessionStore:        strings.ToLower(getEnv("SESSION_STORE", SessionStorePostgres)),
		SessionTTLHours:     getEnvInt("SESSION_TTL_HOURS", 24),
		SessionCookieSecure: getEnvBool("SESSION_COOKIE_SECURE", false),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             getEnvInt("REDIS_DB", 0),

		ReadTimeoutSecs:  getEnvInt("SERVER_READ_TIMEOUT", 15),
		WriteTimeoutSecs: getEnvInt("SERVER_WRITE_TIMEOUT", 15),
		IdleTimeoutSecs:  getEnvInt("SERVER_IDLE_TIMEOUT", 60),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks required values and ranges.
func (cfg Config) Validate() error {
	if cfg.AuthToken == "" {
		return fmt.Errorf("AUTH_TOKEN is required")
	}
	if cfg.AuthRatePerMinute < 0 {
		return fmt.Errorf("AUTH_RATE_PER_MINUTE must be non-negative")
	}
	if cfg.DBURL == "" {
		return fmt.Errorf("DB_URL is required")
	}
	if cfg.CatalogBearerToken == "" {
		return fmt.Errorf("CATALOG_BEARER_TOKEN is required")
	}
	if u, err := url.Parse(cfg.CatalogURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("CATALOG_URL must be an absolute URL")
	}
	if cfg.CatalogTimeoutSecs <= 0 {
		return fmt.Errorf("CATALOG_TIMEOUT_SECS must be positive")
	}
	if strings.TrimSpace(cfg.OverviewPlaceholder) == "" {
		return fmt.Errorf("CATALOG_OVERVIEW_PLACEHOLDER cannot be blank")
	}
	if cfg.DBMaxConns <= 0 {
		return fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	switch cfg.SessionStore {
	case SessionStorePostgres, SessionStoreMemory:
	case SessionStoreRedis:
		if cfg.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when SESSION_STORE=redis")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be one of postgres, redis, memory")
	}
	if cfg.SessionTTLHours <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}
	return nil
}

// Production reports whether the app runs with production defaults.
func (cfg Config) Production() bool {
	switch strings.ToLower(cfg.AppEnv) {
	case "prod", "production":
		return true
	}
	return false
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}
