package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	// Environment
	Env string // "development", "production", etc.

	// Server
	ServerAddr string
	BaseURL    string

	// Storage
	DatabaseURL string
	RedisURL    string // empty disables caching and uses in-memory rate limiting

	// OIDC bearer auth for /api. Empty issuer runs every request as anonymous.
	OIDCIssuer   string
	OIDCClientID string

	// CORS
	CORSOrigins string // Comma-separated allowed origins, e.g. "https://example.com,https://app.example.com"

	// LLM (Mistral-compatible chat completions)
	LLMBaseURL    string
	LLMAPIKey     string
	LLMModel      string
	LLMTimeout    time.Duration
	LLMMaxRetries int

	// Rank data (DataForSEO Labs)
	DataForSEOBaseURL  string
	DataForSEOLogin    string
	DataForSEOPassword string
	RankDataTimeout    time.Duration
	RankDataMaxRetries int

	// Draft janitor
	DraftRetention  time.Duration
	JanitorInterval time.Duration

	// Rate limiting for /api
	RateLimitMax    int
	RateLimitWindow time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is loaded first when present.
func Load() *Config {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			slog.Warn("failed to load .env file", "error", err)
		}
	}

	return &Config{
		Env:          getEnv("ENV", "development"),
		ServerAddr:   getEnv("SERVER_ADDR", ":3000"),
		BaseURL:      getEnv("BASE_URL", "http://localhost:3000"),
		DatabaseURL:  getEnv("DATABASE_URL", "postgres://localhost:5432/sellerdesk?sslmode=disable"),
		RedisURL:     getEnv("REDIS_URL", ""),
		OIDCIssuer:   getEnv("OIDC_ISSUER", ""),
		OIDCClientID: getEnv("OIDC_CLIENT_ID", ""),
		CORSOrigins:  getEnv("CORS_ORIGINS", ""),

		LLMBaseURL:    getEnv("LLM_BASE_URL", "https://api.mistral.ai"),
		LLMAPIKey:     getEnv("LLM_API_KEY", ""),
		LLMModel:      getEnv("LLM_MODEL", "mistral-large-latest"),
		LLMTimeout:    getDuration("LLM_TIMEOUT", 60*time.Second),
		LLMMaxRetries: getInt("LLM_MAX_RETRIES", 2),

		DataForSEOBaseURL:  getEnv("DATAFORSEO_BASE_URL", "https://api.dataforseo.com"),
		DataForSEOLogin:    getEnv("DATAFORSEO_LOGIN", ""),
		DataForSEOPassword: getEnv("DATAFORSEO_PASSWORD", ""),
		RankDataTimeout:    getDuration("RANKDATA_TIMEOUT", 30*time.Second),
		RankDataMaxRetries: getInt("RANKDATA_MAX_RETRIES", 2),

		DraftRetention:  getDuration("DRAFT_RETENTION", 30*24*time.Hour),
		JanitorInterval: getDuration("JANITOR_INTERVAL", time.Hour),

		RateLimitMax:    getInt("RATE_LIMIT_MAX", 60),
		RateLimitWindow: getDuration("RATE_LIMIT_WINDOW", time.Minute),
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return d
}

// IsDev returns true if the environment is set to development.
func (c *Config) IsDev() bool {
	return c.Env == "development" || c.Env == "dev"
}

// AuthEnabled reports whether OIDC bearer auth is configured.
func (c *Config) AuthEnabled() bool {
	return c.OIDCIssuer != ""
}

// RankDataEnabled reports whether DataForSEO credentials are configured.
func (c *Config) RankDataEnabled() bool {
	return c.DataForSEOLogin != "" && c.DataForSEOPassword != ""
}

// LLMEnabled reports whether an LLM API key is configured.
func (c *Config) LLMEnabled() bool {
	return c.LLMAPIKey != ""
}
