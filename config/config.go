package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string

	// External collaborators
	ProfileServiceURL string
	CatalogServiceURL string

	// Model-path configuration. An empty API key disables the model path
	// entirely; generation then always uses the deterministic selector.
	LLMAPIKey  string
	LLMAPIURL  string
	LLMModel   string
	LLMTimeout time.Duration

	// Plan cache policy
	PlanCacheTTL time.Duration
	// InvalidateCacheOnSave clears the cache entry after a successful save,
	// leaving durable storage as sole authority until the next generation.
	InvalidateCacheOnSave bool
}

// LoadConfig creates a new Config instance from environment variables,
// loading a local .env file first when one exists.
func LoadConfig() (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort: getEnv("SERVER_PORT", "8085"),
		ServerHost: getEnv("SERVER_HOST", "0.0.0.0"),

		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getEnv("DB_NAME", "mealplans"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),

		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RedisURL:      os.Getenv("REDIS_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		ProfileServiceURL: getEnv("PROFILE_SERVICE_URL", "http://localhost:8081"),
		CatalogServiceURL: getEnv("CATALOG_SERVICE_URL", "http://localhost:8082"),

		LLMAPIKey:  os.Getenv("LLM_API_KEY"),
		LLMAPIURL:  getEnv("LLM_API_URL", "https://api.deepseek.com/v1/chat/completions"),
		LLMModel:   getEnv("LLM_MODEL", "deepseek-chat"),
		LLMTimeout: time.Duration(getEnvInt("LLM_TIMEOUT_SECONDS", 30)) * time.Second,

		PlanCacheTTL:          time.Duration(getEnvInt("PLAN_CACHE_TTL_SECONDS", 86400)) * time.Second,
		InvalidateCacheOnSave: getEnvBool("INVALIDATE_CACHE_ON_SAVE", false),
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// ValidateConfig checks that required values are present and sane.
func ValidateConfig(cfg *Config) error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.ProfileServiceURL == "" {
		return fmt.Errorf("PROFILE_SERVICE_URL is required")
	}
	if cfg.CatalogServiceURL == "" {
		return fmt.Errorf("CATALOG_SERVICE_URL is required")
	}
	if cfg.PlanCacheTTL <= 0 {
		return fmt.Errorf("PLAN_CACHE_TTL_SECONDS must be positive")
	}
	if cfg.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT_SECONDS must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
