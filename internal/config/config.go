package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Database
	DatabaseURL string

	// Auth0
	Auth0Domain   string
	Auth0Audience string

	// Server
	Port        string
	CORSOrigins []string
	Env         string

	// Quote provider
	Quote QuoteConfig

	// DCA worker
	DCA DCAConfig

	// S3 receipt storage
	S3 S3Config
}

// QuoteConfig holds quote provider configuration
type QuoteConfig struct {
	BaseURL        string
	APIKey         string
	CacheTTL       time.Duration
	RefreshEvery   time.Duration
	RequestsPerSec float64
}

// DCAConfig holds DCA worker configuration
type DCAConfig struct {
	PollInterval time.Duration
	Enabled      bool
}

// S3Config holds S3-compatible object storage configuration
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // Optional: for MinIO/LocalStack local dev
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		Auth0Domain:   getEnv("AUTH0_DOMAIN", ""),
		Auth0Audience: getEnv("AUTH0_AUDIENCE", ""),
		Port:          getEnv("PORT", "8080"),
		CORSOrigins:   strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ","),
		Env:           getEnv("ENV", "development"),
		Quote: QuoteConfig{
			BaseURL:        getEnv("QUOTE_BASE_URL", "https://quotes.wonbook.app"),
			APIKey:         getEnv("QUOTE_API_KEY", ""),
			CacheTTL:       getEnvDuration("QUOTE_CACHE_TTL", 5*time.Minute),
			RefreshEvery:   getEnvDuration("QUOTE_REFRESH_INTERVAL", 10*time.Minute),
			RequestsPerSec: getEnvFloat("QUOTE_REQUESTS_PER_SEC", 5),
		},
		DCA: DCAConfig{
			PollInterval: getEnvDuration("DCA_POLL_INTERVAL", time.Minute),
			Enabled:      getEnv("DCA_ENABLED", "true") == "true",
		},
		S3: S3Config{
			Region:          getEnv("S3_REGION", "ap-northeast-2"),
			Bucket:          getEnv("S3_BUCKET", "wonbook-receipts"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Endpoint:        getEnv("S3_ENDPOINT", ""), // Empty = use AWS, set for MinIO/LocalStack
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Auth0Domain == "" {
		return fmt.Errorf("AUTH0_DOMAIN is required")
	}
	if c.Auth0Audience == "" {
		return fmt.Errorf("AUTH0_AUDIENCE is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
