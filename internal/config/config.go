// Package config provides configuration for the gateway.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the gateway configuration.
type Config struct {
	// Server settings
	HTTPPort    int
	VerifyToken string

	// Backing stores
	RedisURL    string
	DatabaseURL string
	SeedFile    string

	// Remote API bases
	AuthURL          string
	DirectoryBaseURL string
	IssuesBaseURL    string

	// Outbound messaging
	ChatBaseURL     string
	ChatPhoneID     string
	ChatAccessToken string

	// NLU parser
	NLUBaseURL string
	NLUAPIKey  string
	NLUModel   string

	// Timeouts and TTLs
	UpstreamTimeout time.Duration
	NLUTimeout      time.Duration
	SessionTTL      time.Duration
	CacheTTL        time.Duration

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:         getEnvInt("HTTP_PORT", 8080),
		VerifyToken:      getEnv("WEBHOOK_VERIFY_TOKEN", ""),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		DatabaseURL:      getEnv("DATABASE_URL", "file:chatgate.db?cache=shared&mode=rwc"),
		SeedFile:         getEnv("SEED_FILE", ""),
		AuthURL:          getEnv("AUTH_URL", "https://developer.api.autodesk.com/authentication/v2/token"),
		DirectoryBaseURL: getEnv("DIRECTORY_BASE_URL", "https://developer.api.autodesk.com"),
		IssuesBaseURL:    getEnv("ISSUES_BASE_URL", "https://developer.api.autodesk.com/construction/issues/v1"),
		ChatBaseURL:      getEnv("CHAT_BASE_URL", "https://graph.facebook.com/v17.0"),
		ChatPhoneID:      getEnv("CHAT_PHONE_ID", ""),
		ChatAccessToken:  getEnv("CHAT_ACCESS_TOKEN", ""),
		NLUBaseURL:       getEnv("NLU_BASE_URL", ""),
		NLUAPIKey:        getEnv("NLU_API_KEY", ""),
		NLUModel:         getEnv("NLU_MODEL", "gpt-4o-mini"),
		UpstreamTimeout:  time.Duration(getEnvInt("UPSTREAM_TIMEOUT_MS", 30000)) * time.Millisecond,
		NLUTimeout:       time.Duration(getEnvInt("NLU_TIMEOUT_MS", 20000)) * time.Millisecond,
		SessionTTL:       time.Duration(getEnvInt("SESSION_TTL_S", 1800)) * time.Second,
		CacheTTL:         time.Duration(getEnvInt("CACHE_TTL_S", 300)) * time.Second,
		LogLevel:         getEnv("LOG_LEVEL", "info"),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
