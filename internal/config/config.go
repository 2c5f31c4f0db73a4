package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Redis
	RedisURL string

	// Connector selects the completion backend: "http" or "gemini"
	Connector string

	// Upstream completion API (http connector)
	UpstreamURL   string
	UpstreamModel string

	// Gemini AI (gemini connector)
	GeminiAPIKey string
	GeminiModel  string

	// Sessions
	SessionTTLMinutes int
	WorkerCount       int

	// Reference links
	RefsBaseURL    string
	RefsLinkTarget string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:              getEnvOrDefault("PORT", "8080"),
		Env:               getEnvOrDefault("ENV", "development"),
		RedisURL:          mustGetEnv("REDIS_URL"),
		Connector:         getEnvOrDefault("CONNECTOR", "http"),
		UpstreamURL:       getEnvOrDefault("UPSTREAM_URL", "v1/chat/completions"),
		UpstreamModel:     getEnvOrDefault("UPSTREAM_MODEL", ""),
		GeminiAPIKey:      getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:       getEnvOrDefault("GEMINI_MODEL", "gemini-2.0-flash"),
		SessionTTLMinutes: getEnvAsIntOrDefault("SESSION_TTL_MINUTES", 60),
		WorkerCount:       getEnvAsIntOrDefault("WORKER_COUNT", 4),
		RefsBaseURL:       getEnvOrDefault("REFS_BASE_URL", ""),
		RefsLinkTarget:    getEnvOrDefault("REFS_LINK_TARGET", "_blank"),
		FrontendURL:       getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	if cfg.Connector == "gemini" && cfg.GeminiAPIKey == "" {
		panic("CONNECTOR=gemini requires GEMINI_API_KEY to be set")
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}
