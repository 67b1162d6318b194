// Package config loads runtime configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting the gateway reads.
type Config struct {
	// MCPBaseURL is the base URL of the tool gateway server.
	MCPBaseURL string
	// Provider selects the completion backend: openai, anthropic, gemini,
	// ollama, or dummy.
	Provider string
	// Model is the provider-specific model name; empty selects the
	// provider's default.
	Model string
	// Port is the HTTP listen port for serve mode.
	Port int
	// RedisURL enables conversation history persistence when non-empty.
	RedisURL string
	// UsageDBPath is the SQLite usage database path; empty disables usage
	// tracking.
	UsageDBPath string
	// DisableToolCache turns off in-process caching of tool results.
	DisableToolCache bool
}

// Load reads configuration from the environment. A .env file in the working
// directory is merged in first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		MCPBaseURL:       getenv("MCP_BASE_URL", "http://localhost:8000"),
		Provider:         getenv("LLM_PROVIDER", "openai"),
		Model:            os.Getenv("LLM_MODEL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		UsageDBPath:      getenv("USAGE_DB_PATH", "usage.db"),
		DisableToolCache: os.Getenv("DISABLE_TOOL_CACHE") == "1",
	}

	port := getenv("PORT", "8080")
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return Config{}, fmt.Errorf("invalid PORT %q", port)
	}
	cfg.Port = n

	if cfg.MCPBaseURL == "" {
		return Config{}, fmt.Errorf("MCP_BASE_URL must not be empty")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
