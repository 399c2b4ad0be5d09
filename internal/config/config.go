// Package config loads service configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates configuration for the whole service.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	Oracle OracleConfig
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Addr string
}

// DBConfig describes the Postgres connection. An empty URL means the
// service runs on the in-memory store.
type DBConfig struct {
	URL string
}

// OracleConfig describes the OpenAI connection used by both oracles.
type OracleConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}
	oracle, err := loadOracleConfig()
	if err != nil {
		return nil, err
	}
	return &Config{
		Server: server,
		DB:     DBConfig{URL: strings.TrimSpace(os.Getenv("DATABASE_URL"))},
		Oracle: oracle,
	}, nil
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}
	if strings.Contains(port, ":") {
		// Allow passing ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port}, nil
	}
	if _, err := strconv.Atoi(port); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid PORT value %q: %w", port, err)
	}
	return ServerConfig{Addr: ":" + port}, nil
}

func loadOracleConfig() (OracleConfig, error) {
	timeout := 30 * time.Second
	if raw := strings.TrimSpace(os.Getenv("ORACLE_TIMEOUT_SECONDS")); raw != "" {
		secs, err := strconv.Atoi(raw)
		if err != nil || secs <= 0 {
			return OracleConfig{}, fmt.Errorf("invalid ORACLE_TIMEOUT_SECONDS value %q", raw)
		}
		timeout = time.Duration(secs) * time.Second
	}
	return OracleConfig{
		APIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		Model:   getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		BaseURL: strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		Timeout: timeout,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}
