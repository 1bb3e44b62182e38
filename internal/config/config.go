// Package config loads backend configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration for the backend.
type Config struct {
	// DataDir is the directory holding the local SQLite database.
	DataDir string

	// ListenAddr is the localhost address the UI server binds to.
	ListenAddr string

	// GatewayURL is the base URL of the hosted data API.
	GatewayURL string

	// GatewayToken is the bearer token attached to gateway requests.
	GatewayToken string

	// RequestTimeout bounds a single gateway dispatch.
	RequestTimeout time.Duration

	// ProbeInterval is how often the connectivity monitor pings the gateway.
	ProbeInterval time.Duration

	// MaxAttempts is the rejection ceiling before a queued mutation is
	// dead-lettered.
	MaxAttempts int

	// QueueWarnDepth is the queue depth that triggers a diagnostic warning.
	QueueWarnDepth int

	// LogLevel selects the minimum log level (debug, info, warn, error).
	LogLevel string
}

// Load reads configuration from a .env file (if present) and the process
// environment, applying defaults for anything unset.
func Load() *Config {
	// Missing .env is fine; env vars may come from the shell.
	_ = godotenv.Load()

	return &Config{
		DataDir:        getEnv("GEPREK_DATA_DIR", "./data"),
		ListenAddr:     getEnv("GEPREK_LISTEN_ADDR", "localhost:8090"),
		GatewayURL:     getEnv("GEPREK_BACKEND_URL", "https://hotshotfinger-us.backendless.app"),
		GatewayToken:   getEnv("GEPREK_API_TOKEN", ""),
		RequestTimeout: getDuration("GEPREK_REQUEST_TIMEOUT", 10*time.Second),
		ProbeInterval:  getDuration("GEPREK_PROBE_INTERVAL", 30*time.Second),
		MaxAttempts:    getInt("GEPREK_MAX_ATTEMPTS", 5),
		QueueWarnDepth: getInt("GEPREK_QUEUE_WARN_DEPTH", 300),
		LogLevel:       getEnv("GEPREK_LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
