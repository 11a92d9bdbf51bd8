// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ClientConfig holds settings for the backend API client
type ClientConfig struct {
	BaseURL        string
	AuthToken      string
	RequestTimeout time.Duration
}

// FeedConfig holds feed-cache behavior settings
type FeedConfig struct {
	PageLimit  int
	StaleAfter time.Duration
}

// Config holds the complete application configuration
type Config struct {
	Client *ClientConfig
	Feed   *FeedConfig
	Debug  bool
}

// DefaultClientConfig provides default API client settings
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		RequestTimeout: 10 * time.Second,
	}
}

// DefaultFeedConfig provides default feed settings
func DefaultFeedConfig() *FeedConfig {
	return &FeedConfig{
		PageLimit:  10,
		StaleAfter: 30 * time.Second,
	}
}

// LoadConfig loads configuration from environment variables and applies defaults.
// API_BASE_URL is required; everything else has a sensible default.
func LoadConfig() (*Config, error) {
	// Try to load .env file from multiple possible locations
	envLocations := []string{
		".env",       // Current directory
		"../../.env", // Project root when running from cmd/*
	}

	envLoaded := false
	for _, location := range envLocations {
		if err := godotenv.Load(location); err == nil {
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		// Silent failure if no .env exists, which is fine
		_ = godotenv.Load()
	}

	clientConfig := DefaultClientConfig()

	clientConfig.BaseURL = strings.TrimRight(os.Getenv("API_BASE_URL"), "/")
	if clientConfig.BaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL environment variable is required")
	}

	clientConfig.AuthToken = os.Getenv("AUTH_TOKEN")

	if timeoutStr := os.Getenv("REQUEST_TIMEOUT_SECONDS"); timeoutStr != "" {
		if seconds, err := strconv.Atoi(timeoutStr); err == nil && seconds > 0 {
			clientConfig.RequestTimeout = time.Duration(seconds) * time.Second
		}
	}

	feedConfig := DefaultFeedConfig()

	if limitStr := os.Getenv("PAGE_LIMIT"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil && limit > 0 {
			feedConfig.PageLimit = limit
		}
	}

	if staleStr := os.Getenv("STALE_AFTER_SECONDS"); staleStr != "" {
		if seconds, err := strconv.Atoi(staleStr); err == nil && seconds > 0 {
			feedConfig.StaleAfter = time.Duration(seconds) * time.Second
		}
	}

	config := &Config{
		Client: clientConfig,
		Feed:   feedConfig,
		Debug:  false,
	}

	if debug := os.Getenv("DEBUG"); debug == "true" {
		config.Debug = true
	}

	return config, nil
}
