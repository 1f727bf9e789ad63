// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	APIBaseURL      string
	RequestTimeout  time.Duration
	RetryMax        int
	RetryBaseDelay  time.Duration
	CredentialsPath string
	Port            string // mockapi listen port
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		APIBaseURL:      getEnv("VOXFORM_API_URL", "http://localhost:8080"),
		RequestTimeout:  getEnvMillis("VOXFORM_TIMEOUT_MS", 30*time.Second),
		RetryMax:        getEnvInt("VOXFORM_RETRY_MAX", 3),
		RetryBaseDelay:  getEnvMillis("VOXFORM_RETRY_BASE_DELAY_MS", time.Second),
		CredentialsPath: getEnv("VOXFORM_CREDENTIALS_PATH", "./data/credentials.db"),
		Port:            getEnv("PORT", "8080"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("VOXFORM_API_URL cannot be empty")
	}
	if !strings.HasPrefix(c.APIBaseURL, "http://") && !strings.HasPrefix(c.APIBaseURL, "https://") {
		return fmt.Errorf("VOXFORM_API_URL must start with http:// or https://")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("VOXFORM_TIMEOUT_MS must be > 0")
	}
	if c.RetryMax < 0 {
		return fmt.Errorf("VOXFORM_RETRY_MAX must be >= 0")
	}
	if c.RetryBaseDelay <= 0 {
		return fmt.Errorf("VOXFORM_RETRY_BASE_DELAY_MS must be > 0")
	}
	if c.CredentialsPath == "" {
		return fmt.Errorf("VOXFORM_CREDENTIALS_PATH cannot be empty")
	}
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvMillis(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	ms, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
