package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected defaults to load, got %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:8080" {
		t.Errorf("Expected default base URL, got %q", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %v", cfg.RequestTimeout)
	}
	if cfg.RetryMax != 3 {
		t.Errorf("Expected default retry max 3, got %d", cfg.RetryMax)
	}
	if cfg.RetryBaseDelay != time.Second {
		t.Errorf("Expected default base delay 1s, got %v", cfg.RetryBaseDelay)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("VOXFORM_API_URL", "https://api.voxform.example")
	t.Setenv("VOXFORM_TIMEOUT_MS", "5000")
	t.Setenv("VOXFORM_RETRY_MAX", "1")
	t.Setenv("VOXFORM_RETRY_BASE_DELAY_MS", "250")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected config to load, got %v", err)
	}
	if cfg.APIBaseURL != "https://api.voxform.example" {
		t.Errorf("Expected env base URL, got %q", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %v", cfg.RequestTimeout)
	}
	if cfg.RetryMax != 1 {
		t.Errorf("Expected retry max 1, got %d", cfg.RetryMax)
	}
	if cfg.RetryBaseDelay != 250*time.Millisecond {
		t.Errorf("Expected 250ms base delay, got %v", cfg.RetryBaseDelay)
	}
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("VOXFORM_TIMEOUT_MS", "not-a-number")
	t.Setenv("VOXFORM_RETRY_MAX", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected config to load, got %v", err)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Errorf("Expected fallback timeout, got %v", cfg.RequestTimeout)
	}
}

func TestValidate(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Expected config to load, got %v", err)
	}

	cfg.APIBaseURL = "localhost:8080"
	if err := cfg.Validate(); err == nil {
		t.Errorf("Expected validation failure for schemeless URL")
	}

	cfg.APIBaseURL = "http://localhost:8080"
	cfg.CredentialsPath = ""
	if err := cfg.Validate(); err == nil {
		t.Errorf("Expected validation failure for empty credentials path")
	}
}
