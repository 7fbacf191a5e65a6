// Package config - Tests for configuration management
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg == nil {
		t.Fatal("DefaultConfig should not return nil")
	}

	if cfg.Target.RegistrationEndpoint != "/api/register" {
		t.Errorf("Expected default registration endpoint /api/register, got %s", cfg.Target.RegistrationEndpoint)
	}

	if cfg.Timeouts.WaitReadyMs != 15000 {
		t.Errorf("Expected default wait-ready budget of 15000ms, got %d", cfg.Timeouts.WaitReadyMs)
	}

	if len(cfg.Scenarios.Destinations) != 4 {
		t.Errorf("Expected 4 navigation destinations, got %d", len(cfg.Scenarios.Destinations))
	}

	if len(cfg.Scenarios.Legal) != 2 {
		t.Errorf("Expected 2 legal pages, got %d", len(cfg.Scenarios.Legal))
	}

	// Defaults must be valid on their own, nothing is required from the environment
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	cfg := DefaultConfig()

	cfg.Target.BaseURL = "not a url"
	if err := cfg.Validate(); err == nil {
		t.Error("Validation should fail with a relative base URL")
	}
	cfg.Target.BaseURL = "https://example.test"

	cfg.Stealth.TypingDelayMin = 200
	cfg.Stealth.TypingDelayMax = 100
	if err := cfg.Validate(); err == nil {
		t.Error("Validation should fail when typing delay min exceeds max")
	}
	cfg.Stealth.TypingDelayMin = 30
	cfg.Stealth.TypingDelayMax = 130

	cfg.Stealth.TypingMistakeRate = 1.5
	if err := cfg.Validate(); err == nil {
		t.Error("Validation should fail with a mistake rate above 1")
	}
	cfg.Stealth.TypingMistakeRate = 0.02

	cfg.Timeouts.ResultMs = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validation should fail with a zero result timeout")
	}
	cfg.Timeouts.ResultMs = 10000

	cfg.Logging.Level = "invalid"
	if err := cfg.Validate(); err == nil {
		t.Error("Validation should fail with invalid log level")
	}
	cfg.Logging.Level = "info"

	for _, minutes := range []int{0, -5} {
		cfg.Schedule.RunTimeoutMinutes = minutes
		if err := cfg.Validate(); err == nil {
			t.Errorf("Validation should fail with run_timeout_minutes=%d", minutes)
		}
	}
	cfg.Schedule.RunTimeoutMinutes = 20

	cfg.Browser.Timeout = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Validation should fail with a zero browser timeout")
	}
	cfg.Browser.Timeout = 60

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validation should pass once every field is restored: %v", err)
	}

	cfg.Scenarios.Legal = append(cfg.Scenarios.Legal, LegalPage{Name: "cookies", Path: "cookies"})
	if err := cfg.Validate(); err == nil {
		t.Error("Validation should fail with a legal page path missing its leading slash")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TARGET_BASE_URL", "http://127.0.0.1:8080")
	t.Setenv("BROWSER_HEADLESS", "1")
	t.Setenv("PROFILE_SEED", "42")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HARNESS_SCHEDULE", "@every 1h")

	cfg := DefaultConfig()
	cfg.applyEnvOverrides()

	if cfg.Target.BaseURL != "http://127.0.0.1:8080" {
		t.Errorf("Base URL should be overridden from env, got %s", cfg.Target.BaseURL)
	}

	if !cfg.Browser.Headless {
		t.Error("Headless should be overridden from env")
	}

	if cfg.Profile.Seed != 42 {
		t.Errorf("Seed should be 42 from env, got %d", cfg.Profile.Seed)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Log level should be debug from env, got %s", cfg.Logging.Level)
	}

	if !cfg.Schedule.Enabled || cfg.Schedule.Cron != "@every 1h" {
		t.Errorf("Schedule should be enabled from env, got %+v", cfg.Schedule)
	}
}

func TestURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Target.BaseURL = "https://example.test/"

	if got := cfg.URL("/register"); got != "https://example.test/register" {
		t.Errorf("Expected joined URL, got %s", got)
	}
}

func TestTimeoutDurations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeouts.PollIntervalMs = 50

	if cfg.Timeouts.PollInterval().Milliseconds() != 50 {
		t.Errorf("Expected 50ms poll interval, got %v", cfg.Timeouts.PollInterval())
	}

	if cfg.GetTimeout().Seconds() != 60 {
		t.Errorf("Expected 60 seconds, got %f", cfg.GetTimeout().Seconds())
	}
}

func TestLoadConfigNonExistent(t *testing.T) {
	cfg, err := LoadConfig("nonexistent.yaml")
	if err != nil {
		t.Fatalf("Should not error for non-existent file: %v", err)
	}

	if cfg.Target.SuccessKeyword != "successful" {
		t.Error("Should have default success keyword")
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Target.BaseURL = "https://staging.example.test"
	cfg.Scenarios.ContactForm = false
	if err := cfg.SaveConfig(path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if loaded.Target.BaseURL != "https://staging.example.test" {
		t.Errorf("Base URL not round-tripped, got %s", loaded.Target.BaseURL)
	}
	if loaded.Scenarios.ContactForm {
		t.Error("Contact form toggle not round-tripped")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("target: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("LoadConfig should fail on malformed YAML")
	}
}
