// Package config provides configuration management for the signup harness.
// It supports YAML configuration files with environment variable overrides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for the harness
type Config struct {
	// Application under test
	Target TargetConfig `yaml:"target"`

	// Browser configuration
	Browser BrowserConfig `yaml:"browser"`

	// Stealth settings for human-like interaction
	Stealth StealthConfig `yaml:"stealth"`

	// Wait budgets for element readiness and submission results
	Timeouts TimeoutConfig `yaml:"timeouts"`

	// Scenario selection and fixed page data
	Scenarios ScenarioConfig `yaml:"scenarios"`

	// Synthetic profile generation
	Profile ProfileConfig `yaml:"profile"`

	// Storage configuration
	Storage StorageConfig `yaml:"storage"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging"`

	// Recurring runs
	Schedule ScheduleConfig `yaml:"schedule"`
}

// TargetConfig describes the live application the harness drives
type TargetConfig struct {
	BaseURL              string `yaml:"base_url"`
	ContactPath          string `yaml:"contact_path"`
	RegisterPath         string `yaml:"register_path"`
	RegistrationEndpoint string `yaml:"registration_endpoint"`
	CSRFMetaSelector     string `yaml:"csrf_meta_selector"`
	CSRFField            string `yaml:"csrf_field"`
	SuccessKeyword       string `yaml:"success_keyword"`
	CompletionVariable   string `yaml:"completion_variable"`
	SuccessBanner        string `yaml:"success_banner"`
	ErrorBanner          string `yaml:"error_banner"`
	TestPassword         string `yaml:"test_password"`
}

// BrowserConfig holds browser automation settings
type BrowserConfig struct {
	Headless       bool   `yaml:"headless"`
	Bin            string `yaml:"bin"`
	UserDataDir    string `yaml:"user_data_dir"`
	SlowMotion     int    `yaml:"slow_motion_ms"`
	Timeout        int    `yaml:"timeout_seconds"`
	ViewportWidth  int    `yaml:"viewport_width"`
	ViewportHeight int    `yaml:"viewport_height"`
}

// StealthConfig holds human interaction settings
type StealthConfig struct {
	// Mouse movement settings
	MouseSpeedMin  float64 `yaml:"mouse_speed_min"`
	MouseSpeedMax  float64 `yaml:"mouse_speed_max"`
	MouseOvershoot bool    `yaml:"mouse_overshoot"`

	// Typing settings
	TypingDelayMin    int     `yaml:"typing_delay_min_ms"`
	TypingDelayMax    int     `yaml:"typing_delay_max_ms"`
	TypingMistakeRate float64 `yaml:"typing_mistake_rate"`
	SettleDelayMin    int     `yaml:"settle_delay_min_ms"`
	SettleDelayMax    int     `yaml:"settle_delay_max_ms"`
	SelectPauseMin    int     `yaml:"select_pause_min_ms"`
	SelectPauseMax    int     `yaml:"select_pause_max_ms"`

	// Timing settings
	ActionDelayMin  int `yaml:"action_delay_min_ms"`
	ActionDelayMax  int `yaml:"action_delay_max_ms"`
	PageLoadWaitMin int `yaml:"page_load_wait_min_ms"`
	PageLoadWaitMax int `yaml:"page_load_wait_max_ms"`

	// Fingerprint masking
	RandomizeViewport bool `yaml:"randomize_viewport"`
	DisableWebdriver  bool `yaml:"disable_webdriver"`
	RandomUserAgent   bool `yaml:"random_user_agent"`
}

// TimeoutConfig holds wait budgets in milliseconds
type TimeoutConfig struct {
	WaitReadyMs     int `yaml:"wait_ready_ms"`
	ResultMs        int `yaml:"result_ms"`
	ContactResultMs int `yaml:"contact_result_ms"`
	PollIntervalMs  int `yaml:"poll_interval_ms"`
}

// Destination is a page reachable from the home page through a labeled link
type Destination struct {
	Name     string `yaml:"name"`
	LinkText string `yaml:"link_text"`
}

// LegalPage is a document route checked for a topical keyword
type LegalPage struct {
	Name    string `yaml:"name"`
	Path    string `yaml:"path"`
	Keyword string `yaml:"keyword"`
}

// ScenarioConfig holds scenario toggles and fixed page data
type ScenarioConfig struct {
	Navigation       bool          `yaml:"navigation"`
	LegalPages       bool          `yaml:"legal_pages"`
	ContactForm      bool          `yaml:"contact_form"`
	Registration     bool          `yaml:"registration"`
	Destinations     []Destination `yaml:"destinations"`
	Legal            []LegalPage   `yaml:"legal"`
	ContactMaxLength int           `yaml:"contact_max_length"`
}

// ProfileConfig holds synthetic profile settings
type ProfileConfig struct {
	Seed                  uint64  `yaml:"seed"`
	CompanyAddress2Chance float64 `yaml:"company_address2_chance"`
	UserAddress2Chance    float64 `yaml:"user_address2_chance"`
}

// StorageConfig holds run history persistence settings
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	OutputFile string `yaml:"output_file"`
}

// ScheduleConfig holds recurring run settings
type ScheduleConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Cron              string `yaml:"cron"`
	Timezone          string `yaml:"timezone"`
	RunTimeoutMinutes int    `yaml:"run_timeout_minutes"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Target: TargetConfig{
			BaseURL:              "https://clubdirector.app",
			ContactPath:          "/contact",
			RegisterPath:         "/register",
			RegistrationEndpoint: "/api/register",
			CSRFMetaSelector:     `meta[name="csrf-token"]`,
			CSRFField:            "_csrf",
			SuccessKeyword:       "successful",
			CompletionVariable:   "__harnessSubmission",
			SuccessBanner:        ".alert-success",
			ErrorBanner:          ".alert-danger",
			TestPassword:         "mmmmmmmm",
		},
		Browser: BrowserConfig{
			Headless:       false,
			UserDataDir:    "",
			SlowMotion:     0,
			Timeout:        60,
			ViewportWidth:  1366,
			ViewportHeight: 768,
		},
		Stealth: StealthConfig{
			MouseSpeedMin:     0.5,
			MouseSpeedMax:     2.0,
			MouseOvershoot:    true,
			TypingDelayMin:    30,
			TypingDelayMax:    130,
			TypingMistakeRate: 0.02,
			SettleDelayMin:    150,
			SettleDelayMax:    350,
			SelectPauseMin:    100,
			SelectPauseMax:    300,
			ActionDelayMin:    300,
			ActionDelayMax:    700,
			PageLoadWaitMin:   1500,
			PageLoadWaitMax:   3000,
			RandomizeViewport: true,
			DisableWebdriver:  true,
			RandomUserAgent:   true,
		},
		Timeouts: TimeoutConfig{
			WaitReadyMs:     15000,
			ResultMs:        10000,
			ContactResultMs: 10000,
			PollIntervalMs:  250,
		},
		Scenarios: ScenarioConfig{
			Navigation:   true,
			LegalPages:   true,
			ContactForm:  true,
			Registration: true,
			Destinations: []Destination{
				{Name: "pricing", LinkText: "Pricing"},
				{Name: "topics", LinkText: "Topics"},
				{Name: "about", LinkText: "About"},
				{Name: "contact", LinkText: "Contact"},
			},
			Legal: []LegalPage{
				{Name: "terms", Path: "/terms-of-service", Keyword: "terms"},
				{Name: "privacy", Path: "/privacy-policy", Keyword: "privacy"},
			},
			ContactMaxLength: 200,
		},
		Profile: ProfileConfig{
			Seed:                  0,
			CompanyAddress2Chance: 0.5,
			UserAddress2Chance:    0.4,
		},
		Storage: StorageConfig{
			DatabasePath: "./data/harness.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			OutputFile: "./logs/harness.log",
		},
		Schedule: ScheduleConfig{
			Enabled:           false,
			Cron:              "0 */6 * * *",
			Timezone:          "Local",
			RunTimeoutMinutes: 20,
		},
	}
}

// LoadConfig loads configuration from a YAML file and applies environment variable overrides
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	// Try to load from file if it exists
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			// File doesn't exist, use defaults
		} else {
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Apply environment variable overrides
	config.applyEnvOverrides()

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func (c *Config) applyEnvOverrides() {
	if baseURL := os.Getenv("TARGET_BASE_URL"); baseURL != "" {
		c.Target.BaseURL = baseURL
	}

	// Browser settings
	if headless := os.Getenv("BROWSER_HEADLESS"); headless != "" {
		c.Browser.Headless = headless == "true" || headless == "1"
	}
	if bin := os.Getenv("BROWSER_BIN"); bin != "" {
		c.Browser.Bin = bin
	}

	// Profile seed for reproducible runs
	if seed := os.Getenv("PROFILE_SEED"); seed != "" {
		if val, err := strconv.ParseUint(seed, 10, 64); err == nil {
			c.Profile.Seed = val
		}
	}

	// Logging
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		c.Logging.Format = logFormat
	}

	// Storage
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		c.Storage.DatabasePath = dbPath
	}

	// Schedule
	if spec := os.Getenv("HARNESS_SCHEDULE"); spec != "" {
		c.Schedule.Enabled = true
		c.Schedule.Cron = spec
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	u, err := url.Parse(c.Target.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("target base_url must be an absolute URL, got %q", c.Target.BaseURL)
	}
	if c.Target.SuccessKeyword == "" {
		return fmt.Errorf("target success_keyword is required")
	}
	if c.Target.CompletionVariable == "" {
		return fmt.Errorf("target completion_variable is required")
	}

	// Validate stealth ranges
	ranges := []struct {
		name     string
		min, max int
	}{
		{"typing_delay", c.Stealth.TypingDelayMin, c.Stealth.TypingDelayMax},
		{"settle_delay", c.Stealth.SettleDelayMin, c.Stealth.SettleDelayMax},
		{"select_pause", c.Stealth.SelectPauseMin, c.Stealth.SelectPauseMax},
		{"action_delay", c.Stealth.ActionDelayMin, c.Stealth.ActionDelayMax},
		{"page_load_wait", c.Stealth.PageLoadWaitMin, c.Stealth.PageLoadWaitMax},
	}
	for _, r := range ranges {
		if r.min < 0 || r.max < r.min {
			return fmt.Errorf("%s range is invalid: min=%d max=%d", r.name, r.min, r.max)
		}
	}
	if c.Stealth.TypingMistakeRate < 0 || c.Stealth.TypingMistakeRate > 1 {
		return fmt.Errorf("typing_mistake_rate must be between 0 and 1")
	}

	if c.Browser.Timeout <= 0 {
		return fmt.Errorf("browser timeout_seconds must be positive")
	}

	// Validate timeouts
	if c.Timeouts.WaitReadyMs <= 0 || c.Timeouts.ResultMs <= 0 || c.Timeouts.ContactResultMs <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.Timeouts.PollIntervalMs <= 0 {
		return fmt.Errorf("poll_interval_ms must be positive")
	}

	for _, lp := range c.Scenarios.Legal {
		if !strings.HasPrefix(lp.Path, "/") {
			return fmt.Errorf("legal page %s path must start with /", lp.Name)
		}
	}

	// Validate logging level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	if c.Schedule.Enabled && c.Schedule.Cron == "" {
		return fmt.Errorf("schedule cron expression is required when scheduling is enabled")
	}
	if c.Schedule.RunTimeoutMinutes <= 0 {
		return fmt.Errorf("schedule run_timeout_minutes must be positive")
	}

	return nil
}

// GetTimeout returns the configured browser timeout as a time.Duration
func (c *Config) GetTimeout() time.Duration {
	return time.Duration(c.Browser.Timeout) * time.Second
}

// URL resolves a route against the target base URL
func (c *Config) URL(path string) string {
	return strings.TrimRight(c.Target.BaseURL, "/") + path
}

// WaitReady returns the element readiness budget
func (t TimeoutConfig) WaitReady() time.Duration {
	return time.Duration(t.WaitReadyMs) * time.Millisecond
}

// Result returns the registration result budget
func (t TimeoutConfig) Result() time.Duration {
	return time.Duration(t.ResultMs) * time.Millisecond
}

// ContactResult returns the contact form result budget
func (t TimeoutConfig) ContactResult() time.Duration {
	return time.Duration(t.ContactResultMs) * time.Millisecond
}

// PollInterval returns the interval between readiness and result probes
func (t TimeoutConfig) PollInterval() time.Duration {
	return time.Duration(t.PollIntervalMs) * time.Millisecond
}

// SaveConfig saves the current configuration to a YAML file
func (c *Config) SaveConfig(configPath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
