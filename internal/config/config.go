package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/hession/searxmate/internal/logger"
)

var (
	// configDir is the configuration directory path
	// Can be set via SetConfigDir before loading config
	configDir     string
	configDirInit bool
)

// SetConfigDir sets a custom configuration directory
// Must be called before any config loading functions
func SetConfigDir(dir string) {
	configDir = dir
	configDirInit = true
}

// GetConfigDir returns the configuration directory
// Priority: 1. Manually set via SetConfigDir, 2. ./config in current directory
func GetConfigDir() string {
	if !configDirInit {
		cwd, err := os.Getwd()
		if err == nil {
			configDir = filepath.Join(cwd, "config")
		}
		configDirInit = true
	}
	return configDir
}

// Config application configuration structure
type Config struct {
	SearXNG SearXNGConfig `yaml:"searxng"`
	Health  HealthConfig  `yaml:"health"`
	History HistoryConfig `yaml:"history"`
	Log     LogConfig     `yaml:"log"`
	Batch   BatchConfig   `yaml:"batch"`
}

// SearXNGConfig search endpoint configuration
type SearXNGConfig struct {
	BaseURL        string `yaml:"base_url" env:"SEARXNG_BASE_URL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"SEARXNG_TIMEOUT_SECONDS"`
	DefaultCount   int    `yaml:"default_count" env:"SEARXNG_DEFAULT_COUNT"`
	UserAgent      string `yaml:"user_agent" env:"SEARXNG_USER_AGENT"`
	Language       string `yaml:"language" env:"SEARXNG_LANGUAGE"`
	SafeSearch     int    `yaml:"safesearch" env:"SEARXNG_SAFESEARCH"` // -1 keeps the instance default
	APIKey         string `yaml:"api_key" env:"SEARXNG_API_KEY"`
}

// HealthConfig readiness check configuration
type HealthConfig struct {
	MaxRetries        int    `yaml:"max_retries" env:"SEARXNG_HEALTH_MAX_RETRIES"`
	RetryDelaySeconds int    `yaml:"retry_delay_seconds" env:"SEARXNG_HEALTH_RETRY_DELAY_SECONDS"`
	ExpectText        string `yaml:"expect_text" env:"SEARXNG_HEALTH_EXPECT_TEXT"`
}

// HistoryConfig query history configuration
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled" env:"SEARXMATE_HISTORY_ENABLED"`
	DBPath  string `yaml:"db_path" env:"SEARXMATE_HISTORY_DB"`
}

// LogConfig logging configuration
type LogConfig struct {
	Level   string `yaml:"level" env:"SEARXMATE_LOG_LEVEL"`
	MaxDays int    `yaml:"max_days" env:"SEARXMATE_LOG_MAX_DAYS"`
	Console bool   `yaml:"console" env:"SEARXMATE_LOG_CONSOLE"`
}

// BatchConfig parallel query configuration
type BatchConfig struct {
	Concurrency int `yaml:"concurrency" env:"SEARXMATE_BATCH_CONCURRENCY"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		SearXNG: SearXNGConfig{
			BaseURL:        "http://localhost:8080",
			TimeoutSeconds: 30,
			DefaultCount:   2,
			UserAgent:      "searxmate/0.1",
			Language:       "",
			SafeSearch:     -1,
			APIKey:         "",
		},
		Health: HealthConfig{
			MaxRetries:        5,
			RetryDelaySeconds: 10,
			ExpectText:        "SearXNG",
		},
		History: HistoryConfig{
			Enabled: true,
			DBPath:  filepath.Join(homeDir, ".searxmate", "history.db"),
		},
		Log: LogConfig{
			Level:   "info",
			MaxDays: 7,
			Console: false,
		},
		Batch: BatchConfig{
			Concurrency: 4,
		},
	}
}

// ConfigDir returns the configuration directory path
func ConfigDir() (string, error) {
	dir := GetConfigDir()
	if dir == "" {
		return "", fmt.Errorf("failed to determine config directory")
	}
	return dir, nil
}

// LogDir returns the log directory path
func LogDir() string {
	dir := GetConfigDir()
	if dir == "" {
		return "logs"
	}
	return filepath.Join(dir, "logs")
}

// ConfigPath returns the configuration file path
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// Load loads configuration from file, then applies secrets and environment
// overrides. A missing file is created with defaults.
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := Save(cfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		logger.Info("created default config at %s", configPath)
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Secrets only fill what the config file leaves empty
	secrets, _ := LoadSecrets()
	if secrets != nil && cfg.SearXNG.APIKey == "" {
		if key := secrets.GetSearXNGAPIKey(); key != "" {
			cfg.SearXNG.APIKey = key
		}
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.History.DBPath = expandHome(cfg.History.DBPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnv overrides fields whose environment variable is set
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse environment overrides: %w", err)
	}
	return nil
}

// Save saves configuration to file
func Save(cfg *Config) error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	content := "# searxmate configuration file\n# Environment variables (SEARXNG_BASE_URL, ...) override these values.\n\n" + string(data)

	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	baseURL := strings.TrimSpace(c.SearXNG.BaseURL)
	if baseURL == "" {
		return fmt.Errorf("config error: searxng.base_url cannot be empty")
	}
	parsed, err := url.Parse(baseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("config error: searxng.base_url must be an http(s) URL, got %q", baseURL)
	}
	if c.SearXNG.TimeoutSeconds <= 0 {
		return fmt.Errorf("config error: searxng.timeout_seconds must be greater than 0")
	}
	if c.SearXNG.DefaultCount <= 0 {
		return fmt.Errorf("config error: searxng.default_count must be greater than 0")
	}
	if c.SearXNG.SafeSearch < -1 || c.SearXNG.SafeSearch > 2 {
		return fmt.Errorf("config error: searxng.safesearch must be -1, 0, 1 or 2")
	}

	if c.Health.MaxRetries <= 0 {
		return fmt.Errorf("config error: health.max_retries must be greater than 0")
	}
	if c.Health.RetryDelaySeconds < 0 {
		return fmt.Errorf("config error: health.retry_delay_seconds cannot be negative")
	}

	if c.History.Enabled && strings.TrimSpace(c.History.DBPath) == "" {
		return fmt.Errorf("config error: history.db_path cannot be empty when history is enabled")
	}

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config error: log.level: %w", err)
	}

	if c.Batch.Concurrency < 0 {
		return fmt.Errorf("config error: batch.concurrency cannot be negative")
	}

	return nil
}

// Timeout returns the request timeout as a duration
func (c SearXNGConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SafeSearchLevel returns nil when the instance default should be kept
func (c SearXNGConfig) SafeSearchLevel() *int {
	if c.SafeSearch < 0 {
		return nil
	}
	level := c.SafeSearch
	return &level
}

// RetryDelay returns the delay between readiness attempts
func (c HealthConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelaySeconds) * time.Second
}

// String returns string representation of config (hides sensitive info)
func (c *Config) String() string {
	language := c.SearXNG.Language
	if language == "" {
		language = "(instance default)"
	}
	safeSearch := "(instance default)"
	if c.SearXNG.SafeSearch >= 0 {
		safeSearch = fmt.Sprintf("%d", c.SearXNG.SafeSearch)
	}

	return fmt.Sprintf(`searxmate configuration:
  SearXNG:
    Base URL: %s
    Timeout Seconds: %d
    Default Count: %d
    User Agent: %s
    Language: %s
    Safe Search: %s
    API Key: %s
  Health:
    Max Retries: %d
    Retry Delay Seconds: %d
    Expect Text: %s
  History:
    Enabled: %v
    DB Path: %s
  Log:
    Level: %s
    Max Days: %d
    Console: %v
  Batch:
    Concurrency: %d`,
		c.SearXNG.BaseURL,
		c.SearXNG.TimeoutSeconds,
		c.SearXNG.DefaultCount,
		c.SearXNG.UserAgent,
		language,
		safeSearch,
		redactAPIKey(c.SearXNG.APIKey),
		c.Health.MaxRetries,
		c.Health.RetryDelaySeconds,
		c.Health.ExpectText,
		c.History.Enabled,
		c.History.DBPath,
		c.Log.Level,
		c.Log.MaxDays,
		c.Log.Console,
		c.Batch.Concurrency,
	)
}

// expandHome resolves a leading ~ to the user's home directory
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func redactAPIKey(value string) string {
	if value == "" {
		return "(not configured)"
	}
	if len(value) > 8 {
		return value[:8] + "..."
	}
	return "***"
}
