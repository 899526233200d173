package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.SearXNG.BaseURL != "http://localhost:8080" {
		t.Errorf("Expected BaseURL to be http://localhost:8080, got %s", cfg.SearXNG.BaseURL)
	}
	if cfg.SearXNG.TimeoutSeconds != 30 {
		t.Errorf("Expected TimeoutSeconds to be 30, got %d", cfg.SearXNG.TimeoutSeconds)
	}
	if cfg.SearXNG.DefaultCount != 2 {
		t.Errorf("Expected DefaultCount to be 2, got %d", cfg.SearXNG.DefaultCount)
	}
	if cfg.SearXNG.SafeSearchLevel() != nil {
		t.Error("Expected SafeSearch to keep the instance default")
	}
	if cfg.Health.MaxRetries != 5 || cfg.Health.RetryDelay() != 10*time.Second {
		t.Errorf("Unexpected health defaults: %+v", cfg.Health)
	}
	if !cfg.History.Enabled {
		t.Error("Expected history to be enabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(c *Config) {}, wantErr: false},
		{name: "empty BaseURL", mutate: func(c *Config) { c.SearXNG.BaseURL = "" }, wantErr: true},
		{name: "BaseURL without scheme", mutate: func(c *Config) { c.SearXNG.BaseURL = "localhost:8080" }, wantErr: true},
		{name: "BaseURL ftp", mutate: func(c *Config) { c.SearXNG.BaseURL = "ftp://search.local" }, wantErr: true},
		{name: "https BaseURL", mutate: func(c *Config) { c.SearXNG.BaseURL = "https://search.example.org/searx" }, wantErr: false},
		{name: "zero timeout", mutate: func(c *Config) { c.SearXNG.TimeoutSeconds = 0 }, wantErr: true},
		{name: "zero default count", mutate: func(c *Config) { c.SearXNG.DefaultCount = 0 }, wantErr: true},
		{name: "safesearch out of range", mutate: func(c *Config) { c.SearXNG.SafeSearch = 3 }, wantErr: true},
		{name: "safesearch strict", mutate: func(c *Config) { c.SearXNG.SafeSearch = 2 }, wantErr: false},
		{name: "zero retries", mutate: func(c *Config) { c.Health.MaxRetries = 0 }, wantErr: true},
		{name: "negative retry delay", mutate: func(c *Config) { c.Health.RetryDelaySeconds = -1 }, wantErr: true},
		{name: "history without path", mutate: func(c *Config) { c.History.DBPath = " " }, wantErr: true},
		{name: "disabled history without path", mutate: func(c *Config) { c.History.Enabled = false; c.History.DBPath = "" }, wantErr: false},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: true},
		{name: "negative concurrency", mutate: func(c *Config) { c.Batch.Concurrency = -1 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	configTestDir := filepath.Join(t.TempDir(), "config")
	SetConfigDir(configTestDir)

	cfg := DefaultConfig()
	cfg.SearXNG.BaseURL = "http://searxng.internal:8888"
	cfg.SearXNG.Language = "de"
	cfg.History.DBPath = filepath.Join(configTestDir, "history.db")

	if err := Save(cfg); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	configPath := filepath.Join(configTestDir, "config.yaml")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("Config file not created")
	}

	loadedCfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if loadedCfg.SearXNG.BaseURL != cfg.SearXNG.BaseURL {
		t.Errorf("BaseURL mismatch: expected %s, got %s", cfg.SearXNG.BaseURL, loadedCfg.SearXNG.BaseURL)
	}
	if loadedCfg.SearXNG.Language != "de" {
		t.Errorf("Language mismatch: expected de, got %s", loadedCfg.SearXNG.Language)
	}
}

func TestLoad_CreatesDefault(t *testing.T) {
	configTestDir := filepath.Join(t.TempDir(), "config")
	SetConfigDir(configTestDir)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.SearXNG.BaseURL != DefaultConfig().SearXNG.BaseURL {
		t.Errorf("Expected default base URL, got %s", cfg.SearXNG.BaseURL)
	}

	data, err := os.ReadFile(filepath.Join(configTestDir, "config.yaml"))
	if err != nil {
		t.Fatalf("Default config file not written: %v", err)
	}
	if !strings.Contains(string(data), "base_url: http://localhost:8080") {
		t.Errorf("Unexpected config file content:\n%s", data)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configTestDir := filepath.Join(t.TempDir(), "config")
	SetConfigDir(configTestDir)
	os.MkdirAll(configTestDir, 0755)
	os.WriteFile(filepath.Join(configTestDir, "config.yaml"), []byte("searxng: [unclosed"), 0644)

	if _, err := Load(); err == nil {
		t.Error("Expected parse error for invalid YAML")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	configTestDir := filepath.Join(t.TempDir(), "config")
	SetConfigDir(configTestDir)

	t.Setenv("SEARXNG_BASE_URL", "http://caddy:80")
	t.Setenv("SEARXNG_TIMEOUT_SECONDS", "5")
	t.Setenv("SEARXNG_DEFAULT_COUNT", "7")
	t.Setenv("SEARXMATE_HISTORY_ENABLED", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.SearXNG.BaseURL != "http://caddy:80" {
		t.Errorf("Expected env base URL, got %s", cfg.SearXNG.BaseURL)
	}
	if cfg.SearXNG.Timeout() != 5*time.Second {
		t.Errorf("Expected 5s timeout, got %s", cfg.SearXNG.Timeout())
	}
	if cfg.SearXNG.DefaultCount != 7 {
		t.Errorf("Expected default count 7, got %d", cfg.SearXNG.DefaultCount)
	}
	if cfg.History.Enabled {
		t.Error("Expected history to be disabled by env")
	}
	// Untouched fields keep their defaults
	if cfg.Health.ExpectText != "SearXNG" {
		t.Errorf("Expected default expect text, got %s", cfg.Health.ExpectText)
	}
}

func TestLoad_EnvInvalid(t *testing.T) {
	SetConfigDir(filepath.Join(t.TempDir(), "config"))
	t.Setenv("SEARXNG_TIMEOUT_SECONDS", "soon")

	if _, err := Load(); err == nil {
		t.Error("Expected error for non-numeric timeout override")
	}
}

func TestLoad_SecretsAPIKey(t *testing.T) {
	configTestDir := filepath.Join(t.TempDir(), "config")
	SetConfigDir(configTestDir)
	os.MkdirAll(configTestDir, 0755)
	os.WriteFile(filepath.Join(configTestDir, ".secrets"), []byte("# local\nexport SEARXNG_API_KEY=\"from-secrets-file\"\n"), 0600)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.SearXNG.APIKey != "from-secrets-file" {
		t.Errorf("Expected API key from secrets, got %q", cfg.SearXNG.APIKey)
	}
}

func TestSafeSearchLevel(t *testing.T) {
	c := SearXNGConfig{SafeSearch: 1}
	level := c.SafeSearchLevel()
	if level == nil || *level != 1 {
		t.Errorf("Expected safesearch level 1, got %v", level)
	}
}

func TestConfigString_RedactsAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SearXNG.APIKey = "super-secret-key-123"

	out := cfg.String()
	if strings.Contains(out, "super-secret-key-123") {
		t.Error("String() should not print the full API key")
	}
	if !strings.Contains(out, "super-se...") {
		t.Errorf("Expected redacted API key prefix, got:\n%s", out)
	}
	if !strings.Contains(out, "(instance default)") {
		t.Errorf("Expected instance default markers, got:\n%s", out)
	}
}

func TestRedactAPIKey(t *testing.T) {
	tests := []struct {
		value    string
		expected string
	}{
		{"", "(not configured)"},
		{"short", "***"},
		{"123456789", "12345678..."},
	}
	for _, tt := range tests {
		if got := redactAPIKey(tt.value); got != tt.expected {
			t.Errorf("redactAPIKey(%q) = %q, want %q", tt.value, got, tt.expected)
		}
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	tests := []struct {
		path     string
		expected string
	}{
		{"~/.searxmate/history.db", filepath.Join(home, ".searxmate", "history.db")},
		{"~", home},
		{"/tmp/history.db", "/tmp/history.db"},
		{"relative/history.db", "relative/history.db"},
		{"~other/history.db", "~other/history.db"},
	}
	for _, tt := range tests {
		if got := expandHome(tt.path); got != tt.expected {
			t.Errorf("expandHome(%q) = %q, want %q", tt.path, got, tt.expected)
		}
	}
}
