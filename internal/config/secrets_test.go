package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseSecretLine(t *testing.T) {
	tests := []struct {
		line      string
		wantKey   string
		wantValue string
		wantOK    bool
	}{
		{"SEARXNG_API_KEY=abc", "SEARXNG_API_KEY", "abc", true},
		{"  KEY = value  ", "KEY", "value", true},
		{"export KEY=value", "KEY", "value", true},
		{`KEY="quoted value"`, "KEY", "quoted value", true},
		{"KEY='single'", "KEY", "single", true},
		{"KEY=a=b", "KEY", "a=b", true},
		{"KEY=", "KEY", "", true},
		{"# comment", "", "", false},
		{"", "", "", false},
		{"no separator", "", "", false},
		{"=value", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			key, value, ok := parseSecretLine(tt.line)
			if ok != tt.wantOK || key != tt.wantKey || value != tt.wantValue {
				t.Errorf("parseSecretLine(%q) = (%q, %q, %v), want (%q, %q, %v)",
					tt.line, key, value, ok, tt.wantKey, tt.wantValue, tt.wantOK)
			}
		})
	}
}

func TestLoadSecrets(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "config")
	SetConfigDir(dir)

	secrets, err := LoadSecrets()
	if err != nil {
		t.Fatalf("Missing secrets file should not error: %v", err)
	}
	if len(secrets.Keys()) != 0 {
		t.Errorf("Expected no keys, got %v", secrets.Keys())
	}

	os.MkdirAll(dir, 0755)
	os.WriteFile(filepath.Join(dir, ".secrets"), []byte("B=2\nA=1\n# ignored\n"), 0600)

	secrets, err = LoadSecrets()
	if err != nil {
		t.Fatalf("LoadSecrets failed: %v", err)
	}
	keys := secrets.Keys()
	if len(keys) != 2 || keys[0] != "A" || keys[1] != "B" {
		t.Errorf("Expected sorted keys [A B], got %v", keys)
	}
	if !secrets.Has("A") || secrets.Get("B") != "2" {
		t.Error("Unexpected secret values")
	}
}

func TestSecrets_NilSafe(t *testing.T) {
	var s *Secrets
	if s.Get("X") != "" || s.Has("X") || s.Keys() != nil {
		t.Error("nil Secrets should behave as empty")
	}
}
