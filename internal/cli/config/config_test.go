package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.API.BaseURL != "https://api.ndaify.com" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.Output != "table" {
		t.Errorf("Output = %q, want table", cfg.Output)
	}
	if cfg.Shell.TransitionDelay != 800*time.Millisecond {
		t.Errorf("TransitionDelay = %v, want 800ms", cfg.Shell.TransitionDelay)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	path := DefaultConfigPath()
	if !strings.HasSuffix(path, filepath.Join(".ndaify", "cli.yaml")) {
		t.Errorf("Path = %q, should end with .ndaify/cli.yaml", path)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	if err != nil {
		t.Fatalf("Load should not error for nonexistent file: %v", err)
	}
	if cfg.API.BaseURL != DefaultBaseURL {
		t.Error("Should return default config for nonexistent file")
	}
	if cfg.Cache.StaleAfter != 5*time.Minute {
		t.Errorf("StaleAfter = %v, want 5m", cfg.Cache.StaleAfter)
	}
}

func TestLoad_FileEnvFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cli.yaml")
	content := "api:\n  base_url: https://staging.ndaify.test\n  timeout: 5s\ncache:\n  stale_after: 1m\noutput: json\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("NDAIFY_OUTPUT", "yaml")
	t.Setenv("NDAIFY_LOG_LEVEL", "debug")

	cfg, err := Load(path, map[string]any{"log.level": "error"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.BaseURL != "https://staging.ndaify.test" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.API.Timeout)
	}
	if cfg.Cache.StaleAfter != time.Minute {
		t.Errorf("StaleAfter = %v, want 1m", cfg.Cache.StaleAfter)
	}
	if cfg.Output != "yaml" {
		t.Errorf("Output = %q, env should override file", cfg.Output)
	}
	if cfg.Log.Level != "error" {
		t.Errorf("Log.Level = %q, flag should override env", cfg.Log.Level)
	}
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), map[string]any{"output": "xml"})
	if err == nil || !strings.Contains(err.Error(), "output") {
		t.Errorf("Load() error = %v, want output validation error", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*CLIConfig)
		field  string
	}{
		{"bad scheme", func(c *CLIConfig) { c.API.BaseURL = "ftp://x" }, "api.base_url"},
		{"no host", func(c *CLIConfig) { c.API.BaseURL = "https://" }, "api.base_url"},
		{"zero timeout", func(c *CLIConfig) { c.API.Timeout = 0 }, "api.timeout"},
		{"negative rate", func(c *CLIConfig) { c.API.RateLimit = -1 }, "api.rate_limit"},
		{"zero burst", func(c *CLIConfig) { c.API.RateBurst = 0 }, "api.rate_burst"},
		{"no store dir", func(c *CLIConfig) { c.Store.Dir = "" }, "store.dir"},
		{"bad log format", func(c *CLIConfig) { c.Log.Format = "xml" }, "log.format"},
		{"zero page size", func(c *CLIConfig) { c.Shell.PageSize = 0 }, "shell.page_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.field) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.field)
			}
		})
	}
}

func TestSave_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cli.yaml")

	cfg := Default()
	cfg.Output = "json"
	cfg.Store.EncryptionKey = "do-not-write-me"
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}

	data, _ := os.ReadFile(path)
	if strings.Contains(string(data), "do-not-write-me") {
		t.Error("encryption key must not be written to the config file")
	}

	loaded, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Output != "json" {
		t.Errorf("Output = %q, want json", loaded.Output)
	}
	if loaded.Shell.PollInterval != cfg.Shell.PollInterval {
		t.Errorf("PollInterval = %v, want %v", loaded.Shell.PollInterval, cfg.Shell.PollInterval)
	}
}
