// Package config defines the CLI configuration structure.
package config

import (
	"os"
	"path/filepath"
	"time"
)

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://api.ndaify.com"

// CLIConfig is the configuration of ndaify-cli (~/.ndaify/cli.yaml).
type CLIConfig struct {
	API    APIConfig   `koanf:"api" yaml:"api"`
	Store  StoreConfig `koanf:"store" yaml:"store"`
	Cache  CacheConfig `koanf:"cache" yaml:"cache"`
	Log    LogConfig   `koanf:"log" yaml:"log"`
	Shell  ShellConfig `koanf:"shell" yaml:"shell"`
	Output string      `koanf:"output" yaml:"output"` // table, json, yaml
}

// APIConfig controls the HTTP dispatcher.
type APIConfig struct {
	BaseURL string        `koanf:"base_url" yaml:"base_url"`
	Timeout time.Duration `koanf:"timeout" yaml:"timeout"`
	// RateLimit is requests per second; 0 disables client-side limiting.
	RateLimit float64 `koanf:"rate_limit" yaml:"rate_limit"`
	RateBurst int     `koanf:"rate_burst" yaml:"rate_burst"`
	CAFile    string  `koanf:"ca_file" yaml:"ca_file,omitempty"`
}

// StoreConfig controls the persistent settings store.
type StoreConfig struct {
	Dir string `koanf:"dir" yaml:"dir"`
	// EncryptionKey seals stored values when set. Never written by Save.
	EncryptionKey string `koanf:"encryption_key" yaml:"-"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	StaleAfter time.Duration `koanf:"stale_after" yaml:"stale_after"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// ShellConfig controls the interactive shell.
type ShellConfig struct {
	PollInterval    time.Duration `koanf:"poll_interval" yaml:"poll_interval"`
	TransitionDelay time.Duration `koanf:"transition_delay" yaml:"transition_delay"`
	MetricsAddr     string        `koanf:"metrics_addr" yaml:"metrics_addr,omitempty"`
	HistoryFile     string        `koanf:"history_file" yaml:"history_file"`
	// PageSize is how many NDAs the home screen lists per page.
	PageSize int `koanf:"page_size" yaml:"page_size"`
}

// HomeDir returns ~/.ndaify.
func HomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = os.TempDir()
	}
	return filepath.Join(homeDir, ".ndaify")
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	home := HomeDir()
	return &CLIConfig{
		API: APIConfig{
			BaseURL:   DefaultBaseURL,
			Timeout:   30 * time.Second,
			RateLimit: 10,
			RateBurst: 5,
		},
		Store: StoreConfig{Dir: filepath.Join(home, "store")},
		Cache: CacheConfig{StaleAfter: 5 * time.Minute},
		Log:   LogConfig{Level: "warn", Format: "text"},
		Shell: ShellConfig{
			PollInterval:    30 * time.Second,
			TransitionDelay: 800 * time.Millisecond,
			HistoryFile:     filepath.Join(home, "history"),
			PageSize:        20,
		},
		Output: "table",
	}
}

// defaultsMap flattens Default into dotted keys for the loader.
func defaultsMap() map[string]any {
	d := Default()
	return map[string]any{
		"api.base_url":           d.API.BaseURL,
		"api.timeout":            d.API.Timeout,
		"api.rate_limit":         d.API.RateLimit,
		"api.rate_burst":         d.API.RateBurst,
		"api.ca_file":            d.API.CAFile,
		"store.dir":              d.Store.Dir,
		"store.encryption_key":   d.Store.EncryptionKey,
		"cache.stale_after":      d.Cache.StaleAfter,
		"log.level":              d.Log.Level,
		"log.format":             d.Log.Format,
		"shell.poll_interval":    d.Shell.PollInterval,
		"shell.transition_delay": d.Shell.TransitionDelay,
		"shell.metrics_addr":     d.Shell.MetricsAddr,
		"shell.history_file":     d.Shell.HistoryFile,
		"shell.page_size":        d.Shell.PageSize,
		"output":                 d.Output,
	}
}
