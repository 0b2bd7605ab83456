package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/ndaify-go/internal/infra/confloader"
)

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	return filepath.Join(HomeDir(), "cli.yaml")
}

// Load reads defaults, the YAML file at path (skipped when absent), NDAIFY_*
// environment variables and finally overrides, which carry explicitly set
// flags keyed by dotted path.
func Load(path string, overrides map[string]any) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	loader := confloader.NewLoader(
		confloader.WithDefaults(defaultsMap()),
		confloader.WithOptionalConfigFile(path),
		confloader.WithOverrides(overrides),
	)

	cfg := &CLIConfig{}
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	cfg.Store.Dir = expandHome(cfg.Store.Dir)
	cfg.Shell.HistoryFile = expandHome(cfg.Shell.HistoryFile)
	cfg.API.CAFile = expandHome(cfg.API.CAFile)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as YAML with owner-only permissions.
// The store encryption key is never written.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate checks value ranges and formats.
func (c *CLIConfig) Validate() error {
	var errs []error

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.base_url: %q is not an http(s) URL", c.API.BaseURL))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("api.timeout: must be positive"))
	}
	if c.API.RateLimit < 0 {
		errs = append(errs, errors.New("api.rate_limit: must not be negative"))
	}
	if c.API.RateLimit > 0 && c.API.RateBurst < 1 {
		errs = append(errs, errors.New("api.rate_burst: must be at least 1 when rate limiting"))
	}
	if c.Store.Dir == "" {
		errs = append(errs, errors.New("store.dir: required"))
	}
	if c.Shell.PageSize < 1 {
		errs = append(errs, errors.New("shell.page_size: must be at least 1"))
	}
	if c.Cache.StaleAfter < 0 {
		errs = append(errs, errors.New("cache.stale_after: must not be negative"))
	}
	switch c.Output {
	case "table", "json", "yaml":
	default:
		errs = append(errs, fmt.Errorf("output: unknown format %q", c.Output))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format: unknown format %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
