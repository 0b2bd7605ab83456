package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/yndnr/ndaify-go/internal/core/domain"
	"github.com/yndnr/ndaify-go/internal/telemetry/logger"
	"github.com/yndnr/ndaify-go/internal/telemetry/metric"
)

const settingsPrefix = "settings/"

// Settings is the persistent string settings store. It owns the API key
// under domain.SettingAPIKey.
type Settings struct {
	store  Store
	sealer *Sealer
	log    logger.Logger
}

// SettingsOption configures Settings.
type SettingsOption func(*Settings)

// WithSealer seals every value written from now on.
func WithSealer(s *Sealer) SettingsOption {
	return func(st *Settings) { st.sealer = s }
}

// WithSettingsLogger sets the logger.
func WithSettingsLogger(l logger.Logger) SettingsOption {
	return func(st *Settings) {
		if l != nil {
			st.log = l
		}
	}
}

// NewSettings wraps store.
func NewSettings(store Store, opts ...SettingsOption) *Settings {
	s := &Settings{store: store, log: logger.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "settings")
	return s
}

// OpenSettings opens the Badger store in dir, creating it with 0700
// permissions. A non-empty encryptionKey enables sealing.
func OpenSettings(dir, encryptionKey string, log logger.Logger, reg *metric.Registry) (*Settings, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	var opts []SettingsOption
	if encryptionKey != "" {
		sealer, err := NewSealer(encryptionKey)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithSealer(sealer))
	}
	opts = append(opts, WithSettingsLogger(log))

	engine, err := NewBadgerEngine(DefaultConfig(dir), log)
	if err != nil {
		return nil, err
	}
	if prom := reg.Prometheus(); prom != nil {
		if err := engine.RegisterMetrics(prom); err != nil {
			engine.Close()
			return nil, err
		}
	}
	return NewSettings(engine, opts...), nil
}

// Lookup returns the value of name and whether it exists.
func (s *Settings) Lookup(ctx context.Context, name string) (string, bool, error) {
	raw, err := s.store.Get(ctx, settingKey(name))
	if errors.Is(err, ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", name, err)
	}
	value, err := decodeValue(s.sealer, name, raw)
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", name, err)
	}
	return string(value), true, nil
}

// Get returns the value of name, or "" when it is not set.
func (s *Settings) Get(ctx context.Context, name string) (string, error) {
	v, _, err := s.Lookup(ctx, name)
	return v, err
}

// Set writes name. An empty value deletes it.
func (s *Settings) Set(ctx context.Context, name, value string) error {
	if name == "" {
		return fmt.Errorf("setting name: %w", domain.ErrMissingArgument)
	}
	if value == "" {
		return s.Delete(ctx, name)
	}
	raw, err := encodeValue(s.sealer, name, []byte(value))
	if err != nil {
		return fmt.Errorf("set setting %s: %w", name, err)
	}
	if err := s.store.Set(ctx, settingKey(name), raw); err != nil {
		return fmt.Errorf("set setting %s: %w", name, err)
	}
	s.log.Debug("setting stored", "name", name, "sealed", s.sealer != nil)
	return nil
}

// Delete removes name.
func (s *Settings) Delete(ctx context.Context, name string) error {
	if err := s.store.Delete(ctx, settingKey(name)); err != nil {
		return fmt.Errorf("delete setting %s: %w", name, err)
	}
	s.log.Debug("setting deleted", "name", name)
	return nil
}

// Names lists stored setting names in order.
func (s *Settings) Names(ctx context.Context) ([]string, error) {
	var names []string
	err := s.store.Scan(ctx, []byte(settingsPrefix), func(key, _ []byte) bool {
		names = append(names, strings.TrimPrefix(string(key), settingsPrefix))
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// APIKey returns the stored API key, or "" when none is configured.
func (s *Settings) APIKey(ctx context.Context) (string, error) {
	return s.Get(ctx, domain.SettingAPIKey)
}

// SetAPIKey stores key. An empty key removes the stored one.
func (s *Settings) SetAPIKey(ctx context.Context, key string) error {
	return s.Set(ctx, domain.SettingAPIKey, strings.TrimSpace(key))
}

// Stats reports usage of the underlying store.
func (s *Settings) Stats(ctx context.Context) (*Stats, error) {
	return s.store.Stats(ctx)
}

// Close closes the underlying store.
func (s *Settings) Close() error {
	return s.store.Close()
}

func settingKey(name string) []byte {
	return []byte(settingsPrefix + name)
}
