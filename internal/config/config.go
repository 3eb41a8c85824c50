package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables that override the config file. Each is also read from
// ~/.docidx/.env when unset in the process environment.
const (
	EnvIndexPath = "DOCIDX_INDEX_PATH"
	EnvListen    = "DOCIDX_LISTEN"
	EnvCacheSize = "DOCIDX_CACHE_SIZE"
	EnvWatch     = "DOCIDX_WATCH"
	EnvLogLevel  = "DOCIDX_LOG_LEVEL"
	EnvLogFormat = "DOCIDX_LOG_FORMAT"
)

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // text or json
}

// Config is the in-memory representation of ~/.docidx/docidx.yaml.
type Config struct {
	IndexPath string    `yaml:"index_path"`
	Listen    string    `yaml:"listen,omitempty"`
	CacheSize int       `yaml:"cache_size,omitempty"`
	Watch     bool      `yaml:"watch"`
	Log       LogConfig `yaml:"log,omitempty"`
}

// DocidxDir returns the absolute path to ~/.docidx/.
func DocidxDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".docidx"), nil
}

// ConfigPath returns the absolute path to ~/.docidx/docidx.yaml.
func ConfigPath() (string, error) {
	dir, err := DocidxDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "docidx.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) (string, error) {
	if !strings.HasPrefix(p, "~") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot expand ~: %w", err)
	}
	return filepath.Join(home, p[1:]), nil
}

// DefaultConfig returns the Config written on first docidx init.
func DefaultConfig() (*Config, error) {
	dir, err := DocidxDir()
	if err != nil {
		return nil, err
	}
	return &Config{
		IndexPath: filepath.Join(dir, "searchindex.js"),
		Listen:    "127.0.0.1:8089",
		CacheSize: 1024,
		Watch:     true,
		Log:       LogConfig{Level: "info", Format: "text"},
	}, nil
}

// Load reads and parses ~/.docidx/docidx.yaml.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads and parses the config file at path. Unset fields take their
// defaults and environment overrides are applied.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config %s: %w", path, err)
	}
	cfg, err := DefaultConfig()
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is LoadFrom, except that a missing file yields the defaults.
// An empty path means ~/.docidx/docidx.yaml.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg, err := LoadFrom(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	cfg, err = DefaultConfig()
	if err != nil {
		return nil, err
	}
	if err := finish(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finish applies environment overrides and expands ~ in IndexPath.
func finish(cfg *Config) error {
	overrides := []struct {
		key   string
		apply func(string) error
	}{
		{EnvIndexPath, func(v string) error { cfg.IndexPath = v; return nil }},
		{EnvListen, func(v string) error { cfg.Listen = v; return nil }},
		{EnvLogLevel, func(v string) error { cfg.Log.Level = v; return nil }},
		{EnvLogFormat, func(v string) error { cfg.Log.Format = v; return nil }},
		{EnvCacheSize, func(v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid %s %q: want a non-negative integer", EnvCacheSize, v)
			}
			cfg.CacheSize = n
			return nil
		}},
		{EnvWatch, func(v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s %q: want true or false", EnvWatch, v)
			}
			cfg.Watch = b
			return nil
		}},
	}
	lookup, err := newLookup()
	if err != nil {
		return err
	}
	for _, o := range overrides {
		v := lookup(o.key)
		if v == "" {
			continue
		}
		if err := o.apply(v); err != nil {
			return err
		}
	}

	cfg.IndexPath, err = ExpandPath(cfg.IndexPath)
	return err
}

// Save marshals cfg and writes it to ~/.docidx/docidx.yaml.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveTo(path, cfg)
}

// SaveTo marshals cfg and writes it to path.
func SaveTo(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write config %s: %w", path, err)
	}
	return nil
}
