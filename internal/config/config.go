package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Logger holds identity and local sink settings.
type Logger struct {
	Name    string `toml:"name"`
	Tag     string `toml:"tag"`
	Level   string `toml:"level"`
	Format  string `toml:"format"`
	LogDir  string `toml:"log_dir"`
	Handler string `toml:"handler"`
}

// Backend holds remote indexing backend settings.
type Backend struct {
	Hosts              []string `toml:"hosts"`
	RequestTimeout     int      `toml:"request_timeout"`
	DisableCompression bool     `toml:"disable_compression"`
}

// Delivery holds batching and retry settings.
type Delivery struct {
	BatchSize      int    `toml:"batch_size"`
	RetryCount     int    `toml:"retry_count"`
	BackoffBaseMS  int    `toml:"backoff_base_ms"`
	DeadLetterPath string `toml:"dead_letter_path"`
}

// Redaction holds sensitive-field masking settings.
type Redaction struct {
	SensitiveFields []string `toml:"sensitive_fields"`
}

// Metrics holds instrumentation settings.
type Metrics struct {
	Enabled bool `toml:"enabled"`
}

// Config is the root configuration document.
type Config struct {
	Logger    Logger    `toml:"logger"`
	Backend   Backend   `toml:"backend"`
	Delivery  Delivery  `toml:"delivery"`
	Redaction Redaction `toml:"redaction"`
	Metrics   Metrics   `toml:"metrics"`
}

// Handler kinds recognized by the selector.
const (
	HandlerLocal  = "local"
	HandlerRemote = "remote"
)

// Default returns the configuration used when no file overrides values.
func Default() Config {
	return Config{
		Logger: Logger{
			Name:    "logship",
			Level:   "info",
			Format:  "line",
			Handler: HandlerRemote,
		},
		Backend: Backend{
			RequestTimeout: 10,
		},
		Delivery: Delivery{
			BatchSize:     50,
			RetryCount:    3,
			BackoffBaseMS: 1000,
		},
		Redaction: Redaction{
			SensitiveFields: []string{"password", "api_key", "authorization", "token"},
		},
	}
}

// DefaultPath returns the conventional config file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "logship", "config.toml"), nil
}

// Load reads configuration from path, falling back to the default location
// when path is empty. A missing file yields the defaults without error so
// the logging subsystem never blocks process startup on configuration.
func Load(path string) (*Config, string, error) {
	resolved := strings.TrimSpace(path)
	if resolved == "" {
		defaultPath, err := DefaultPath()
		if err != nil {
			cfg := Default()
			return &cfg, "", nil
		}
		resolved = defaultPath
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := Default()
			return &cfg, resolved, nil
		}
		return nil, resolved, fmt.Errorf("read config %s: %w", resolved, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, resolved, fmt.Errorf("parse config %s: %w", resolved, err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, resolved, err
	}
	return &cfg, resolved, nil
}

func (c *Config) normalize() {
	c.Logger.Name = strings.TrimSpace(c.Logger.Name)
	c.Logger.Tag = strings.TrimSpace(c.Logger.Tag)
	c.Logger.Level = strings.ToLower(strings.TrimSpace(c.Logger.Level))
	c.Logger.Format = strings.ToLower(strings.TrimSpace(c.Logger.Format))
	c.Logger.Handler = strings.ToLower(strings.TrimSpace(c.Logger.Handler))

	hosts := c.Backend.Hosts[:0]
	for _, host := range c.Backend.Hosts {
		host = strings.TrimSpace(host)
		if host != "" {
			hosts = append(hosts, host)
		}
	}
	c.Backend.Hosts = hosts

	fields := c.Redaction.SensitiveFields[:0]
	for _, field := range c.Redaction.SensitiveFields {
		field = strings.TrimSpace(field)
		if field != "" {
			fields = append(fields, field)
		}
	}
	c.Redaction.SensitiveFields = fields
}

// Validate checks construction parameters. Callers that must never fail
// (the selector) treat a validation error as a fallback trigger rather
// than propagating it.
func (c *Config) Validate() error {
	if c.Logger.Name == "" {
		return fmt.Errorf("logger name: must not be empty")
	}
	switch c.Logger.Handler {
	case HandlerLocal, HandlerRemote, "":
	default:
		return fmt.Errorf("logger handler: unsupported value %q", c.Logger.Handler)
	}
	switch c.Logger.Format {
	case "line", "console", "json", "":
	default:
		return fmt.Errorf("logger format: unsupported value %q", c.Logger.Format)
	}
	if c.Delivery.BatchSize < 1 {
		return fmt.Errorf("delivery batch_size: must be at least 1, got %d", c.Delivery.BatchSize)
	}
	if c.Delivery.RetryCount < 1 {
		return fmt.Errorf("delivery retry_count: must be at least 1, got %d", c.Delivery.RetryCount)
	}
	if c.Delivery.BackoffBaseMS < 1 {
		return fmt.Errorf("delivery backoff_base_ms: must be at least 1, got %d", c.Delivery.BackoffBaseMS)
	}
	if c.Backend.RequestTimeout < 1 {
		return fmt.Errorf("backend request_timeout: must be at least 1 second, got %d", c.Backend.RequestTimeout)
	}
	return nil
}

// UniqueName combines the logger name and tag the way index prefixes and
// sink lines expect (`name_tag`, or just the name when untagged).
func (c *Config) UniqueName() string {
	if c.Logger.Tag == "" {
		return c.Logger.Name
	}
	return c.Logger.Name + "_" + c.Logger.Tag
}

// EnsureDirectories creates directories the runtime writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Logger.LogDir}
	if c.Delivery.DeadLetterPath != "" {
		dirs = append(dirs, filepath.Dir(c.Delivery.DeadLetterPath))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure directory %s: %w", dir, err)
		}
	}
	return nil
}

// Sample returns the embedded sample configuration document.
func Sample() string {
	return sampleConfig
}

// WriteSample writes the sample config to path, refusing to overwrite an
// existing file.
func WriteSample(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat config path %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
