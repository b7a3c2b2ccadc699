// Package config loads repository settings from YAML with environment
// overrides.
//
// Config file locations (priority order):
//  1. $REPOKIT_CONFIG
//  2. ./repokit.yaml
//
// When neither exists, defaults are used. Environment variables listed in
// applyEnv override file values in both cases.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"repokit/pkg/domain"
)

const (
	// EnvConfigPath is the environment variable for an explicit config path.
	EnvConfigPath = "REPOKIT_CONFIG"
	// ConfigFileName is the default config file name.
	ConfigFileName = "repokit.yaml"

	EnvProvider   = "REPOKIT_PROVIDER"
	EnvConnection = "REPOKIT_CONNECTION"
	EnvZone       = "REPOKIT_ZONE"
	EnvLogLevel   = "REPOKIT_LOG_LEVEL"
	EnvBlobDriver = "REPOKIT_BLOB_DRIVER"
)

// Provider types accepted by the selector.
const (
	ProviderMemory   = "memory"
	ProviderSQLite   = "sqlite"
	ProviderPostgres = "postgres"
)

// Config is the root configuration document.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Zone     domain.Zone    `yaml:"zone"`
	Log      LogConfig      `yaml:"log"`
	Blob     BlobConfig     `yaml:"blob"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ProviderConfig selects and addresses the storage provider.
type ProviderConfig struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connection_string"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// BlobConfig selects the blob store used for zone archives.
type BlobConfig struct {
	Driver string   `yaml:"driver"`
	Root   string   `yaml:"root"`
	S3     S3Config `yaml:"s3"`
}

// S3Config addresses an S3 compatible bucket.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

// MetricsConfig names published metrics.
type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

// Load finds and loads the config file, or returns defaults if none found.
// The returned path is empty when defaults were used.
func Load() (*Config, string, error) {
	path := FindConfigPath()
	if path == "" {
		cfg := DefaultConfig()
		cfg.applyEnv()
		cfg.applyDefaults()
		return cfg, "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, path, nil
}

// FindConfigPath returns the first existing config file, or "".
func FindConfigPath() string {
	if path := os.Getenv(EnvConfigPath); path != "" && fileExists(path) {
		return path
	}
	if fileExists(ConfigFileName) {
		if abs, err := filepath.Abs(ConfigFileName); err == nil {
			return abs
		}
		return ConfigFileName
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// DefaultConfig returns an in-memory setup logging JSON at info level.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{Type: ProviderMemory},
		Log:      LogConfig{Level: "info", Format: "json"},
		Blob:     BlobConfig{Driver: "memory"},
		Metrics:  MetricsConfig{Namespace: "repokit"},
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvProvider); v != "" {
		c.Provider.Type = v
	}
	if v := os.Getenv(EnvConnection); v != "" {
		c.Provider.ConnectionString = v
	}
	if v := os.Getenv(EnvZone); v != "" {
		c.Zone = domain.NewZone(v, v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvBlobDriver); v != "" {
		c.Blob.Driver = v
	}
}

func (c *Config) applyDefaults() {
	def := DefaultConfig()
	if c.Provider.Type == "" {
		c.Provider.Type = def.Provider.Type
	}
	c.Provider.Type = strings.ToLower(strings.TrimSpace(c.Provider.Type))
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
	if c.Blob.Driver == "" {
		c.Blob.Driver = def.Blob.Driver
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = def.Metrics.Namespace
	}
}

// Validate checks values that defaults cannot repair.
var metricNamespace = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func (c *Config) Validate() error {
	var errs []error
	switch c.Provider.Type {
	case ProviderMemory, ProviderSQLite, ProviderPostgres:
	default:
		errs = append(errs, fmt.Errorf("provider %q: %w", c.Provider.Type, domain.ErrUnsupportedProvider))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if !metricNamespace.MatchString(c.Metrics.Namespace) {
		errs = append(errs, fmt.Errorf("metrics namespace %q must match %s", c.Metrics.Namespace, metricNamespace))
	}
	return errors.Join(errs...)
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
