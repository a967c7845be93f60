// Package config loads the optional xarmour YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/minfrin/xarmour/internal/armour"
)

// EnvConfig names the environment variable holding a config file path.
const EnvConfig = "XARMOUR_CONFIG"

// EnvLogLevel overrides the configured log level.
const EnvLogLevel = "XARMOUR_LOG_LEVEL"

// Default values used when a key is absent.
const (
	DefaultTimeout   = 5 * time.Minute
	DefaultMaxOutput = 1 << 20 // 1 MB
	DefaultLogLevel  = "info"
)

// Config holds the parsed configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	Version      int    `yaml:"version"`
	RawMaxLine   int    `yaml:"max_line"`   // chunk size for reading input
	RawMaxLabel  int    `yaml:"max_label"`  // bytes kept from a marker label
	RawLogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	RawTimeout   string `yaml:"timeout"`    // MCP runs only, e.g. "5m", "30s"
	RawMaxOutput int    `yaml:"max_output"` // MCP capture cap in bytes
	StoreDir     string `yaml:"store_dir"`  // MCP run reports; empty uses a temp dir
}

// MaxLine returns the configured input chunk size or the default.
func (c *Config) MaxLine() int {
	if c.RawMaxLine > 0 {
		return c.RawMaxLine
	}
	return armour.DefaultMaxLine
}

// MaxLabel returns the configured label cap or the default.
func (c *Config) MaxLabel() int {
	if c.RawMaxLabel > 0 {
		return c.RawMaxLabel
	}
	return armour.DefaultMaxLabel
}

// LogLevel returns the log level, preferring XARMOUR_LOG_LEVEL.
func (c *Config) LogLevel() string {
	if v := os.Getenv(EnvLogLevel); v != "" {
		return v
	}
	if c.RawLogLevel != "" {
		return c.RawLogLevel
	}
	return DefaultLogLevel
}

// Timeout returns the configured timeout or the default.
func (c *Config) Timeout() time.Duration {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return DefaultTimeout
}

// MaxOutputBytes returns the configured max output size or the default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// LoadResult holds the parsed config and the file it came from.
type LoadResult struct {
	Config *Config
	Path   string // empty when defaults were used
}

// Load reads the configuration file. The path is taken from explicit,
// then XARMOUR_CONFIG, then <user config dir>/xarmour/config.yaml. An
// explicitly named file must exist; a missing default file yields the
// default Config.
func Load(explicit string) (*LoadResult, error) {
	path, required := locate(explicit)
	if path == "" {
		return &LoadResult{Config: &Config{}}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return &LoadResult{Config: &Config{}}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &LoadResult{Config: cfg, Path: path}, nil
}

func locate(explicit string) (path string, required bool) {
	if explicit != "" {
		return explicit, true
	}
	if env := os.Getenv(EnvConfig); env != "" {
		return env, true
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(dir, "xarmour", "config.yaml"), false
}

func (c *Config) validate() error {
	if c.RawMaxLine < 0 {
		return fmt.Errorf("max_line must not be negative, got %d", c.RawMaxLine)
	}
	if c.RawMaxLabel < 0 {
		return fmt.Errorf("max_label must not be negative, got %d", c.RawMaxLabel)
	}
	if c.RawTimeout != "" {
		if _, err := time.ParseDuration(c.RawTimeout); err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
	}
	return nil
}
