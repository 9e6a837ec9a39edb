// Package config loads optional defaults for the crashrollup CLI from a YAML file.
package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/farcloser/primordium/fault"
	"gopkg.in/yaml.v3"

	"github.com/farcloser/crashrollup/internal/discovery"
)

const (
	defaultTop    = 20
	defaultFormat = "console"
)

var errInvalidTop = errors.New("top must be positive")

// Config holds aggregation defaults. Command line flags override every field.
type Config struct {
	Root      string `yaml:"root"`
	Pattern   string `yaml:"pattern"`
	Recursive *bool  `yaml:"recursive"`
	Top       int    `yaml:"top"`
	Workers   int    `yaml:"workers"`
	OutJSON   string `yaml:"out_json"`
	Format    string `yaml:"format"`
	Markdown  bool   `yaml:"markdown"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)

	return cfg
}

// Load reads and parses the config file at path, then fills unset fields with defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-specified config file
	if err != nil {
		return nil, fmt.Errorf("%w: reading config: %w", fault.ErrReadFailure, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %q: %w", path, err)
	}

	if cfg.Top < 0 {
		return nil, fmt.Errorf("%w: %d", errInvalidTop, cfg.Top)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// IsRecursive reports whether discovery descends into subdirectories (the default).
func (c *Config) IsRecursive() bool {
	return c.Recursive == nil || *c.Recursive
}

func applyDefaults(cfg *Config) {
	if cfg.Root == "" {
		cfg.Root = "."
	}

	if cfg.Pattern == "" {
		cfg.Pattern = discovery.DefaultPattern
	}

	if cfg.Top == 0 {
		cfg.Top = defaultTop
	}

	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}

	if cfg.Format == "" {
		cfg.Format = defaultFormat
	}
}
