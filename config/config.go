// Package config provides configuration management for VPN Detector.
// It handles loading, saving, and validating the optional YAML settings file.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yllada/vpn-detector/common"
)

// Config represents the application configuration.
// Every field is optional in the file; absent fields keep their defaults.
type Config struct {
	// CommandTimeout bounds each external tool a probe runs.
	CommandTimeout time.Duration `yaml:"command_timeout"`
	// LookupTimeout bounds the identity lookup request.
	LookupTimeout time.Duration `yaml:"lookup_timeout"`
	// LookupURL is the IP-info endpoint queried for the public identity.
	LookupURL string `yaml:"lookup_url"`
	// TokenEnv names the environment variable holding the lookup token.
	TokenEnv string `yaml:"token_env"`
	// ExtraInterfaceKeywords extend the built-in VPN adapter name keywords.
	ExtraInterfaceKeywords []string `yaml:"extra_interface_keywords,omitempty"`
	// ExtraRouteKeywords extend the built-in tunnel route keywords.
	ExtraRouteKeywords []string `yaml:"extra_route_keywords,omitempty"`
	// ExtraPorts extend the built-in VPN protocol ports.
	ExtraPorts []int `yaml:"extra_ports,omitempty"`
	// WatchInterval is how often watch mode re-checks.
	WatchInterval time.Duration `yaml:"watch_interval"`
	// Notifications enables desktop notifications on status change in watch mode.
	Notifications bool `yaml:"notifications"`
	// LogToFile enables the rotating log file under the config directory.
	LogToFile bool `yaml:"log_to_file"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		CommandTimeout: common.CommandTimeout,
		LookupTimeout:  common.LookupTimeout,
		LookupURL:      common.DefaultLookupURL,
		TokenEnv:       common.DefaultTokenEnv,
		WatchInterval:  common.WatchInterval,
	}
}

// DefaultPath returns the standard location of the configuration file.
func DefaultPath() (string, error) {
	dir, err := common.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, common.ConfigFileName), nil
}

// Load reads the configuration at path. An empty path means DefaultPath.
// A missing file is not an error: the defaults are returned and nothing is
// written to disk.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrConfigLoad, err)
		}
		path = p
	}

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		common.LogDebug("no configuration at %s, using defaults", path)
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrConfigLoad, err)
	}
	defer file.Close()

	cfg, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrConfigLoad, path, err)
	}
	return cfg, nil
}

// Decode parses YAML from r on top of the defaults and validates the result.
// Unknown fields are rejected.
func Decode(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()

	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("error parsing configuration: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate clamps out-of-range durations back to their defaults and rejects
// values that cannot be repaired.
func (c *Config) validate() error {
	defaults := DefaultConfig()

	if c.CommandTimeout <= 0 {
		c.CommandTimeout = defaults.CommandTimeout
	}
	if c.LookupTimeout <= 0 {
		c.LookupTimeout = defaults.LookupTimeout
	}
	if c.WatchInterval < common.MinWatchInterval {
		c.WatchInterval = defaults.WatchInterval
	}
	if c.LookupURL == "" {
		c.LookupURL = defaults.LookupURL
	}
	if c.TokenEnv == "" {
		c.TokenEnv = defaults.TokenEnv
	}

	for _, port := range c.ExtraPorts {
		if port < 1 || port > 65535 {
			return fmt.Errorf("%w: port %d out of range", common.ErrInvalidConfig, port)
		}
	}
	return nil
}

// Save writes the configuration to path, creating the directory if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("%w: creating config directory: %v", common.ErrConfigSave, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("%w: serializing configuration: %v", common.ErrConfigSave, err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfigSave, err)
	}
	return nil
}
