// internal/config/config.go
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		URL           string `yaml:"url"`
		RetryAttempts int    `yaml:"retry_attempts"`
		RetryDelay    int    `yaml:"retry_delay"` // milliseconds
	} `yaml:"server"`
	Story struct {
		DefaultModel string `yaml:"default_model,omitempty"`
		StallTimeout int    `yaml:"stream_stall_timeout"` // seconds, 0 disables the watchdog
		PlainText    bool   `yaml:"plain_text"`           // skip terminal markdown rendering
	} `yaml:"story"`
	Export struct {
		Dir string `yaml:"dir,omitempty"`
	} `yaml:"export"`
	Log struct {
		File  string `yaml:"file,omitempty"`
		Level string `yaml:"level"`
	} `yaml:"log"`
}

func Load() (*Config, error) {
	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		// Return defaults if no config file
		return defaultConfig(), nil
	}

	// Expand environment variables in config
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}

	// Apply defaults for unset values
	applyDefaults(&cfg)

	return &cfg, nil
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.URL == "" {
		cfg.Server.URL = "http://localhost:8000"
	}
	if cfg.Server.RetryAttempts == 0 {
		cfg.Server.RetryAttempts = 3
	}
	if cfg.Server.RetryDelay == 0 {
		cfg.Server.RetryDelay = 500
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// StallTimeout converts the configured watchdog seconds to a duration.
// Zero keeps the watchdog disabled.
func (c *Config) StallTimeout() time.Duration {
	return time.Duration(c.Story.StallTimeout) * time.Second
}

// RetryDelay converts the configured backoff base to a duration.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Server.RetryDelay) * time.Millisecond
}

// ExportDir returns the configured export directory, falling back to
// a fable folder under the user's home.
func (c *Config) ExportDir() string {
	if c.Export.Dir != "" {
		return c.Export.Dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "fable-exports"
	}
	return filepath.Join(home, "fable-exports")
}

func ConfigPath() string {
	configDir, _ := os.UserConfigDir()
	if configDir == "" {
		configDir = os.ExpandEnv("$HOME/.config")
	}
	return filepath.Join(configDir, "fable", "config.yaml")
}
