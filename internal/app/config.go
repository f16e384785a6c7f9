package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/specialistvlad/lazygrid/internal/remote"
	"gopkg.in/yaml.v3"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	GridPath string   `yaml:"grid"`
	Targets  []string `yaml:"targets"`
	Describe bool     `yaml:"describe"`

	LogFormat         string `yaml:"log_format"`
	LogLevel          string `yaml:"log_level"`
	HealthcheckPort   int    `yaml:"healthcheck_port"`
	WorkerCount       int    `yaml:"workers"`
	ContinueOnFailure bool   `yaml:"continue_on_failure"`

	// Cluster routes execution to a remote fleet when URL is set.
	Cluster remote.Config `yaml:"cluster"`
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.GridPath == "" {
		return nil, errors.New("GridPath is a required configuration field and cannot be empty")
	}
	if cfg.WorkerCount < 0 {
		return nil, fmt.Errorf("invalid worker count %d: must not be negative", cfg.WorkerCount)
	}
	if cfg.HealthcheckPort < 0 || cfg.HealthcheckPort > 65535 {
		return nil, fmt.Errorf("invalid healthcheck port %d", cfg.HealthcheckPort)
	}
	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, err
	}
	switch cfg.LogFormat {
	case "", "text", "json":
	default:
		return nil, fmt.Errorf("invalid log format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	return &cfg, nil
}

// LoadConfigFile reads a YAML configuration file on top of base. Fields
// absent from the file keep the value they have in base.
func LoadConfigFile(path string, base Config) (Config, error) {
	cfg := base
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}
