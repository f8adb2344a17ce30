// Package wizard provides an interactive TUI for the patient intake flow.
package wizard

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/carelane/intake/internal/api"
)

// EnvBaseURL overrides the configured API base URL when set.
const EnvBaseURL = "INTAKE_API_BASE_URL"

// Config holds the intake wizard configuration for YAML serialization.
type Config struct {
	API APIConfig `yaml:"api"`
}

// APIConfig holds the intake API connection settings.
type APIConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// DefaultConfig returns a config pointing at a local intake API.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        api.DefaultBaseURL,
			TimeoutSeconds: 30,
		},
	}
}

// ApplyEnv overrides config values from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.API.BaseURL = v
	}
}

// HTTPClient builds the HTTP client for the configured timeout.
func (c *Config) HTTPClient() *http.Client {
	timeout := time.Duration(c.API.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// LoadFromYAML loads a config from a YAML file. Missing fields keep their
// defaults.
func LoadFromYAML(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = api.DefaultBaseURL
	}
	if cfg.API.TimeoutSeconds <= 0 {
		cfg.API.TimeoutSeconds = 30
	}

	return cfg, nil
}

// SaveToYAML writes the config to a YAML file.
func SaveToYAML(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
