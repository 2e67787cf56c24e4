package models

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML configs can use "500ms" / "2s" forms.
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Config holds runtime configuration for export operations. Non-secret
// settings come from an optional YAML file; secrets come from the
// environment (see LoadCredentials).
type Config struct {
	// Candidate summarization models, most capable first.
	Models []string `yaml:"models"`

	// Retry policy for the summarization call.
	RetryAttempts  int      `yaml:"retry_attempts"`
	RetryBaseDelay Duration `yaml:"retry_base_delay"`

	// Pacing between summarized turns and between destination writes.
	TurnDelay  Duration `yaml:"turn_delay"`
	WriteDelay Duration `yaml:"write_delay"`

	// DatabasePath is the export ledger location. Empty means a file next
	// to the binary.
	DatabasePath string `yaml:"database_path"`

	// DefaultPageID is the destination page used when --page is not given.
	DefaultPageID string `yaml:"default_page_id"`

	// Base URLs are overridable for tests and proxies.
	AnthropicBaseURL string `yaml:"anthropic_base_url"`
	NotionBaseURL    string `yaml:"notion_base_url"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Models: []string{
			"claude-sonnet-4-20250514",
			"claude-3-5-sonnet-20241022",
			"claude-3-5-haiku-20241022",
		},
		RetryAttempts:  3,
		RetryBaseDelay: Duration{2 * time.Second},
		TurnDelay:      Duration{1500 * time.Millisecond},
		WriteDelay:     Duration{350 * time.Millisecond},
	}
}

// LoadConfig reads a YAML config file, layering it over the defaults.
// A missing path returns the defaults unchanged.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if len(config.Models) == 0 {
		config.Models = DefaultConfig().Models
	}
	if config.RetryAttempts <= 0 {
		config.RetryAttempts = 3
	}
	return config, nil
}

// Credentials holds the opaque API secrets for both external services.
// Their shape is not validated here.
type Credentials struct {
	AnthropicAPIKey string
	NotionToken     string
}

// LoadCredentials reads secrets from the environment, after loading an
// optional .env file in the working directory.
func LoadCredentials() (*Credentials, error) {
	// Missing .env is fine; real environments set variables directly.
	_ = godotenv.Load()

	creds := &Credentials{
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		NotionToken:     os.Getenv("NOTION_TOKEN"),
	}
	if creds.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
	}
	if creds.NotionToken == "" {
		return nil, fmt.Errorf("NOTION_TOKEN is not set")
	}
	return creds, nil
}
