// Package config loads and validates the autocommit configuration.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/autocommit/internal/errors"
)

// Config represents the application configuration.
type Config struct {
	Repository RepositoryConfig `yaml:"repository"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Commit     CommitConfig     `yaml:"commit"`
	Push       PushConfig       `yaml:"push"`
	Ollama     OllamaConfig     `yaml:"ollama"`
	Daemon     DaemonConfig     `yaml:"daemon"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// RepositoryConfig identifies the working tree managed by the scheduler.
type RepositoryConfig struct {
	Path   string `yaml:"path"`
	Branch string `yaml:"branch,omitempty"`
}

// ScheduleConfig holds the commit cadence parameters.
type ScheduleConfig struct {
	BaseIntervalSeconds int `yaml:"base_interval_seconds"`
	// JitterSeconds is a pointer so that an explicit 0 disables jitter;
	// only an absent key takes the default.
	JitterSeconds *int `yaml:"jitter_seconds"`
}

// Jitter returns the jitter in seconds, falling back to the default when the
// field was never set.
func (s ScheduleConfig) Jitter() int {
	if s.JitterSeconds == nil {
		return DefaultJitterSeconds
	}
	return *s.JitterSeconds
}

// CommitConfig holds commit authorship settings.
type CommitConfig struct {
	AuthorName  string `yaml:"author_name,omitempty"`
	AuthorEmail string `yaml:"author_email,omitempty"`
}

// PushConfig controls the optional post-commit push.
type PushConfig struct {
	Enabled           bool   `yaml:"enabled"`
	Remote            string `yaml:"remote,omitempty"`
	RetryAttempts     int    `yaml:"retry_attempts,omitempty"`
	RetryDelaySeconds int    `yaml:"retry_delay_seconds,omitempty"`
	// Backoff selects the delay strategy between push retries: fixed
	// (default), linear, or exponential.
	Backoff string `yaml:"backoff,omitempty"`
	// Token is the bearer credential used for HTTPS pushes. Reference an
	// environment variable (e.g. "${GIT_PUSH_TOKEN}") rather than a literal;
	// the token is never logged or written back to disk.
	Token string `yaml:"token,omitempty"`
}

// OllamaConfig configures the AI commit-message backend.
type OllamaConfig struct {
	Enabled               bool   `yaml:"enabled"`
	URL                   string `yaml:"url,omitempty"`
	Model                 string `yaml:"model,omitempty"`
	TimeoutSeconds        int    `yaml:"timeout_seconds,omitempty"`
	MaxTokens             int    `yaml:"max_tokens,omitempty"`
	Theme                 string `yaml:"theme,omitempty"`
	SystemPrompt          string `yaml:"system_prompt,omitempty"`
	HealthIntervalSeconds int    `yaml:"health_interval_seconds,omitempty"`
}

// DaemonConfig configures the long-running daemon surface.
type DaemonConfig struct {
	HTTP         HTTPConfig   `yaml:"http"`
	Events       EventsConfig `yaml:"events"`
	HistoryPath  string       `yaml:"history_path,omitempty"`
	HistoryLimit int          `yaml:"history_limit,omitempty"`
}

// HTTPConfig configures the admin/REST listener.
type HTTPConfig struct {
	Port int `yaml:"port,omitempty"`
}

// EventsConfig configures optional NATS publishing of commit attempts.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env if present; existing process env wins.
	_ = godotenv.Load()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, derrors.ConfigNotFound(configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes a YAML document, expands ${VAR} references from the
// environment, applies defaults, and validates.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
