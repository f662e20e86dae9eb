// Package responses defines the API response types used by the HTTP handlers.
package responses

import (
	"time"

	"git.home.luguber.info/inful/autocommit/internal/history"
)

// StatusResponse reports the scheduler's operational state.
type StatusResponse struct {
	Running     bool       `json:"running"`
	Paused      bool       `json:"paused"`
	NextRunAt   *time.Time `json:"next_run_at,omitempty"`
	LastRunAt   *time.Time `json:"last_run_at,omitempty"`
	Repository  string     `json:"repository"`
	Branch      string     `json:"branch,omitempty"`
	AIAvailable bool       `json:"ai_available"`
	Timestamp   time.Time  `json:"timestamp"`
}

// HistoryResponse is a bounded, most-recent-first list of commit attempts.
type HistoryResponse struct {
	Attempts []history.CommitAttempt `json:"attempts"`
	Count    int                     `json:"count"`
}

// StatsResponse combines the aggregate counters with scheduling context.
type StatsResponse struct {
	history.AggregateStats
	CommitTypes map[string]int `json:"commit_types"`
	NextRunAt   *time.Time     `json:"next_run_at,omitempty"`
}

// ControlResponse acknowledges a control action. Attempt is populated for
// trigger actions only.
type ControlResponse struct {
	Status  string                 `json:"status"`
	Action  string                 `json:"action"`
	JobID   string                 `json:"job_id,omitempty"`
	Skipped bool                   `json:"skipped,omitempty"`
	Attempt *history.CommitAttempt `json:"attempt,omitempty"`
}

// ConfigResponse is a sanitized view of the effective configuration.
// Credentials are reported as presence flags, never as values.
type ConfigResponse struct {
	Repository ConfigRepository `json:"repository"`
	Schedule   ConfigSchedule   `json:"schedule"`
	Commit     ConfigCommit     `json:"commit"`
	Push       ConfigPush       `json:"push"`
	Ollama     ConfigOllama     `json:"ollama"`
	Daemon     ConfigDaemon     `json:"daemon"`
	Logging    ConfigLogging    `json:"logging"`
}

type ConfigRepository struct {
	Path   string `json:"path"`
	Branch string `json:"branch,omitempty"`
}

type ConfigSchedule struct {
	BaseIntervalSeconds int `json:"base_interval_seconds"`
	JitterSeconds       int `json:"jitter_seconds"`
}

type ConfigCommit struct {
	AuthorName  string `json:"author_name,omitempty"`
	AuthorEmail string `json:"author_email,omitempty"`
}

type ConfigPush struct {
	Enabled           bool   `json:"enabled"`
	Remote            string `json:"remote,omitempty"`
	RetryAttempts     int    `json:"retry_attempts"`
	RetryDelaySeconds int    `json:"retry_delay_seconds"`
	Backoff           string `json:"backoff"`
	TokenSet          bool   `json:"token_set"`
}

type ConfigOllama struct {
	Enabled        bool   `json:"enabled"`
	URL            string `json:"url,omitempty"`
	Model          string `json:"model,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	Theme          string `json:"theme,omitempty"`
}

type ConfigDaemon struct {
	HTTPPort      int  `json:"http_port"`
	EventsEnabled bool `json:"events_enabled"`
	HistoryLimit  int  `json:"history_limit"`
}

type ConfigLogging struct {
	Level  string `json:"level,omitempty"`
	Format string `json:"format,omitempty"`
}

// HealthResponse represents the health check API response.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Version     string    `json:"version"`
	Uptime      float64   `json:"uptime"`
	AIAvailable bool      `json:"ai_available"`
}
