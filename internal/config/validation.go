package config

import (
	"git.home.luguber.info/inful/autocommit/internal/errors"
)

// Validate checks structural invariants. Repository reachability is verified
// by the git gateway at startup, not here.
func (c *Config) Validate() error {
	if c.Repository.Path == "" {
		return errors.ValidationFailed("repository.path", "is required")
	}
	if c.Schedule.BaseIntervalSeconds <= 0 {
		return errors.ValidationFailed("schedule.base_interval_seconds", "must be > 0")
	}
	if c.Schedule.Jitter() < 0 {
		return errors.ValidationFailed("schedule.jitter_seconds", "must be >= 0")
	}
	if c.Schedule.Jitter() >= c.Schedule.BaseIntervalSeconds {
		return errors.ValidationFailed("schedule.jitter_seconds", "must be smaller than base_interval_seconds")
	}
	if c.Push.RetryAttempts < 1 {
		return errors.ValidationFailed("push.retry_attempts", "must be >= 1")
	}
	if c.Push.RetryDelaySeconds < 0 {
		return errors.ValidationFailed("push.retry_delay_seconds", "must be >= 0")
	}
	if c.Daemon.HTTP.Port < 0 || c.Daemon.HTTP.Port > 65535 {
		return errors.ValidationFailed("daemon.http.port", "must be a valid port")
	}
	if c.Daemon.HistoryLimit < 1 {
		return errors.ValidationFailed("daemon.history_limit", "must be >= 1")
	}
	if c.Daemon.Events.Enabled && c.Daemon.Events.URL == "" {
		return errors.ValidationFailed("daemon.events.url", "is required when events are enabled")
	}
	return nil
}
