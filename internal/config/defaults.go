package config

// Default values applied to unset fields before validation.
const (
	DefaultBaseIntervalSeconds = 600
	DefaultJitterSeconds       = 50
	DefaultRemote              = "origin"
	DefaultPushRetryAttempts   = 3
	DefaultPushRetryDelay      = 30
	DefaultOllamaURL           = "http://localhost:11434"
	DefaultOllamaModel         = "llama3.2:3b"
	DefaultOllamaTimeout       = 30
	DefaultOllamaMaxTokens     = 100
	DefaultHealthInterval      = 300
	DefaultHTTPPort            = 8315
	DefaultHistoryPath         = "autocommit.db"
	DefaultHistoryLimit        = 50
	DefaultEventsSubject       = "autocommit.attempts"
)

// ApplyDefaults fills unset fields with defaults. Zero-valued booleans are
// meaningful (disabled) and left alone.
func (c *Config) ApplyDefaults() {
	if c.Schedule.BaseIntervalSeconds == 0 {
		c.Schedule.BaseIntervalSeconds = DefaultBaseIntervalSeconds
	}
	if c.Schedule.JitterSeconds == nil {
		jitter := DefaultJitterSeconds
		c.Schedule.JitterSeconds = &jitter
	}
	if c.Push.Remote == "" {
		c.Push.Remote = DefaultRemote
	}
	if c.Push.RetryAttempts == 0 {
		c.Push.RetryAttempts = DefaultPushRetryAttempts
	}
	if c.Push.RetryDelaySeconds == 0 {
		c.Push.RetryDelaySeconds = DefaultPushRetryDelay
	}
	if c.Ollama.URL == "" {
		c.Ollama.URL = DefaultOllamaURL
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = DefaultOllamaModel
	}
	if c.Ollama.TimeoutSeconds == 0 {
		c.Ollama.TimeoutSeconds = DefaultOllamaTimeout
	}
	if c.Ollama.MaxTokens == 0 {
		c.Ollama.MaxTokens = DefaultOllamaMaxTokens
	}
	if c.Ollama.HealthIntervalSeconds == 0 {
		c.Ollama.HealthIntervalSeconds = DefaultHealthInterval
	}
	if c.Daemon.HTTP.Port == 0 {
		c.Daemon.HTTP.Port = DefaultHTTPPort
	}
	if c.Daemon.HistoryPath == "" {
		c.Daemon.HistoryPath = DefaultHistoryPath
	}
	if c.Daemon.HistoryLimit == 0 {
		c.Daemon.HistoryLimit = DefaultHistoryLimit
	}
	if c.Daemon.Events.Subject == "" {
		c.Daemon.Events.Subject = DefaultEventsSubject
	}
	if c.Logging.Level == "" {
		c.Logging.Level = string(LogLevelInfo)
	}
	if c.Logging.Format == "" {
		c.Logging.Format = string(LogFormatText)
	}
}
