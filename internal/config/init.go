package config

import (
	"fmt"
	"os"
)

const defaultConfigTemplate = `# autocommit configuration
repository:
  path: .
  # branch: main

schedule:
  base_interval_seconds: 600
  jitter_seconds: 50

commit:
  author_name: ""
  author_email: ""

push:
  enabled: false
  remote: origin
  retry_attempts: 3
  retry_delay_seconds: 30
  # backoff: fixed | linear | exponential
  # token: ${GIT_PUSH_TOKEN}

ollama:
  enabled: true
  url: http://localhost:11434
  model: llama3.2:3b
  timeout_seconds: 30
  max_tokens: 100
  # theme: kubernetes

daemon:
  http:
    port: 8315
  history_path: autocommit.db
  history_limit: 50

logging:
  level: info
  format: text
`

// Init writes a starter configuration file. Existing files are preserved
// unless force is set.
func Init(configPath string, force bool) error {
	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("configuration file %s already exists (use --force to overwrite)", configPath)
		}
	}

	if err := os.WriteFile(configPath, []byte(defaultConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("write configuration file: %w", err)
	}
	return nil
}
