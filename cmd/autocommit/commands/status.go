package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"git.home.luguber.info/inful/autocommit/internal/config"
	"git.home.luguber.info/inful/autocommit/internal/git"
	"git.home.luguber.info/inful/autocommit/internal/server/responses"
)

// StatusCmd implements the 'status' command: a local repository summary plus
// the daemon's schedule when one is reachable.
type StatusCmd struct {
	URL string `help:"Daemon base URL (defaults to the configured HTTP port on localhost)"`
}

func (s *StatusCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	gateway, err := git.Open(cfg)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}

	fmt.Printf("Repository:  %s\n", cfg.Repository.Path)
	if branch, err := gateway.CurrentBranch(); err == nil {
		fmt.Printf("Branch:      %s\n", branch)
	}
	if dirty, err := gateway.HasChanges(); err == nil {
		if dirty {
			fmt.Println("Changes:     pending")
		} else {
			fmt.Println("Changes:     none")
		}
	}
	if msg, err := gateway.LastCommitMessage(); err == nil {
		fmt.Printf("Last commit: %s\n", firstLine(msg))
	}
	if count, err := gateway.CommitCount(); err == nil {
		fmt.Printf("Commits:     %d\n", count)
	}

	baseURL := s.URL
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%d", cfg.Daemon.HTTP.Port)
	}

	status, err := fetchDaemonStatus(baseURL)
	if err != nil {
		fmt.Printf("Daemon:      not running (%s)\n", baseURL)
		return nil
	}

	fmt.Printf("Daemon:      running=%t paused=%t ai=%t\n",
		status.Running, status.Paused, status.AIAvailable)
	if status.NextRunAt != nil {
		fmt.Printf("Next run:    %s (in %s)\n",
			status.NextRunAt.Format(time.RFC3339),
			time.Until(*status.NextRunAt).Round(time.Second))
	}
	if status.LastRunAt != nil {
		fmt.Printf("Last run:    %s\n", status.LastRunAt.Format(time.RFC3339))
	}
	return nil
}

func fetchDaemonStatus(baseURL string) (*responses.StatusResponse, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(baseURL + "/api/status")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}

	var status responses.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode status response: %w", err)
	}
	return &status, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
