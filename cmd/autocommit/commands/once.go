package commands

import (
	"context"
	"fmt"
	"time"

	"git.home.luguber.info/inful/autocommit/internal/config"
	"git.home.luguber.info/inful/autocommit/internal/events"
	"git.home.luguber.info/inful/autocommit/internal/git"
	"git.home.luguber.info/inful/autocommit/internal/history"
	"git.home.luguber.info/inful/autocommit/internal/message"
	"git.home.luguber.info/inful/autocommit/internal/metrics"
	"git.home.luguber.info/inful/autocommit/internal/orchestrator"
)

// OnceCmd implements the 'once' command: a single attempt without the daemon.
type OnceCmd struct {
	NoHistory bool `help:"Skip recording the attempt in the history database"`
}

func (o *OnceCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyLoggingConfig(cfg, root.Verbose)

	gateway, err := git.Open(cfg)
	if err != nil {
		return fmt.Errorf("open repository: %w", err)
	}

	var store history.Store
	if o.NoHistory {
		store = discardStore{}
	} else {
		sqlStore, err := history.NewSQLiteStore(cfg.Daemon.HistoryPath)
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		defer sqlStore.Close()
		store = sqlStore
	}

	var ai message.AIClient
	if cfg.Ollama.Enabled {
		ai = message.NewOllamaClient(
			cfg.Ollama.URL,
			cfg.Ollama.Model,
			time.Duration(cfg.Ollama.TimeoutSeconds)*time.Second,
			cfg.Ollama.MaxTokens,
		)
	}
	provider := message.NewGenerator(cfg, ai)

	orch := orchestrator.New(cfg, gateway, provider, store, events.NoopPublisher{}, metrics.NoopRecorder{})
	out := orch.RunAttempt(context.Background())

	switch {
	case out.Skipped:
		fmt.Println("Nothing to commit, working tree clean")
	case out.Attempt.Success:
		fmt.Printf("Committed %s: %s (%d files)\n",
			shortHash(out.Attempt.CommitHash), out.Attempt.Message, out.Attempt.FilesChanged)
		if out.Attempt.PushSuccess != nil {
			if *out.Attempt.PushSuccess {
				fmt.Println("Pushed to remote")
			} else {
				fmt.Println("Push failed, commit is local only")
			}
		}
	default:
		return fmt.Errorf("commit attempt failed: %s", out.Attempt.ErrorMessage)
	}
	return nil
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}

// discardStore satisfies history.Store when --no-history is set.
type discardStore struct{}

func (discardStore) Append(context.Context, history.CommitAttempt) (int64, error) { return 0, nil }
func (discardStore) Recent(context.Context, int) ([]history.CommitAttempt, error) {
	return nil, nil
}
func (discardStore) Stats(context.Context) (history.AggregateStats, error) {
	return history.AggregateStats{}, nil
}
func (discardStore) CommitTypes(context.Context) (map[string]int, error) { return nil, nil }
func (discardStore) Close() error                                        { return nil }
