package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/autocommit/internal/config"
	"git.home.luguber.info/inful/autocommit/internal/daemon"
)

// RunCmd implements the 'run' command.
type RunCmd struct{}

func (r *RunCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyLoggingConfig(cfg, root.Verbose)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	d, err := daemon.New(cfg, root.Config)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}

	slog.Info("Daemon starting, press Ctrl+C to stop")
	return d.Run(ctx)
}
