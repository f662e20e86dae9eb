// Package daemon wires the scheduler, orchestrator, HTTP API, config watcher,
// and health probes into one long-running process.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/autocommit/internal/config"
	"git.home.luguber.info/inful/autocommit/internal/events"
	"git.home.luguber.info/inful/autocommit/internal/git"
	"git.home.luguber.info/inful/autocommit/internal/history"
	"git.home.luguber.info/inful/autocommit/internal/logfields"
	"git.home.luguber.info/inful/autocommit/internal/message"
	"git.home.luguber.info/inful/autocommit/internal/metrics"
	"git.home.luguber.info/inful/autocommit/internal/orchestrator"
	"git.home.luguber.info/inful/autocommit/internal/scheduler"
)

// Daemon is the long-running autocommit process.
type Daemon struct {
	config     *config.Config
	configPath string

	gateway      *git.Gateway
	store        history.Store
	publisher    events.Publisher
	recorder     metrics.Recorder
	registry     *prometheus.Registry
	orchestrator *orchestrator.Orchestrator
	core         *scheduler.Core

	httpServer  *HTTPServer
	watcher     *ConfigWatcher
	healthProbe *HealthProbe

	startTime   time.Time
	aiAvailable atomic.Bool
}

// New builds a daemon from configuration. The repository must exist; an
// invalid repository path aborts startup.
func New(cfg *config.Config, configPath string) (*Daemon, error) {
	gateway, err := git.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	store, err := history.NewSQLiteStore(cfg.Daemon.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	registry := prometheus.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)
	gateway.SetPushRetryHook(recorder.IncPushRetry)

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.Daemon.Events.Enabled {
		natsPub, err := events.NewNATSPublisher(cfg)
		if err != nil {
			// Event publishing is best effort; the daemon runs without it.
			slog.Warn("Event publishing unavailable", logfields.Error(err))
		} else {
			publisher = natsPub
		}
	}

	var ai message.AIClient
	var ollama *message.OllamaClient
	if cfg.Ollama.Enabled {
		ollama = message.NewOllamaClient(
			cfg.Ollama.URL,
			cfg.Ollama.Model,
			time.Duration(cfg.Ollama.TimeoutSeconds)*time.Second,
			cfg.Ollama.MaxTokens,
		)
		ai = ollama
	}
	provider := message.NewGenerator(cfg, ai)

	orch := orchestrator.New(cfg, gateway, provider, store, publisher, recorder)
	core := scheduler.New(orch,
		time.Duration(cfg.Schedule.BaseIntervalSeconds)*time.Second,
		time.Duration(cfg.Schedule.Jitter())*time.Second,
		recorder)

	d := &Daemon{
		config:       cfg,
		configPath:   configPath,
		gateway:      gateway,
		store:        store,
		publisher:    publisher,
		recorder:     recorder,
		registry:     registry,
		orchestrator: orch,
		core:         core,
		startTime:    time.Now(),
	}

	d.httpServer = NewHTTPServer(cfg, d)

	if ollama != nil {
		probe, err := NewHealthProbe(d, ollama,
			time.Duration(cfg.Ollama.HealthIntervalSeconds)*time.Second)
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("create health probe: %w", err)
		}
		d.healthProbe = probe
	}

	if configPath != "" {
		watcher, err := NewConfigWatcher(configPath, d)
		if err != nil {
			slog.Warn("Config watcher unavailable", logfields.Error(err))
		} else {
			d.watcher = watcher
		}
	}

	return d, nil
}

// Run starts all components and blocks until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	slog.Info("Daemon starting",
		logfields.Repository(d.config.Repository.Path),
		slog.Int("http_port", d.config.Daemon.HTTP.Port))

	d.core.Start()

	if err := d.httpServer.Start(ctx); err != nil {
		d.core.Stop()
		return fmt.Errorf("start HTTP server: %w", err)
	}

	if d.healthProbe != nil {
		d.healthProbe.Start()
	}
	if d.watcher != nil {
		if err := d.watcher.Start(ctx); err != nil {
			slog.Warn("Failed to start config watcher", logfields.Error(err))
		}
	}

	<-ctx.Done()
	slog.Info("Daemon shutting down")
	return d.shutdown()
}

func (d *Daemon) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if d.watcher != nil {
		d.watcher.Stop()
	}
	if d.healthProbe != nil {
		if err := d.healthProbe.Stop(); err != nil {
			slog.Error("Error stopping health probe", logfields.Error(err))
		}
	}

	d.core.Stop()

	if err := d.httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Error shutting down HTTP server", logfields.Error(err))
	}
	if err := d.publisher.Close(); err != nil {
		slog.Error("Error closing event publisher", logfields.Error(err))
	}
	if err := d.store.Close(); err != nil {
		slog.Error("Error closing history store", logfields.Error(err))
	}

	slog.Info("Daemon stopped")
	return nil
}

// Scheduler exposes the scheduler core for the API handlers.
func (d *Daemon) Scheduler() *scheduler.Core { return d.core }

// Store exposes the history store for the API handlers.
func (d *Daemon) Store() history.Store { return d.store }

// Gateway exposes the repository gateway for the API handlers.
func (d *Daemon) Gateway() *git.Gateway { return d.gateway }

// StartTime returns when the daemon was created.
func (d *Daemon) StartTime() time.Time { return d.startTime }

// AIAvailable reports the last health probe result.
func (d *Daemon) AIAvailable() bool { return d.aiAvailable.Load() }

// ReloadConfig applies a changed configuration. Only the live-updatable
// parameters (interval, jitter, push enable) take effect; everything else
// requires a restart.
func (d *Daemon) ReloadConfig(newCfg *config.Config) error {
	old := d.config

	if newCfg.Repository.Path != old.Repository.Path {
		return fmt.Errorf("repository path changes require a restart")
	}

	if newCfg.Schedule != old.Schedule {
		d.core.UpdateSchedule(
			time.Duration(newCfg.Schedule.BaseIntervalSeconds)*time.Second,
			time.Duration(newCfg.Schedule.Jitter())*time.Second)
	}
	if newCfg.Push.Enabled != old.Push.Enabled {
		d.orchestrator.SetPushEnabled(newCfg.Push.Enabled)
		slog.Info("Push setting updated", slog.Bool("enabled", newCfg.Push.Enabled))
	}

	d.config = newCfg
	return nil
}
