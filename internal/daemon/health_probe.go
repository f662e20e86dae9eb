package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/autocommit/internal/message"
)

// HealthProbe periodically checks whether the AI backend is reachable and
// publishes the result to the health endpoint and metrics. Attempts do not
// depend on it: an unreachable backend just means template messages.
type HealthProbe struct {
	scheduler gocron.Scheduler
	daemon    *Daemon
	client    *message.OllamaClient
	interval  time.Duration
}

// NewHealthProbe creates a probe that checks the backend every interval.
func NewHealthProbe(d *Daemon, client *message.OllamaClient, interval time.Duration) (*HealthProbe, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create gocron scheduler: %w", err)
	}

	p := &HealthProbe{
		scheduler: s,
		daemon:    d,
		client:    client,
		interval:  interval,
	}

	_, err = s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(p.check),
		gocron.WithName("ollama-health"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return nil, fmt.Errorf("create health check job: %w", err)
	}

	return p, nil
}

// Start begins the probe schedule.
func (p *HealthProbe) Start() {
	slog.Info("Starting AI health probe", slog.Duration("interval", p.interval))
	p.scheduler.Start()
}

// Stop shuts the probe down.
func (p *HealthProbe) Stop() error {
	return p.scheduler.Shutdown()
}

func (p *HealthProbe) check() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	up := p.client.Healthy(ctx)
	was := p.daemon.aiAvailable.Swap(up)
	p.daemon.recorder.SetAIAvailable(up)

	if up != was {
		if up {
			slog.Info("AI backend is reachable")
		} else {
			slog.Warn("AI backend is unreachable, commit messages fall back to templates")
		}
	}
}
